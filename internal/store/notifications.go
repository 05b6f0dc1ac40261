// internal/store/notifications.go
package store

import (
	"context"
	"errors"
	"time"

	"school-pickup/internal/common/database"
	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/models"
	"school-pickup/internal/pagination"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const notificationColumns = `id, title, message, navigation_data, created_by_id, type,
	scheduled_at, for_admin, external_id, created_at`

const insertNotificationSQL = `
	INSERT INTO notifications (
		title, message, navigation_data, created_by_id, type, scheduled_at, for_admin, external_id, created_at
	) VALUES (
		:title, :message, :navigation_data, :created_by_id, :type, :scheduled_at, :for_admin, :external_id, :created_at
	) RETURNING id`

var userNotificationColumns = []string{
	"n.id", "n.title", "n.message", "n.navigation_data", "n.created_by_id", "n.type",
	"n.scheduled_at", "n.for_admin", "n.external_id", "n.created_at",
	"r.id AS recipient_id", "r.is_read", "r.read_at",
}

type notificationRow struct {
	pagination.Counted
	models.Notification
}

type userNotificationRow struct {
	pagination.Counted
	models.UserNotification
}

// NotificationStore persists notifications and their per-user recipient rows.
type NotificationStore struct {
	pg       *database.PostgresClient
	basePath string
}

func NewNotificationStore(pg *database.PostgresClient, basePath string) *NotificationStore {
	return &NotificationStore{pg: pg, basePath: basePath}
}

// CreateWithRecipients inserts n and one unread recipient row per user in a
// single transaction. n.ID is set on success.
func (s *NotificationStore) CreateWithRecipients(ctx context.Context, n *models.Notification, userIDs []int64) error {
	return s.pg.WithTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := sqlx.Named(insertNotificationSQL, n)
		if err != nil {
			return apperrors.NewDatabaseInsertFailedError(err)
		}
		if err := tx.QueryRowxContext(ctx, tx.Rebind(query), args...).Scan(&n.ID); err != nil {
			return apperrors.NewDatabaseInsertFailedError(err)
		}
		if len(userIDs) == 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notification_recipients (notification_id, user_id, is_read)
			SELECT $1, unnest($2::bigint[]), FALSE`, n.ID, pq.Array(userIDs))
		if err != nil {
			return apperrors.NewDatabaseInsertFailedError(err)
		}
		return nil
	})
}

// SetExternalID records the gateway id of a scheduled notification.
func (s *NotificationStore) SetExternalID(ctx context.Context, id int64, externalID string, typ models.NotificationType) error {
	_, err := s.pg.X.ExecContext(ctx,
		`UPDATE notifications SET external_id = $2, type = $3 WHERE id = $1`, id, externalID, typ)
	if err != nil {
		return queryErr("set notification external id", err)
	}
	return nil
}

func (s *NotificationStore) Get(ctx context.Context, id int64) (*models.Notification, error) {
	var n models.Notification
	err := s.pg.X.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if isNoRows(err) {
		return nil, apperrors.NewNotFoundError("notification", id)
	}
	if err != nil {
		return nil, queryErr("get notification", err)
	}
	return &n, nil
}

// FindByExternalID returns nil when no notification carries the gateway id.
func (s *NotificationStore) FindByExternalID(ctx context.Context, externalID string) (*models.Notification, error) {
	var n models.Notification
	err := s.pg.X.GetContext(ctx, &n,
		`SELECT `+notificationColumns+` FROM notifications WHERE external_id = $1 LIMIT 1`, externalID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr("find notification by external id", err)
	}
	return &n, nil
}

func (s *NotificationStore) Recipients(ctx context.Context, notificationID int64) ([]models.NotificationRecipient, error) {
	var out []models.NotificationRecipient
	err := s.pg.X.SelectContext(ctx, &out, `
		SELECT id, notification_id, user_id, is_read, read_at
		FROM notification_recipients WHERE notification_id = $1 ORDER BY id`, notificationID)
	if err != nil {
		return nil, queryErr("list notification recipients", err)
	}
	return out, nil
}

// Delete removes a notification and its recipient rows.
func (s *NotificationStore) Delete(ctx context.Context, id int64) error {
	return s.pg.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notification_recipients WHERE notification_id = $1`, id); err != nil {
			return queryErr("delete notification recipients", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
		if err != nil {
			return queryErr("delete notification", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.NewNotFoundError("notification", id)
		}
		return nil
	})
}

// MarkAsRead flags the recipient row of (notificationID, userID). It reports
// false when no such row exists.
func (s *NotificationStore) MarkAsRead(ctx context.Context, notificationID, userID int64, at time.Time) (bool, error) {
	res, err := s.pg.X.ExecContext(ctx, `
		UPDATE notification_recipients SET is_read = TRUE, read_at = $3
		WHERE notification_id = $1 AND user_id = $2`, notificationID, userID, at)
	if err != nil {
		return false, queryErr("mark notification read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, queryErr("mark notification read", err)
	}
	return n > 0, nil
}

// MarkAllAsRead flags up to limit of the newest unread rows of a user whose
// notification is already due at now.
func (s *NotificationStore) MarkAllAsRead(ctx context.Context, userID int64, limit int, now time.Time) (int64, error) {
	res, err := s.pg.X.ExecContext(ctx, `
		UPDATE notification_recipients SET is_read = TRUE, read_at = $3
		WHERE id IN (
			SELECT r.id FROM notification_recipients r
			JOIN notifications n ON n.id = r.notification_id
			WHERE r.user_id = $1 AND r.is_read = FALSE AND n.scheduled_at <= $3
			ORDER BY r.id DESC
			LIMIT $2
		)`, userID, limit, now)
	if err != nil {
		return 0, queryErr("mark all notifications read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, queryErr("mark all notifications read", err)
	}
	return n, nil
}

func (s *NotificationStore) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.pg.X.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notification_recipients WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, queryErr("count unread notifications", err)
	}
	return count, nil
}

// ListForUser pages the notifications a user received, newest scheduled first.
func (s *NotificationStore) ListForUser(ctx context.Context, userID int64, params pagination.Params) (*pagination.Page[models.UserNotification], error) {
	q := pagination.NewQuery("notifications", "n").
		Select(userNotificationColumns...).
		Join("JOIN notification_recipients r ON r.notification_id = n.id").
		Where("r.user_id = ?", userID)

	params.SortBy, params.SortOrder = "scheduledAt", pagination.DESC
	page, err := pagination.Paginate[userNotificationRow](ctx, s.pg.X, q, params, pagination.Options{
		BasePath:     s.basePath,
		DefaultOrder: pagination.DESC,
	})
	if err != nil {
		return nil, queryErr("list user notifications", err)
	}
	return pagination.Map(page, func(r userNotificationRow) models.UserNotification { return r.UserNotification }), nil
}

// ListForAdmin pages notifications flagged for school administrators.
func (s *NotificationStore) ListForAdmin(ctx context.Context, params pagination.Params) (*pagination.Page[models.Notification], error) {
	q := pagination.NewQuery("notifications", "n").
		Select(userNotificationColumns[:10]...).
		Where("n.for_admin = TRUE")

	page, err := pagination.Paginate[notificationRow](ctx, s.pg.X, q, params, pagination.Options{
		BasePath:          s.basePath,
		DefaultSortColumn: "createdAt",
		DefaultOrder:      pagination.DESC,
		Sortable:          []string{"n.id", "n.title", "n.type", "n.created_at", "n.scheduled_at"},
	})
	if errors.Is(err, pagination.ErrInvalidSort) {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	if err != nil {
		return nil, queryErr("list admin notifications", err)
	}
	return pagination.Map(page, func(r notificationRow) models.Notification { return r.Notification }), nil
}
