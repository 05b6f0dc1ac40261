// internal/notification/service.go
package notification

import (
	"context"
	"errors"
	"strconv"
	"time"

	"school-pickup/internal/common/aws"
	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"
	"school-pickup/internal/common/metrics"
	"school-pickup/internal/models"
	"school-pickup/internal/pagination"
	"school-pickup/internal/push"
)

const (
	DefaultMarkAllLimit   = 100
	DefaultUserPageLimit  = 20
	channelPush           = "push"
	channelEmail          = "email"
	resultOK, resultError = "ok", "error"
)

// Store persists notifications and recipient read state.
type Store interface {
	CreateWithRecipients(ctx context.Context, n *models.Notification, userIDs []int64) error
	SetExternalID(ctx context.Context, id int64, externalID string, typ models.NotificationType) error
	Get(ctx context.Context, id int64) (*models.Notification, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Notification, error)
	Recipients(ctx context.Context, notificationID int64) ([]models.NotificationRecipient, error)
	Delete(ctx context.Context, id int64) error
	MarkAsRead(ctx context.Context, notificationID, userID int64, at time.Time) (bool, error)
	MarkAllAsRead(ctx context.Context, userID int64, limit int, now time.Time) (int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	ListForUser(ctx context.Context, userID int64, params pagination.Params) (*pagination.Page[models.UserNotification], error)
	ListForAdmin(ctx context.Context, params pagination.Params) (*pagination.Page[models.Notification], error)
}

// Users resolves notification audiences and device registrations.
type Users interface {
	FindTargetUsers(ctx context.Context, target models.NotificationTarget) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	SetPlayerIDs(ctx context.Context, userID int64, ids models.PlayerIDs) error
}

type Options struct {
	SchedulingEnabled bool
	MarkAllLimit      int
	EmailEnabled      bool
	FromEmail         string
}

// Request describes one notification to deliver.
type Request struct {
	Title          string                    `json:"title"`
	Message        string                    `json:"message"`
	NavigationData *models.NavigationData    `json:"navigationData,omitempty"`
	Type           models.NotificationType   `json:"type,omitempty"`
	CreatedByID    *int64                    `json:"createdById,omitempty"`
	ScheduledAt    *time.Time                `json:"scheduledAt,omitempty"`
	Target         models.NotificationTarget `json:"target"`
	Actions        []push.Action             `json:"actions,omitempty"`
	URL            string                    `json:"url,omitempty"`
	ImageURL       string                    `json:"imageUrl,omitempty"`
	CustomData     map[string]interface{}    `json:"customData,omitempty"`
	GroupKey       string                    `json:"groupKey,omitempty"`
}

func (r Request) pushMessage() push.Message {
	return push.Message{
		Title:          r.Title,
		Message:        r.Message,
		URL:            r.URL,
		ImageURL:       r.ImageURL,
		NavigationData: r.NavigationData,
		Actions:        r.Actions,
		CustomData:     r.CustomData,
		GroupKey:       r.GroupKey,
	}
}

// UserNotifications is one page of a user's inbox plus the unread total.
type UserNotifications struct {
	Notifications *pagination.Page[models.UserNotification] `json:"notifications"`
	UnreadCount   int64                                     `json:"unreadCount"`
}

// Service decides who receives a notification, records it and hands it to
// the push gateway.
type Service struct {
	store   Store
	users   Users
	gateway push.Gateway
	mailer  aws.SESAPI
	opts    Options
	now     func() time.Time
	logger  logger.Logger
}

// NewService wires the orchestrator. mailer may be nil when email is disabled.
func NewService(store Store, users Users, gateway push.Gateway, mailer aws.SESAPI, opts Options, log logger.Logger) *Service {
	if opts.MarkAllLimit <= 0 {
		opts.MarkAllLimit = DefaultMarkAllLimit
	}
	return &Service{
		store:   store,
		users:   users,
		gateway: gateway,
		mailer:  mailer,
		opts:    opts,
		now:     time.Now,
		logger:  log.WithFields(map[string]interface{}{"component": "notification"}),
	}
}

// SendNotification records req for every targeted user and pushes it to
// their devices. It returns nil without side effects when the target
// selects nobody. Delivery failures are logged, never returned.
func (s *Service) SendNotification(ctx context.Context, req Request) (*models.Notification, error) {
	if req.Target.Empty() {
		return nil, nil
	}

	users, err := s.users.FindTargetUsers(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		s.logger.Debug("notification target matched no users", map[string]interface{}{"title": req.Title})
		return nil, nil
	}

	now := s.now().UTC()
	n := &models.Notification{
		Title:          req.Title,
		Message:        req.Message,
		NavigationData: req.NavigationData,
		CreatedByID:    req.CreatedByID,
		Type:           req.Type,
		ScheduledAt:    now,
		ForAdmin:       req.Target.Admins,
		CreatedAt:      now,
	}
	if n.Type == "" {
		n.Type = models.NotificationCustom
	}
	future := req.ScheduledAt != nil && req.ScheduledAt.After(now)
	if future {
		n.ScheduledAt = req.ScheduledAt.UTC()
	}

	userIDs := make([]int64, 0, len(users))
	var playerIDs []string
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
		playerIDs = append(playerIDs, u.PlayerIDs...)
	}

	if err := s.store.CreateWithRecipients(ctx, n, userIDs); err != nil {
		return nil, err
	}

	msg := req.pushMessage()
	if future && s.opts.SchedulingEnabled {
		s.schedule(ctx, n, playerIDs, msg)
	} else {
		s.deliver(ctx, n, playerIDs, msg)
	}
	s.emailFallback(ctx, users, req)

	return n, nil
}

func (s *Service) deliver(ctx context.Context, n *models.Notification, playerIDs []string, msg push.Message) {
	if len(playerIDs) == 0 {
		return
	}
	if err := s.gateway.SendToLargeGroup(ctx, playerIDs, msg); err != nil {
		metrics.NotificationsSent.WithLabelValues(channelPush, resultError).Inc()
		s.logger.Error("push delivery failed", map[string]interface{}{
			"notificationId": n.ID,
			"devices":        len(playerIDs),
			"error":          err.Error(),
		})
		return
	}
	metrics.NotificationsSent.WithLabelValues(channelPush, resultOK).Inc()
}

func (s *Service) schedule(ctx context.Context, n *models.Notification, playerIDs []string, msg push.Message) {
	res, err := s.gateway.ScheduleForPlayerIDs(ctx, playerIDs, msg, n.ScheduledAt)
	if err != nil || !res.Success {
		metrics.NotificationsSent.WithLabelValues(channelPush, resultError).Inc()
		fields := map[string]interface{}{"notificationId": n.ID, "scheduledAt": n.ScheduledAt}
		if err != nil {
			fields["error"] = err.Error()
		}
		s.logger.Error("push scheduling failed", fields)
		return
	}
	metrics.NotificationsSent.WithLabelValues(channelPush, resultOK).Inc()

	if err := s.store.SetExternalID(ctx, n.ID, res.ExternalID, models.NotificationScheduled); err != nil {
		s.logger.Error("failed to record scheduled notification id", map[string]interface{}{
			"notificationId": n.ID,
			"externalId":     res.ExternalID,
			"error":          err.Error(),
		})
		return
	}
	n.ExternalID = &res.ExternalID
	n.Type = models.NotificationScheduled
}

func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	ok, err := s.store.MarkAsRead(ctx, notificationID, userID, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewBadRequestError("notification not found for this user")
	}
	return nil
}

// MarkAllAsRead marks up to limit due notifications of the user as read.
// A non-positive limit uses the configured default.
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64, limit int) (int64, error) {
	if limit <= 0 {
		limit = s.opts.MarkAllLimit
	}
	return s.store.MarkAllAsRead(ctx, userID, limit, s.now().UTC())
}

func (s *Service) GetUserNotifications(ctx context.Context, userID int64, params pagination.Params) (*UserNotifications, error) {
	if params.Limit == 0 {
		params.Limit = DefaultUserPageLimit
	}
	page, err := s.store.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserNotifications{Notifications: page, UnreadCount: unread}, nil
}

// CancelScheduledNotification cancels a scheduled push at the gateway and
// removes the local record carrying its id.
func (s *Service) CancelScheduledNotification(ctx context.Context, externalID string) error {
	if err := s.gateway.Cancel(ctx, externalID); err != nil {
		s.logger.Warn("gateway cancel failed", map[string]interface{}{"externalId": externalID, "error": err.Error()})
	}

	n, err := s.store.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if n == nil {
		return apperrors.NewBadRequestError("scheduled notification not found")
	}
	return s.store.Delete(ctx, n.ID)
}

func (s *Service) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	n, err := s.store.Get(ctx, id)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewBadRequestError("notification not found")
	}
	return n, err
}

func (s *Service) GetNotificationRecipients(ctx context.Context, id int64) ([]models.NotificationRecipient, error) {
	recipients, err := s.store.Recipients(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, apperrors.NewBadRequestError("no recipients found for this notification")
	}
	return recipients, nil
}

func (s *Service) DeleteNotification(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, id)
	if apperrors.IsNotFound(err) {
		return apperrors.NewBadRequestError("notification not found")
	}
	return err
}

func (s *Service) ListAdminNotifications(ctx context.Context, params pagination.Params) (*pagination.Page[models.Notification], error) {
	return s.store.ListForAdmin(ctx, params)
}

// RegisterDevice records playerID as the user's newest device and links it
// to the user at the gateway.
func (s *Service) RegisterDevice(ctx context.Context, userID int64, playerID string) error {
	if playerID == "" {
		return nil
	}

	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.SetPlayerIDs(ctx, userID, u.PlayerIDs.Register(playerID)); err != nil {
		return err
	}
	if err := s.gateway.SetExternalUserID(ctx, playerID, userID); err != nil {
		return apperrors.NewBadRequestError("failed to link device to user")
	}
	return nil
}

// SyncUserTags replaces the user's segmentation tags at the gateway with
// the role and school the user currently has. Providers without tag
// support are skipped.
func (s *Service) SyncUserTags(ctx context.Context, userID int64) error {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	tags := map[string]string{"role": string(u.Role)}
	if u.SchoolID != nil {
		tags["schoolId"] = strconv.FormatInt(*u.SchoolID, 10)
	}
	err = s.gateway.UpdateUserTags(ctx, userID, tags)
	if errors.Is(err, push.ErrUnsupported) {
		s.logger.Debug("gateway does not support user tags", map[string]interface{}{"userId": userID})
		return nil
	}
	if err != nil {
		s.logger.Warn("user tag sync failed", map[string]interface{}{"userId": userID, "error": err.Error()})
		return apperrors.NewBadRequestError("failed to sync user tags")
	}
	return nil
}
