// internal/store/receipts.go
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"school-pickup/internal/common/database"
	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/models"
	"school-pickup/internal/pagination"

	"github.com/jmoiron/sqlx"
)

const receiptColumns = `id, student_id, date, request_reason, how_to_receive, delivery_person_type,
	number_of_car, location, delivery_id, status, cancellation_reason, cancelled_at,
	reminder_count, created_at, updated_at, deleted_at`

const insertReceiptSQL = `
	INSERT INTO req_for_receipts (
		student_id, date, request_reason, how_to_receive, delivery_person_type,
		number_of_car, location, delivery_id, status, reminder_count, created_at, updated_at
	) VALUES (
		:student_id, :date, :request_reason, :how_to_receive, :delivery_person_type,
		:number_of_car, :location, :delivery_id, :status, :reminder_count, :created_at, :updated_at
	) RETURNING id`

const updateReceiptSQL = `
	UPDATE req_for_receipts SET
		student_id = :student_id,
		date = :date,
		request_reason = :request_reason,
		how_to_receive = :how_to_receive,
		delivery_person_type = :delivery_person_type,
		number_of_car = :number_of_car,
		location = :location,
		delivery_id = :delivery_id,
		status = :status,
		cancellation_reason = :cancellation_reason,
		cancelled_at = :cancelled_at,
		reminder_count = :reminder_count,
		updated_at = :updated_at
	WHERE id = :id AND deleted_at IS NULL`

var receiptViewColumns = []string{
	"r.id", "r.date", "r.how_to_receive", "r.number_of_car", "r.location", "r.status",
	"r.cancellation_reason", "r.cancelled_at", "r.request_reason", "r.reminder_count",
	"s.id AS student_id",
	"COALESCE(s.full_name, '') AS student_full_name",
	"s.profile_image AS student_profile_image",
	"s.code AS student_code",
	"s.class AS student_class",
	"s.stage AS student_stage",
	"sc.id AS school_id",
	"sc.name AS school_name",
	"sc.logo AS school_logo",
	"(SELECT su.id FROM users su WHERE su.role = 'SCHOOL' AND su.school_id = sc.id AND su.deleted_at IS NULL ORDER BY su.id LIMIT 1) AS school_user_id",
	"p.id AS parent_id",
	"p.full_name AS parent_full_name",
	"p.user_id AS parent_user_id",
	"d.id AS delivery_id",
	"d.full_name AS delivery_full_name",
	"d.profile_image AS delivery_profile_image",
	"du.id AS delivery_user_id",
	"du.email AS delivery_email",
	"du.phone_number AS delivery_phone_number",
}

// receiptRow is one joined receipt request as selected by receiptViewColumns.
type receiptRow struct {
	pagination.Counted
	ID                 int64                `db:"id"`
	Date               time.Time            `db:"date"`
	HowToReceive       models.HowToReceive  `db:"how_to_receive"`
	NumberOfCar        *string              `db:"number_of_car"`
	Location           *string              `db:"location"`
	Status             models.RequestStatus `db:"status"`
	CancellationReason *string              `db:"cancellation_reason"`
	CancelledAt        *time.Time           `db:"cancelled_at"`
	RequestReason      *string              `db:"request_reason"`
	ReminderCount      int                  `db:"reminder_count"`

	StudentID    int64   `db:"student_id"`
	StudentName  string  `db:"student_full_name"`
	StudentImage *string `db:"student_profile_image"`
	StudentCode  *string `db:"student_code"`
	StudentClass *string `db:"student_class"`
	StudentStage *string `db:"student_stage"`

	SchoolID     int64   `db:"school_id"`
	SchoolName   string  `db:"school_name"`
	SchoolLogo   *string `db:"school_logo"`
	SchoolUserID *int64  `db:"school_user_id"`

	ParentID     *int64  `db:"parent_id"`
	ParentName   *string `db:"parent_full_name"`
	ParentUserID *int64  `db:"parent_user_id"`

	DeliveryID     *int64  `db:"delivery_id"`
	DeliveryName   *string `db:"delivery_full_name"`
	DeliveryImage  *string `db:"delivery_profile_image"`
	DeliveryUserID *int64  `db:"delivery_user_id"`
	DeliveryEmail  *string `db:"delivery_email"`
	DeliveryPhone  *string `db:"delivery_phone_number"`
}

func (r receiptRow) view() models.ReceiptRequestView {
	v := models.ReceiptRequestView{
		ID:                 r.ID,
		Date:               r.Date,
		HowToReceive:       r.HowToReceive,
		NumberOfCar:        r.NumberOfCar,
		Location:           r.Location,
		Status:             r.Status,
		CancellationReason: r.CancellationReason,
		CancelledAt:        r.CancelledAt,
		RequestReason:      r.RequestReason,
		ReminderCount:      r.ReminderCount,
		Student: models.StudentView{
			ID:           r.StudentID,
			FullName:     r.StudentName,
			ProfileImage: r.StudentImage,
			Code:         r.StudentCode,
			Class:        r.StudentClass,
			Stage:        r.StudentStage,
			School: models.SchoolView{
				ID:     r.SchoolID,
				Name:   r.SchoolName,
				Logo:   r.SchoolLogo,
				UserID: r.SchoolUserID,
			},
		},
	}
	if r.ParentID != nil {
		v.Student.Parent = &models.ParentView{
			ID:       *r.ParentID,
			FullName: deref(r.ParentName),
			UserID:   r.ParentUserID,
		}
	}
	if r.DeliveryID != nil {
		dp := &models.DeliveryPersonView{
			ID:           *r.DeliveryID,
			FullName:     deref(r.DeliveryName),
			ProfileImage: r.DeliveryImage,
		}
		if r.DeliveryUserID != nil {
			dp.User = models.DeliveryUserView{
				ID:          *r.DeliveryUserID,
				Email:       r.DeliveryEmail,
				PhoneNumber: r.DeliveryPhone,
			}
		}
		v.DeliveryPerson = dp
	}
	return v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ReceiptStore persists receipt requests in req_for_receipts.
type ReceiptStore struct {
	pg       *database.PostgresClient
	basePath string
}

// NewReceiptStore builds a store whose listing links are rooted at basePath.
func NewReceiptStore(pg *database.PostgresClient, basePath string) *ReceiptStore {
	return &ReceiptStore{pg: pg, basePath: basePath}
}

func (s *ReceiptStore) viewQuery() *pagination.Query {
	return pagination.NewQuery("req_for_receipts", "r").
		Select(receiptViewColumns...).
		Join("JOIN students s ON s.id = r.student_id").
		Join("JOIN schools sc ON sc.id = s.school_id").
		Join("LEFT JOIN parents p ON p.id = s.parent_id").
		Join("LEFT JOIN delivery_persons d ON d.id = r.delivery_id").
		Join("LEFT JOIN users du ON du.id = d.user_id").
		Where("r.deleted_at IS NULL")
}

func applyScope(q *pagination.Query, scope models.RequestScope) {
	if scope.ParentID != 0 {
		q.Where("s.parent_id = ?", scope.ParentID)
	}
	if scope.SchoolID != 0 {
		q.Where("s.school_id = ?", scope.SchoolID)
	}
	if scope.StudentID != 0 {
		q.Where("r.student_id = ?", scope.StudentID)
	}
	if scope.DeliveryPersonID != 0 {
		q.Where("r.delivery_id = ?", scope.DeliveryPersonID)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Get returns the stored row, ignoring soft-deleted requests.
func (s *ReceiptStore) Get(ctx context.Context, id int64) (*models.ReceiptRequest, error) {
	var r models.ReceiptRequest
	err := s.pg.X.GetContext(ctx, &r,
		`SELECT `+receiptColumns+` FROM req_for_receipts WHERE id = $1 AND deleted_at IS NULL`, id)
	if isNoRows(err) {
		return nil, apperrors.NewNotFoundError("receipt request", id)
	}
	if err != nil {
		return nil, queryErr("get receipt request", err)
	}
	return &r, nil
}

// Insert stores r and sets its ID.
func (s *ReceiptStore) Insert(ctx context.Context, r *models.ReceiptRequest) error {
	query, args, err := sqlx.Named(insertReceiptSQL, r)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	if err := s.pg.X.QueryRowxContext(ctx, s.pg.X.Rebind(query), args...).Scan(&r.ID); err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// Save writes every mutable column of r.
func (s *ReceiptStore) Save(ctx context.Context, r *models.ReceiptRequest) error {
	res, err := s.pg.X.NamedExecContext(ctx, updateReceiptSQL, r)
	if err != nil {
		return queryErr("update receipt request", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("receipt request", r.ID)
	}
	return nil
}

// IncrementReminder bumps reminder_count and moves the request date to at.
// It returns the new count.
func (s *ReceiptStore) IncrementReminder(ctx context.Context, id int64, at time.Time) (int, error) {
	var count int
	err := s.pg.X.QueryRowxContext(ctx, `
		UPDATE req_for_receipts
		SET reminder_count = reminder_count + 1, date = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING reminder_count`, id, at).Scan(&count)
	if isNoRows(err) {
		return 0, apperrors.NewNotFoundError("receipt request", id)
	}
	if err != nil {
		return 0, queryErr("increment reminder", err)
	}
	return count, nil
}

// SoftDelete tombstones the request.
func (s *ReceiptStore) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	res, err := s.pg.X.ExecContext(ctx,
		`UPDATE req_for_receipts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return queryErr("delete receipt request", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("receipt request", id)
	}
	return nil
}

// FindFastRequest returns the newest FAST_REQUEST of a student dated in [from, to).
func (s *ReceiptStore) FindFastRequest(ctx context.Context, studentID int64, from, to time.Time) (*models.ReceiptRequest, error) {
	var r models.ReceiptRequest
	err := s.pg.X.GetContext(ctx, &r, `
		SELECT `+receiptColumns+` FROM req_for_receipts
		WHERE student_id = $1 AND status = $2 AND date >= $3 AND date < $4 AND deleted_at IS NULL
		ORDER BY date DESC LIMIT 1`,
		studentID, models.StatusFastRequest, from, to)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr("find fast request", err)
	}
	return &r, nil
}

// GetView loads the formatted request with its student, school, parent and delivery person.
func (s *ReceiptStore) GetView(ctx context.Context, id int64) (*models.ReceiptRequestView, error) {
	query, args := s.viewQuery().Where("r.id = ?", id).SQL("", 0)

	var row receiptRow
	err := s.pg.X.GetContext(ctx, &row, s.pg.X.Rebind(query), args...)
	if isNoRows(err) {
		return nil, apperrors.NewNotFoundError("receipt request", id)
	}
	if err != nil {
		return nil, queryErr("get receipt request view", err)
	}
	v := row.view()
	return &v, nil
}

// FindLatest returns the most recently created request in scope, optionally
// restricted to one status. It returns nil when there is none.
func (s *ReceiptStore) FindLatest(ctx context.Context, scope models.RequestScope, status models.RequestStatus) (*models.ReceiptRequestView, error) {
	q := s.viewQuery()
	applyScope(q, scope)
	if status != "" {
		q.Where("r.status = ?", status)
	}
	query, args := q.SQL("r.created_at DESC", 1)

	var row receiptRow
	err := s.pg.X.GetContext(ctx, &row, s.pg.X.Rebind(query), args...)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr("find latest receipt request", err)
	}
	v := row.view()
	return &v, nil
}

var receiptSortable = []string{
	"r.id", "r.date", "r.status", "r.how_to_receive", "r.created_at", "r.updated_at",
	"r.reminder_count", "s.full_name", "s.code",
}

// List returns one page of formatted requests matching filter.
func (s *ReceiptStore) List(ctx context.Context, filter models.ReceiptFilter, params pagination.Params) (*pagination.Page[models.ReceiptRequestView], error) {
	q := s.viewQuery()
	applyScope(q, filter.Scope)

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		pattern := "%" + likeEscaper.Replace(kw) + "%"
		q.Where("(s.full_name ILIKE ? OR s.code ILIKE ? OR r.number_of_car ILIKE ?)", pattern, pattern, pattern)
	}
	if filter.StudentID != 0 {
		q.Where("r.student_id = ?", filter.StudentID)
	}
	if filter.DeliveryID != 0 {
		q.Where("r.delivery_id = ?", filter.DeliveryID)
	}
	if filter.HowToReceive != "" {
		q.Where("r.how_to_receive = ?", filter.HowToReceive)
	}
	if filter.Status != "" {
		q.Where("r.status = ?", filter.Status)
	}
	if filter.From != nil && filter.To != nil {
		q.Where("r.date BETWEEN ? AND ?", *filter.From, *filter.To)
	}

	page, err := pagination.Paginate[receiptRow](ctx, s.pg.X, q, params, pagination.Options{
		BasePath:          s.basePath,
		DefaultSortColumn: "createdAt",
		DefaultOrder:      pagination.DESC,
		Sortable:          receiptSortable,
	})
	if errors.Is(err, pagination.ErrInvalidSort) {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	if err != nil {
		return nil, queryErr("list receipt requests", err)
	}
	return pagination.Map(page, receiptRow.view), nil
}
