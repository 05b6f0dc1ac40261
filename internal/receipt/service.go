// internal/receipt/service.go
package receipt

import (
	"context"
	"strings"
	"time"

	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"
	"school-pickup/internal/common/metrics"
	"school-pickup/internal/models"
	"school-pickup/internal/notification"
	"school-pickup/internal/pagination"
	"school-pickup/internal/realtime"
)

// Store persists receipt requests.
type Store interface {
	Get(ctx context.Context, id int64) (*models.ReceiptRequest, error)
	Insert(ctx context.Context, r *models.ReceiptRequest) error
	Save(ctx context.Context, r *models.ReceiptRequest) error
	IncrementReminder(ctx context.Context, id int64, at time.Time) (int, error)
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	FindFastRequest(ctx context.Context, studentID int64, from, to time.Time) (*models.ReceiptRequest, error)
	GetView(ctx context.Context, id int64) (*models.ReceiptRequestView, error)
	FindLatest(ctx context.Context, scope models.RequestScope, status models.RequestStatus) (*models.ReceiptRequestView, error)
	List(ctx context.Context, filter models.ReceiptFilter, params pagination.Params) (*pagination.Page[models.ReceiptRequestView], error)
}

// Directory reads the students, schools and delivery persons requests refer to.
type Directory interface {
	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	DeliveryPersonExists(ctx context.Context, id int64) (bool, error)
	DeactivateSchool(ctx context.Context, schoolID int64) error
}

type Subscriptions interface {
	IsSchoolSubscriptionActive(ctx context.Context, schoolID int64) (bool, error)
}

type Notifier interface {
	SendNotification(ctx context.Context, req notification.Request) (*models.Notification, error)
}

type Publisher interface {
	Trigger(ctx context.Context, channel, event string, data interface{}) error
}

type Options struct {
	Location         *time.Location
	FastWindowBefore time.Duration
	FastWindowAfter  time.Duration
}

// CreateInput is a new pickup request.
type CreateInput struct {
	StudentID          int64                     `json:"studentId"`
	Date               *time.Time                `json:"date,omitempty"`
	RequestReason      *string                   `json:"requestReason,omitempty"`
	HowToReceive       models.HowToReceive       `json:"howToReceive"`
	DeliveryPersonType models.DeliveryPersonType `json:"deliveryPersonType,omitempty"`
	NumberOfCar        *string                   `json:"numberOfCar,omitempty"`
	Location           *string                   `json:"location,omitempty"`
	DeliveryID         *int64                    `json:"deliveryId,omitempty"`
}

// UpdateInput patches a request. Nil fields are left unchanged.
type UpdateInput struct {
	StudentID          *int64                     `json:"studentId,omitempty"`
	Date               *time.Time                 `json:"date,omitempty"`
	RequestReason      *string                    `json:"requestReason,omitempty"`
	HowToReceive       *models.HowToReceive       `json:"howToReceive,omitempty"`
	DeliveryPersonType *models.DeliveryPersonType `json:"deliveryPersonType,omitempty"`
	NumberOfCar        *string                    `json:"numberOfCar,omitempty"`
	Location           *string                    `json:"location,omitempty"`
	DeliveryID         *int64                     `json:"deliveryId,omitempty"`
}

type StatusChange struct {
	Status             models.RequestStatus `json:"status"`
	CancellationReason string               `json:"cancellationReason,omitempty"`
}

// Service runs the receipt request lifecycle. Notifications and realtime
// events are side effects: their failures are logged and never undo or fail
// the state change.
type Service struct {
	store         Store
	directory     Directory
	subscriptions Subscriptions
	notifier      Notifier
	publisher     Publisher
	opts          Options
	now           func() time.Time
	logger        logger.Logger
}

func NewService(store Store, directory Directory, subscriptions Subscriptions, notifier Notifier, publisher Publisher, opts Options, log logger.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.FastWindowBefore == 0 {
		opts.FastWindowBefore = 10 * time.Minute
	}
	if opts.FastWindowAfter == 0 {
		opts.FastWindowAfter = 60 * time.Minute
	}
	return &Service{
		store:         store,
		directory:     directory,
		subscriptions: subscriptions,
		notifier:      notifier,
		publisher:     publisher,
		opts:          opts,
		now:           time.Now,
		logger:        log.WithFields(map[string]interface{}{"component": "receipt"}),
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor models.Actor) (*models.ReceiptRequestView, error) {
	studentID := in.StudentID
	if actor.Role == models.RoleStudent {
		studentID = actor.StudentID
	}

	student, err := s.directory.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchoolActive(ctx, student); err != nil {
		return nil, err
	}
	in.DeliveryID = deliveryRef(in.DeliveryID)
	if err := s.ensureDeliveryPerson(ctx, in.DeliveryID); err != nil {
		return nil, err
	}
	if in.HowToReceive != "" && !in.HowToReceive.Valid() {
		return nil, apperrors.NewBadRequestError("invalid howToReceive value")
	}
	if in.HowToReceive == models.ReceiveByCar && isBlank(in.NumberOfCar) {
		return nil, apperrors.NewBadRequestError("numberOfCar is required when receiving by car")
	}

	now := s.now().UTC()
	r := &models.ReceiptRequest{
		StudentID:          student.ID,
		Date:               now,
		RequestReason:      in.RequestReason,
		HowToReceive:       in.HowToReceive,
		DeliveryPersonType: in.DeliveryPersonType,
		NumberOfCar:        in.NumberOfCar,
		Location:           in.Location,
		DeliveryID:         in.DeliveryID,
		Status:             models.StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if in.Date != nil {
		r.Date = in.Date.UTC()
	}
	if r.DeliveryPersonType == "" {
		r.DeliveryPersonType = models.DeliveredByParent
		if r.DeliveryID != nil {
			r.DeliveryPersonType = models.DeliveredByDeliveryPerson
		}
	}

	if err := s.store.Insert(ctx, r); err != nil {
		return nil, err
	}
	metrics.ReceiptStatusTransitions.WithLabelValues(string(models.StatusPending), string(actor.Role)).Inc()

	view, err := s.store.GetView(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	if view.Student.School.UserID != nil {
		s.publish(ctx, view.Student.School.ID, view)
	}
	return view, nil
}

// ensureSchoolActive rejects students of inactive schools. A school whose
// subscription lapsed is switched to INACTIVE before the rejection.
func (s *Service) ensureSchoolActive(ctx context.Context, student *models.Student) error {
	if student.School.Status == models.SchoolInactive {
		return apperrors.NewBadRequestError("the school is inactive")
	}

	active, err := s.subscriptions.IsSchoolSubscriptionActive(ctx, student.SchoolID)
	if err != nil {
		return err
	}
	if active {
		return nil
	}

	if err := s.directory.DeactivateSchool(ctx, student.SchoolID); err != nil {
		s.logger.Error("failed to deactivate school", map[string]interface{}{
			"schoolId": student.SchoolID,
			"error":    err.Error(),
		})
	}
	return apperrors.NewBadRequestError("the school subscription is not active")
}

// deliveryRef treats a zero delivery person id as absent.
func deliveryRef(id *int64) *int64 {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

func (s *Service) ensureDeliveryPerson(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	ok, err := s.directory.DeliveryPersonExists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewNotFoundError("delivery person", *id)
	}
	return nil
}

// FindAll lists the requests visible to actor. Date bounds are whole UTC
// days and apply only when both are given.
func (s *Service) FindAll(ctx context.Context, filter models.ReceiptFilter, params pagination.Params, actor models.Actor) (*pagination.Page[models.ReceiptRequestView], error) {
	filter.Scope = models.ScopeFor(actor)
	if filter.From != nil && filter.To != nil {
		from := startOfDay(*filter.From, time.UTC)
		to := startOfDay(*filter.To, time.UTC).Add(24*time.Hour - time.Millisecond)
		filter.From, filter.To = &from, &to
	} else {
		filter.From, filter.To = nil, nil
	}
	return s.store.List(ctx, filter, params)
}

func (s *Service) FindOne(ctx context.Context, id int64) (*models.ReceiptRequestView, error) {
	return s.store.GetView(ctx, id)
}

// Update applies a patch and re-checks the invariants Create enforces on
// the merged record.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*models.ReceiptRequestView, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.StudentID != nil {
		student, err := s.directory.GetStudent(ctx, *in.StudentID)
		if err != nil {
			return nil, err
		}
		if student.ID != r.StudentID {
			if err := s.ensureSchoolActive(ctx, student); err != nil {
				return nil, err
			}
		}
		r.StudentID = student.ID
	}
	in.DeliveryID = deliveryRef(in.DeliveryID)
	if err := s.ensureDeliveryPerson(ctx, in.DeliveryID); err != nil {
		return nil, err
	}

	if in.Date != nil {
		r.Date = in.Date.UTC()
	}
	if in.RequestReason != nil {
		r.RequestReason = in.RequestReason
	}
	if in.HowToReceive != nil {
		if !in.HowToReceive.Valid() {
			return nil, apperrors.NewBadRequestError("invalid howToReceive value")
		}
		r.HowToReceive = *in.HowToReceive
	}
	if in.DeliveryPersonType != nil {
		r.DeliveryPersonType = *in.DeliveryPersonType
	}
	if in.NumberOfCar != nil {
		r.NumberOfCar = in.NumberOfCar
	}
	if in.Location != nil {
		r.Location = in.Location
	}
	if in.DeliveryID != nil {
		r.DeliveryID = in.DeliveryID
	}
	if r.HowToReceive == models.ReceiveByCar && isBlank(r.NumberOfCar) {
		return nil, apperrors.NewBadRequestError("numberOfCar is required when receiving by car")
	}

	r.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, r); err != nil {
		return nil, err
	}
	return s.store.GetView(ctx, id)
}

// Remove soft deletes a request.
func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.store.SoftDelete(ctx, id, s.now().UTC())
}

func (s *Service) publish(ctx context.Context, schoolID int64, data interface{}) {
	channel := realtime.SchoolChannel(schoolID)
	if err := s.publisher.Trigger(ctx, channel, realtime.EventNewRequest, data); err != nil {
		s.logger.Warn("realtime publish failed", map[string]interface{}{
			"channel": channel,
			"error":   err.Error(),
		})
	}
}

func (s *Service) notify(ctx context.Context, req notification.Request) {
	if _, err := s.notifier.SendNotification(ctx, req); err != nil {
		s.logger.Error("notification failed", map[string]interface{}{
			"title":   req.Title,
			"userIds": req.Target.UserIDs,
			"error":   err.Error(),
		})
	}
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
