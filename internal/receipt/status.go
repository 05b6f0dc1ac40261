// internal/receipt/status.go
package receipt

import (
	"context"
	"fmt"
	"strings"

	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/metrics"
	"school-pickup/internal/models"
	"school-pickup/internal/notification"
)

const receiptScreen = "receiptRequests"

// recipient picks one user to notify out of a formatted request.
type recipient func(v *models.ReceiptRequestView) *int64

func parentUser(v *models.ReceiptRequestView) *int64 {
	if v.Student.Parent == nil {
		return nil
	}
	return v.Student.Parent.UserID
}

func schoolUser(v *models.ReceiptRequestView) *int64 {
	return v.Student.School.UserID
}

func deliveryUser(v *models.ReceiptRequestView) *int64 {
	if v.DeliveryPerson == nil || v.DeliveryPerson.User.ID == 0 {
		return nil
	}
	return &v.DeliveryPerson.User.ID
}

type statusNotice struct {
	title      string
	message    string // formatted with the student's full name
	recipients []recipient
}

// statusNotices lists who hears about each status change. Statuses without
// an entry notify nobody.
var statusNotices = map[models.RequestStatus]statusNotice{
	models.StatusApproved: {
		title:      "Pickup request approved",
		message:    "The pickup request for student %s has been approved",
		recipients: []recipient{parentUser},
	},
	models.StatusWaitingOutside: {
		title:      "Parent is waiting for you",
		message:    "The parent of student %s is waiting outside to pick them up",
		recipients: []recipient{schoolUser},
	},
	models.StatusDelivered: {
		title:      "Student picked up",
		message:    "Student %s has been picked up successfully",
		recipients: []recipient{parentUser, schoolUser},
	},
	models.StatusCancelled: {
		title:      "Pickup request cancelled",
		message:    "The pickup request for student %s has been cancelled",
		recipients: []recipient{parentUser, deliveryUser, schoolUser},
	},
}

// recipientIDs resolves the recipients of a notice, skipping missing users
// and duplicates.
func (n statusNotice) recipientIDs(v *models.ReceiptRequestView) []int64 {
	seen := make(map[int64]bool, len(n.recipients))
	var ids []int64
	for _, pick := range n.recipients {
		id := pick(v)
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		ids = append(ids, *id)
	}
	return ids
}

func navigationTo(id int64) *models.NavigationData {
	return &models.NavigationData{Screen: receiptScreen, Params: map[string]interface{}{"id": id}}
}

// UpdateStatus moves a request to change.Status. Only a SCHOOL actor may
// touch a request that is PENDING or terminal.
func (s *Service) UpdateStatus(ctx context.Context, id int64, change StatusChange, actor models.Actor) (*models.ReceiptRequestView, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsSchool() && (r.Status == models.StatusPending || r.Status.Terminal()) {
		return nil, apperrors.NewUnauthorizedError(
			fmt.Sprintf("only the school can change a %s request", r.Status))
	}
	if !change.Status.Valid() || change.Status == models.StatusFastRequest {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("invalid target status %q", change.Status))
	}

	now := s.now().UTC()
	if change.Status == models.StatusCancelled {
		reason := strings.TrimSpace(change.CancellationReason)
		if reason == "" {
			return nil, apperrors.NewBadRequestError("cancellationReason is required")
		}
		r.CancellationReason = &reason
		r.CancelledAt = &now
	}
	r.Status = change.Status
	r.UpdatedAt = now

	if err := s.store.Save(ctx, r); err != nil {
		return nil, err
	}
	metrics.ReceiptStatusTransitions.WithLabelValues(string(change.Status), string(actor.Role)).Inc()

	view, err := s.store.GetView(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, view, change.Status)
	if !actor.IsSchool() {
		s.publish(ctx, view.Student.School.ID, view)
	}
	return view, nil
}

func (s *Service) notifyStatus(ctx context.Context, view *models.ReceiptRequestView, status models.RequestStatus) {
	notice, ok := statusNotices[status]
	if !ok {
		return
	}
	ids := notice.recipientIDs(view)
	if len(ids) == 0 {
		return
	}
	s.notify(ctx, notification.Request{
		Title:          notice.title,
		Message:        fmt.Sprintf(notice.message, view.Student.FullName),
		NavigationData: navigationTo(view.ID),
		Type:           models.NotificationDirect,
		Target:         models.NotificationTarget{UserIDs: ids},
	})
}
