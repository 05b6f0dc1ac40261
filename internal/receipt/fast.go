// internal/receipt/fast.go
package receipt

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/metrics"
	"school-pickup/internal/models"
	"school-pickup/internal/notification"
)

const minutesPerDay = 24 * 60

// fastRequestEvent is the realtime payload of a fast request: the formatted
// request plus the text shown to the school.
type fastRequestEvent struct {
	*models.ReceiptRequestView
	Message string `json:"message"`
}

// AddFastRequest signals that the parent is at the school gate. A second
// signal on the same local day bumps the reminder counter of the existing
// request instead of creating another one.
func (s *Service) AddFastRequest(ctx context.Context, studentID int64, actor models.Actor) (*models.ReceiptRequestView, error) {
	student, err := s.directory.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !student.HasParent(actor.ParentID) {
		return nil, apperrors.NewBadRequestError("only the student's parent can send a fast request")
	}
	if student.School.ClosedTime == nil || strings.TrimSpace(*student.School.ClosedTime) == "" {
		return nil, apperrors.NewBadRequestError("the school has no closing time configured")
	}
	closed, err := parseClock(*student.School.ClosedTime)
	if err != nil {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("invalid school closing time %q", *student.School.ClosedTime))
	}

	now := s.now()
	local := now.In(s.opts.Location)
	from := closed - int(s.opts.FastWindowBefore/time.Minute)
	to := closed + int(s.opts.FastWindowAfter/time.Minute)
	if current := local.Hour()*60 + local.Minute(); current < from || current > to {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf(
			"fast requests are only allowed between %s and %s", formatClock(from), formatClock(to)))
	}

	dayStart := startOfDay(now, s.opts.Location)
	existing, err := s.store.FindFastRequest(ctx, student.ID, dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC())
	if err != nil {
		return nil, err
	}

	var id int64
	if existing != nil {
		if _, err := s.store.IncrementReminder(ctx, existing.ID, now.UTC()); err != nil {
			return nil, err
		}
		id = existing.ID
		metrics.FastRequests.WithLabelValues("reminder").Inc()
	} else {
		r := &models.ReceiptRequest{
			StudentID:          student.ID,
			Date:               now.UTC(),
			HowToReceive:       models.ReceiveInPerson,
			DeliveryPersonType: models.DeliveredByParent,
			Status:             models.StatusFastRequest,
			CreatedAt:          now.UTC(),
			UpdatedAt:          now.UTC(),
		}
		if err := s.store.Insert(ctx, r); err != nil {
			return nil, err
		}
		id = r.ID
		metrics.FastRequests.WithLabelValues("created").Inc()
	}

	view, err := s.store.GetView(ctx, id)
	if err != nil {
		return nil, err
	}

	schoolUserID := view.Student.School.UserID
	if schoolUserID == nil {
		s.logger.Warn("school has no admin user, fast request not announced", map[string]interface{}{
			"schoolId":  view.Student.School.ID,
			"requestId": view.ID,
		})
		return view, nil
	}

	message := fmt.Sprintf("The parent of student %s is waiting for you", view.Student.FullName)
	s.notify(ctx, notification.Request{
		Title:          fastRequestTitle(view.ReminderCount),
		Message:        message,
		NavigationData: navigationTo(view.ID),
		Type:           models.NotificationDirect,
		Target:         models.NotificationTarget{UserIDs: []int64{*schoolUserID}},
	})
	s.publish(ctx, view.Student.School.ID, fastRequestEvent{ReceiptRequestView: view, Message: message})

	return view, nil
}

func fastRequestTitle(reminderCount int) string {
	const title = "Parent is waiting for you"
	if reminderCount > 0 {
		return fmt.Sprintf("Reminder %d: %s", reminderCount+1, title)
	}
	return title
}

// GetFastRequest reports whether the actor has a pending request. Without
// one it falls back to the student of the actor's latest request, if any.
func (s *Service) GetFastRequest(ctx context.Context, actor models.Actor) (*models.FastRequestState, error) {
	scope := models.RequestScope{ParentID: actor.ParentID}
	if actor.Role == models.RoleStudent {
		scope = models.RequestScope{StudentID: actor.StudentID}
	}
	if scope.ParentID == 0 && scope.StudentID == 0 {
		scope.ParentID = -1
	}

	pending, err := s.store.FindLatest(ctx, scope, models.StatusPending)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return &models.FastRequestState{IsRequestAvailable: true, Data: pending}, nil
	}

	last, err := s.store.FindLatest(ctx, scope, "")
	if err != nil {
		return nil, err
	}
	if last == nil {
		return &models.FastRequestState{}, nil
	}
	return &models.FastRequestState{
		Data: &models.StudentSummary{
			ID:           last.Student.ID,
			FullName:     last.Student.FullName,
			ProfileImage: last.Student.ProfileImage,
			Class:        last.Student.Class,
			Stage:        last.Student.Stage,
		},
	}, nil
}

// parseClock returns the minute of day of an "HH:MM" or "HH:MM:SS" value.
func parseClock(v string) (int, error) {
	v = strings.TrimSpace(v)
	layout := "15:04"
	if strings.Count(v, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatClock renders a minute of day as H:MM, wrapping around midnight.
func formatClock(minute int) string {
	minute = ((minute % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%d:%02d", minute/60, minute%60)
}
