// internal/workers/notification/query-notifications/registry.go
package querynotifications

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// QueryFunc returns: data, rowCount, error
type QueryFunc func(ctx context.Context, svc NotificationService, in *Input) (interface{}, int, error)

var Registry = map[QueryType]QueryFunc{
	QueryTypeUserNotifications:  UserNotifications,
	QueryTypeNotification:       Notification,
	QueryTypeRecipients:         Recipients,
	QueryTypeAdminNotifications: AdminNotifications,
}

func Execute(ctx context.Context, svc NotificationService, in *Input) (interface{}, int, error) {
	fn, exists := Registry[in.QueryType]
	if !exists {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, in.QueryType)
	}
	return fn(ctx, svc, in)
}

// UserNotifications returns one inbox page with the user's unread total.
func UserNotifications(ctx context.Context, svc NotificationService, in *Input) (interface{}, int, error) {
	if in.UserID <= 0 {
		return nil, 0, fmt.Errorf("%w: userId", ErrMissingParam)
	}
	res, err := svc.GetUserNotifications(ctx, in.UserID, in.Pagination)
	if err != nil {
		return nil, 0, err
	}
	return res, len(res.Notifications.Items), nil
}

func Notification(ctx context.Context, svc NotificationService, in *Input) (interface{}, int, error) {
	if in.NotificationID <= 0 {
		return nil, 0, fmt.Errorf("%w: notificationId", ErrMissingParam)
	}
	n, err := svc.GetNotification(ctx, in.NotificationID)
	if err != nil {
		return nil, 0, err
	}
	return n, 1, nil
}

func Recipients(ctx context.Context, svc NotificationService, in *Input) (interface{}, int, error) {
	if in.NotificationID <= 0 {
		return nil, 0, fmt.Errorf("%w: notificationId", ErrMissingParam)
	}
	recipients, err := svc.GetNotificationRecipients(ctx, in.NotificationID)
	if err != nil {
		return nil, 0, err
	}
	return recipients, len(recipients), nil
}

func AdminNotifications(ctx context.Context, svc NotificationService, in *Input) (interface{}, int, error) {
	page, err := svc.ListAdminNotifications(ctx, in.Pagination)
	if err != nil {
		return nil, 0, err
	}
	return page, len(page.Items), nil
}
