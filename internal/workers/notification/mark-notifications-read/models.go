// internal/workers/notification/mark-notifications-read/models.go
package marknotificationsread

// Input marks a single notification when NotificationID is set, otherwise
// all of the user's due notifications up to Limit.
type Input struct {
	UserID         int64 `json:"userId"`
	NotificationID int64 `json:"notificationId,omitempty"`
	Limit          int   `json:"limit,omitempty"`
}

type Output struct {
	UserID         int64 `json:"userId"`
	NotificationID int64 `json:"notificationId,omitempty"`
	MarkedCount    int64 `json:"markedCount"`
}
