// internal/workers/notification/delete-notification/models.go
package deletenotification

type Input struct {
	NotificationID int64 `json:"notificationId"`
}

type Output struct {
	NotificationID int64 `json:"notificationId"`
	Deleted        bool  `json:"deleted"`
}
