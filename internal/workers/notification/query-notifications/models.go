// internal/workers/notification/query-notifications/models.go
package querynotifications

import "school-pickup/internal/pagination"

type QueryType string

const (
	QueryTypeUserNotifications  QueryType = "user-notifications"
	QueryTypeNotification       QueryType = "notification"
	QueryTypeRecipients         QueryType = "notification-recipients"
	QueryTypeAdminNotifications QueryType = "admin-notifications"
)

type Input struct {
	QueryType      QueryType         `json:"queryType"`
	UserID         int64             `json:"userId,omitempty"`
	NotificationID int64             `json:"notificationId,omitempty"`
	Pagination     pagination.Params `json:"pagination,omitempty"`
}

type Output struct {
	QueryType          QueryType   `json:"queryType"`
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}
