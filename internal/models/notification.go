package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationDirect    NotificationType = "Direct"
	NotificationScheduled NotificationType = "Scheduled"
	NotificationCustom    NotificationType = "CustomNotification"
)

// NavigationData is the deep link opened when a notification is tapped.
// It is stored as jsonb.
type NavigationData struct {
	Screen string                 `json:"screen"`
	Params map[string]interface{} `json:"params,omitempty"`
}

func (n NavigationData) Value() (driver.Value, error) {
	return json.Marshal(n)
}

func (n *NavigationData) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*n = NavigationData{}
		return nil
	case []byte:
		return json.Unmarshal(v, n)
	case string:
		return json.Unmarshal([]byte(v), n)
	default:
		return fmt.Errorf("navigation data: unsupported type %T", src)
	}
}

// AsMap flattens the navigation data into push payload fields.
func (n *NavigationData) AsMap() map[string]interface{} {
	if n == nil {
		return nil
	}
	out := map[string]interface{}{"screen": n.Screen}
	if len(n.Params) > 0 {
		out["params"] = n.Params
	}
	return out
}

type Notification struct {
	ID             int64            `db:"id" json:"id"`
	Title          string           `db:"title" json:"title"`
	Message        string           `db:"message" json:"message"`
	NavigationData *NavigationData  `db:"navigation_data" json:"navigationData"`
	CreatedByID    *int64           `db:"created_by_id" json:"createdById"`
	Type           NotificationType `db:"type" json:"type"`
	ScheduledAt    time.Time        `db:"scheduled_at" json:"scheduledAt"`
	ForAdmin       bool             `db:"for_admin" json:"forAdmin"`
	ExternalID     *string          `db:"external_id" json:"externalId"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
}

type NotificationRecipient struct {
	ID             int64      `db:"id" json:"id"`
	NotificationID int64      `db:"notification_id" json:"notificationId"`
	UserID         int64      `db:"user_id" json:"userId"`
	IsRead         bool       `db:"is_read" json:"isRead"`
	ReadAt         *time.Time `db:"read_at" json:"readAt"`
}

// UserNotification is a notification as seen by one recipient.
type UserNotification struct {
	Notification
	RecipientID int64      `db:"recipient_id" json:"recipientId"`
	IsRead      bool       `db:"is_read" json:"isRead"`
	ReadAt      *time.Time `db:"read_at" json:"readAt"`
}

// NotificationTarget selects the audience of a notification. Selectors
// that are set are combined with AND.
type NotificationTarget struct {
	UserIDs   []int64 `json:"userIds,omitempty"`
	VendorIDs []int64 `json:"vendorIds,omitempty"`
	Admins    bool    `json:"admins,omitempty"`
	AllUsers  bool    `json:"allUsers,omitempty"`
}

// Empty reports whether no selector is set.
func (t NotificationTarget) Empty() bool {
	return len(t.UserIDs) == 0 && len(t.VendorIDs) == 0 && !t.Admins && !t.AllUsers
}
