// internal/workers/notification/send-notification/models.go
package sendnotification

import (
	"time"

	"school-pickup/internal/models"
	"school-pickup/internal/notification"
)

type Input struct {
	notification.Request
}

type Output struct {
	NotificationID int64                   `json:"notificationId,omitempty"`
	Status         string                  `json:"status"`
	Type           models.NotificationType `json:"type,omitempty"`
	ScheduledAt    *time.Time              `json:"scheduledAt,omitempty"`
	ExternalID     *string                 `json:"externalId,omitempty"`
}

// Statuses
const (
	StatusSent      = "sent"
	StatusScheduled = "scheduled"
	StatusSkipped   = "skipped"
)
