// internal/workers/receipt/add-fast-request/models.go
package addfastrequest

import "school-pickup/internal/models"

type Input struct {
	Actor     models.Actor `json:"actor"`
	StudentID int64        `json:"studentId"`
}

type Output struct {
	ReceiptRequestID int64                      `json:"receiptRequestId"`
	ReminderCount    int                        `json:"reminderCount"`
	IsReminder       bool                       `json:"isReminder"`
	ReceiptRequest   *models.ReceiptRequestView `json:"receiptRequest"`
}
