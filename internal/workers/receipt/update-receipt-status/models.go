// internal/workers/receipt/update-receipt-status/models.go
package updatereceiptstatus

import "school-pickup/internal/models"

type Input struct {
	Actor              models.Actor         `json:"actor"`
	RequestID          int64                `json:"requestId"`
	Status             models.RequestStatus `json:"status"`
	CancellationReason string               `json:"cancellationReason,omitempty"`
}

type Output struct {
	ReceiptRequestID int64                      `json:"receiptRequestId"`
	Status           models.RequestStatus       `json:"status"`
	Terminal         bool                       `json:"terminal"`
	ReceiptRequest   *models.ReceiptRequestView `json:"receiptRequest"`
}
