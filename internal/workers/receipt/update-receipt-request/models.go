// internal/workers/receipt/update-receipt-request/models.go
package updatereceiptrequest

import (
	"school-pickup/internal/models"
	"school-pickup/internal/receipt"
)

// Input identifies the request and carries the fields to change.
type Input struct {
	RequestID int64 `json:"requestId"`
	receipt.UpdateInput
}

type Output struct {
	ReceiptRequestID int64                      `json:"receiptRequestId"`
	Status           models.RequestStatus       `json:"status"`
	ReceiptRequest   *models.ReceiptRequestView `json:"receiptRequest"`
}
