// internal/workers/receipt/create-receipt-request/models.go
package createreceiptrequest

import (
	"school-pickup/internal/models"
	"school-pickup/internal/receipt"
)

// Input is the job payload: the acting user plus the request fields.
type Input struct {
	Actor models.Actor `json:"actor"`
	receipt.CreateInput
}

type Output struct {
	ReceiptRequestID int64                      `json:"receiptRequestId"`
	Status           models.RequestStatus       `json:"status"`
	SchoolID         int64                      `json:"schoolId"`
	ReceiptRequest   *models.ReceiptRequestView `json:"receiptRequest"`
}
