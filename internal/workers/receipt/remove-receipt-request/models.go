// internal/workers/receipt/remove-receipt-request/models.go
package removereceiptrequest

type Input struct {
	RequestID int64 `json:"requestId"`
}

type Output struct {
	ReceiptRequestID int64 `json:"receiptRequestId"`
	Removed          bool  `json:"removed"`
}
