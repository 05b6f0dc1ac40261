// internal/workers/receipt/query-receipt-requests/models.go
package queryreceiptrequests

import (
	"time"

	"school-pickup/internal/models"
	"school-pickup/internal/pagination"
)

type QueryType string

const (
	QueryTypeFindAll        QueryType = "find-all"
	QueryTypeFindOne        QueryType = "find-one"
	QueryTypeGetFastRequest QueryType = "get-fast-request"
)

// Filter narrows a find-all listing. Date bounds apply only as a pair.
type Filter struct {
	Keyword      string               `json:"keyword,omitempty"`
	StudentID    int64                `json:"studentId,omitempty"`
	DeliveryID   int64                `json:"deliveryId,omitempty"`
	HowToReceive models.HowToReceive  `json:"howToReceive,omitempty"`
	Status       models.RequestStatus `json:"status,omitempty"`
	StartDate    *time.Time           `json:"startDate,omitempty"`
	EndDate      *time.Time           `json:"endDate,omitempty"`
}

func (f Filter) toModel() models.ReceiptFilter {
	return models.ReceiptFilter{
		Keyword:      f.Keyword,
		StudentID:    f.StudentID,
		DeliveryID:   f.DeliveryID,
		HowToReceive: f.HowToReceive,
		Status:       f.Status,
		From:         f.StartDate,
		To:           f.EndDate,
	}
}

type Input struct {
	QueryType  QueryType         `json:"queryType"`
	Actor      models.Actor      `json:"actor"`
	RequestID  int64             `json:"requestId,omitempty"`
	Filter     Filter            `json:"filter,omitempty"`
	Pagination pagination.Params `json:"pagination,omitempty"`
}

type Output struct {
	QueryType          QueryType   `json:"queryType"`
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}
