// internal/workers/receipt/query-receipt-requests/registry.go
package queryreceiptrequests

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// QueryFunc returns: data, rowCount, error
type QueryFunc func(ctx context.Context, svc ReceiptService, in *Input) (interface{}, int, error)

var Registry = map[QueryType]QueryFunc{
	QueryTypeFindAll:        FindAll,
	QueryTypeFindOne:        FindOne,
	QueryTypeGetFastRequest: GetFastRequest,
}

func Execute(ctx context.Context, svc ReceiptService, in *Input) (interface{}, int, error) {
	fn, exists := Registry[in.QueryType]
	if !exists {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, in.QueryType)
	}
	return fn(ctx, svc, in)
}

func FindAll(ctx context.Context, svc ReceiptService, in *Input) (interface{}, int, error) {
	page, err := svc.FindAll(ctx, in.Filter.toModel(), in.Pagination, in.Actor)
	if err != nil {
		return nil, 0, err
	}
	return page, len(page.Items), nil
}

func FindOne(ctx context.Context, svc ReceiptService, in *Input) (interface{}, int, error) {
	if in.RequestID <= 0 {
		return nil, 0, fmt.Errorf("%w: requestId", ErrMissingParam)
	}
	view, err := svc.FindOne(ctx, in.RequestID)
	if err != nil {
		return nil, 0, err
	}
	return view, 1, nil
}

// GetFastRequest counts a row only when the state carries request data.
func GetFastRequest(ctx context.Context, svc ReceiptService, in *Input) (interface{}, int, error) {
	state, err := svc.GetFastRequest(ctx, in.Actor)
	if err != nil {
		return nil, 0, err
	}
	if state.Data == nil {
		return state, 0, nil
	}
	return state, 1, nil
}
