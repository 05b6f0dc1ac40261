// internal/workers/receipt/query-receipt-requests/handler_test.go
package queryreceiptrequests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"
	"school-pickup/internal/models"
	"school-pickup/internal/pagination"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Service Implementation
// ==========================

type MockReceiptService struct {
	mock.Mock
}

func (m *MockReceiptService) FindAll(ctx context.Context, filter models.ReceiptFilter, params pagination.Params, actor models.Actor) (*pagination.Page[models.ReceiptRequestView], error) {
	args := m.Called(ctx, filter, params, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.Page[models.ReceiptRequestView]), args.Error(1)
}

func (m *MockReceiptService) FindOne(ctx context.Context, id int64) (*models.ReceiptRequestView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReceiptRequestView), args.Error(1)
}

func (m *MockReceiptService) GetFastRequest(ctx context.Context, actor models.Actor) (*models.FastRequestState, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FastRequestState), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createMockJob(variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                53,
		Type:               TaskType,
		ProcessInstanceKey: 530,
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func createTestHandler(t *testing.T, svc ReceiptService) *Handler {
	t.Helper()
	h, err := NewHandler(DefaultConfig(), svc, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func schoolActor() models.Actor {
	return models.Actor{UserID: 90, Role: models.RoleSchool, SchoolID: 3}
}

func actorVars() map[string]interface{} {
	return map[string]interface{}{"userId": 90, "role": "SCHOOL", "schoolId": 3}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Process_FindAll(t *testing.T) {
	svc := &MockReceiptService{}
	h := createTestHandler(t, svc)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	wantFilter := models.ReceiptFilter{
		Keyword:      "sara",
		HowToReceive: models.ReceiveByCar,
		Status:       models.StatusPending,
		From:         &from,
		To:           &to,
	}
	wantParams := pagination.Params{Page: 2, Limit: 5, SortBy: "date", SortOrder: pagination.ASC}
	page := &pagination.Page[models.ReceiptRequestView]{
		Items:    []models.ReceiptRequestView{{ID: 1}, {ID: 2}},
		Metadata: pagination.BuildMetadata(7, 2, 5),
	}
	svc.On("FindAll", mock.Anything, mock.MatchedBy(func(f models.ReceiptFilter) bool {
		return f.Keyword == wantFilter.Keyword && f.HowToReceive == wantFilter.HowToReceive &&
			f.Status == wantFilter.Status && f.From.Equal(from) && f.To.Equal(to)
	}), wantParams, schoolActor()).Return(page, nil)

	output, err := h.process(context.Background(), createMockJob(map[string]interface{}{
		"queryType": "find-all",
		"actor":     actorVars(),
		"filter": map[string]interface{}{
			"keyword":      "sara",
			"howToReceive": "CAR",
			"status":       "PENDING",
			"startDate":    "2026-03-01T00:00:00Z",
			"endDate":      "2026-03-02T00:00:00Z",
		},
		"pagination": map[string]interface{}{"page": 2, "limit": 5, "sortBy": "date", "sortOrder": "ASC"},
	}))

	require.NoError(t, err)
	assert.Equal(t, QueryTypeFindAll, output.QueryType)
	assert.Equal(t, 2, output.RowCount)
	assert.Same(t, page, output.Data)
	svc.AssertExpectations(t)
}

func TestHandler_Process_FindOne(t *testing.T) {
	svc := &MockReceiptService{}
	h := createTestHandler(t, svc)
	view := &models.ReceiptRequestView{ID: 100, Status: models.StatusApproved}
	svc.On("FindOne", mock.Anything, int64(100)).Return(view, nil)

	output, err := h.process(context.Background(), createMockJob(map[string]interface{}{
		"queryType": "find-one",
		"actor":     actorVars(),
		"requestId": 100,
	}))

	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)
	assert.Same(t, view, output.Data)
}

func TestHandler_Execute_GetFastRequest(t *testing.T) {
	parent := models.Actor{UserID: 70, Role: models.RoleParent, ParentID: 11}

	tests := []struct {
		name     string
		state    *models.FastRequestState
		wantRows int
	}{
		{name: "pending request", state: &models.FastRequestState{IsRequestAvailable: true, Data: &models.ReceiptRequestView{ID: 5}}, wantRows: 1},
		{name: "last student only", state: &models.FastRequestState{Data: &models.StudentSummary{ID: 7}}, wantRows: 1},
		{name: "no history", state: &models.FastRequestState{}, wantRows: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockReceiptService{}
			h := createTestHandler(t, svc)
			svc.On("GetFastRequest", mock.Anything, parent).Return(tt.state, nil)

			output, err := h.Execute(context.Background(), &Input{QueryType: QueryTypeGetFastRequest, Actor: parent})

			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, output.RowCount)
			assert.Same(t, tt.state, output.Data)
		})
	}
}

func TestRegistry_CoversEveryQueryType(t *testing.T) {
	for _, qt := range []QueryType{QueryTypeFindAll, QueryTypeFindOne, QueryTypeGetFastRequest} {
		assert.Contains(t, Registry, qt)
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidQueries(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{name: "nil input"},
		{name: "unknown query type", input: &Input{QueryType: "drop-all", Actor: schoolActor()}},
		{name: "find-one without id", input: &Input{QueryType: QueryTypeFindOne, Actor: schoolActor()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockReceiptService{}
			h := createTestHandler(t, svc)

			_, err := h.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
			svc.AssertExpectations(t)
		})
	}
}

func TestParseInput_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]interface{}
	}{
		{name: "missing query type", vars: map[string]interface{}{"actor": actorVars()}},
		{name: "unknown query type", vars: map[string]interface{}{"queryType": "find-some", "actor": actorVars()}},
		{name: "missing actor", vars: map[string]interface{}{"queryType": "find-all"}},
		{name: "bad sort order", vars: map[string]interface{}{
			"queryType": "find-all", "actor": actorVars(),
			"pagination": map[string]interface{}{"sortOrder": "sideways"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseInput(createMockJob(tt.vars))

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
		})
	}
}

func TestHandler_Execute_PropagatesServiceErrors(t *testing.T) {
	svc := &MockReceiptService{}
	h := createTestHandler(t, svc)
	svc.On("FindOne", mock.Anything, int64(404)).Return(nil, apperrors.NewNotFoundError("receipt request", 404))

	_, err := h.Execute(context.Background(), &Input{QueryType: QueryTypeFindOne, RequestID: 404})

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
