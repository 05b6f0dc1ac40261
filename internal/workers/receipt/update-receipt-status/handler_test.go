// internal/workers/receipt/update-receipt-status/handler_test.go
package updatereceiptstatus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"
	"school-pickup/internal/models"
	"school-pickup/internal/receipt"

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

func (m *MockReceiptService) UpdateStatus(ctx context.Context, id int64, change receipt.StatusChange, actor models.Actor) (*models.ReceiptRequestView, error) {
	args := m.Called(ctx, id, change, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReceiptRequestView), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createMockJob(variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                42,
		Type:               TaskType,
		ProcessInstanceKey: 420,
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func schoolActor() models.Actor {
	return models.Actor{UserID: 90, Role: models.RoleSchool, SchoolID: 3}
}

func createTestHandler(t *testing.T, svc ReceiptService) *Handler {
	t.Helper()
	h, err := NewHandler(DefaultConfig(), svc, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Process_Statuses(t *testing.T) {
	tests := []struct {
		name         string
		status       models.RequestStatus
		reason       string
		wantTerminal bool
	}{
		{name: "approve", status: models.StatusApproved},
		{name: "waiting outside", status: models.StatusWaitingOutside},
		{name: "deliver", status: models.StatusDelivered, wantTerminal: true},
		{name: "cancel", status: models.StatusCancelled, reason: "school closed", wantTerminal: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockReceiptService{}
			h := createTestHandler(t, svc)

			change := receipt.StatusChange{Status: tt.status, CancellationReason: tt.reason}
			svc.On("UpdateStatus", mock.Anything, int64(100), change, schoolActor()).
				Return(&models.ReceiptRequestView{ID: 100, Status: tt.status}, nil)

			vars := map[string]interface{}{
				"actor":     map[string]interface{}{"userId": 90, "role": "SCHOOL", "schoolId": 3},
				"requestId": 100,
				"status":    string(tt.status),
			}
			if tt.reason != "" {
				vars["cancellationReason"] = tt.reason
			}

			output, err := h.process(context.Background(), createMockJob(vars))

			require.NoError(t, err)
			assert.Equal(t, int64(100), output.ReceiptRequestID)
			assert.Equal(t, tt.status, output.Status)
			assert.Equal(t, tt.wantTerminal, output.Terminal)
			svc.AssertExpectations(t)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestParseInput_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]interface{}
	}{
		{name: "missing request id", vars: map[string]interface{}{
			"actor": map[string]interface{}{"userId": 90, "role": "SCHOOL"}, "status": "APPROVED",
		}},
		{name: "zero request id", vars: map[string]interface{}{
			"actor": map[string]interface{}{"userId": 90, "role": "SCHOOL"}, "requestId": 0, "status": "APPROVED",
		}},
		{name: "missing actor role", vars: map[string]interface{}{
			"actor": map[string]interface{}{"userId": 90}, "requestId": 1, "status": "APPROVED",
		}},
		{name: "empty status", vars: map[string]interface{}{
			"actor": map[string]interface{}{"userId": 90, "role": "SCHOOL"}, "requestId": 1, "status": "",
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

func TestHandler_Execute_DomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{name: "unauthorized", err: apperrors.NewUnauthorizedError("only the school can change a PENDING request"), code: apperrors.ErrCodeUnauthorized},
		{name: "missing reason", err: apperrors.NewBadRequestError("cancellationReason is required"), code: apperrors.ErrCodeBadRequest},
		{name: "not found", err: apperrors.NewNotFoundError("receipt request", 100), code: apperrors.ErrCodeNotFound},
		{name: "unknown failure", err: errors.New("boom"), code: apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockReceiptService{}
			h := createTestHandler(t, svc)
			svc.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			_, err := h.Execute(context.Background(), &Input{Actor: schoolActor(), RequestID: 100, Status: models.StatusApproved})

			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.Normalize(err).Code)
		})
	}
}
