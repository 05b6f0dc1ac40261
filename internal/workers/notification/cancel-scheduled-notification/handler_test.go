// internal/workers/notification/cancel-scheduled-notification/handler_test.go
package cancelschedulednotification

import (
	"context"
	"encoding/json"
	"testing"

	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Service Implementation
// ==========================

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) CancelScheduledNotification(ctx context.Context, externalID string) error {
	return m.Called(ctx, externalID).Error(0)
}

// ==========================
// Test Helper Functions
// ==========================

func createMockJob(variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                62,
		Type:               TaskType,
		ProcessInstanceKey: 620,
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func createTestHandler(t *testing.T, svc NotificationService) *Handler {
	t.Helper()
	h, err := NewHandler(DefaultConfig(), svc, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Process_Cancels(t *testing.T) {
	svc := &MockNotificationService{}
	h := createTestHandler(t, svc)
	svc.On("CancelScheduledNotification", mock.Anything, "os-123").Return(nil)

	output, err := h.process(context.Background(), createMockJob(map[string]interface{}{"externalId": "os-123"}))

	require.NoError(t, err)
	assert.Equal(t, &Output{ExternalID: "os-123", Cancelled: true}, output)
	svc.AssertExpectations(t)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Process_UnknownSchedule(t *testing.T) {
	svc := &MockNotificationService{}
	h := createTestHandler(t, svc)
	svc.On("CancelScheduledNotification", mock.Anything, "os-404").
		Return(apperrors.NewBadRequestError("scheduled notification not found"))

	_, err := h.process(context.Background(), createMockJob(map[string]interface{}{"externalId": "os-404"}))

	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestParseInput_Invalid(t *testing.T) {
	for name, vars := range map[string]map[string]interface{}{
		"missing external id": {},
		"empty external id":   {"externalId": ""},
		"numeric external id": {"externalId": 123},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseInput(createMockJob(vars))

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
		})
	}
}
