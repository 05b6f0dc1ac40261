// internal/workers/notification/delete-notification/handler_test.go
package deletenotification

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

func (m *MockNotificationService) DeleteNotification(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// ==========================
// Test Helper Functions
// ==========================

func createMockJob(variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                63,
		Type:               TaskType,
		ProcessInstanceKey: 630,
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

func TestHandler_Process_Deletes(t *testing.T) {
	svc := &MockNotificationService{}
	h := createTestHandler(t, svc)
	svc.On("DeleteNotification", mock.Anything, int64(12)).Return(nil)

	output, err := h.process(context.Background(), createMockJob(map[string]interface{}{"notificationId": 12}))

	require.NoError(t, err)
	assert.Equal(t, &Output{NotificationID: 12, Deleted: true}, output)
	svc.AssertExpectations(t)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Process_Missing(t *testing.T) {
	svc := &MockNotificationService{}
	h := createTestHandler(t, svc)
	svc.On("DeleteNotification", mock.Anything, int64(404)).Return(apperrors.NewBadRequestError("notification not found"))

	_, err := h.process(context.Background(), createMockJob(map[string]interface{}{"notificationId": 404}))

	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestParseInput_Invalid(t *testing.T) {
	for name, vars := range map[string]map[string]interface{}{
		"missing id": {},
		"zero id":    {"notificationId": 0},
	} {
		t.Run(name, func(t *testing.T) {
			svc := &MockNotificationService{}
			h := createTestHandler(t, svc)

			_, err := h.process(context.Background(), createMockJob(vars))

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
			svc.AssertNotCalled(t, "DeleteNotification", mock.Anything, mock.Anything)
		})
	}
}
