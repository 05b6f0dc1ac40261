// internal/workers/notification/mark-notifications-read/handler_test.go
package marknotificationsread

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

func (m *MockNotificationService) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

func (m *MockNotificationService) MarkAllAsRead(ctx context.Context, userID int64, limit int) (int64, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).(int64), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createMockJob(variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                61,
		Type:               TaskType,
		ProcessInstanceKey: 610,
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

func TestHandler_Process_MarksOne(t *testing.T) {
	svc := &MockNotificationService{}
	h := createTestHandler(t, svc)
	svc.On("MarkAsRead", mock.Anything, int64(12), int64(70)).Return(nil)

	output, err := h.process(context.Background(), createMockJob(map[string]interface{}{
		"userId":         70,
		"notificationId": 12,
	}))

	require.NoError(t, err)
	assert.Equal(t, &Output{UserID: 70, NotificationID: 12, MarkedCount: 1}, output)
	svc.AssertNotCalled(t, "MarkAllAsRead", mock.Anything, mock.Anything, mock.Anything)
	svc.AssertExpectations(t)
}

func TestHandler_Process_MarksAll(t *testing.T) {
	tests := []struct {
		name      string
		vars      map[string]interface{}
		wantLimit int
	}{
		{name: "service default limit", vars: map[string]interface{}{"userId": 70}, wantLimit: 0},
		{name: "explicit limit", vars: map[string]interface{}{"userId": 70, "limit": 25}, wantLimit: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockNotificationService{}
			h := createTestHandler(t, svc)
			svc.On("MarkAllAsRead", mock.Anything, int64(70), tt.wantLimit).Return(int64(4), nil)

			output, err := h.process(context.Background(), createMockJob(tt.vars))

			require.NoError(t, err)
			assert.Equal(t, int64(4), output.MarkedCount)
			assert.Zero(t, output.NotificationID)
			svc.AssertExpectations(t)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Process_NotRecipient(t *testing.T) {
	svc := &MockNotificationService{}
	h := createTestHandler(t, svc)
	svc.On("MarkAsRead", mock.Anything, int64(12), int64(71)).
		Return(apperrors.NewBadRequestError("notification not found for this user"))

	_, err := h.process(context.Background(), createMockJob(map[string]interface{}{
		"userId":         71,
		"notificationId": 12,
	}))

	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestParseInput_Invalid(t *testing.T) {
	for name, vars := range map[string]map[string]interface{}{
		"missing user":         {"notificationId": 12},
		"zero notification id": {"userId": 70, "notificationId": 0},
		"limit too large":      {"userId": 70, "limit": 5000},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseInput(createMockJob(vars))

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
		})
	}
}
