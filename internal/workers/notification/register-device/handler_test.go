// internal/workers/notification/register-device/handler_test.go
package registerdevice

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

type MockDeviceService struct {
	mock.Mock
}

func (m *MockDeviceService) RegisterDevice(ctx context.Context, userID int64, playerID string) error {
	return m.Called(ctx, userID, playerID).Error(0)
}

func (m *MockDeviceService) SyncUserTags(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

// ==========================
// Test Helper Functions
// ==========================

func createMockJob(variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                64,
		Type:               TaskType,
		ProcessInstanceKey: 640,
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func createTestHandler(t *testing.T, svc DeviceService) *Handler {
	t.Helper()
	h, err := NewHandler(DefaultConfig(), svc, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func validVars() map[string]interface{} {
	return map[string]interface{}{"userId": 70, "playerId": "player-abc"}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Process_RegistersAndSyncsTags(t *testing.T) {
	svc := &MockDeviceService{}
	h := createTestHandler(t, svc)
	svc.On("RegisterDevice", mock.Anything, int64(70), "player-abc").Return(nil).Once()
	svc.On("SyncUserTags", mock.Anything, int64(70)).Return(nil).Once()

	output, err := h.process(context.Background(), createMockJob(validVars()))

	require.NoError(t, err)
	assert.Equal(t, &Output{UserID: 70, PlayerID: "player-abc", TagsSynced: true}, output)
	svc.AssertExpectations(t)
}

func TestHandler_Process_TagSyncFailureKeepsRegistration(t *testing.T) {
	svc := &MockDeviceService{}
	h := createTestHandler(t, svc)
	svc.On("RegisterDevice", mock.Anything, int64(70), "player-abc").Return(nil)
	svc.On("SyncUserTags", mock.Anything, int64(70)).Return(apperrors.NewBadRequestError("failed to sync user tags"))

	output, err := h.process(context.Background(), createMockJob(validVars()))

	require.NoError(t, err)
	assert.False(t, output.TagsSynced)
	svc.AssertExpectations(t)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Process_LinkFailureSkipsTags(t *testing.T) {
	svc := &MockDeviceService{}
	h := createTestHandler(t, svc)
	svc.On("RegisterDevice", mock.Anything, int64(70), "player-abc").
		Return(apperrors.NewBadRequestError("failed to link device to user"))

	_, err := h.process(context.Background(), createMockJob(validVars()))

	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
	svc.AssertNotCalled(t, "SyncUserTags", mock.Anything, mock.Anything)
}

func TestParseInput_Invalid(t *testing.T) {
	for name, vars := range map[string]map[string]interface{}{
		"missing player": {"userId": 70},
		"empty player":   {"userId": 70, "playerId": ""},
		"missing user":   {"playerId": "player-abc"},
		"string user id": {"userId": "70", "playerId": "player-abc"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseInput(createMockJob(vars))

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
		})
	}
}
