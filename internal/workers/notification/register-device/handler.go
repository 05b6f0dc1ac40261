// internal/workers/notification/register-device/handler.go
package registerdevice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"
	"school-pickup/internal/common/metrics"
	"school-pickup/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const TaskType = "register-device"

type DeviceService interface {
	RegisterDevice(ctx context.Context, userID int64, playerID string) error
	SyncUserTags(ctx context.Context, userID int64) error
}

type Handler struct {
	config  *Config
	service DeviceService
	obs     *observability.Observability
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, service DeviceService, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		service: service,
		obs:     obs,
		errors:  apperrors.NewErrorHandler(l),
		logger:  l,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int64("job.key", job.GetKey()))
	defer span.End()

	output, err := h.process(ctx, job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		code := h.errors.HandleJobError(context.Background(), client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		return
	}

	span.SetAttributes(attribute.Bool("device.tags_synced", output.TagsSynced))
	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := parseInput(job)
	if err != nil {
		return nil, err
	}
	output, err := h.execute(ctx, input)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return nil, apperrors.NewTimeoutError(TaskType, err)
	}
	return output, err
}

func parseInput(job entities.Job) (*Input, error) {
	raw := []byte(job.GetVariables())
	if err := inputSchema.ValidateJSON(raw).Err(); err != nil {
		return nil, err
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// execute stores the device and refreshes the user's gateway tags. A failed
// tag sync is reported in the output and does not fail the job, since the
// device is already linked.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.service.RegisterDevice(ctx, input.UserID, input.PlayerID); err != nil {
		return nil, err
	}

	output := &Output{UserID: input.UserID, PlayerID: input.PlayerID, TagsSynced: true}
	if err := h.service.SyncUserTags(ctx, input.UserID); err != nil {
		h.logger.Warn("device registered without tag sync", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
		output.TagsSynced = false
	}

	h.logger.Info("device registered", map[string]interface{}{
		"userId":     input.UserID,
		"tagsSynced": output.TagsSynced,
	})
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
