// internal/workers/notification/query-notifications/handler.go
package querynotifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"
	"school-pickup/internal/common/metrics"
	"school-pickup/internal/common/observability"
	"school-pickup/internal/models"
	"school-pickup/internal/notification"
	"school-pickup/internal/pagination"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const TaskType = "query-notifications"

type NotificationService interface {
	GetUserNotifications(ctx context.Context, userID int64, params pagination.Params) (*notification.UserNotifications, error)
	GetNotification(ctx context.Context, id int64) (*models.Notification, error)
	GetNotificationRecipients(ctx context.Context, id int64) ([]models.NotificationRecipient, error)
	ListAdminNotifications(ctx context.Context, params pagination.Params) (*pagination.Page[models.Notification], error)
}

type Handler struct {
	config  *Config
	service NotificationService
	obs     *observability.Observability
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, service NotificationService, obs *observability.Observability, log logger.Logger) (*Handler, error) {
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

	span.SetAttributes(attribute.String("query.type", string(output.QueryType)), attribute.Int("query.rows", output.RowCount))
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}

	start := time.Now()
	data, rowCount, err := Execute(ctx, h.service, input)
	if err != nil {
		if errors.Is(err, ErrUnknownQueryType) || errors.Is(err, ErrMissingParam) {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
		return nil, err
	}

	return &Output{
		QueryType:          input.QueryType,
		Data:               data,
		RowCount:           rowCount,
		QueryExecutionTime: time.Since(start).Milliseconds(),
	}, nil
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
