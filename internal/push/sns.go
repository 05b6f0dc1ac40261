// internal/push/sns.go
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appaws "school-pickup/internal/common/aws"
	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNS publishes to mobile platform endpoints. Player ids are endpoint ARNs.
type SNS struct {
	client    appaws.SNSAPI
	batchSize int
	logger    logger.Logger
}

func NewSNS(client appaws.SNSAPI, batchSize int, log logger.Logger) *SNS {
	return &SNS{
		client:    client,
		batchSize: batchSize,
		logger:    log.WithFields(map[string]interface{}{"provider": "sns"}),
	}
}

// platformMessage renders msg as an SNS message structure with FCM and APNs
// variants.
func platformMessage(msg Message) (string, error) {
	data := msg.data()

	fcm, err := json.Marshal(map[string]interface{}{
		"notification": map[string]string{"title": msg.Title, "body": msg.Message, "image": msg.ImageURL},
		"data":         data,
		"priority":     "high",
	})
	if err != nil {
		return "", err
	}
	apns, err := json.Marshal(map[string]interface{}{
		"aps": map[string]interface{}{
			"alert":              map[string]string{"title": msg.Title, "body": msg.Message},
			"sound":              "notification.wav",
			"interruption-level": "critical",
			"mutable-content":    1,
			"thread-id":          msg.GroupKey,
		},
		"data": data,
	})
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(map[string]string{
		"default":      msg.Message,
		"GCM":          string(fcm),
		"APNS":         string(apns),
		"APNS_SANDBOX": string(apns),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (s *SNS) SendToPlayerIDs(ctx context.Context, playerIDs []string, msg Message) error {
	if len(playerIDs) == 0 {
		return nil
	}
	body, err := platformMessage(msg)
	if err != nil {
		return fmt.Errorf("build sns message: %w", err)
	}

	var errs []error
	for _, arn := range playerIDs {
		_, err := s.client.Publish(ctx, &sns.PublishInput{
			TargetArn:        aws.String(arn),
			Message:          aws.String(body),
			MessageStructure: aws.String("json"),
		})
		if err != nil {
			s.logger.Warn("push send failed", map[string]interface{}{"error": err.Error(), "endpoint": arn})
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return apperrors.NewNotificationSendFailedError("sns", errors.Join(errs...))
	}
	return nil
}

func (s *SNS) SendToLargeGroup(ctx context.Context, playerIDs []string, msg Message) error {
	return sendInBatches(ctx, playerIDs, s.batchSize, func(ctx context.Context, batch []string) error {
		return s.SendToPlayerIDs(ctx, batch, msg)
	})
}

func (s *SNS) ScheduleForPlayerIDs(context.Context, []string, Message, time.Time) (ScheduleResult, error) {
	return ScheduleResult{}, ErrUnsupported
}

func (s *SNS) Cancel(context.Context, string) error {
	return ErrUnsupported
}

// SetExternalUserID is a no-op: endpoints are registered with their user data
// when the device token is created.
func (s *SNS) SetExternalUserID(context.Context, string, int64) error {
	return nil
}

func (s *SNS) UpdateUserTags(context.Context, int64, map[string]string) error {
	return ErrUnsupported
}
