// internal/notification/email.go
package notification

import (
	"context"
	"html"

	"school-pickup/internal/common/metrics"
	"school-pickup/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// emailFallback mails req to targeted users that have no registered device
// but do have an email address. Failures are logged only.
func (s *Service) emailFallback(ctx context.Context, users []models.User, req Request) {
	if !s.opts.EmailEnabled || s.mailer == nil {
		return
	}

	for _, u := range users {
		if len(u.PlayerIDs) > 0 || u.Email == nil || *u.Email == "" {
			continue
		}
		if err := s.sendEmail(ctx, *u.Email, req.Title, req.Message); err != nil {
			metrics.NotificationsSent.WithLabelValues(channelEmail, resultError).Inc()
			s.logger.Error("email send failed", map[string]interface{}{
				"userId": u.ID,
				"error":  err.Error(),
			})
			continue
		}
		metrics.NotificationsSent.WithLabelValues(channelEmail, resultOK).Inc()
	}
}

func (s *Service) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.mailer.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String("<p>" + html.EscapeString(body) + "</p>")},
			},
		},
		Source: aws.String(s.opts.FromEmail),
	})
	return err
}
