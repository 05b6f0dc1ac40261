// internal/push/onesignal.go
package push

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"school-pickup/internal/common/config"
	apperrors "school-pickup/internal/common/errors"
	apphttp "school-pickup/internal/common/http"
	"school-pickup/internal/common/logger"

	"github.com/google/uuid"
)

const (
	notificationTTL      = 86400
	notificationPriority = 100
	externalUserPrefix   = "__"
)

type oneSignalNotification struct {
	AppID               string                 `json:"app_id"`
	IncludePlayerIDs    []string               `json:"include_player_ids"`
	Headings            map[string]string      `json:"headings"`
	Contents            map[string]string      `json:"contents"`
	URL                 string                 `json:"url,omitempty"`
	Data                map[string]interface{} `json:"data,omitempty"`
	Buttons             []Action               `json:"buttons,omitempty"`
	SmallIcon           string                 `json:"small_icon,omitempty"`
	ChromeIcon          string                 `json:"chrome_icon,omitempty"`
	ChromeWebIcon       string                 `json:"chrome_web_icon,omitempty"`
	FirefoxIcon         string                 `json:"firefox_icon,omitempty"`
	BigPicture          string                 `json:"big_picture,omitempty"`
	LargeIcon           string                 `json:"large_icon,omitempty"`
	IOSAttachments      map[string]string      `json:"ios_attachments,omitempty"`
	TTL                 int                    `json:"ttl"`
	IOSInterruption     string                 `json:"ios_interruption_level"`
	IOSSound            string                 `json:"ios_sound"`
	MutableContent      bool                   `json:"mutable_content"`
	Priority            int                    `json:"priority"`
	AndroidGroup        string                 `json:"android_group,omitempty"`
	AndroidGroupMessage map[string]string      `json:"android_group_message,omitempty"`
	ThreadID            string                 `json:"thread_id,omitempty"`
	IOSRelevanceScore   float64                `json:"ios_relevance_score,omitempty"`
	CollapseID          string                 `json:"collapse_id,omitempty"`
	SendAfter           string                 `json:"send_after,omitempty"`
}

type oneSignalResponse struct {
	ID     string      `json:"id"`
	Errors interface{} `json:"errors,omitempty"`
}

// OneSignal talks to the OneSignal REST API.
type OneSignal struct {
	client    *apphttp.Client
	apiURL    string
	appID     string
	apiKey    string
	logoURL   string
	batchSize int
	logger    logger.Logger
}

func NewOneSignal(cfg config.PushConfig, log logger.Logger) *OneSignal {
	return &OneSignal{
		client:    apphttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		apiURL:    cfg.OneSignal.APIURL,
		appID:     cfg.OneSignal.AppID,
		apiKey:    cfg.OneSignal.APIKey,
		logoURL:   cfg.OneSignal.LogoURL,
		batchSize: cfg.BatchSize,
		logger:    log.WithFields(map[string]interface{}{"provider": "onesignal"}),
	}
}

func (o *OneSignal) headers() map[string]string {
	return map[string]string{"Authorization": "Basic " + o.apiKey}
}

// validPlayerIDs keeps the canonical UUID shaped ids OneSignal accepts.
func validPlayerIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if len(id) != 36 {
			continue
		}
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func (o *OneSignal) buildNotification(playerIDs []string, msg Message) oneSignalNotification {
	lang := msg.lang()
	n := oneSignalNotification{
		AppID:            o.appID,
		IncludePlayerIDs: playerIDs,
		Headings:         map[string]string{lang: msg.Title},
		Contents:         map[string]string{lang: msg.Message},
		URL:              msg.URL,
		Data:             msg.data(),
		Buttons:          msg.Actions,
		SmallIcon:        o.logoURL,
		ChromeIcon:       o.logoURL,
		ChromeWebIcon:    o.logoURL,
		FirefoxIcon:      o.logoURL,
		TTL:              notificationTTL,
		IOSInterruption:  "critical",
		IOSSound:         "notification.wav",
		MutableContent:   true,
		Priority:         notificationPriority,
	}
	if msg.ImageURL != "" {
		n.BigPicture = msg.ImageURL
		n.LargeIcon = msg.ImageURL
		n.IOSAttachments = map[string]string{"image": msg.ImageURL}
	}
	if msg.GroupKey != "" {
		groupMessage := msg.GroupMessage
		if groupMessage == "" {
			groupMessage = "$[notif_count] new messages from " + msg.Title
		}
		n.AndroidGroup = msg.GroupKey
		n.AndroidGroupMessage = map[string]string{lang: groupMessage}
		n.ThreadID = msg.GroupKey
		n.IOSRelevanceScore = 0.8
		n.CollapseID = msg.GroupKey
	}
	if msg.CollapseKey != "" {
		n.CollapseID = msg.CollapseKey
	}
	return n
}

func (o *OneSignal) post(ctx context.Context, body oneSignalNotification) (string, error) {
	var resp oneSignalResponse
	if err := o.client.DoJSON(ctx, http.MethodPost, o.apiURL+"/notifications", o.headers(), body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("notification rejected: %v", resp.Errors)
	}
	return resp.ID, nil
}

func (o *OneSignal) SendToPlayerIDs(ctx context.Context, playerIDs []string, msg Message) error {
	ids := validPlayerIDs(playerIDs)
	if len(ids) == 0 {
		o.logger.Debug("no valid player ids, skipping push", map[string]interface{}{"requested": len(playerIDs)})
		return nil
	}

	id, err := o.post(ctx, o.buildNotification(ids, msg))
	if err != nil {
		o.logger.Warn("push send failed", map[string]interface{}{"error": err.Error(), "recipients": len(ids)})
		return apperrors.NewNotificationSendFailedError("onesignal", err)
	}
	o.logger.Debug("push sent", map[string]interface{}{"notificationId": id, "recipients": len(ids)})
	return nil
}

func (o *OneSignal) SendToLargeGroup(ctx context.Context, playerIDs []string, msg Message) error {
	return sendInBatches(ctx, playerIDs, o.batchSize, func(ctx context.Context, batch []string) error {
		return o.SendToPlayerIDs(ctx, batch, msg)
	})
}

func (o *OneSignal) ScheduleForPlayerIDs(ctx context.Context, playerIDs []string, msg Message, at time.Time) (ScheduleResult, error) {
	body := o.buildNotification(validPlayerIDs(playerIDs), msg)
	body.SendAfter = at.UTC().Format(time.RFC3339)

	id, err := o.post(ctx, body)
	if err != nil {
		o.logger.Warn("push schedule failed", map[string]interface{}{"error": err.Error(), "sendAfter": body.SendAfter})
		return ScheduleResult{}, apperrors.NewNotificationSendFailedError("onesignal", err)
	}
	return ScheduleResult{Success: true, ExternalID: id}, nil
}

func (o *OneSignal) Cancel(ctx context.Context, externalID string) error {
	endpoint := fmt.Sprintf("%s/notifications/%s?app_id=%s",
		o.apiURL, url.PathEscape(externalID), url.QueryEscape(o.appID))
	if err := o.client.DoJSON(ctx, http.MethodDelete, endpoint, o.headers(), nil, nil); err != nil {
		o.logger.Warn("push cancel failed", map[string]interface{}{"error": err.Error(), "externalId": externalID})
		return apperrors.NewExternalServiceError("onesignal", err)
	}
	return nil
}

// SetExternalUserID links a device to one of our users.
func (o *OneSignal) SetExternalUserID(ctx context.Context, playerID string, userID int64) error {
	body := map[string]string{
		"app_id":           o.appID,
		"external_user_id": externalUserPrefix + strconv.FormatInt(userID, 10),
	}
	endpoint := o.apiURL + "/players/" + url.PathEscape(playerID)
	if err := o.client.DoJSON(ctx, http.MethodPut, endpoint, o.headers(), body, nil); err != nil {
		o.logger.Warn("set external user id failed", map[string]interface{}{"error": err.Error(), "userId": userID})
		return apperrors.NewExternalServiceError("onesignal", err)
	}
	return nil
}

func (o *OneSignal) UpdateUserTags(ctx context.Context, userID int64, tags map[string]string) error {
	endpoint := fmt.Sprintf("%s/apps/%s/users/%s%d", o.apiURL, url.PathEscape(o.appID), externalUserPrefix, userID)
	body := map[string]interface{}{"tags": tags}
	if err := o.client.DoJSON(ctx, http.MethodPut, endpoint, o.headers(), body, nil); err != nil {
		o.logger.Warn("update user tags failed", map[string]interface{}{"error": err.Error(), "userId": userID})
		return apperrors.NewExternalServiceError("onesignal", err)
	}
	return nil
}
