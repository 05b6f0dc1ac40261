// internal/push/push.go
package push

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"school-pickup/internal/common/aws"
	"school-pickup/internal/common/config"
	"school-pickup/internal/common/logger"
	"school-pickup/internal/common/metrics"
	"school-pickup/internal/models"
)

const DefaultBatchSize = 15000

// ErrUnsupported is returned by providers for operations they cannot perform.
var ErrUnsupported = errors.New("push: operation not supported by provider")

type Action struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Icon string `json:"icon,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Message is the provider independent push payload.
type Message struct {
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Lang           string                 `json:"lang,omitempty"`
	URL            string                 `json:"url,omitempty"`
	ImageURL       string                 `json:"imageUrl,omitempty"`
	NavigationData *models.NavigationData `json:"navigationData,omitempty"`
	Actions        []Action               `json:"actions,omitempty"`
	CustomData     map[string]interface{} `json:"customData,omitempty"`
	GroupKey       string                 `json:"groupKey,omitempty"`
	GroupMessage   string                 `json:"groupMessage,omitempty"`
	CollapseKey    string                 `json:"collapseKey,omitempty"`
}

func (m Message) lang() string {
	if m.Lang == "" {
		return "en"
	}
	return m.Lang
}

// data merges the navigation deep link with the caller's custom data.
func (m Message) data() map[string]interface{} {
	out := m.NavigationData.AsMap()
	if out == nil && len(m.CustomData) == 0 {
		return nil
	}
	if out == nil {
		out = make(map[string]interface{}, len(m.CustomData))
	}
	for k, v := range m.CustomData {
		out[k] = v
	}
	return out
}

type ScheduleResult struct {
	Success    bool   `json:"success"`
	ExternalID string `json:"externalId,omitempty"`
}

// Gateway delivers push notifications to devices identified by player ids.
type Gateway interface {
	SendToPlayerIDs(ctx context.Context, playerIDs []string, msg Message) error
	// SendToLargeGroup splits playerIDs into provider sized batches, sends
	// them concurrently and fails if any batch failed.
	SendToLargeGroup(ctx context.Context, playerIDs []string, msg Message) error
	ScheduleForPlayerIDs(ctx context.Context, playerIDs []string, msg Message, at time.Time) (ScheduleResult, error)
	Cancel(ctx context.Context, externalID string) error
	SetExternalUserID(ctx context.Context, playerID string, userID int64) error
	UpdateUserTags(ctx context.Context, userID int64, tags map[string]string) error
}

// New builds the gateway selected by cfg.Provider. snsAPI is only used by
// the sns provider.
func New(cfg config.PushConfig, snsAPI aws.SNSAPI, log logger.Logger) (Gateway, error) {
	switch cfg.Provider {
	case "", "onesignal":
		if cfg.OneSignal.AppID == "" || cfg.OneSignal.APIKey == "" {
			return nil, fmt.Errorf("onesignal provider requires app_id and api_key")
		}
		return NewOneSignal(cfg, log), nil
	case "sns":
		if snsAPI == nil {
			return nil, fmt.Errorf("sns provider requires an SNS client")
		}
		return NewSNS(snsAPI, cfg.BatchSize, log), nil
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.Provider)
	}
}

// sendInBatches runs send for every chunk of at most size ids in parallel and
// joins the errors of the failed chunks.
func sendInBatches(ctx context.Context, ids []string, size int, send func(context.Context, []string) error) error {
	if len(ids) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultBatchSize
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		metrics.PushBatchSize.Observe(float64(len(batch)))

		wg.Add(1)
		go func(batch []string) {
			defer wg.Done()
			if err := send(ctx, batch); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(batch)
	}
	wg.Wait()
	return errors.Join(errs...)
}
