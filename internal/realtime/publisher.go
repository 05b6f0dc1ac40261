// internal/realtime/publisher.go
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"school-pickup/internal/common/logger"
	"school-pickup/internal/common/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventNewRequest tells a school dashboard to refresh its request list.
const EventNewRequest = "new-request"

// Envelope is the JSON message published on a channel.
type Envelope struct {
	ID     string      `json:"id"`
	Event  string      `json:"event"`
	Data   interface{} `json:"data"`
	SentAt time.Time   `json:"sentAt"`
}

// SchoolChannel is the channel a school dashboard listens on.
func SchoolChannel(schoolID int64) string {
	return fmt.Sprintf("school-%d", schoolID)
}

// Publisher fans events out to live dashboards over Redis pub/sub.
type Publisher struct {
	redis  *redis.Client
	prefix string
	now    func() time.Time
	logger logger.Logger
}

func NewPublisher(rdb *redis.Client, channelPrefix string, log logger.Logger) *Publisher {
	return &Publisher{
		redis:  rdb,
		prefix: channelPrefix,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "realtime"}),
	}
}

func (p *Publisher) envelope(event string, data interface{}) ([]byte, error) {
	return json.Marshal(Envelope{
		ID:     uuid.NewString(),
		Event:  event,
		Data:   data,
		SentAt: p.now().UTC(),
	})
}

// Trigger publishes one event on channel.
func (p *Publisher) Trigger(ctx context.Context, channel, event string, data interface{}) error {
	payload, err := p.envelope(event, data)
	if err != nil {
		metrics.RealtimePublishes.WithLabelValues(event, "error").Inc()
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	receivers, err := p.redis.Publish(ctx, p.prefix+channel, payload).Result()
	if err != nil {
		metrics.RealtimePublishes.WithLabelValues(event, "error").Inc()
		return fmt.Errorf("publish %s to %s: %w", event, channel, err)
	}

	metrics.RealtimePublishes.WithLabelValues(event, "ok").Inc()
	p.logger.Debug("realtime event published", map[string]interface{}{
		"channel":   channel,
		"event":     event,
		"receivers": receivers,
	})
	return nil
}
