// internal/subscription/checker.go
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"school-pickup/internal/common/database"
	apperrors "school-pickup/internal/common/errors"
	"school-pickup/internal/common/logger"
	"school-pickup/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const CacheTTL = 5 * time.Minute

const activeSubscriptionSQL = `
	SELECT EXISTS(
		SELECT 1 FROM school_subscriptions
		WHERE school_id = $1 AND status = 'ACTIVE' AND deleted_at IS NULL
	)`

func cacheKey(schoolID int64) string {
	return fmt.Sprintf("school-sub:%d", schoolID)
}

// Checker answers whether a school currently holds an active subscription.
// Only positive answers are cached in Redis. Negative answers always come
// from the database.
type Checker struct {
	pg     *database.PostgresClient
	redis  *redis.Client
	logger logger.Logger
}

func NewChecker(pg *database.PostgresClient, rdb *redis.Client, log logger.Logger) *Checker {
	return &Checker{
		pg:     pg,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"component": "subscription"}),
	}
}

func (c *Checker) IsSchoolSubscriptionActive(ctx context.Context, schoolID int64) (bool, error) {
	key := cacheKey(schoolID)
	if c.redis != nil {
		val, err := c.redis.Get(ctx, key).Result()
		if err == nil {
			if active, perr := strconv.ParseBool(val); perr == nil && active {
				metrics.SubscriptionCacheLookups.WithLabelValues("hit").Inc()
				return true, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("subscription cache read failed", map[string]interface{}{"schoolId": schoolID, "error": err.Error()})
		}
		metrics.SubscriptionCacheLookups.WithLabelValues("miss").Inc()
	}

	var active bool
	if err := c.pg.X.GetContext(ctx, &active, activeSubscriptionSQL, schoolID); err != nil {
		return false, apperrors.NewSubscriptionCheckFailedError(err)
	}

	if c.redis == nil {
		return active, nil
	}
	if !active {
		if err := c.Invalidate(ctx, schoolID); err != nil {
			c.logger.Warn("subscription cache invalidation failed", map[string]interface{}{"schoolId": schoolID, "error": err.Error()})
		}
		return false, nil
	}
	if err := c.redis.Set(ctx, key, strconv.FormatBool(true), CacheTTL).Err(); err != nil {
		c.logger.Warn("subscription cache write failed", map[string]interface{}{"schoolId": schoolID, "error": err.Error()})
	}
	return true, nil
}

// Invalidate drops the cached answer for a school.
func (c *Checker) Invalidate(ctx context.Context, schoolID int64) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, cacheKey(schoolID)).Err()
}
