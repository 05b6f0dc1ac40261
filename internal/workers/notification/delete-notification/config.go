// internal/workers/notification/delete-notification/config.go
package deletenotification

import (
	"fmt"
	"time"

	"school-pickup/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
	}
}

// FromWorkerConfig reads the worker section of the application config,
// keeping defaults for unset values.
func FromWorkerConfig(w config.WorkerConfig) *Config {
	c := DefaultConfig()
	c.Enabled = w.Enabled
	if w.MaxJobsActive > 0 {
		c.MaxJobsActive = w.MaxJobsActive
	}
	if w.Timeout > 0 {
		c.Timeout = time.Duration(w.Timeout) * time.Millisecond
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}
