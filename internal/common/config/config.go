package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the pickup coordination service.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Pickup        PickupConfig            `mapstructure:"pickup"`
	Realtime      RealtimeConfig          `mapstructure:"realtime"`
	Server        ServerConfig            `mapstructure:"server"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the lib/pq connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// IntegrationConfig holds credentials for external providers.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// NotificationConfig configures push delivery and the email fallback channel.
type NotificationConfig struct {
	Push  PushConfig `mapstructure:"push"`
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
}

type PushConfig struct {
	Provider          string `mapstructure:"provider"` // onesignal | sns
	BatchSize         int    `mapstructure:"batch_size"`
	Timeout           int    `mapstructure:"timeout"` // milliseconds
	SchedulingEnabled bool   `mapstructure:"scheduling_enabled"`
	OneSignal         struct {
		APIURL  string `mapstructure:"api_url"`
		AppID   string `mapstructure:"app_id"`
		APIKey  string `mapstructure:"api_key"`
		LogoURL string `mapstructure:"logo_url"`
	} `mapstructure:"onesignal"`
}

// PickupConfig holds the school-local rules for fast requests.
type PickupConfig struct {
	Timezone          string `mapstructure:"timezone"`
	FastWindowBefore  int    `mapstructure:"fast_window_before"` // minutes
	FastWindowAfter   int    `mapstructure:"fast_window_after"`  // minutes
	ListBasePath      string `mapstructure:"list_base_path"`
	NotificationsPath string `mapstructure:"notifications_path"`
}

// Location resolves the configured timezone, falling back to UTC.
func (p PickupConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type RealtimeConfig struct {
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
