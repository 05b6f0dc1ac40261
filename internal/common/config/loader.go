package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<env>.yaml on top of it and
// applies environment overrides. The environment comes from APP_ENVIRONMENT.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return build(v)
}

// LoadFromFile loads configuration from a single explicit file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		s, ok := v.Get(key).(string)
		if !ok || !strings.Contains(s, "$") {
			continue
		}
		if expanded := os.ExpandEnv(s); expanded != s && expanded != "" {
			v.Set(key, expanded)
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Notifications.Push.OneSignal.AppID, "ONESIGNAL_APP_ID")
	setIfEmpty(&cfg.Notifications.Push.OneSignal.APIKey, "ONESIGNAL_API_KEY")
	setIfEmpty(&cfg.Integrations.AWS.Region, "AWS_REGION")
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, w := range cfg.Workers {
		if w.MaxJobsActive == 0 {
			w.MaxJobsActive = 5
		}
		if w.Timeout == 0 {
			w.Timeout = 30000
		}
		if w.MaxRetries == 0 {
			w.MaxRetries = 3
		}
		cfg.Workers[key] = w
	}

	push := &cfg.Notifications.Push
	if push.Provider == "" {
		push.Provider = "onesignal"
	}
	if push.BatchSize == 0 {
		push.BatchSize = 15000
	}
	if push.Timeout == 0 {
		push.Timeout = 10000
	}
	if push.OneSignal.APIURL == "" {
		push.OneSignal.APIURL = "https://onesignal.com/api/v1"
	}

	if cfg.Integrations.AWS.Region == "" {
		cfg.Integrations.AWS.Region = "us-east-1"
	}

	if cfg.Pickup.Timezone == "" {
		cfg.Pickup.Timezone = "UTC"
	}
	if cfg.Pickup.FastWindowBefore == 0 {
		cfg.Pickup.FastWindowBefore = 10
	}
	if cfg.Pickup.FastWindowAfter == 0 {
		cfg.Pickup.FastWindowAfter = 60
	}
	if cfg.Pickup.ListBasePath == "" {
		cfg.Pickup.ListBasePath = "req-for-receipt"
	}
	if cfg.Pickup.NotificationsPath == "" {
		cfg.Pickup.NotificationsPath = "notification"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	switch cfg.Notifications.Push.Provider {
	case "onesignal":
		if cfg.Notifications.Push.OneSignal.AppID == "" {
			return fmt.Errorf("notifications.push.onesignal.app_id is required")
		}
	case "sns":
	default:
		return fmt.Errorf("unsupported notifications.push.provider %q", cfg.Notifications.Push.Provider)
	}

	if _, err := time.LoadLocation(cfg.Pickup.Timezone); err != nil {
		return fmt.Errorf("pickup.timezone: %w", err)
	}
	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required when email is enabled")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig returns the named worker's settings or the defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if w, ok := cfg.Workers[workerName]; ok {
		return w
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled reports whether a worker should be started. Unknown workers are enabled.
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if w, ok := cfg.Workers[workerName]; ok {
		return w.Enabled
	}
	return true
}
