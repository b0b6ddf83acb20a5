// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import "time"

// Config holds all application configuration loaded from environment variables.
// This struct uses github.com/caarlos0/env for automatic environment variable parsing.
//
// ============================================================
// DEVELOPER: Add new configuration fields here.
// ============================================================
// Use struct tags to define:
// - `env:"VAR_NAME"` - the environment variable name
// - `env:",required"` - make it required
// - `envDefault:"value"` - set a default value
//
// Gated features and their actions are not configured here but in the
// YAML file at CONFIG_PATH (see config/features.yaml).
// ============================================================
type Config struct {
	// ============================================================
	// Server configuration
	// ============================================================
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"ExtendSponsorUnlock"`

	// ============================================================
	// Logging configuration
	// ============================================================
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"7"`

	// ============================================================
	// AccelByte configuration (REQUIRED)
	// ============================================================
	ABNamespace    string `env:"AB_NAMESPACE,required"`
	ABBaseURL      string `env:"AB_BASE_URL,required"`
	ABClientID     string `env:"AB_CLIENT_ID,required"`
	ABClientSecret string `env:"AB_CLIENT_SECRET,required"`

	// CompletionStatCode is incremented when a user clears a full-source pass.
	CompletionStatCode string `env:"COMPLETION_STAT_CODE" envDefault:"sponsor-offers-completed"`

	// ============================================================
	// Redis configuration
	// ============================================================
	RedisHost           string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort           string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisMaxRetries     int           `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs   int           `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`
	RedisKeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"sponsor_unlock:"`
	RedisHealthInterval time.Duration `env:"REDIS_HEALTH_INTERVAL" envDefault:"30s"`

	// PassTTL bounds how long shown offers are remembered between calls.
	PassTTL time.Duration `env:"PASS_TTL" envDefault:"10m"`

	// Timezone decides when the daily fallback cap rolls over.
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	// ============================================================
	// Sponsor catalog database
	// ============================================================
	CatalogDriver string `env:"CATALOG_DRIVER" envDefault:"sqlite"`
	CatalogDSN    string `env:"CATALOG_DSN" envDefault:"file:catalog.db?_pragma=busy_timeout(5000)"`

	// MembershipConcurrency bounds parallel chat membership checks.
	MembershipConcurrency int `env:"MEMBERSHIP_CONCURRENCY" envDefault:"8"`

	// ============================================================
	// Partner providers (a partner without URL is disabled)
	// ============================================================
	ProviderAURL         string `env:"PROVIDER_A_URL"`
	ProviderAToken       string `env:"PROVIDER_A_TOKEN"`
	ProviderATokenHeader string `env:"PROVIDER_A_TOKEN_HEADER" envDefault:"Authorization"`
	ProviderASelfDomain  string `env:"PROVIDER_A_SELF_DOMAIN"`

	ProviderBURL         string `env:"PROVIDER_B_URL"`
	ProviderBToken       string `env:"PROVIDER_B_TOKEN"`
	ProviderBTokenHeader string `env:"PROVIDER_B_TOKEN_HEADER" envDefault:"Auth"`

	ProviderCURL         string `env:"PROVIDER_C_URL"`
	ProviderCToken       string `env:"PROVIDER_C_TOKEN"`
	ProviderCTokenHeader string `env:"PROVIDER_C_TOKEN_HEADER" envDefault:"Auth"`

	ProviderTimeout       time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"5s"`
	ProviderRateLimit     float64       `env:"PROVIDER_RATE_LIMIT" envDefault:"10"`
	ProviderBurst         int           `env:"PROVIDER_BURST" envDefault:"20"`
	ProviderMaxRetries    uint64        `env:"PROVIDER_MAX_RETRIES" envDefault:"1"`
	ProviderRetryInterval time.Duration `env:"PROVIDER_RETRY_INTERVAL" envDefault:"200ms"`

	// ============================================================
	// Telegram (messenger runs offline without a token)
	// ============================================================
	TelegramToken  string  `env:"TELEGRAM_TOKEN"`
	TelegramAPIURL string  `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	AdminIDs       []int64 `env:"ADMIN_IDS" envSeparator:","`

	// ============================================================
	// Feature configuration
	// ============================================================
	ConfigPath string `env:"CONFIG_PATH" envDefault:"config/features.yaml"`

	// ============================================================
	// Promotion spam
	// ============================================================
	SpamEnabled            bool          `env:"SPAM_ENABLED" envDefault:"true"`
	SpamRepeatPerPromotion int           `env:"SPAM_REPEAT_PER_PROMOTION" envDefault:"1"`
	SpamRepeatInterval     time.Duration `env:"SPAM_REPEAT_INTERVAL" envDefault:"30s"`
	SpamBetweenInterval    time.Duration `env:"SPAM_BETWEEN_INTERVAL" envDefault:"30s"`
	SpamMaxRetries         int           `env:"SPAM_MAX_RETRIES" envDefault:"3"`
	SpamRetryInterval      time.Duration `env:"SPAM_RETRY_INTERVAL" envDefault:"2s"`
	SpamLockIdleTTL        time.Duration `env:"SPAM_LOCK_IDLE_TTL" envDefault:"10m"`
	SpamMaxLocks           int           `env:"SPAM_MAX_LOCKS" envDefault:"10000"`

	// ============================================================
	// Telemetry configuration
	// ============================================================
	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"true"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"extend-sponsor-unlock"`
}
