// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/catalog"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load reads configuration from environment variables.
// It attempts to load from .env file first (for local development),
// then parses environment variables into the Config struct.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	// In production (Docker/K8s), environment variables are injected directly
	if err := godotenv.Load(); err != nil {
		logrus.Warnf("no .env file found or error loading it: %v (this is normal in production)", err)
	} else {
		logrus.Infof("loaded environment variables from .env file")
	}

	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	return cfg, nil
}

// Validate performs custom validation on the configuration.
// Every problem is reported, not only the first.
func (c *Config) Validate() error {
	var errs []error

	// Validate server ports
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid GRPC_PORT: %d (must be 1-65535)", c.GRPCPort))
	}
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid METRICS_PORT: %d (must be 1-65535)", c.MetricsPort))
	}

	// Validate required fields
	if c.ABNamespace == "" {
		errs = append(errs, errors.New("AB_NAMESPACE is required"))
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %s", c.LogLevel))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE: %s", c.Timezone))
	}

	switch c.CatalogDriver {
	case catalog.DriverSQLite, catalog.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("invalid CATALOG_DRIVER: %s (must be %s or %s)",
			c.CatalogDriver, catalog.DriverSQLite, catalog.DriverPostgres))
	}

	if c.PassTTL <= 0 {
		errs = append(errs, fmt.Errorf("invalid PASS_TTL: %s (must be positive)", c.PassTTL))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid PROVIDER_TIMEOUT: %s (must be positive)", c.ProviderTimeout))
	}
	if c.ProviderRateLimit < 0 {
		errs = append(errs, fmt.Errorf("invalid PROVIDER_RATE_LIMIT: %v (must be non-negative)", c.ProviderRateLimit))
	}
	if c.MembershipConcurrency < 1 {
		errs = append(errs, fmt.Errorf("invalid MEMBERSHIP_CONCURRENCY: %d (must be at least 1)", c.MembershipConcurrency))
	}

	if c.SpamRepeatPerPromotion < 1 {
		errs = append(errs, fmt.Errorf("invalid SPAM_REPEAT_PER_PROMOTION: %d (must be at least 1)", c.SpamRepeatPerPromotion))
	}
	if c.SpamMaxRetries < 1 {
		errs = append(errs, fmt.Errorf("invalid SPAM_MAX_RETRIES: %d (must be at least 1)", c.SpamMaxRetries))
	}
	if c.SpamRepeatInterval < 0 || c.SpamBetweenInterval < 0 || c.SpamRetryInterval < 0 {
		errs = append(errs, errors.New("spam intervals must be non-negative"))
	}

	return errors.Join(errs...)
}

// Location returns the timezone the daily cap rolls over in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
