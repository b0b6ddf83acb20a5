// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 1 << 20

// PartnerConfig configures the HTTP client of one partner network.
type PartnerConfig struct {
	BaseURL     string
	Token       string
	TokenHeader string
	Timeout     time.Duration

	// RateLimit is requests per second, 0 disables limiting.
	RateLimit float64
	Burst     int

	MaxRetries    uint64
	RetryInterval time.Duration
}

// StatusError is returned for non-2xx partner responses.
type StatusError struct {
	Partner string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d: %s", e.Partner, e.Code, e.Body)
}

// PartnerClient posts JSON to a partner API with rate limiting, tracing and
// bounded retries on transport errors and 5xx responses.
type PartnerClient struct {
	name    string
	cfg     PartnerConfig
	http    *http.Client
	limiter *rate.Limiter
}

// NewPartnerClient creates a client for the named partner.
func NewPartnerClient(name string, cfg PartnerConfig) *PartnerClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.TokenHeader == "" {
		cfg.TokenHeader = "Authorization"
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &PartnerClient{
		name: name,
		cfg:  cfg,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: limiter,
	}
}

// PostJSON sends body to path and decodes the response into out.
func (c *PartnerClient) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", c.name, err)
	}

	attempt := 0
	op := func() error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		err := c.do(ctx, path, payload, out)
		if err != nil {
			logrus.Debugf("%s %s attempt %d failed: %v", c.name, path, attempt, err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.cfg.MaxRetries), ctx)

	return backoff.Retry(op, policy)
}

func (c *PartnerClient) do(ctx context.Context, path string, payload []byte, out interface{}) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build %s request: %w", c.name, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set(c.cfg.TokenHeader, c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", c.name, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{Partner: c.name, Code: resp.StatusCode, Body: truncate(string(data), 256)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return backoff.Permanent(&StatusError{Partner: c.name, Code: resp.StatusCode, Body: truncate(string(data), 256)})
	}

	if err := json.Unmarshal(data, out); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to decode %s response: %w", c.name, err))
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
