// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// HealthChecker provides Redis health check functionality
type HealthChecker struct {
	client  *redis.Client
	timeout time.Duration
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(client *redis.Client) *HealthChecker {
	return &HealthChecker{client: client, timeout: 2 * time.Second}
}

// Check performs a Redis health check
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.client.Ping(ctx).Err(); err != nil {
		logrus.Errorf("Redis health check failed: %v", err)
		return err
	}

	return nil
}

// Watch calls report with the health result every interval until ctx ends.
func (h *HealthChecker) Watch(ctx context.Context, interval time.Duration, report func(healthy bool)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	report(h.Check(ctx) == nil)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report(h.Check(ctx) == nil)
		}
	}
}
