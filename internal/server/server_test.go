// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/handler"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/metrics"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func TestMetricsServer_ExposesApplicationMetrics(t *testing.T) {
	m := NewMetricsServer(0, "/metrics")
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	metrics.SpamRunsTotal.WithLabelValues("completed").Inc()

	rec := httptest.NewRecorder()
	m.server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "sponsor_unlock_spam_runs_total") {
		t.Error("application metrics are not exposed")
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("runtime metrics are not exposed")
	}
}

func TestGRPCServer_SetServing(t *testing.T) {
	s := NewGRPCServer(0, handler.NewUnlock(nil, nil, nil))
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	check := func() grpc_health_v1.HealthCheckResponse_ServingStatus {
		res, err := s.health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{
			Service: handler.UnlockServiceDesc.ServiceName,
		})
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		return res.GetStatus()
	}

	s.SetServing(false)
	if got := check(); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %s, expected NOT_SERVING", got)
	}
	s.SetServing(true)
	if got := check(); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("status = %s, expected SERVING", got)
	}
}
