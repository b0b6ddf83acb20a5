// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/common"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/handler"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCServer manages the gRPC server lifecycle.
type GRPCServer struct {
	server  *grpc.Server
	health  *health.Server
	port    int
	service handler.UnlockServiceServer
}

// NewGRPCServer creates a new gRPC server instance.
func NewGRPCServer(port int, service handler.UnlockServiceServer) *GRPCServer {
	return &GRPCServer{
		port:    port,
		service: service,
	}
}

// Setup configures the gRPC server with interceptors and registers handlers.
//
// ============================================================
// DEVELOPER: gRPC server configuration
// ============================================================
// This method sets up:
// 1. Interceptors (logging, auth, rate limiting, etc.)
// 2. The unlock service (Begin, Advance, Resolve, SchedulePromotion)
// 3. Server features (reflection, health checks)
// ============================================================
func (s *GRPCServer) Setup() error {
	// ============================================================
	// DEVELOPER: Add custom gRPC interceptors here
	// ============================================================
	// Interceptors wrap all gRPC calls for cross-cutting concerns
	// such as authentication or request validation.
	//
	// Example:
	// unaryInterceptors = append(unaryInterceptors, myAuthInterceptor)
	// ============================================================
	unaryInterceptors := []grpc.UnaryServerInterceptor{
		logging.UnaryServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}
	streamInterceptors := []grpc.StreamServerInterceptor{
		logging.StreamServerInterceptor(common.InterceptorLogger(logrus.StandardLogger())),
	}

	// Create server with OpenTelemetry instrumentation
	s.server = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unaryInterceptors...),
		grpc.ChainStreamInterceptor(streamInterceptors...),
	)

	handler.RegisterUnlockServiceServer(s.server, s.service)
	logrus.Infof("registered service: %s", handler.UnlockServiceDesc.ServiceName)

	// ============================================================
	// Enable gRPC server features
	// ============================================================
	// - Reflection: allows tools like grpcurl to inspect services
	// - Health check: for Kubernetes liveness/readiness probes,
	//   flipped to NOT_SERVING while Redis is unreachable
	// ============================================================
	reflection.Register(s.server)
	s.health = health.NewServer()
	grpc_health_v1.RegisterHealthServer(s.server, s.health)

	logrus.Infof("gRPC reflection and health check enabled")

	return nil
}

// SetServing reports the readiness of the service on the health endpoint.
func (s *GRPCServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if !serving {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(handler.UnlockServiceDesc.ServiceName, status)
}

// Start begins listening and serving gRPC requests.
func (s *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}

	go func() {
		logrus.Infof("gRPC server listening on port %d", s.port)
		if err := s.server.Serve(lis); err != nil {
			logrus.Fatalf("gRPC server failed: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops the gRPC server.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down gRPC server...")
	s.server.GracefulStop()
	logrus.Info("gRPC server stopped")
	return nil
}
