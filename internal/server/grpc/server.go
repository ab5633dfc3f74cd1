// Package grpc serves the standard gRPC health protocol for the classifier
// slots, so orchestrators can probe model availability.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ModelAvailability reports whether a classifier slot is loaded.
type ModelAvailability interface {
	Available(modelType string) bool
}

type GRPCServer struct {
	address string
	models  ModelAvailability
	logger  logging.Logger
	health  *health.Server
}

func NewGRPCServer(a string, l logging.Logger, models ModelAvailability) *GRPCServer {
	s := &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		models:  models,
		health:  health.NewServer(),
	}
	s.updateHealth()
	return s
}

// updateHealth publishes one status per model type. The overall status
// (empty service name) is SERVING only when every model is loaded.
func (s *GRPCServer) updateHealth() {
	overall := healthpb.HealthCheckResponse_SERVING
	for _, mt := range []string{common.ModelTypeDrivingEvent, common.ModelTypeDrivingStyle} {
		st := healthpb.HealthCheckResponse_SERVING
		if !s.models.Available(mt) {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.health.SetServingStatus(mt, st)
	}
	s.health.SetServingStatus("", overall)
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
