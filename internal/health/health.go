// Package health exposes the standard gRPC health service so supervisors
// and grpc-health-probe can tell whether the controller loop is running.
package health

import (
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the controller.
const ServiceName = "portunus.controller"

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

// New registers the health and reflection services. Both the overall ("")
// and the controller status start as NOT_SERVING.
func New(logger *slog.Logger) *Server {
	gs := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{grpc: gs, health: hs, logger: logger.With("component", "health")}
	s.SetServing(false)
	return s
}

// SetServing flips the reported status. It is wired to the loop's state
// changes.
func (s *Server) SetServing(ok bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if ok {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	s.logger.Debug("health status", "status", status.String())
}

// Serve blocks serving on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health listening", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop marks everything NOT_SERVING and stops the server.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
