// Package health реализует gRPC-сервер проверки здоровья сервиса.
//
// Server отдаёт стандартный grpc.health.v1.Health: SERVING для ServiceName, пока
// приложение работает, и NOT_SERVING с момента начала остановки.
package health

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName имя сервиса в ответах проверки здоровья.
const ServiceName = "risk-monitor"

// Server gRPC-сервер со службой проверки здоровья.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	log        *slog.Logger
}

// New создает сервер и отмечает ServiceName как SERVING.
func New(log *slog.Logger) *Server {
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{
		grpcServer: grpcServer,
		health:     hs,
		log:        log,
	}
}

// Serve принимает соединения на lis до вызова Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC health service listening on", slog.String("address", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// SetServing переключает статус ServiceName.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

// Stop отмечает все службы как NOT_SERVING и дожидается завершения активных вызовов.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
