package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	grpcSlog "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpcRecovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/jekabolt/grbpwr-reports/internal/dependency"
	"github.com/jekabolt/grbpwr-reports/internal/middleware"
	"github.com/jekabolt/grbpwr-reports/internal/ratelimit"
	"github.com/jekabolt/grbpwr-reports/internal/report"
	"github.com/jekabolt/grbpwr-reports/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Config is the configuration for the http server
type Config struct {
	Port           string           `mapstructure:"port"`
	Address        string           `mapstructure:"address"`
	AllowedOrigins []string         `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration    `mapstructure:"request_timeout"`
	RateLimit      ratelimit.Config `mapstructure:"rate_limit"`
}

// Server serves the report API over HTTP/1 and the gRPC health service over
// h2c on the same port.
type Server struct {
	hs     *http.Server
	gs     *grpc.Server
	c      *Config
	repo   dependency.Repository
	engine *report.Engine
	limits *ratelimit.MultiKeyLimiter
	done   chan struct{}
}

// New creates a new server
func New(config *Config, repo dependency.Repository, engine *report.Engine) *Server {
	return &Server{
		c:      config,
		repo:   repo,
		engine: engine,
		limits: ratelimit.NewMultiKeyLimiter(config.RateLimit),
		done:   make(chan struct{}),
	}
}

// Done returns a channel that is closed when the server exits
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Start starts the server
func (s *Server) Start(ctx context.Context) error {
	opts := []grpcSlog.Option{
		grpcSlog.WithLogOnEvents(grpcSlog.StartCall, grpcSlog.FinishCall),
	}

	s.gs = grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcSlog.UnaryServerInterceptor(log.InterceptorLogger(slog.Default()), opts...),
			grpcRecovery.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			grpcSlog.StreamServerInterceptor(log.InterceptorLogger(slog.Default()), opts...),
			grpcRecovery.StreamServerInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(s.gs, &healthServer{repo: s.repo})

	apiHandler := s.Router()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ProtoMajor == 2 && strings.Contains(r.Header.Get("Content-Type"), "application/grpc") {
			s.gs.ServeHTTP(w, r)
			return
		}
		apiHandler.ServeHTTP(w, r)
	})

	listenerAddr := fmt.Sprintf("%s:%s", s.c.Address, s.c.Port)
	s.hs = &http.Server{
		Addr:              listenerAddr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Default().InfoContext(ctx, "grbpwr-reports new listener", slog.String("addr", "http://"+listenerAddr))
		err := s.hs.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			slog.Default().InfoContext(ctx, "http server returned")
		} else {
			slog.Default().ErrorContext(ctx, "http server exited with an error",
				slog.String("err", err.Error()),
			)
		}
		close(s.done)
	}()

	return nil
}

// Stop gracefully shuts both servers down.
func (s *Server) Stop(ctx context.Context) error {
	s.limits.Stop()
	if s.gs != nil {
		s.gs.GracefulStop()
	}
	if s.hs == nil {
		return nil
	}
	return s.hs.Shutdown(ctx)
}

// cors allows localhost and the configured origins.
func (s *Server) cors() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return isOriginAllowed(origin, s.c.AllowedOrigins)
		},
		AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "https://localhost:") {
		return true
	}
	for _, allowedOrigin := range allowedOrigins {
		if origin == allowedOrigin {
			return true
		}
	}
	return false
}

type healthServer struct {
	healthpb.UnimplementedHealthServer
	repo dependency.Repository
}

// Check reports SERVING while the repository answers pings.
func (h *healthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if err := h.repo.Ping(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "health check failed",
			slog.String("err", err.Error()),
		)
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
