// Package api serves the kubefoundry HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"

	v0 "github.com/kubefoundry/kubefoundry/internal/api/handlers/v0"
	"github.com/kubefoundry/kubefoundry/internal/api/router"
	"github.com/kubefoundry/kubefoundry/internal/logging"
	"github.com/kubefoundry/kubefoundry/internal/version"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// Title and description of the generated OpenAPI document.
const (
	Title       = "KubeFoundry"
	Description = "Plan, cost and deploy LLM inference workloads onto Kubernetes through Dynamo, KubeRay or KAITO."
)

// Options configures a Server.
type Options struct {
	ListenAddress string
	CORSOrigins   []string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Logger  *zap.Logger
}

// Server is the HTTP front of the planner and installer.
type Server struct {
	http   *http.Server
	api    huma.API
	logger *zap.Logger
}

// NewHumaConfig returns the huma configuration shared by the server and the
// OpenAPI generator.
func NewHumaConfig() huma.Config {
	cfg := huma.DefaultConfig(Title, version.Version)
	cfg.Info.Description = Description
	cfg.CreateHooks = []func(huma.Config) huma.Config{}
	return cfg
}

// NewServer registers every route on a fresh mux.
func NewServer(svc *v0.Services, opts Options) *Server {
	logger := logging.OrNop(opts.Logger)
	mux := http.NewServeMux()
	api := humago.New(mux, NewHumaConfig())
	router.RegisterRoutes(api, svc, &v0.VersionBody{
		Version:   version.Version,
		GitCommit: version.GitCommit,
		BuildTime: version.BuildDate,
	})
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}

	var handler http.Handler = mux
	handler = requestID(logger, handler)
	if len(opts.CORSOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
		}).Handler(handler)
	}

	return &Server{
		http: &http.Server{
			Addr:              opts.ListenAddress,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		api:    api,
		logger: logger,
	}
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// OpenAPI returns the document describing the registered routes.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.api.OpenAPI()
}

// Run serves until ctx is done or the listener fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("address", s.http.Addr))
		// ErrServerClosed means we are already shutting down.
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return s.http.Shutdown(shutdownCtx)
}

func requestID(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.SetRequestID(r.Context(), id)
		logging.WithRequestID(ctx, logger).Debug("request",
			zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
