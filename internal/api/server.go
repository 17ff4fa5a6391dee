package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bricknest/portal-core/internal/controller"
	"github.com/bricknest/portal-core/internal/infrastructure/config"
	"github.com/bricknest/portal-core/internal/infrastructure/logging"
	"github.com/bricknest/portal-core/internal/tag"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Registry *tag.Registry
	Repo     tag.Repository
	Loop     *controller.Loop // Optional; status endpoints degrade gracefully without it
	Device   string           // Driver kind reported by /api/status ("usb" or "simulated")
	Version  string
}

// Server is the HTTP API server for Portal Core.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	registry *tag.Registry
	repo     tag.Repository
	loop     *controller.Loop
	device   string
	version  string

	server *http.Server
}

// New creates an API server from its dependencies.
//
// Parameters:
//   - deps: Required and optional collaborators
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("tag registry is required")
	}
	if deps.Repo == nil {
		return nil, fmt.Errorf("tag repository is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		registry: deps.Registry,
		repo:     deps.Repo,
		loop:     deps.Loop,
		device:   deps.Device,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
