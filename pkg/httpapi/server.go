// Package httpapi exposes a camera session over HTTP: the current image on
// demand plus session status.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/backkem/p2pcam/pkg/camera"
	"github.com/gin-gonic/gin"
	"github.com/pion/logging"
)

// Camera is the session the server reads from. *camera.Session satisfies it.
type Camera interface {
	RetrieveImage(ctx context.Context) ([]byte, error)
	Stats() camera.Stats
}

// Config holds server configuration.
type Config struct {
	Addr            string        // Listen address (default: ":8080")
	Name            string        // Camera name reported by /status
	SnapshotTimeout time.Duration // Upper bound for one snapshot (default: 30s)
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		Name:            "camera",
		SnapshotTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    45 * time.Second,
	}
}

// Server serves one camera.
type Server struct {
	camera     Camera
	config     *Config
	router     *gin.Engine
	httpServer *http.Server
	log        logging.LeveledLogger
}

// NewServer creates a server. A nil config selects DefaultConfig.
func NewServer(cam Camera, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	defaults := DefaultConfig()
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.SnapshotTimeout <= 0 {
		config.SnapshotTimeout = defaults.SnapshotTimeout
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		camera: cam,
		config: config,
		router: gin.New(),
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("p2pcam-http")
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/snapshot", s.handleSnapshot)
		v1.GET("/status", s.handleStatus)
		v1.GET("/health", s.handleHealth)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.log != nil {
		s.log.Infof("listening on %s", ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.log != nil {
		s.log.Info("shutting down")
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if s.log != nil {
			s.log.Debugf("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
		}
	}
}
