package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"github.com/alexjoedt/imagestore"
)

const shutdownTimeout = 10 * time.Second

// ImageStore is the part of imagestore.Store the HTTP layer uses.
type ImageStore interface {
	Upload(ctx context.Context, req imagestore.UploadRequest) (*imagestore.StoredFile, error)
	Catalog(ctx context.Context) ([]imagestore.CatalogEntry, error)
}

type Config struct {
	Addr         string
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Gzip         bool
	AllowOrigins []string // "*" allows any origin; empty disables CORS
	Debug        bool

	// MetricsHandler is mounted at MetricsPath when non-nil.
	MetricsPath    string
	MetricsHandler http.Handler
}

type Server struct {
	store      ImageStore
	cfg        Config
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

func New(store ImageStore, cfg Config, logger *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, errors.New("server: nil store")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestID())
	engine.Use(accessLog(logger))

	if len(cfg.AllowOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		if slices.Contains(cfg.AllowOrigins, "*") {
			corsConfig.AllowAllOrigins = true
		} else {
			corsConfig.AllowOrigins = cfg.AllowOrigins
		}
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", requestIDHeader}
		corsConfig.ExposeHeaders = []string{requestIDHeader}
		if err := corsConfig.Validate(); err != nil {
			return nil, fmt.Errorf("server: cors: %w", err)
		}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		store:  store,
		cfg:    cfg,
		logger: logger,
		engine: engine,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleLiveness)
	s.engine.POST("/upload", s.handleUpload)
	s.engine.GET("/images", s.handleCatalog)

	if s.cfg.MetricsHandler != nil {
		s.engine.GET(s.cfg.MetricsPath, gin.WrapH(s.cfg.MetricsHandler))
	}
}

// Handler returns the full handler chain, gzip included when enabled.
func (s *Server) Handler() http.Handler {
	if s.cfg.Gzip {
		return gzhttp.GzipHandler(s.engine)
	}
	return s.engine
}

// ListenAndServe binds cfg.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("image store listening", "addr", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down image store")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
