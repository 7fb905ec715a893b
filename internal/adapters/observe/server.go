package observe

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/bft-labs/geoship/internal/app"
	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
	"github.com/bft-labs/geoship/pkg/log"
)

// Tracker is the part of the tracker the server needs.
type Tracker interface {
	Subscribe(s ports.Subscriber) error
	Unsubscribe(s ports.Subscriber) error
	Snapshot() ([]domain.LogEntry, error)
	State() app.State
}

// Server exposes the tracker over HTTP.
type Server struct {
	tracker  Tracker
	logger   ports.Logger
	metrics  http.Handler
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l ports.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func NewServer(tracker Tracker, opts ...Option) *Server {
	s := &Server{
		tracker: tracker,
		logger:  log.NewNoopLogger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", s.handleHealth)
	r.GET("/logs", s.handleLogs)
	r.GET("/ws", s.handleWebSocket)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("observe server listening", log.String("addr", addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	state := s.tracker.State()
	status := http.StatusOK
	overall := "healthy"
	if state == app.StateFailed {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"tracker": gin.H{"state": state.String()},
	})
}

func (s *Server) handleLogs(c *gin.Context) {
	entries, err := s.tracker.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	enc, err := ParseEncoding(c.Query("encoding"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Err(err))
		return
	}

	v := newViewer(conn, enc)
	go v.writePump()

	if err := s.tracker.Subscribe(v); err != nil {
		s.logger.Debug("viewer rejected", log.Err(err))
		v.close()
		return
	}
	s.logger.Debug("viewer attached", log.String("remote", conn.RemoteAddr().String()), log.String("encoding", enc.String()))

	go v.readPump(func() {
		_ = s.tracker.Unsubscribe(v)
		v.close()
	})
}
