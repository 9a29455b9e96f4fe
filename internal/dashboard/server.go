// Package dashboard serves the monitor's read-only views over HTTP: the
// live wait-for graph, the recent-deadlock feed, and a small HTML page that
// polls both. It is a thin presentation layer; all state stays in the
// Monitor and every endpoint is a pure snapshot read.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/kolkov/lockwatch"
)

// Route constants. Versioning is explicit so additions stay non-breaking.
const (
	APIVersion     = "v1"
	DefaultAddress = "127.0.0.1:8787"
)

// Options configures the HTTP server. Timeouts default to conservative
// values suitable for a local diagnostics server.
type Options struct {
	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	Logger            *slog.Logger
}

// Server hosts the dashboard for one Monitor.
type Server struct {
	http   *http.Server
	mon    *lockwatch.Monitor
	logger *slog.Logger
	opts   Options
}

// NewServer constructs a dashboard bound to the given Monitor. The server
// does not listen until Start is called.
func NewServer(mon *lockwatch.Monitor, opts Options) *Server {
	if mon == nil {
		panic("dashboard.NewServer: monitor is nil")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 2 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		mon:    mon,
		logger: opts.Logger,
		opts:   opts,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           withRequestLog(mux, opts.Logger),
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(opts.Logger.Handler(), slog.LevelError),
		},
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /"+APIVersion+"/healthz", s.handleHealthz)
	mux.HandleFunc("GET /"+APIVersion+"/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /"+APIVersion+"/graph", s.handleGraph)
	mux.HandleFunc("GET /"+APIVersion+"/deadlocks", s.handleDeadlocks)

	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start begins serving in a background goroutine and returns immediately.
// Use Stop for graceful shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info("dashboard listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("dashboard server stopped", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down, waiting up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ShutdownTimeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSnapshot returns the wait-for relationships keyed by thread label,
// exactly as Monitor.Snapshot produces them.
func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, snapshotView{
		Threads:     s.mon.Snapshot(),
		GeneratedAt: time.Now().UTC(),
	})
}

// handleGraph returns the nodes/links shape the front-end graph renders.
func (s *Server) handleGraph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildGraph(s.mon.WaitEdges()))
}

// handleDeadlocks returns the bounded history of detected deadlocks,
// oldest first.
func (s *Server) handleDeadlocks(w http.ResponseWriter, _ *http.Request) {
	reports := s.mon.RecentReports()
	if reports == nil {
		reports = []lockwatch.Report{}
	}
	writeJSON(w, http.StatusOK, deadlocksView{Deadlocks: reports})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexPage))
}

// withRequestLog is the only middleware: lightweight request logging.
// No auth or CORS; this is a local diagnostics surface.
func withRequestLog(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}
