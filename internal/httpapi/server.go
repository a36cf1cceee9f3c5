package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/arbrun/simulator/internal/arbengine"
	"github.com/arbrun/simulator/internal/feeds"
)

// ServerConfig configures the Server, grounded on
// internal/interfaces/http/server.go's ServerConfig shape.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// DefaultServerConfig returns the defaults used when the caller
// doesn't override them.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		CORSOrigins:  []string{"*"},
	}
}

// Server is the read/control HTTP+websocket surface in front of one
// arbengine.Engine and its feeds.Supervisor.
type Server struct {
	cfg        ServerConfig
	httpServer *http.Server
	router     *mux.Router

	mu         sync.Mutex
	symbol     string
	engine     *arbengine.Engine
	supervisor *feeds.Supervisor
	broadcast  *broadcaster
}

// NewServer builds a Server bound to engine and supervisor, initially
// tracking symbol.
func NewServer(cfg ServerConfig, engine *arbengine.Engine, supervisor *feeds.Supervisor, symbol string) *Server {
	s := &Server{
		cfg: cfg, engine: engine, supervisor: supervisor, symbol: symbol,
		broadcast: newBroadcaster(),
	}
	s.router = mux.NewRouter()
	s.setupRoutes()

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestIDMiddleware)
	s.router.Use(requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	s.router.HandleFunc("/opportunities", s.handleOpportunities).Methods(http.MethodGet)
	s.router.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)
	s.router.HandleFunc("/control", s.handleControl).Methods(http.MethodPost)
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Start runs the HTTP server and the 1s snapshot broadcast loop until
// ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.broadcast.run(ctx, s.snapshotMessage)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("starting http api")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) currentSymbol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbol
}

func (s *Server) setSymbol(symbol string) {
	s.mu.Lock()
	s.symbol = symbol
	s.mu.Unlock()
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type requestIDKey struct{}

func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusCapturingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusCapturingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
