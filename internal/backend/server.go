// Package backend wires the development backend together: router,
// middleware, store, and server lifecycle. It exists so the perkloop client
// can be exercised end to end without the production service.
package backend

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/perkloop/perkloop-go/internal/backend/api"
	"github.com/perkloop/perkloop-go/internal/backend/store"
)

// Config holds backend settings, parsed from flags in cmd/perkloop-backend.
type Config struct {
	Port     int
	SeedFile string
	Secret   string
	Verbose  bool
	Latency  time.Duration // artificial per-request delay
}

// DefaultSecret signs tokens when no secret is configured. Development
// only.
const DefaultSecret = "perkloop-dev-secret"

// Backend is the assembled development server.
type Backend struct {
	Config *Config
	Router *chi.Mux
	Store  *store.MemoryStore
	Logger zerolog.Logger
}

// New assembles a Backend.
func New(cfg *Config) (*Backend, error) {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", "perkloop-backend").
		Logger()

	secret := cfg.Secret
	if secret == "" {
		secret = DefaultSecret
	}

	st := store.New()
	if cfg.SeedFile != "" {
		if err := st.LoadSeedFile(cfg.SeedFile); err != nil {
			return nil, err
		}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)
	if cfg.Latency > 0 {
		r.Use(latency(cfg.Latency))
	}

	h := api.NewHandler(st, logger, []byte(secret))
	h.Routes(r)

	return &Backend{
		Config: cfg,
		Router: r,
		Store:  st,
		Logger: logger,
	}, nil
}

// ServeHTTP lets a Backend be mounted directly in httptest servers.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.Router.ServeHTTP(w, r)
}

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully.
func (b *Backend) Serve() error {
	addr := ":" + strconv.Itoa(b.Config.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      b.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		b.Logger.Info().Str("addr", addr).Msg("backend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			b.Logger.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	<-done
	b.Logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// latency delays every request, simulating a slow network for client
// polling and timeout behavior.
func latency(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requestLogger logs one line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("elapsed", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
