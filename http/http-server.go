package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evaltrack/backend/logger"
	"github.com/evaltrack/backend/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/klauspost/compress/gzhttp"
)

// RouteRegistrar is implemented by every *http handler package.
type RouteRegistrar interface {
	RegisterRoutes(r *chi.Mux)
}

type Options struct {
	Environment string
	Version     string
	CORSOrigins []string
	// Tracing wraps every request in a server span
	Tracing bool
}

type HttpServer struct {
	router *chi.Mux
	server *http.Server
}

func NewHttpServer(opts Options, handlers ...RouteRegistrar) *HttpServer {
	router := chi.NewRouter()

	level := slog.LevelInfo
	if opts.Environment == "development" {
		level = slog.LevelDebug
	}
	httpLogger := httplog.NewLogger("evaltrack", httplog.Options{
		LogLevel:         level,
		JSON:             opts.Environment != "development",
		Concise:          true,
		MessageFieldName: "message",
		QuietDownRoutes:  []string{"/health"},
		QuietDownPeriod:  time.Minute,
		Tags: map[string]string{
			"version": opts.Version,
			"env":     opts.Environment,
		},
	})

	router.Use(httplog.RequestLogger(httpLogger))
	router.Use(contextLogger)
	if opts.Tracing {
		router.Use(tracing.Middleware)
	}
	router.Use(compress)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           3000,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	return &HttpServer{router: router}
}

// contextLogger makes the request logger reachable through logger.FromContext
// for code below the handlers that does not know about httplog.
func contextLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithLogger(r.Context(), httplog.LogEntry(r.Context()))
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = logger.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// compress gzips responses, except event streams and websocket upgrades
// which must reach the client unbuffered.
func compress(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" || strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

func (s *HttpServer) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *HttpServer) Start(address string) error {
	s.server = &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *HttpServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
