package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voyagen/wolfflix/internal/actions"
	"github.com/voyagen/wolfflix/internal/busy"
	"github.com/voyagen/wolfflix/internal/catalog"
	"github.com/voyagen/wolfflix/internal/chat"
	"github.com/voyagen/wolfflix/internal/library"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/service"
)

// Pinger is a backing service checked by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the HTTP API. Live may be nil, in which
// case the playlist endpoint reports 503.
type Deps struct {
	Checks  map[string]Pinger
	Catalog *catalog.Service
	Library *library.Service
	Bot     *chat.Bot
	Actions *actions.Dispatcher
	Indexer *service.Indexer
	Live    catalog.LiveSource
	Busy    *busy.Tracker
}

// Options configures the listener and middleware.
type Options struct {
	Port string
	// RateLimit is the number of requests allowed per client IP per
	// minute. Zero disables limiting.
	RateLimit      int
	AllowedOrigins []string
}

// Server holds dependencies for the HTTP API.
type Server struct {
	deps   Deps
	opts   Options
	router chi.Router
}

// New creates a Server and registers routes.
func New(deps Deps, opts Options) *Server {
	if deps.Busy == nil {
		deps.Busy = busy.Default
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{deps: deps, opts: opts, router: chi.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(chimiddleware.Recoverer)
	r.Use(withRequestID)
	r.Use(withAccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
		}
		r.Get("/health", s.handleHealth)
		r.Get("/docs", handleSwaggerUI)
		r.Get("/docs/openapi.yaml", handleOpenAPISpec)

		r.Group(func(r chi.Router) {
			r.Use(withProfile)

			r.Get("/status", s.handleStatus)

			// Catalog
			r.Get("/categories", s.handleCategories)
			r.Get("/search", s.handleSearch)
			r.Get("/titles/{kind}/{id}/recommendations", s.handleRecommendations)
			r.Get("/tv/{id}/seasons", s.handleSeasons)
			r.Get("/tv/{id}/seasons/{season}", s.handleEpisodes)
			r.Get("/catalog/semantic", s.handleSemantic)
			r.Get("/live/playlist.m3u", s.handlePlaylist)

			// Lists
			r.Get("/watchlist", s.handleWatchlist)
			r.Post("/watchlist", s.handleAddWatchlist)
			r.Delete("/watchlist/{type}/{id}", s.handleRemoveWatchlist)
			r.Get("/recent", s.handleRecent)

			// Chat and UI actions
			r.Get("/chat", s.handleTranscript)
			r.Post("/chat", s.handleChat)
			r.Get("/actions", s.handleListActions)
			r.Post("/actions/{action}", s.handleAction)
		})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.opts.Port
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("server shutdown")
		}
	}()

	logging.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}
