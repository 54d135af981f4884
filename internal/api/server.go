package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/grid-test-engine/internal/config"
	"github.com/terra-clan/grid-test-engine/internal/health"
	"github.com/terra-clan/grid-test-engine/internal/models"
)

// Catalog lists the topics available for generation
type Catalog interface {
	IsReady() bool
	List() []models.TopicParameters
	Get(id string) *models.TopicParameters
}

// TestService serves static tests and assembles new ones
type TestService interface {
	ReadStaticTest(ctx context.Context, id string) (*models.Topic, error)
	Generate(ctx context.Context) (*models.Topic, error)
}

// Archive reads previously generated tests
type Archive interface {
	Get(ctx context.Context, id string) (*models.Topic, error)
	List(ctx context.Context) ([]models.GeneratedTestSummary, error)
}

// Server represents the HTTP API server
type Server struct {
	config        config.ServerConfig
	defaultTestID string
	router        *chi.Mux
	catalog       Catalog
	tests         TestService
	archive       Archive
	checks        *health.Registry
	feed          *Feed
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	catalog Catalog,
	tests TestService,
	archive Archive,
	checks *health.Registry,
	feed *Feed,
) *Server {
	if checks == nil {
		checks = health.NewRegistry()
	}
	if feed == nil {
		feed = NewFeed()
	}

	s := &Server{
		config:        cfg.Server,
		defaultTestID: cfg.Catalog.DefaultTestID,
		catalog:       catalog,
		tests:         tests,
		archive:       archive,
		checks:        checks,
		feed:          feed,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// The websocket feed is long-lived and must not inherit the request timeout
	r.Get("/api/v1/generated/stream", s.feed.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		// Route kept for clients of the first frontend release
		r.Get("/test/random", s.handleDefaultTest)

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/topics", func(r chi.Router) {
				r.Get("/", s.handleListTopics)
				r.Get("/{id}", s.handleGetTopic)
			})

			r.Route("/tests", func(r chi.Router) {
				r.Post("/generate", s.handleGenerateTest)
				r.Get("/{id}", s.handleGetStaticTest)
			})

			r.Route("/generated", func(r chi.Router) {
				r.Get("/", s.handleListGenerated)
				r.Get("/{id}", s.handleGetGenerated)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
