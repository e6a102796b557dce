package httpadapter

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/trina/internal/app/activity"
	"github.com/PabloGalante/trina/internal/app/conversation"
)

// Pinger is anything /healthz should check (stores, redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Conversations *conversation.Service
	Activities    *activity.Service
	Health        []Pinger

	// JWTSecret verifies bearer tokens (HS256). Empty rejects every token.
	JWTSecret    []byte
	CORSOrigins  []string
	MaxBodyBytes int64
}

type Server struct {
	conversations *conversation.Service
	activities    *activity.Service
	health        []Pinger
}

// NewServer creates and configures the HTTP router.
func NewServer(opts Options) http.Handler {
	s := &Server{
		conversations: opts.Conversations,
		activities:    opts.Activities,
		health:        opts.Health,
	}

	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 * 1024
	}

	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(withMetrics)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(withRequestContext)
	r.Use(withLogging)
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(maxBodySize(opts.MaxBodyBytes))
		r.Use(withIdentity(opts.JWTSecret))

		r.Route("/chat/conversations", func(r chi.Router) {
			r.Post("/", s.handleCreateConversation)
			r.Get("/", s.handleListConversations)
			r.Get("/{id}", s.handleGetConversation)
			r.Post("/{id}/messages", s.handleSendMessage)
		})

		r.Post("/activities", s.handleLogActivity)
		r.Get("/activities", s.handleListActivities)
	})

	return r
}
