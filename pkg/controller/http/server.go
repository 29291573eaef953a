package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/usecase"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/utils/logging"
)

// ActivityVerifier checks the Authorization header of an inbound webhook
// request against the channel's signing keys
type ActivityVerifier interface {
	Verify(ctx context.Context, authHeader string) error
}

type Server struct {
	router   *chi.Mux
	uc       *usecase.UseCases
	verifier ActivityVerifier
}

type Options func(*Server)

// WithVerifier enables JWT verification on the message webhook. Without it
// the webhook accepts unsigned requests, which is only acceptable for local
// development against an emulator.
func WithVerifier(v ActivityVerifier) Options {
	return func(s *Server) {
		s.verifier = v
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	// Message webhook - no API auth, uses channel JWT verification
	r.Route("/api/messages", func(r chi.Router) {
		if s.verifier != nil {
			r.Use(verifyActivityMiddleware(s.verifier))
		}
		r.Post("/", s.handleMessages)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/token/{userID}", func(r chi.Router) {
			r.Get("/", s.handleGetToken)
			r.Post("/refresh", s.handleRefreshToken)
			r.Get("/validate", s.handleValidateToken)
		})
		r.Route("/user/{userID}", func(r chi.Router) {
			r.Get("/profile", s.handleGetProfile)
			r.Get("/context", s.handleGetContext)
		})
		r.Post("/tokens/batch", s.handleBatchTokens)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// verifyActivityMiddleware rejects webhook calls whose bearer token does not
// verify against the channel's published keys
func verifyActivityMiddleware(v ActivityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := v.Verify(r.Context(), r.Header.Get("Authorization")); err != nil {
				logging.From(r.Context()).Warn("webhook verification failed",
					"error", err.Error())
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
