package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
	"github.com/secmon-lab/bailiff/pkg/utils/metrics"
	"github.com/secmon-lab/bailiff/pkg/utils/safe"
)

type Server struct {
	router             *chi.Mux
	commandHandler     http.Handler
	interactionHandler http.Handler
	slackSigningSecret string
	metrics            *metrics.Metrics
}

type Options func(*Server)

func WithSlackCommand(handler http.Handler) Options {
	return func(s *Server) {
		s.commandHandler = handler
	}
}

func WithSlackInteraction(handler http.Handler) Options {
	return func(s *Server) {
		s.interactionHandler = handler
	}
}

func WithSlackSigningSecret(secret string) Options {
	return func(s *Server) {
		s.slackSigningSecret = secret
	}
}

func WithMetrics(m *metrics.Metrics) Options {
	return func(s *Server) {
		s.metrics = m
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{router: r}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		safe.Write(r.Context(), w, []byte("ok"))
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	// Slack hooks - no session auth, requests are verified by signature
	if s.commandHandler != nil || s.interactionHandler != nil {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))

			if s.commandHandler != nil {
				r.Post("/command", s.commandHandler.ServeHTTP)
			}
			if s.interactionHandler != nil {
				r.Post("/interaction", s.interactionHandler.ServeHTTP)
			}
		})
	}

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

		logger := logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(logging.With(r.Context(), logger))

		defer func() {
			logger.Info("access",
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
