package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/pullupcoach/internal/debugframes"
	"github.com/claude/pullupcoach/internal/pose"
	"github.com/claude/pullupcoach/internal/session"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessions  *session.Manager
	estimator pose.Estimator
	frames    *debugframes.Store
	log       *slog.Logger
	apiKey    string
	router    chi.Router
}

// New creates a new Server with all routes configured. An empty apiKey
// disables authentication.
func New(sessions *session.Manager, estimator pose.Estimator, frames *debugframes.Store, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		sessions:  sessions,
		estimator: estimator,
		frames:    frames,
		log:       log,
		apiKey:    apiKey,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/api/v1/status", s.handleStatus)

	s.router.Route("/api/v1/sessions", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Post("/", s.handleCreateSession)
		r.Post("/{id}/frames", s.handleAnalyzeFrame)
		r.Post("/{id}/reset", s.handleResetSession)
		r.Get("/{id}", s.handleGetSession)
		r.Get("/{id}/summary", s.handleSessionSummary)
		r.Delete("/{id}", s.handleDeleteSession)
	})

	s.router.Route("/api/v1/debug", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Get("/frames", s.handleDebugFrames)
	})
}
