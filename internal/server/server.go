package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/trackline/internal/engine"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	engine *engine.Engine
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured. An empty apiKey
// disables auth; the expected deployments are localhost or a tailnet.
func New(eng *engine.Engine, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		engine: eng,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
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

	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}

		// Whole-state bootstrap for the client shell
		r.Get("/state", s.handleState)

		// Session lifecycle
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/active", s.handleActiveSession)
		r.Post("/sessions/active/end", s.handleEndSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
		r.Post("/sessions/{id}/resume", s.handleResumeSession)

		// Active-session settings and roster
		r.Put("/sessions/active/name", s.handleSetName)
		r.Put("/sessions/active/location", s.handleSetLocation)
		r.Post("/sessions/active/all-in", s.handleToggleAllIn)
		r.Post("/sessions/active/fast-capture", s.handleToggleFastCapture)
		r.Put("/sessions/active/roster/{athleteID}/group", s.handleSetAthleteGroup)
		r.Put("/sessions/active/roster/{athleteID}/active", s.handleSetAthleteActive)

		// Group intents
		r.Post("/sessions/active/groups/{groupID}/start", s.handleStartWork)
		r.Post("/sessions/active/groups/{groupID}/tap", s.handleTap)
		r.Post("/sessions/active/groups/{groupID}/undo", s.handleUndo)
		r.Post("/sessions/active/groups/{groupID}/next", s.handleNext)

		// Results
		r.Get("/sessions/{id}/results", s.handleResults)
		r.Get("/sessions/{id}/results/log", s.handleResultsLog)
		r.Get("/sessions/{id}/export.tsv", s.handleExportTSV)
		r.Put("/sessions/active/results/cell", s.handleSetResultCell)

		// Global roster and templates
		r.Get("/athletes", s.handleListAthletes)
		r.Post("/athletes", s.handleAddAthlete)
		r.Put("/athletes/{id}", s.handleUpdateAthlete)
		r.Delete("/athletes/{id}", s.handleRemoveAthlete)
		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleSaveTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)
	})
}
