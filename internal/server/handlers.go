package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/trackline/internal/engine"
	"github.com/claude/trackline/internal/models"
	"github.com/claude/trackline/internal/results"
	"github.com/claude/trackline/internal/timefmt"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleState returns the four persisted records in one payload so a client
// can bootstrap with a single request.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"athletes":        s.engine.Athletes(),
		"templates":       s.engine.Templates(),
		"sessions":        s.engine.Sessions(),
		"activeSessionId": s.engine.ActiveSessionID(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":        s.engine.Sessions(),
		"activeSessionId": s.engine.ActiveSessionID(),
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID string `json:"templateId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.engine.StartSession(r.Context(), req.TemplateID)
	s.writeMutation(w, sess, err)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.ActiveSession()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.EndSession(r.Context())
	s.writeMutation(w, sess, err)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	err := s.engine.ResumeSession(r.Context(), chi.URLParam(r, "id"))
	s.writeMutation(w, okBody, err)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	err := s.engine.DeleteSession(r.Context(), chi.URLParam(r, "id"))
	s.writeMutation(w, okBody, err)
}

func (s *Server) handleSetName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.writeMutation(w, okBody, s.engine.SetSessionName(r.Context(), req.Name))
}

func (s *Server) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Location string `json:"location"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.writeMutation(w, okBody, s.engine.SetSessionLocation(r.Context(), req.Location))
}

func (s *Server) handleToggleAllIn(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.ToggleAllIn(r.Context())
	s.writeMutation(w, sess, err)
}

func (s *Server) handleToggleFastCapture(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.ToggleFastCapture(r.Context())
	s.writeMutation(w, sess, err)
}

func (s *Server) handleSetAthleteGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID models.GroupID `json:"groupId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.engine.SetAthleteGroup(r.Context(), chi.URLParam(r, "athleteID"), req.GroupID)
	s.writeMutation(w, okBody, err)
}

func (s *Server) handleSetAthleteActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.engine.SetAthleteActive(r.Context(), chi.URLParam(r, "athleteID"), req.Active)
	s.writeMutation(w, okBody, err)
}

func (s *Server) handleStartWork(w http.ResponseWriter, r *http.Request) {
	gs, err := s.engine.StartWork(r.Context(), models.GroupID(chi.URLParam(r, "groupID")))
	s.writeMutation(w, gs, err)
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AthleteID string `json:"athleteId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := s.engine.TapAthlete(r.Context(), models.GroupID(chi.URLParam(r, "groupID")), req.AthleteID)
	s.writeMutation(w, entry, err)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	err := s.engine.UndoLastCapture(r.Context(), models.GroupID(chi.URLParam(r, "groupID")))
	s.writeMutation(w, okBody, err)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	gs, err := s.engine.Next(r.Context(), models.GroupID(chi.URLParam(r, "groupID")))
	s.writeMutation(w, gs, err)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results.Project(sess))
}

func (s *Server) handleResultsLog(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results.Audit(sess))
}

func (s *Server) handleExportTSV(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sess.Name+`.tsv"`)
	w.Write([]byte(results.Project(sess).TSV()))
}

func (s *Server) handleSetResultCell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BlockID   string         `json:"blockId"`
		GroupID   models.GroupID `json:"groupId"`
		AthleteID string         `json:"athleteId"`
		RepIndex  int            `json:"repIndex"`
		Time      string         `json:"time"` // "M:SS.T" or seconds; empty clears
	}
	if !decodeBody(w, r, &req) {
		return
	}
	secs, err := timefmt.ParseSeconds(req.Time)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	err = s.engine.SetResultCell(r.Context(), req.BlockID, req.GroupID, req.AthleteID, req.RepIndex, secs)
	s.writeMutation(w, okBody, err)
}

// okBody is the payload for mutations that have no natural return value.
var okBody = map[string]string{"status": "ok"}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// writeMutation writes the outcome of an engine mutation. Silent no-ops
// (double taps, empty undo) return 200 so a fumbling coach never sees an
// error; a save failure still returns the applied mutation with the failure
// attached, because the in-memory state did change.
func (s *Server) writeMutation(w http.ResponseWriter, v any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, v)
		return
	}
	if errors.Is(err, engine.ErrNoOp) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	var saveErr *engine.SaveError
	if errors.As(err, &saveErr) {
		writeJSON(w, http.StatusOK, map[string]any{"result": v, "saveError": saveErr.Error()})
		return
	}
	s.writeError(w, err)
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		conflict   *engine.ConflictError
		notFound   *engine.NotFoundError
		invalid    *engine.InvalidStateError
		validation *engine.ValidationError
	)
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
