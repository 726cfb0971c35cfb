package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/trackline/internal/models"
)

func (s *Server) handleListAthletes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Athletes())
}

func (s *Server) handleAddAthlete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string         `json:"firstName"`
		LastName  string         `json:"lastName"`
		GroupID   models.GroupID `json:"groupId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := s.engine.AddAthlete(r.Context(), req.FirstName, req.LastName, req.GroupID)
	s.writeMutation(w, a, err)
}

func (s *Server) handleUpdateAthlete(w http.ResponseWriter, r *http.Request) {
	var a models.Athlete
	if !decodeBody(w, r, &a) {
		return
	}
	a.ID = chi.URLParam(r, "id")
	s.writeMutation(w, a, s.engine.UpdateAthlete(r.Context(), a))
}

func (s *Server) handleRemoveAthlete(w http.ResponseWriter, r *http.Request) {
	err := s.engine.RemoveAthlete(r.Context(), chi.URLParam(r, "id"))
	s.writeMutation(w, okBody, err)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Templates())
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl models.TemplateSession
	if !decodeBody(w, r, &tpl) {
		return
	}
	saved, err := s.engine.SaveTemplate(r.Context(), tpl)
	s.writeMutation(w, saved, err)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	err := s.engine.DeleteTemplate(r.Context(), chi.URLParam(r, "id"))
	s.writeMutation(w, okBody, err)
}
