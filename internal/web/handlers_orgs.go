package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/csvhub/csvhub/internal/organization"
)

// handleCreateOrganization registers a new organization.
func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var params organization.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	org, err := s.orgs.Create(r.Context(), params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, map[string]any{"organisation": org})
}

// handleGetOrganization returns one organization by id.
func (s *Server) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	org, err := s.orgs.Get(r.Context(), orgID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"organisation": org})
}

// handleDeleteOrganization removes one organization by id.
func (s *Server) handleDeleteOrganization(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	if err := s.orgs.Delete(r.Context(), orgID); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"deleted": orgID})
}
