package web

import (
	"encoding/json"
	"net/http"

	"github.com/csvhub/csvhub/internal/auth"
	"github.com/csvhub/csvhub/internal/web/middleware"
)

// handleSignup creates a new account.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var params auth.SignupParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.auth.SignUp(r.Context(), params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, map[string]any{"user": user})
}

// loginRequest is the POST /api/auth/login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin verifies credentials and issues a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{
		"token": token,
		"user":  user,
	})
}

// handleCurrentUser returns the profile of the authenticated user.
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	user, err := s.auth.UserByID(r.Context(), userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{"user": user})
}
