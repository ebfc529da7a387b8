package server

import (
	"encoding/json"
	"net/http"
)

// handleAuthLogin verifies credentials and issues the session cookie.
// A failed login surfaces as a transient error and leaves the user on
// the login view with no session.
func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if credentials.Email == "" || credentials.Password == "" {
		s.respondWithError(w, r, http.StatusBadRequest, "Email and password required", nil)
		return
	}

	session, err := s.authService.Login(credentials.Email, credentials.Password)
	if err != nil {
		s.logger.WithError(err).WithField("email", credentials.Email).Warn("Failed login attempt")
		s.respondWithError(w, r, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}

	s.authService.GetSessionManager().SetSessionCookie(w, session)

	s.logger.WithField("email", credentials.Email).Info("Admin logged in")
	s.respondJSON(w, map[string]interface{}{
		"success":  true,
		"redirect": "/admin",
	})
}

// handleAuthLogout invalidates the session and drops any staged edits.
func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	sessionManager := s.authService.GetSessionManager()
	if session, valid := sessionManager.GetSessionFromRequest(r); valid {
		s.editSessions.Drop(session.ID)
		s.authService.Logout(session.ID)
	}
	sessionManager.ClearSessionCookie(w)

	s.respondJSON(w, map[string]interface{}{
		"success":  true,
		"redirect": "/login",
	})
}
