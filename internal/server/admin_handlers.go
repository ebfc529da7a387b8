package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"vitrine/internal/admin"
	"vitrine/internal/auth"
)

// editingSession returns the staged editing session for the current
// admin, creating one from a fresh profile read on first use. Staged
// edits persist across requests until saved or the admin logs out.
func (s *Server) editingSession(r *http.Request) (*auth.Session, *admin.EditingSession, error) {
	session, valid := s.authService.GetSessionManager().GetSessionFromRequest(r)
	if !valid {
		// The auth middleware gates these routes; a miss here means the
		// session expired mid-request.
		return nil, nil, errSessionExpired
	}

	if es := s.editSessions.Get(session.ID); es != nil {
		return session, es, nil
	}

	profile, err := s.repo.Get(r.Context())
	if err != nil {
		return nil, nil, err
	}
	es := admin.NewEditingSession(profile)
	s.editSessions.Put(session.ID, es)
	return session, es, nil
}

var errSessionExpired = &sessionExpiredError{}

type sessionExpiredError struct{}

func (*sessionExpiredError) Error() string { return "session expired" }

// handleAdminProfile reads the profile for editing (GET) or commits the
// staged edits (POST).
func (s *Server) handleAdminProfile(w http.ResponseWriter, r *http.Request) {
	_, es, err := s.editingSession(r)
	if err == errSessionExpired {
		s.respondWithError(w, r, http.StatusUnauthorized, "Session expired", nil)
		return
	}
	if err != nil {
		s.respondWithError(w, r, http.StatusBadGateway, "Failed to load profile", err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		// Admin editing always starts from a fresh read, not the
		// public cache
		profile, err := s.repo.Get(r.Context())
		if err != nil {
			s.respondWithError(w, r, http.StatusBadGateway, "Failed to load profile", err)
			return
		}
		s.respondJSON(w, map[string]interface{}{
			"profile": profile,
			"staged": map[string]interface{}{
				"bioText": es.BioText(),
				"links":   es.Links(),
			},
		})

	case http.MethodPost:
		var req struct {
			DisplayName *string `json:"displayName"`
			Quote       *string `json:"quote"`
			ThemeColor  *string `json:"themeColor"`
			BioText     *string `json:"bioText"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}

		// Stage whatever the form sent; each staged value replaces the
		// prior one
		if req.DisplayName != nil {
			es.SetDisplayName(*req.DisplayName)
		}
		if req.Quote != nil {
			es.SetQuote(*req.Quote)
		}
		if req.ThemeColor != nil {
			es.SetThemeColor(*req.ThemeColor)
		}
		if req.BioText != nil {
			es.SetBioText(*req.BioText)
		}

		updated, err := es.Save(r.Context(), s.repo)
		if err != nil {
			// Staged edits are preserved in the session for retry
			s.respondWithError(w, r, http.StatusBadGateway, "Failed to save profile", err)
			return
		}

		s.respondJSON(w, map[string]interface{}{
			"success": true,
			"profile": updated,
		})

	default:
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleAdminLinks appends a blank link entry to the staged list.
func (s *Server) handleAdminLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	_, es, err := s.editingSession(r)
	if err != nil {
		s.respondWithError(w, r, http.StatusBadGateway, "Failed to load profile", err)
		return
	}

	index := es.AddLink()
	s.respondJSON(w, map[string]interface{}{
		"index": index,
		"links": es.Links(),
	})
}

// handleAdminLink updates or removes one staged link by position.
func (s *Server) handleAdminLink(w http.ResponseWriter, r *http.Request) {
	_, es, err := s.editingSession(r)
	if err != nil {
		s.respondWithError(w, r, http.StatusBadGateway, "Failed to load profile", err)
		return
	}

	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 5 || pathParts[4] == "" {
		s.respondWithError(w, r, http.StatusBadRequest, "Link index is required", nil)
		return
	}
	index, err := strconv.Atoi(pathParts[4])
	if err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Link index must be an integer", err)
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req struct {
			Field string `json:"field"`
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}
		if err := es.UpdateLink(index, req.Field, req.Value); err != nil {
			s.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
			return
		}

	case http.MethodDelete:
		if err := es.RemoveLink(index); err != nil {
			s.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
			return
		}

	default:
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	s.respondJSON(w, map[string]interface{}{"links": es.Links()})
}

// handleAdminAssets lists the media files known to the asset index.
func (s *Server) handleAdminAssets(w http.ResponseWriter, r *http.Request) {
	if s.assets == nil {
		s.respondWithError(w, r, http.StatusNotFound, "Asset browsing requires the local storage backend", nil)
		return
	}
	s.respondJSON(w, map[string]interface{}{"assets": s.assets.List()})
}
