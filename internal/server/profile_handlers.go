package server

import (
	"context"
	"net/http"
	"time"
)

// handleGetProfile serves the public profile with stale-while-revalidate
// semantics: the cached (or default) snapshot renders immediately and a
// background refresh replaces it for the next read. A failing refresh
// never surfaces to the visitor.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile := s.cache.Current()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Errors are logged inside; the visitor keeps the cached view
		s.cache.Refresh(ctx)
	}()

	// An empty song URL means "play the bundled default track"
	if profile.SongURL == "" {
		profile.SongURL = s.config.Storage.DefaultTrackPath
	}

	s.respondJSON(w, map[string]interface{}{
		"profile":   profile,
		"confirmed": s.cache.Confirmed(),
	})
}

// handleGateEnter is the click-to-enter transition. It is one-way and
// idempotent; the first call attaches the player transport and requests
// playback.
func (s *Server) handleGateEnter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	s.gate.Reveal()

	s.respondJSON(w, map[string]interface{}{
		"revealed": s.gate.Revealed(),
		"player":   s.transport.State(),
	})
}

// HealthStatus represents operational status for the /health endpoint.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Store     string                 `json:"store"`
	Sessions  int                    `json:"activeSessions"`
	Confirmed bool                   `json:"profileConfirmed"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// handleHealthCheck returns basic liveness + dependency checks.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Store:     "ok",
		Sessions:  s.authService.GetSessionManager().ActiveSessions(),
		Confirmed: s.cache.Confirmed(),
		Details:   make(map[string]interface{}),
	}

	if pinger, ok := s.repo.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(r.Context()); err != nil {
			health.Status = "unhealthy"
			health.Store = "error"
			health.Details["store_error"] = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	s.respondJSON(w, health)
}
