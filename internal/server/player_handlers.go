package server

import (
	"encoding/json"
	"net/http"

	"vitrine/internal/player"
)

// eventKinds maps the page's reported event names onto engine events.
var eventKinds = map[string]player.EventKind{
	"play":           player.EventPlay,
	"pause":          player.EventPause,
	"timeupdate":     player.EventTimeUpdate,
	"loadedmetadata": player.EventLoadedMetadata,
	"ended":          player.EventEnded,
	"volumechange":   player.EventVolumeChange,
}

// handlePlayerState returns the mirrored transport state plus formatted
// clock strings for display.
func (s *Server) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	state := s.transport.State()
	s.respondJSON(w, map[string]interface{}{
		"state":             state,
		"displayMuted":      state.DisplayMuted(),
		"formattedTime":     player.FormatTime(state.CurrentTime),
		"formattedDuration": player.FormatTime(state.Duration),
	})
}

// handlePlayerEvent receives one audio element event from the page. The
// engine is authoritative: this is the only path that advances the
// displayed transport state.
func (s *Server) handlePlayerEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Type     string  `json:"type"`
		Position float64 `json:"position"`
		Duration float64 `json:"duration"`
		Volume   float64 `json:"volume"`
		Muted    bool    `json:"muted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	kind, ok := eventKinds[req.Type]
	if !ok {
		s.respondWithError(w, r, http.StatusBadRequest, "Unknown event type: "+req.Type, nil)
		return
	}

	s.engine.Report(player.Event{
		Kind:     kind,
		Position: req.Position,
		Duration: req.Duration,
		Volume:   req.Volume,
		Muted:    req.Muted,
	})

	s.respondJSON(w, map[string]bool{"success": true})
}

// handlePlayerCommands drains the transport requests queued for the
// page to apply to its audio element.
func (s *Server) handlePlayerCommands(w http.ResponseWriter, r *http.Request) {
	cmds := s.engine.DrainCommands()
	if cmds == nil {
		cmds = []player.Command{}
	}
	s.respondJSON(w, map[string]interface{}{"commands": cmds})
}

// handlePlayerToggle requests play or pause depending on displayed
// state. The response carries the current (not predicted) state.
func (s *Server) handlePlayerToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	s.transport.TogglePlay()
	s.respondJSON(w, s.transport.State())
}

// handlePlayerSeek requests a jump to a percentage of the duration.
func (s *Server) handlePlayerSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Percent float64 `json:"percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	s.transport.Seek(req.Percent)
	s.respondJSON(w, s.transport.State())
}

// handlePlayerVolume sets the output level.
func (s *Server) handlePlayerVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req struct {
		Volume float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	s.transport.SetVolume(req.Volume)
	s.respondJSON(w, s.transport.State())
}

// handlePlayerMute flips the mute flag.
func (s *Server) handlePlayerMute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	s.transport.ToggleMute()
	s.respondJSON(w, s.transport.State())
}
