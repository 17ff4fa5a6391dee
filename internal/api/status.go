package api

import (
	"net/http"
	"time"
)

// statusResponse summarises controller and device state.
type statusResponse struct {
	Running    bool     `json:"running"`
	Faults     int      `json:"faults"`
	Device     string   `json:"device"`
	Version    string   `json:"version"`
	TagTypes   []string `json:"tag_types"`
	ActiveTags int      `json:"active_tags"`
}

// handleHealth reports process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus reports the controller loop and device state.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Device:   s.device,
		Version:  s.version,
		TagTypes: s.registry.Types(),
	}
	if s.loop != nil {
		resp.Running = s.loop.Running()
		resp.Faults = s.loop.FaultCount()
		resp.ActiveTags = len(s.loop.ActiveTags())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleActive lists the tag identifiers currently present on the device.
func (s *Server) handleActive(w http.ResponseWriter, _ *http.Request) {
	active := []string{}
	if s.loop != nil {
		active = s.loop.ActiveTags()
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": active, "count": len(active)})
}
