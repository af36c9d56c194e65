package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"isoscreen/internal/interviewlog"
)

// LogHandler exposes the per-session interview log.
type LogHandler struct {
	logger *interviewlog.Logger
}

func NewLogHandler(logger *interviewlog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	events, err := h.logger.Read(sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"events":     events,
	})
}

// HandleEvent lets the presentation layer append its own events into the
// session's log file.
func (h *LogHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in struct {
		SessionID string         `json:"session_id"`
		Stage     string         `json:"stage"`
		Fields    map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	sessionID := strings.TrimSpace(in.SessionID)
	stage := strings.TrimSpace(in.Stage)
	if sessionID == "" || stage == "" {
		http.Error(w, "session_id and stage are required", http.StatusBadRequest)
		return
	}
	h.logger.Append(sessionID, "frontend", stage, in.Fields)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
