// Package interviewlog persists per-session interview events into JSONL
// files, one file per session.
package interviewlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

var sessionIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Event is one structured interview event persisted as JSON.
type Event struct {
	Timestamp string         `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Source    string         `json:"source"`
	Stage     string         `json:"stage"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger appends session-scoped events into JSONL files.
type Logger struct {
	dir string
	mu  sync.Mutex
}

func defaultDir() string {
	return filepath.Join("tmp", "interview_logs")
}

func New(dir string) *Logger {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		trimmed = defaultDir()
	}
	_ = os.MkdirAll(trimmed, 0o755)
	return &Logger{dir: trimmed}
}

func sanitizeSessionID(id string) string {
	s := strings.TrimSpace(id)
	if s == "" {
		return "unknown"
	}
	s = sessionIDSanitizer.ReplaceAllString(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}

func (l *Logger) filePath(sessionID string) string {
	return filepath.Join(l.dir, sanitizeSessionID(sessionID)+".jsonl")
}

// Append writes one event line for the session.
func (l *Logger) Append(sessionID, source, stage string, fields map[string]any) {
	if l == nil || strings.TrimSpace(sessionID) == "" {
		return
	}
	event := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: strings.TrimSpace(sessionID),
		Source:    strings.TrimSpace(source),
		Stage:     strings.TrimSpace(stage),
	}
	if len(fields) > 0 {
		event.Fields = fields
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	raw = append(raw, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = os.MkdirAll(l.dir, 0o755)
	f, err := os.OpenFile(l.filePath(sessionID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(raw)
}

// Read returns all persisted events for a session.
func (l *Logger) Read(sessionID string) ([]Event, error) {
	if l == nil {
		return nil, nil
	}
	f, err := os.Open(l.filePath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("open interview log: %w", err)
	}
	defer f.Close()

	out := make([]Event, 0, 64)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan interview log: %w", err)
	}
	return out, nil
}
