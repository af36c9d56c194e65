package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore writes one JSON document per completed interview into a
// directory. A session saved twice keeps both files; the newest wins on
// read.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("results dir is required")
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &FileStore{dir: trimmed}, nil
}

func (s *FileStore) fileName(snap Snapshot) string {
	ts := snap.CompletedAt.UTC().Format("20060102T150405")
	return fmt.Sprintf("result_%s_%s.json", sanitizeID(snap.SessionID), ts)
}

func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

func (s *FileStore) Save(_ context.Context, snap Snapshot) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(snap.SessionID) == "" {
		return fmt.Errorf("session_id is required")
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := filepath.Join(s.dir, s.fileName(snap))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) Get(ctx context.Context, sessionID string) (Snapshot, error) {
	if s == nil {
		return Snapshot{}, fmt.Errorf("store is nil")
	}
	snaps, err := s.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	id := strings.TrimSpace(sessionID)
	for _, snap := range snaps {
		if snap.SessionID == id {
			return snap, nil
		}
	}
	return Snapshot{}, ErrNotFound
}

// List returns all stored results, newest first. For a session with
// several files only the newest is returned.
func (s *FileStore) List(_ context.Context) ([]Snapshot, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Snapshot{}, nil
		}
		return nil, fmt.Errorf("read results dir: %w", err)
	}
	bySession := make(map[string]Snapshot)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "result_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil || snap.SessionID == "" {
			continue
		}
		if prev, ok := bySession[snap.SessionID]; !ok || snap.CompletedAt.After(prev.CompletedAt) {
			bySession[snap.SessionID] = snap
		}
	}
	out := make([]Snapshot, 0, len(bySession))
	for _, snap := range bySession {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}
