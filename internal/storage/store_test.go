package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"isoscreen/internal/catalog"
	"isoscreen/internal/classifier"
	"isoscreen/internal/rules"
	"isoscreen/internal/session"
)

func sampleSnapshot(id string, completedAt time.Time) Snapshot {
	return Snapshot{
		SessionID:   id,
		CompletedAt: completedAt,
		Diagnosis:   rules.DiagnosisSocial,
		Criteria:    map[string]bool{"A": false, "B": true, "C": true, "D": true},
		Verdicts: map[string]classifier.Verdict{
			"B1": {Status: catalog.StatusPositive, Value: "0", ValueKind: classifier.ValueCount},
		},
		Transcript: []session.Turn{
			{Seq: 1, Role: session.RoleAssistant, Content: "q1", QuestionID: "B1"},
			{Seq: 2, Role: session.RoleUser, Content: "nobody really", QuestionID: "B1"},
		},
		ConversationLength:  2,
		TotalClarifications: 1,
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := s.Save(ctx, sampleSnapshot("s1", now)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Diagnosis != rules.DiagnosisSocial || got.TotalClarifications != 1 {
		t.Fatalf("Get() = %+v", got)
	}
	if _, err := s.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.Save(ctx, Snapshot{}); err == nil {
		t.Fatalf("Save() accepted empty session id")
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()
	_ = s.Save(ctx, sampleSnapshot("old", base.Add(-time.Hour)))
	_ = s.Save(ctx, sampleSnapshot("new", base))

	snaps, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snaps) != 2 || snaps[0].SessionID != "new" {
		t.Fatalf("List() = %v", snaps)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := s.Save(ctx, sampleSnapshot("sess-1", now)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.SessionID != "sess-1" || got.Diagnosis != rules.DiagnosisSocial {
		t.Fatalf("Get() = %+v", got)
	}
	if len(got.Transcript) != 2 || got.Transcript[1].Content != "nobody really" {
		t.Fatalf("transcript not preserved: %+v", got.Transcript)
	}
	if _, err := s.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreNewestSaveWins(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	older := sampleSnapshot("sess-1", base.Add(-time.Hour))
	older.Diagnosis = rules.DiagnosisInsufficient
	if err := s.Save(ctx, older); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, sampleSnapshot("sess-1", base)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Diagnosis != rules.DiagnosisSocial {
		t.Fatalf("Get() diagnosis = %q, want newest save", got.Diagnosis)
	}
	snaps, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("List() = %d entries, want 1 per session", len(snaps))
	}
}

func TestWriteCSV(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := sampleSnapshot("sess-1", now)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []Snapshot{snap}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "session_id,completed_at,diagnosis") {
		t.Fatalf("csv header = %q", lines[0])
	}
	want := "sess-1,2026-03-01T12:00:00Z,social isolation,false,true,true,true,2,1"
	if lines[1] != want {
		t.Fatalf("csv row = %q, want %q", lines[1], want)
	}
}

func TestWriteCSVBlankForUndeterminedCriteria(t *testing.T) {
	snap := sampleSnapshot("sess-1", time.Now())
	snap.Criteria = map[string]bool{"A": false, "B": false, "C": false}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []Snapshot{snap}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if !strings.Contains(buf.String(), "false,false,false,,") {
		t.Fatalf("undetermined D not blank: %q", buf.String())
	}
}

func TestFromState(t *testing.T) {
	st := &session.State{
		SessionID: "s1",
		Diagnosis: rules.DiagnosisNormal,
		Criteria:  map[string]bool{"A": false},
		Verdicts:  map[string]classifier.Verdict{},
		Transcript: []session.Turn{
			{Seq: 1, Role: session.RoleAssistant, Content: "q"},
		},
		Clarifications: map[string]int{"A1": 2, "B1": 1},
	}
	now := time.Now()
	snap := FromState(st, now)
	if snap.ConversationLength != 1 || snap.TotalClarifications != 3 {
		t.Fatalf("FromState() = %+v", snap)
	}
	if !snap.CompletedAt.Equal(now) {
		t.Fatalf("CompletedAt = %v, want %v", snap.CompletedAt, now)
	}
}
