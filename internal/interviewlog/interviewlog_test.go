package interviewlog

import (
	"testing"
)

func TestAppendAndRead(t *testing.T) {
	l := New(t.TempDir())
	l.Append("sess-1", "engine", "ask", map[string]any{"question_id": "A1"})
	l.Append("sess-1", "classifier", "verdict", map[string]any{"status": "positive"})
	l.Append("sess-2", "engine", "ask", nil)

	events, err := l.Read("sess-1")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Read() = %d events, want 2", len(events))
	}
	if events[0].Stage != "ask" || events[0].Fields["question_id"] != "A1" {
		t.Fatalf("first event = %+v", events[0])
	}
	if events[1].Source != "classifier" {
		t.Fatalf("second event = %+v", events[1])
	}
}

func TestReadUnknownSessionIsEmpty(t *testing.T) {
	l := New(t.TempDir())
	events, err := l.Read("never-logged")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("Read() = %d events, want 0", len(events))
	}
}

func TestSessionIDSanitized(t *testing.T) {
	if got := sanitizeSessionID("../../etc/passwd"); got != ".._.._etc_passwd" {
		t.Fatalf("sanitizeSessionID() = %q", got)
	}
	if got := sanitizeSessionID("  "); got != "unknown" {
		t.Fatalf("sanitizeSessionID(blank) = %q", got)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Append("sess-1", "engine", "ask", nil)
	events, err := l.Read("sess-1")
	if err != nil || events != nil {
		t.Fatalf("nil logger Read() = (%v, %v)", events, err)
	}
}
