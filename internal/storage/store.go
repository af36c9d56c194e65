// Package storage persists completed interview results across several
// backends selected by configuration.
package storage

import (
	"context"
	"errors"
	"time"

	"isoscreen/internal/classifier"
	"isoscreen/internal/rules"
	"isoscreen/internal/session"
)

var ErrNotFound = errors.New("result not found")

// Snapshot is the durable record of one completed interview.
type Snapshot struct {
	SessionID           string                        `json:"session_id"`
	CompletedAt         time.Time                     `json:"completed_at"`
	Diagnosis           rules.Diagnosis               `json:"diagnosis"`
	Criteria            map[string]bool               `json:"criteria"`
	Verdicts            map[string]classifier.Verdict `json:"verdicts"`
	Transcript          []session.Turn                `json:"transcript"`
	ConversationLength  int                           `json:"conversation_length"`
	TotalClarifications int                           `json:"total_clarifications"`
}

// FromState builds a snapshot from a completed session state.
func FromState(st *session.State, completedAt time.Time) Snapshot {
	return Snapshot{
		SessionID:           st.SessionID,
		CompletedAt:         completedAt,
		Diagnosis:           st.Diagnosis,
		Criteria:            st.Criteria,
		Verdicts:            st.Verdicts,
		Transcript:          st.Transcript,
		ConversationLength:  len(st.Transcript),
		TotalClarifications: st.TotalClarifications(),
	}
}

// Store defines operations for persisting completed interviews.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Get(ctx context.Context, sessionID string) (Snapshot, error)
	List(ctx context.Context) ([]Snapshot, error)
}
