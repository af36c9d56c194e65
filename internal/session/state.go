// Package session holds the mutable interview state and its in-memory store.
package session

import (
	"time"

	"isoscreen/internal/classifier"
	"isoscreen/internal/rules"
)

// Turn is one utterance of the conversation transcript.
type Turn struct {
	Seq             int    `json:"seq"`
	Role            string `json:"role"`
	Content         string `json:"content"`
	QuestionID      string `json:"question_id,omitempty"`
	CreatedAtUnixMs int64  `json:"created_at_unix_ms"`
}

const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// State is everything one interview accumulates. It is owned by the Store
// and must only be touched through Store.Update / Store.View.
type State struct {
	SessionID         string                        `json:"session_id"`
	CurrentQuestionID string                        `json:"current_question_id"`
	PendingQuestionID string                        `json:"pending_question_id,omitempty"`
	AwaitingAnswer    bool                          `json:"awaiting_answer"`
	Verdicts          map[string]classifier.Verdict `json:"verdicts"`
	Clarifications    map[string]int                `json:"clarifications"`
	Criteria          map[string]bool               `json:"criteria"`
	Transcript        []Turn                        `json:"transcript"`
	LastAnsweredID    string                        `json:"last_answered_id,omitempty"`
	Diagnosis         rules.Diagnosis               `json:"diagnosis,omitempty"`
	Complete          bool                          `json:"complete"`
	Saved             bool                          `json:"saved"`
	CreatedAt         time.Time                     `json:"created_at"`
	UpdatedAt         time.Time                     `json:"updated_at"`
}

func newState(id string, now time.Time) *State {
	return &State{
		SessionID:      id,
		Verdicts:       map[string]classifier.Verdict{},
		Clarifications: map[string]int{},
		Criteria:       map[string]bool{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AddTurn appends to the transcript with the next sequence number.
func (s *State) AddTurn(role, content, questionID string, now time.Time) {
	s.Transcript = append(s.Transcript, Turn{
		Seq:             len(s.Transcript) + 1,
		Role:            role,
		Content:         content,
		QuestionID:      questionID,
		CreatedAtUnixMs: now.UnixMilli(),
	})
}

// RecordVerdict stores the settled verdict for a question and remembers it
// as the most recently answered one.
func (s *State) RecordVerdict(questionID string, v classifier.Verdict) {
	s.Verdicts[questionID] = v
	s.LastAnsweredID = questionID
}

func (s *State) IncrementClarification(questionID string) int {
	s.Clarifications[questionID]++
	return s.Clarifications[questionID]
}

func (s *State) ResetClarification(questionID string) {
	delete(s.Clarifications, questionID)
}

// MergeCriteria folds newly determinable criteria in. Values present in the
// state are never overwritten, keeping settled criteria monotonic.
func (s *State) MergeCriteria(derived map[string]bool) {
	for k, v := range derived {
		if _, ok := s.Criteria[k]; !ok {
			s.Criteria[k] = v
		}
	}
}

func (s *State) TotalClarifications() int {
	n := 0
	for _, c := range s.Clarifications {
		n += c
	}
	return n
}

// LastAssistantMessage returns the newest assistant turn, or "".
func (s *State) LastAssistantMessage() string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == RoleAssistant {
			return s.Transcript[i].Content
		}
	}
	return ""
}

// clone deep-copies the state so views stay stable while the original mutates.
func (s *State) clone() *State {
	cp := *s
	cp.Verdicts = make(map[string]classifier.Verdict, len(s.Verdicts))
	for k, v := range s.Verdicts {
		cp.Verdicts[k] = v
	}
	cp.Clarifications = make(map[string]int, len(s.Clarifications))
	for k, v := range s.Clarifications {
		cp.Clarifications[k] = v
	}
	cp.Criteria = make(map[string]bool, len(s.Criteria))
	for k, v := range s.Criteria {
		cp.Criteria[k] = v
	}
	cp.Transcript = append([]Turn(nil), s.Transcript...)
	return &cp
}
