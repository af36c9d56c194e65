// Package engine drives the interview state machine: one external user
// input advances a session exactly one pass, to the next suspension point
// or to completion.
package engine

import (
	"context"
	"log"
	"strings"
	"time"

	"isoscreen/internal/catalog"
	"isoscreen/internal/classifier"
	"isoscreen/internal/interviewlog"
	"isoscreen/internal/rules"
	"isoscreen/internal/session"
	"isoscreen/internal/storage"
)

const (
	introMessage = "Hello, thank you for taking the time today. I'd like to ask a few questions about your daily life and how you've been doing. Please answer in your own words; there are no right or wrong answers."

	earlyStopMessage = "Thank you for answering. From what you've shared, your daily life and relationships seem to be going well, so we can wrap up here."

	genericReprompt = "I'm sorry, I didn't quite catch that. Could you put it another way?"
)

// Sink receives the completed session snapshot exactly once.
type Sink interface {
	Save(ctx context.Context, snap storage.Snapshot) error
}

// TurnResult is what one pass returns to the presentation layer.
type TurnResult struct {
	Response   string                        `json:"response"`
	Transcript []session.Turn                `json:"conversation"`
	Criteria   map[string]bool               `json:"criteria"`
	Verdicts   map[string]classifier.Verdict `json:"verdicts"`
	Complete   bool                          `json:"complete"`
	Diagnosis  rules.Diagnosis               `json:"diagnosis,omitempty"`
}

type Engine struct {
	catalog  *catalog.Catalog
	cls      classifier.Classifier
	sessions *session.Store
	sink     Sink
	trace    *interviewlog.Logger
	now      func() time.Time
}

func New(cat *catalog.Catalog, cls classifier.Classifier, sessions *session.Store, sink Sink, trace *interviewlog.Logger) *Engine {
	return &Engine{
		catalog:  cat,
		cls:      cls,
		sessions: sessions,
		sink:     sink,
		trace:    trace,
		now:      time.Now,
	}
}

// ProcessTurn advances the session by one user input. Empty input on a
// fresh or idle session prompts the next question; empty input while a
// question is pending is a no-op.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, userInput string) (TurnResult, error) {
	input := strings.TrimSpace(userInput)
	st, err := e.sessions.Update(sessionID, func(st *session.State) error {
		return e.runPass(ctx, st, input)
	})
	if err != nil {
		return TurnResult{}, err
	}
	if st.Complete && !st.Saved {
		st, err = e.sessions.Update(sessionID, func(live *session.State) error {
			e.persist(ctx, live)
			return nil
		})
		if err != nil {
			return TurnResult{}, err
		}
	}
	return resultFrom(st), nil
}

func resultFrom(st *session.State) TurnResult {
	return TurnResult{
		Response:   st.LastAssistantMessage(),
		Transcript: st.Transcript,
		Criteria:   st.Criteria,
		Verdicts:   st.Verdicts,
		Complete:   st.Complete,
		Diagnosis:  st.Diagnosis,
	}
}

// runPass walks the state machine until it suspends for input or the
// session completes.
func (e *Engine) runPass(ctx context.Context, st *session.State, input string) error {
	if st.Complete {
		return nil
	}

	if st.AwaitingAnswer {
		if input == "" {
			return nil
		}
		finalize, err := e.consumeAnswer(ctx, st, input)
		if err != nil {
			return err
		}
		if st.AwaitingAnswer {
			// clarification turn emitted, suspend
			return nil
		}
		if finalize {
			e.finalize(st)
			return nil
		}
		if done := e.evaluateRules(st); done {
			e.finalize(st)
			return nil
		}
	}

	// ask the next question and suspend
	q := e.nextQuestion(st)
	if q == nil {
		e.finalize(st)
		return nil
	}
	text := q.Text
	if len(st.Transcript) == 0 {
		text = introMessage + "\n\n" + text
	}
	st.AddTurn(session.RoleAssistant, text, q.ID, e.now())
	st.CurrentQuestionID = q.ID
	st.PendingQuestionID = ""
	st.AwaitingAnswer = true
	e.trace.Append(st.SessionID, "engine", "ask", map[string]any{"question_id": q.ID})
	return nil
}

// nextQuestion resolves what to ask: the staged pending question, the
// first question of a fresh session, or the catalog successor of the last
// answered question under its settled status.
func (e *Engine) nextQuestion(st *session.State) *catalog.Question {
	if st.PendingQuestionID != "" {
		q := e.catalog.Get(st.PendingQuestionID)
		if q == nil {
			log.Printf("engine: session %s staged unknown question %q, finalizing", st.SessionID, st.PendingQuestionID)
			return nil
		}
		return q
	}
	if st.LastAnsweredID == "" {
		return e.catalog.First()
	}
	last, ok := st.Verdicts[st.LastAnsweredID]
	if !ok {
		log.Printf("engine: session %s has no verdict for last answered %q, finalizing", st.SessionID, st.LastAnsweredID)
		return nil
	}
	return e.catalog.Next(st.LastAnsweredID, last.Status)
}

// consumeAnswer records the user turn, obtains a verdict, and applies the
// contradiction and clarification policies. It returns finalize=true when
// the successor lookup signals the end of the battery. When a clarifying
// question was emitted instead, AwaitingAnswer stays true.
func (e *Engine) consumeAnswer(ctx context.Context, st *session.State, input string) (finalize bool, err error) {
	q := e.catalog.Get(st.CurrentQuestionID)
	if q == nil {
		log.Printf("engine: session %s awaiting unknown question %q, finalizing", st.SessionID, st.CurrentQuestionID)
		st.AwaitingAnswer = false
		return true, nil
	}

	st.AddTurn(session.RoleUser, input, q.ID, e.now())
	e.trace.Append(st.SessionID, "user", "answer", map[string]any{"question_id": q.ID, "answer": input})

	var verdict classifier.Verdict
	if !q.ClassifierBacked() {
		verdict = classifier.Recorded(input, e.now())
	} else {
		verdict = e.classify(ctx, st, q, input)
	}

	// A settled prior answer that the new one contradicts outranks the
	// classifier. The subject is asked to confirm before anything is
	// overwritten. Free-text answers re-record without conflict checks.
	if prior, ok := st.Verdicts[q.ID]; ok && q.ClassifierBacked() && verdict.Status != catalog.StatusClarification {
		if contradicts(prior, verdict) {
			verdict = classifier.Verdict{
				Status:        catalog.StatusClarification,
				Clarification: discrepancyMessage(prior, verdict),
				Rationale:     "new answer conflicts with the earlier one",
				Timestamp:     e.now(),
			}
			e.trace.Append(st.SessionID, "engine", "contradiction", map[string]any{"question_id": q.ID})
		}
	}

	if verdict.Status == catalog.StatusClarification {
		attempts := st.IncrementClarification(q.ID)
		if attempts < q.MaxClarifications {
			msg := verdict.Clarification
			if msg == "" {
				// contract violation by the collaborator, downgraded to
				// the generic reprompt
				log.Printf("engine: session %s question %s: clarification verdict without text", st.SessionID, q.ID)
				msg = genericReprompt
			}
			st.AddTurn(session.RoleAssistant, msg, q.ID, e.now())
			e.trace.Append(st.SessionID, "engine", "clarify", map[string]any{"question_id": q.ID, "attempt": attempts})
			return false, nil
		}
		// budget exhausted, the non-endorsing answer wins
		verdict = classifier.Verdict{
			Status:    catalog.StatusNegative,
			Rationale: "clarification attempts exceeded",
			Timestamp: e.now(),
		}
		e.trace.Append(st.SessionID, "engine", "clarification_exhausted", map[string]any{"question_id": q.ID})
	}

	st.RecordVerdict(q.ID, verdict)
	st.ResetClarification(q.ID)
	st.AwaitingAnswer = false
	st.CurrentQuestionID = ""

	if verdict.Status == catalog.StatusRecorded {
		if next := e.catalog.Next(q.ID, verdict.Status); next != nil {
			st.PendingQuestionID = next.ID
		}
		return false, nil
	}
	next := e.catalog.Next(q.ID, verdict.Status)
	if next == nil {
		return true, nil
	}
	st.PendingQuestionID = next.ID
	return false, nil
}

// classify invokes the collaborator once. Failures and malformed output
// are downgraded to a clarification verdict with the generic reprompt.
func (e *Engine) classify(ctx context.Context, st *session.State, q *catalog.Question, input string) classifier.Verdict {
	var prior *classifier.Verdict
	if p, ok := st.Verdicts[q.ID]; ok {
		prior = &p
	}
	verdict, err := e.cls.Classify(ctx, q, input, prior)
	if err != nil {
		log.Printf("engine: session %s question %s: classifier failed: %v", st.SessionID, q.ID, err)
		e.trace.Append(st.SessionID, "classifier", "error", map[string]any{"question_id": q.ID, "error": err.Error()})
		return classifier.Verdict{
			Status:        catalog.StatusClarification,
			Clarification: genericReprompt,
			Rationale:     "classifier unavailable",
			Timestamp:     e.now(),
		}
	}
	e.trace.Append(st.SessionID, "classifier", "verdict", map[string]any{
		"question_id": q.ID,
		"status":      string(verdict.Status),
		"value":       verdict.Value,
		"rationale":   verdict.Rationale,
	})
	return verdict
}

func contradicts(prior, next classifier.Verdict) bool {
	if prior.Status.Unambiguous() && next.Status.Unambiguous() && prior.Status != next.Status {
		return true
	}
	if prior.HasValue() && next.HasValue() && prior.Value != next.Value {
		return true
	}
	return false
}

func discrepancyMessage(prior, next classifier.Verdict) string {
	return "Earlier you mentioned " + quoteish(prior.Describe()) +
		", but just now I understood " + quoteish(next.Describe()) +
		". Which one reflects your situation? Please tell me once more."
}

func quoteish(s string) string {
	return "\"" + s + "\""
}

// evaluateRules merges newly determinable criteria and applies the
// early-stop rule. It returns true when the pass should finalize.
func (e *Engine) evaluateRules(st *session.State) bool {
	st.MergeCriteria(rules.Evaluate(st.Verdicts))
	e.trace.Append(st.SessionID, "engine", "criteria", criteriaFields(st.Criteria))

	if st.Diagnosis != "" {
		return true
	}
	_, okA := st.Criteria["A"]
	_, okB := st.Criteria["B"]
	_, okC := st.Criteria["C"]
	if okA && okB && okC && rules.ShouldStopEarly(st.Criteria) {
		st.AddTurn(session.RoleAssistant, earlyStopMessage, "", e.now())
		st.Diagnosis = rules.DiagnosisNormal
		st.Complete = true
		e.trace.Append(st.SessionID, "engine", "early_stop", nil)
		return true
	}
	return false
}

func criteriaFields(criteria map[string]bool) map[string]any {
	out := make(map[string]any, len(criteria))
	for k, v := range criteria {
		out[k] = v
	}
	return out
}

// finalize fixes the diagnosis, appends the closing turn when the early
// stop has not already said goodbye, and freezes the session.
func (e *Engine) finalize(st *session.State) {
	alreadyClosed := st.Complete
	st.MergeCriteria(rules.Evaluate(st.Verdicts))
	if st.Diagnosis == "" {
		st.Diagnosis = rules.FinalDiagnosis(st.Criteria)
	}
	if !alreadyClosed {
		st.AddTurn(session.RoleAssistant, summaryMessage(st.Diagnosis), "", e.now())
	}
	st.Complete = true
	e.trace.Append(st.SessionID, "engine", "finalize", map[string]any{"diagnosis": string(st.Diagnosis)})
}

func summaryMessage(d rules.Diagnosis) string {
	switch d {
	case rules.DiagnosisSevere:
		return "Thank you for sharing so openly. Your answers suggest you may be going through a period of severe isolation. Please consider reaching out to a support service; the operator will follow up with available options."
	case rules.DiagnosisSocial:
		return "Thank you for sharing so openly. Your answers suggest you may be experiencing social isolation. The operator will follow up with ways to reconnect that could help."
	case rules.DiagnosisNormal:
		return "Thank you for answering every question. Your answers do not suggest isolation at this time. Take care, and feel free to come back any time."
	default:
		return "Thank you for your time. We couldn't reach a clear picture from this conversation, so the operator may follow up with a few more questions."
	}
}

// persist saves the snapshot exactly once per session. Failures are
// logged and the in-memory result stays available.
func (e *Engine) persist(ctx context.Context, st *session.State) {
	if st.Saved || e.sink == nil {
		return
	}
	st.Saved = true
	snap := storage.FromState(st, e.now())
	if err := e.sink.Save(ctx, snap); err != nil {
		log.Printf("engine: session %s: persist result failed: %v", st.SessionID, err)
		e.trace.Append(st.SessionID, "engine", "persist_error", map[string]any{"error": err.Error()})
		return
	}
	e.trace.Append(st.SessionID, "engine", "persisted", map[string]any{"diagnosis": string(st.Diagnosis)})
}
