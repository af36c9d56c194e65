package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"isoscreen/internal/catalog"
)

// ValueKind tags the unit of a verdict's extracted value.
type ValueKind string

const (
	ValueNone   ValueKind = ""
	ValueText   ValueKind = "text"
	ValueCount  ValueKind = "count"
	ValueMonths ValueKind = "months"
	ValueScore  ValueKind = "score"
)

// Verdict is the structured outcome of classifying one answer. The several
// differently-named extraction fields the model may fill are normalized at
// this boundary into the single Value/ValueKind pair.
type Verdict struct {
	Status        catalog.Status `json:"status"`
	Result        string         `json:"result,omitempty"`
	Value         string         `json:"value,omitempty"`
	ValueKind     ValueKind      `json:"value_kind,omitempty"`
	Clarification string         `json:"clarification_question,omitempty"`
	Rationale     string         `json:"rationale,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// HasValue reports whether the verdict carries an extracted value.
func (v Verdict) HasValue() bool { return v.ValueKind != ValueNone }

// Describe renders the verdict for user-facing discrepancy messages:
// the extracted value when present, otherwise the bare status.
func (v Verdict) Describe() string {
	if v.HasValue() {
		return v.Value
	}
	if v.Status != "" {
		return string(v.Status)
	}
	return "the previous answer"
}

// ErrMalformedVerdict marks collaborator output the boundary could not
// interpret. The flow controller downgrades it to a clarification turn.
var ErrMalformedVerdict = errors.New("classifier: malformed verdict")

// Classifier maps (question rubric, raw answer, prior verdict) to a verdict.
// Implementations may be slow and may fail; callers own the recovery policy.
type Classifier interface {
	Classify(ctx context.Context, q *catalog.Question, answer string, prior *Verdict) (Verdict, error)
}

// Recorded synthesizes the verdict for a free-text question that bypasses
// classification.
func Recorded(answer string, now time.Time) Verdict {
	return Verdict{
		Status:    catalog.StatusRecorded,
		Value:     answer,
		ValueKind: ValueText,
		Rationale: "free-text answer recorded",
		Timestamp: now,
	}
}

// rawVerdict is the wire shape the model fills. extracted_value duplicates
// whichever typed slot the rubric names; the typed slot wins the kind tag.
type rawVerdict struct {
	Status                string           `json:"status"`
	Result                string           `json:"result"`
	ExtractedValue        *json.RawMessage `json:"extracted_value"`
	ExtractedNumber       *int             `json:"extracted_number"`
	ExtractedMonths       *int             `json:"extracted_months"`
	ExtractedScore        *int             `json:"extracted_score"`
	ClarificationQuestion string           `json:"clarification_question"`
	Rationale             string           `json:"rationale"`
}

func (r rawVerdict) normalize(now time.Time) (Verdict, error) {
	status := catalog.Status(strings.TrimSpace(r.Status))
	switch status {
	case catalog.StatusPositive, catalog.StatusNegative, catalog.StatusClarification:
	default:
		return Verdict{}, fmt.Errorf("%w: unknown status %q", ErrMalformedVerdict, r.Status)
	}

	v := Verdict{
		Status:        status,
		Result:        strings.TrimSpace(r.Result),
		Clarification: strings.TrimSpace(r.ClarificationQuestion),
		Rationale:     strings.TrimSpace(r.Rationale),
		Timestamp:     now,
	}
	switch {
	case r.ExtractedNumber != nil:
		v.Value, v.ValueKind = strconv.Itoa(*r.ExtractedNumber), ValueCount
	case r.ExtractedMonths != nil:
		v.Value, v.ValueKind = strconv.Itoa(*r.ExtractedMonths), ValueMonths
	case r.ExtractedScore != nil:
		v.Value, v.ValueKind = strconv.Itoa(*r.ExtractedScore), ValueScore
	case r.ExtractedValue != nil:
		if s := decodeLooseValue(*r.ExtractedValue); s != "" {
			v.Value, v.ValueKind = s, ValueText
		}
	}
	if v.Rationale == "" {
		v.Rationale = defaultRationale(v)
	}
	return v, nil
}

// decodeLooseValue renders a model-provided scalar (string or number) as text.
func decodeLooseValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func defaultRationale(v Verdict) string {
	switch {
	case v.Status == catalog.StatusPositive && v.HasValue():
		return fmt.Sprintf("answer (%q) meets the criterion", v.Value)
	case v.Status == catalog.StatusNegative && v.HasValue():
		return fmt.Sprintf("answer (%q) does not meet the criterion", v.Value)
	case v.Status == catalog.StatusClarification:
		return "answer is ambiguous, more detail needed"
	default:
		return "judged from the answer"
	}
}
