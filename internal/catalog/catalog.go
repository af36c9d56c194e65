package catalog

import (
	"sort"
	"strings"
)

// Status is the structured outcome of classifying one answer.
type Status string

const (
	StatusPositive      Status = "positive"
	StatusNegative      Status = "negative"
	StatusClarification Status = "clarification_needed"
	// StatusRecorded marks free-text answers stored without classification.
	StatusRecorded Status = "recorded"

	// StatusAny is the wildcard transition key. Single default-next entries
	// in the flow document are folded into the transition table under it.
	StatusAny Status = "*"
)

// Unambiguous reports whether s is a definite positive/negative outcome.
func (s Status) Unambiguous() bool {
	return s == StatusPositive || s == StatusNegative
}

// Question is one node of the interview battery. Immutable after load.
type Question struct {
	ID                string
	Text              string
	RubricKey         string
	Transitions       map[Status]string
	Criterion         string
	MaxClarifications int
	Metadata          map[string]string
}

// ClassifierBacked reports whether answers to q go through the answer
// classifier. Questions without a rubric are recorded verbatim.
func (q *Question) ClassifierBacked() bool {
	return q != nil && q.RubricKey != ""
}

// Catalog holds the loaded question battery in canonical order.
type Catalog struct {
	questions map[string]*Question
	order     []string
}

// preferredOrder is the canonical battery sequence. IDs missing from the
// loaded document are skipped; extra IDs are appended after it.
var preferredOrder = []string{
	"A1", "A2", "A3",
	"B1", "B2",
	"C1", "C2",
	"D1", "D1_duration",
	"D2", "D2_duration",
	"E1", "E2",
}

func newCatalog(questions map[string]*Question) *Catalog {
	order := make([]string, 0, len(questions))
	for _, id := range preferredOrder {
		if _, ok := questions[id]; ok {
			order = append(order, id)
		}
	}
	extras := make([]string, 0)
	for id := range questions {
		if !contains(order, id) {
			extras = append(extras, id)
		}
	}
	sort.Strings(extras)
	order = append(order, extras...)
	return &Catalog{questions: questions, order: order}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Get returns the question with the given id, or nil.
func (c *Catalog) Get(id string) *Question {
	if c == nil {
		return nil
	}
	return c.questions[strings.TrimSpace(id)]
}

// First returns the first question in canonical order.
func (c *Catalog) First() *Question {
	if c == nil || len(c.order) == 0 {
		return nil
	}
	return c.questions[c.order[0]]
}

// Next resolves the successor of currentID under the given status.
// Resolution order: explicit transition entry, wildcard entry, canonical
// sequence successor. Returns nil when the interview should finalize.
func (c *Catalog) Next(currentID string, status Status) *Question {
	if c == nil {
		return nil
	}
	cur, ok := c.questions[currentID]
	if !ok {
		return nil
	}

	nextID := cur.Transitions[status]
	if nextID == "" {
		nextID = cur.Transitions[StatusAny]
	}
	if _, known := c.questions[nextID]; !known {
		nextID = ""
	}
	if nextID == "" {
		for i, id := range c.order {
			if id == currentID && i+1 < len(c.order) {
				nextID = c.order[i+1]
				break
			}
		}
	}
	if nextID == "" {
		return nil
	}
	return c.questions[nextID]
}

// Order returns the canonical question order.
func (c *Catalog) Order() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of questions in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.questions)
}
