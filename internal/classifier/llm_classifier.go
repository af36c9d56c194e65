package classifier

import (
	"context"
	"fmt"
	"time"

	"isoscreen/internal/catalog"
	"isoscreen/internal/llm"
	"isoscreen/internal/util/jsonutil"
)

// LLMClassifier judges answers with a language model through a rubric
// prompt per question.
type LLMClassifier struct {
	cli llm.Client
	now func() time.Time
}

func NewLLMClassifier(cli llm.Client) *LLMClassifier {
	return &LLMClassifier{cli: cli, now: time.Now}
}

type classifyInput struct {
	QuestionID string   `json:"question_id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Previous   *Verdict `json:"previous,omitempty"`
}

func (c *LLMClassifier) Classify(ctx context.Context, q *catalog.Question, answer string, prior *Verdict) (Verdict, error) {
	rubric, ok := catalog.LookupRubric(q.RubricKey)
	if !ok {
		return Verdict{}, fmt.Errorf("classifier: question %s has no rubric %q", q.ID, q.RubricKey)
	}

	ctx = llm.WithQuestion(ctx, q.ID)
	raw, err := c.cli.GenerateJSON(ctx, rubric.Prompt(q.Text), classifyInput{
		QuestionID: q.ID,
		Question:   q.Text,
		Answer:     answer,
		Previous:   prior,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("classifier: %s: %w", q.ID, err)
	}

	var rv rawVerdict
	if err := jsonutil.UnmarshalRaw(raw, &rv); err != nil {
		return Verdict{}, fmt.Errorf("%w: %s: %v", ErrMalformedVerdict, q.ID, err)
	}
	return rv.normalize(c.now())
}
