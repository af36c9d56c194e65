package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client is the JSON-in/JSON-out contract every model backend implements.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

type ctxKeyQuestion struct{}

// WithQuestion tags the context with the interview question id the next
// model call serves, for logging.
func WithQuestion(ctx context.Context, questionID string) context.Context {
	return context.WithValue(ctx, ctxKeyQuestion{}, questionID)
}

// QuestionFrom returns the question id stored in the context.
func QuestionFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyQuestion{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
