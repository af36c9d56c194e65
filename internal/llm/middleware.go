package llm

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Middleware decorates a Client to inject cross-cutting concerns.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// Logging logs one line per call with the question id, latency, and outcome.
func Logging() Middleware {
	return func(next Client) Client {
		return &logged{next: next}
	}
}

type logged struct {
	next Client
}

func (c *logged) Name() string { return c.next.Name() }
func (c *logged) Close() error { return c.next.Close() }

func (c *logged) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	start := time.Now()
	raw, err := c.next.GenerateJSON(ctx, prompt, input)
	if err != nil {
		log.Printf("llm call failed (%s, %s): %v", QuestionFrom(ctx), time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	log.Printf("llm call ok (%s, %s): %d bytes", QuestionFrom(ctx), time.Since(start).Round(time.Millisecond), len(raw))
	return raw, nil
}
