package llm

import (
	"context"
	"encoding/json"
	"log"

	"isoscreen/internal/llm/respcache"
)

// Caching serves repeated identical calls from the response cache. Cache
// errors are logged and treated as misses.
func Caching(store *respcache.Store) Middleware {
	return func(next Client) Client {
		return &cached{next: next, store: store}
	}
}

type cached struct {
	next  Client
	store *respcache.Store
}

func (c *cached) Name() string { return c.next.Name() }
func (c *cached) Close() error { return c.next.Close() }

func (c *cached) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, err := json.Marshal(input)
	if err != nil {
		return c.next.GenerateJSON(ctx, prompt, input)
	}
	key := respcache.Key(c.next.Name(), prompt, in)

	if raw, ok, err := c.store.Get(key); err != nil {
		log.Printf("llm cache read failed (%s): %v", QuestionFrom(ctx), err)
	} else if ok {
		return json.RawMessage(raw), nil
	}

	raw, err := c.next.GenerateJSON(ctx, prompt, input)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(key, raw); err != nil {
		log.Printf("llm cache write failed (%s): %v", QuestionFrom(ctx), err)
	}
	return raw, nil
}
