package llm

import (
	"context"
	"encoding/json"
)

// FakeClient returns a neutral clarification verdict for every call. It keeps
// the service bootable offline; interviews run, every answer is re-asked up
// to its budget and then defaults to negative.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	obj := map[string]any{
		"status":                 "clarification_needed",
		"clarification_question": "Thank you for sharing that. Could you tell me a little more concretely?",
		"rationale":              "offline fake client",
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
