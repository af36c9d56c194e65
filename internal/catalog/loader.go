package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed flow_default.json
var defaultFlowDocument []byte

// Default builds the catalog from the embedded flow document. The embedded
// document is validated at startup like any other; a broken build asset is
// a programmer error, hence the panic.
func Default() *Catalog {
	var doc flowDocument
	if err := json.Unmarshal(defaultFlowDocument, &doc); err != nil {
		panic(fmt.Sprintf("catalog: embedded flow document: %v", err))
	}
	c, err := build(doc.Nodes)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded flow document: %v", err))
	}
	return c
}

// flowDocument is the on-disk shape of the interview flow configuration.
// Nodes are keyed by question id.
type flowDocument struct {
	Nodes map[string]flowNode `json:"nodes" yaml:"nodes"`
}

type flowNode struct {
	Type              string            `json:"type" yaml:"type"`
	QuestionText      string            `json:"question_text" yaml:"question_text"`
	PromptKey         string            `json:"prompt_key" yaml:"prompt_key"`
	MaxClarifications *int              `json:"max_clarifications" yaml:"max_clarifications"`
	NextNodes         map[string]string `json:"next_nodes" yaml:"next_nodes"`
	NextNode          string            `json:"next_node" yaml:"next_node"`
	ResponseHandler   string            `json:"response_handler" yaml:"response_handler"`
}

const defaultMaxClarifications = 3

// Load reads a flow document from path and builds the catalog. YAML is
// accepted by extension; everything else is parsed as JSON. Any declared
// prompt_key without a registered rubric is a fatal configuration error:
// no partial catalog is ever returned.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read flow document: %w", err)
	}
	var doc flowDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
		}
	}
	return build(doc.Nodes)
}

func build(nodes map[string]flowNode) (*Catalog, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("catalog: flow document has no nodes")
	}

	questions := make(map[string]*Question, len(nodes))
	for id, node := range nodes {
		if node.Type != "question" {
			continue
		}
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("catalog: question node with empty id")
		}

		promptKey := strings.TrimSpace(node.PromptKey)
		if promptKey != "" {
			if _, ok := LookupRubric(promptKey); !ok {
				return nil, fmt.Errorf("catalog: no rubric registered for prompt_key %q (node %s)", promptKey, id)
			}
		}

		transitions := make(map[Status]string)
		for status, nextID := range node.NextNodes {
			if strings.TrimSpace(nextID) == "" {
				continue
			}
			transitions[Status(strings.TrimSpace(status))] = strings.TrimSpace(nextID)
		}
		if next := strings.TrimSpace(node.NextNode); next != "" {
			transitions[StatusAny] = next
		}

		maxClar := defaultMaxClarifications
		if node.MaxClarifications != nil {
			maxClar = *node.MaxClarifications
		}
		if promptKey == "" {
			// Free-text questions are never re-asked.
			maxClar = 0
		}

		questions[id] = &Question{
			ID:                id,
			Text:              strings.TrimSpace(node.QuestionText),
			RubricKey:         promptKey,
			Transitions:       transitions,
			Criterion:         inferCriterion(id),
			MaxClarifications: maxClar,
			Metadata: map[string]string{
				"response_handler": strings.TrimSpace(node.ResponseHandler),
			},
		}
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("catalog: flow document has no question nodes")
	}
	return newCatalog(questions), nil
}

// inferCriterion maps a question id to the composite criterion letter it
// feeds: the leading letter of the id prefix when it is one of A-D.
func inferCriterion(id string) string {
	prefix, _, _ := strings.Cut(id, "_")
	if prefix == "" {
		return ""
	}
	letter := prefix[:1]
	switch letter {
	case "A", "B", "C", "D":
		return letter
	}
	return ""
}
