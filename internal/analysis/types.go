// Package analysis extracts structured legal analysis from raw court-opinion
// text: the stage-1 half of the two-stage pipeline.
package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/sravan953/saul/internal/llm"
)

// Analysis is the validated stage-1 result for one case. Immutable once
// persisted; empty lists are valid.
type Analysis struct {
	Facts      []string `json:"facts"`
	Issues     []string `json:"issues"`
	Reasonings []string `json:"reasonings"`
	Outcomes   string   `json:"outcomes"`
}

// Validate normalizes nil lists so every field is present in the canonical
// encoding. Older artifacts omit issues entirely; they decode to an empty
// list rather than failing.
func (a *Analysis) Validate() error {
	if a.Facts == nil {
		a.Facts = []string{}
	}
	if a.Issues == nil {
		a.Issues = []string{}
	}
	if a.Reasonings == nil {
		a.Reasonings = []string{}
	}
	return nil
}

const schemaJSON = `{
  "type": "object",
  "properties": {
    "facts": {"type": "array", "items": {"type": "string"}, "description": "List of facts from the case."},
    "issues": {"type": "array", "items": {"type": "string"}, "description": "List of legal issues from the case."},
    "reasonings": {"type": "array", "items": {"type": "string"}, "description": "List of reasonings from the case."},
    "outcomes": {"type": "string", "description": "Outcome of the case."}
  },
  "required": ["facts", "issues", "reasonings", "outcomes"]
}`

func Schema() llm.Schema {
	return llm.Schema{
		Name:       "case_analysis",
		Definition: json.RawMessage(schemaJSON),
		New:        func() llm.Output { return &Analysis{} },
	}
}

// Decode reads a persisted stage-1 artifact.
func Decode(blob []byte) (*Analysis, error) {
	var a Analysis
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, fmt.Errorf("decode analysis artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}
