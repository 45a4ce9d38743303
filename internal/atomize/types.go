// Package atomize classifies a stage-1 analysis into a case-type-specific
// structured record: the stage-2 half of the two-stage pipeline.
package atomize

import (
	"encoding/json"
	"fmt"

	"github.com/sravan953/saul/internal/llm"
)

type CaseType string

const (
	CaseTypeCriminal CaseType = "criminal"
	CaseTypeCivil    CaseType = "civil"
)

type CrimeSeverity string

const (
	SeverityMisdemeanor CrimeSeverity = "misdemeanor"
	SeverityFelony      CrimeSeverity = "felony"
	SeverityCapital     CrimeSeverity = "capital"
)

type PriorRecordSeverity string

const (
	PriorRecordNone     PriorRecordSeverity = "none"
	PriorRecordMinor    PriorRecordSeverity = "minor"
	PriorRecordModerate PriorRecordSeverity = "moderate"
	PriorRecordSevere   PriorRecordSeverity = "severe"
)

type CriminalCase struct {
	Severity            CrimeSeverity       `json:"severity" validate:"oneof=misdemeanor felony capital"`
	Charges             []string            `json:"charges"`
	Weapon              *string             `json:"weapon"`
	VictimCount         int                 `json:"victim_count" validate:"gte=0"`
	EvidenceTypes       []string            `json:"evidence_types"`
	AggravatingFactors  []string            `json:"aggravating_factors"`
	PriorRecordSeverity PriorRecordSeverity `json:"prior_record_severity" validate:"oneof=none minor moderate severe"`
}

type CivilCase struct {
	CauseOfAction     string  `json:"cause_of_action"`
	DutyOfCareSource  string  `json:"duty_of_care_source"`
	BreachDescription string  `json:"breach_description"`
	CausationScore    float64 `json:"causation_score" validate:"gte=0,lte=1"`
	DamagesAmount     float64 `json:"damages_amount"`
	Settlement        bool    `json:"settlement"`
}

// AtomizedCaseOutput is the validated stage-2 result. Exactly the branch
// matching CaseType is non-nil; a response violating that fails validation
// and is never persisted.
type AtomizedCaseOutput struct {
	CaseType        CaseType      `json:"case_type" validate:"oneof=criminal civil"`
	LegalIssues     []string      `json:"legal_issues"`
	OutcomeCategory string        `json:"outcome_category"`
	OutcomeDetails  string        `json:"outcome_details"`
	Criminal        *CriminalCase `json:"criminal"`
	Civil           *CivilCase    `json:"civil"`
}

func (o *AtomizedCaseOutput) Validate() error {
	switch o.CaseType {
	case CaseTypeCriminal:
		if o.Criminal == nil {
			return fmt.Errorf("case_type is criminal but the criminal branch is null")
		}
		if o.Civil != nil {
			return fmt.Errorf("case_type is criminal but the civil branch is set")
		}
	case CaseTypeCivil:
		if o.Civil == nil {
			return fmt.Errorf("case_type is civil but the civil branch is null")
		}
		if o.Criminal != nil {
			return fmt.Errorf("case_type is civil but the criminal branch is set")
		}
	default:
		return fmt.Errorf("unknown case_type %q", o.CaseType)
	}

	if o.LegalIssues == nil {
		o.LegalIssues = []string{}
	}
	if o.Criminal != nil {
		if o.Criminal.Charges == nil {
			o.Criminal.Charges = []string{}
		}
		if o.Criminal.EvidenceTypes == nil {
			o.Criminal.EvidenceTypes = []string{}
		}
		if o.Criminal.AggravatingFactors == nil {
			o.Criminal.AggravatingFactors = []string{}
		}
	}
	if o.Civil != nil && o.Civil.CauseOfAction == "" {
		o.Civil.CauseOfAction = "Negligence"
	}
	return nil
}

const schemaJSON = `{
  "type": "object",
  "properties": {
    "case_type": {"type": "string", "enum": ["criminal", "civil"]},
    "legal_issues": {"type": "array", "items": {"type": "string"}},
    "outcome_category": {"type": "string", "description": "Category for filtering similar cases."},
    "outcome_details": {"type": "string", "description": "Specifics such as sentence length or damages awarded."},
    "criminal": {
      "type": ["object", "null"],
      "properties": {
        "severity": {"type": "string", "enum": ["misdemeanor", "felony", "capital"]},
        "charges": {"type": "array", "items": {"type": "string"}},
        "weapon": {"type": ["string", "null"]},
        "victim_count": {"type": "integer", "minimum": 0},
        "evidence_types": {"type": "array", "items": {"type": "string"}},
        "aggravating_factors": {"type": "array", "items": {"type": "string"}, "default": []},
        "prior_record_severity": {"type": "string", "enum": ["none", "minor", "moderate", "severe"]}
      },
      "required": ["severity", "charges", "victim_count", "evidence_types", "prior_record_severity"]
    },
    "civil": {
      "type": ["object", "null"],
      "properties": {
        "cause_of_action": {"type": "string", "default": "Negligence"},
        "duty_of_care_source": {"type": "string"},
        "breach_description": {"type": "string"},
        "causation_score": {"type": "number", "minimum": 0, "maximum": 1},
        "damages_amount": {"type": "number"},
        "settlement": {"type": "boolean"}
      },
      "required": ["duty_of_care_source", "breach_description", "causation_score", "damages_amount", "settlement"]
    }
  },
  "required": ["case_type", "legal_issues", "outcome_category", "outcome_details", "criminal", "civil"]
}`

func Schema() llm.Schema {
	return llm.Schema{
		Name:       "atomized_case",
		Definition: json.RawMessage(schemaJSON),
		New:        func() llm.Output { return &AtomizedCaseOutput{} },
	}
}

// Decode reads a persisted stage-2 artifact.
func Decode(blob []byte) (*AtomizedCaseOutput, error) {
	var out AtomizedCaseOutput
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, fmt.Errorf("decode atomized artifact: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
