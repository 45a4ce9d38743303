package atomize

import (
	"context"
	"fmt"

	"github.com/sravan953/saul/internal/artifact"
	"github.com/sravan953/saul/internal/llm"
)

const atomizedSuffix = ".atomized"

// Key is the stage-2 artifact key for a case.
func Key(caseID string) string { return caseID + atomizedSuffix }

// PrecursorMissingError reports a stage-2 invocation for a case with no
// stage-1 artifact. The stages are decoupled by the artifact: this is a
// conflict to report, never a trigger for on-demand extraction.
type PrecursorMissingError struct {
	CaseID string
}

func (e *PrecursorMissingError) Error() string {
	return fmt.Sprintf("no analysis artifact for case %s; run stage-1 extraction first", e.CaseID)
}

const promptTemplate = `You are given the facts, legal issues, reasonings, and outcomes from a case.
Classify the case as criminal or civil, then return JSON that matches the schema.
Set only the matching object (criminal or civil) and set the other to null.
Include the legal issues from the input in the output.
For outcome_category, select the most appropriate category for filtering similar cases.
For outcome_details, include specifics like sentence length, damages awarded, or other relevant outcome information.

Facts, issues, reasonings, and outcomes:
%s`

func BuildPrompt(stage1JSON []byte) string {
	return fmt.Sprintf(promptTemplate, stage1JSON)
}

type Pipeline struct {
	gen   *llm.Generator
	store artifact.Store
}

func NewPipeline(gen *llm.Generator, store artifact.Store) *Pipeline {
	return &Pipeline{gen: gen, store: store}
}

// Atomize classifies one case. An existing stage-2 artifact is returned
// directly (read-through cache, cached=true, no provider call). A missing
// stage-1 artifact is a PrecursorMissingError. Otherwise the provider is
// invoked and the validated result persisted before return.
func (p *Pipeline) Atomize(ctx context.Context, caseID string) (out *AtomizedCaseOutput, cached bool, err error) {
	key := Key(caseID)

	ok, err := p.store.Exists(key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		blob, err := p.store.Read(key)
		if err != nil {
			return nil, false, err
		}
		out, err := Decode(blob)
		return out, true, err
	}

	ok, err = p.store.Exists(caseID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, &PrecursorMissingError{CaseID: caseID}
	}
	stage1, err := p.store.Read(caseID)
	if err != nil {
		return nil, false, err
	}

	completion, err := p.gen.Generate(ctx, BuildPrompt(stage1), Schema(), func(blob []byte) error {
		return p.store.Write(key, blob)
	}, nil)
	if err != nil {
		return nil, false, err
	}
	return completion.Value.(*AtomizedCaseOutput), false, nil
}
