package analysis

import (
	"context"
	"fmt"

	"github.com/sravan953/saul/internal/artifact"
	"github.com/sravan953/saul/internal/casefile"
	"github.com/sravan953/saul/internal/llm"
)

const promptTemplate = `Extract facts, identify legal issues, analyze reasonings, and determine conclusions from this case:

%s`

// BuildPrompt interpolates the whole opinion text verbatim. No truncation,
// no chunking; an empty opinion is a valid prompt.
func BuildPrompt(fullOpinion string) string {
	return fmt.Sprintf(promptTemplate, fullOpinion)
}

// Result is the outcome of one stage-1 run. Skipped is the cache-hit
// sentinel: the artifact already existed and no provider call was made.
type Result struct {
	Skipped  bool
	Analysis *Analysis
	HTML     string
}

type Pipeline struct {
	gen   *llm.Generator
	store artifact.Store
}

func NewPipeline(gen *llm.Generator, store artifact.Store) *Pipeline {
	return &Pipeline{gen: gen, store: store}
}

// Key is the stage-1 artifact key for a case: the identifier itself.
func Key(caseID string) string { return caseID }

// Analyze runs stage-1 extraction for one case record. The validated
// artifact is persisted by the provider adapter before the rendered view is
// built, so a failure during presentation never loses the result.
//
// llm.ErrProviderUnavailable propagates as-is; everything else is a generic
// failure for the caller to classify.
func (p *Pipeline) Analyze(ctx context.Context, rec casefile.CaseRecord, skipIfExists bool, onFragment func(string)) (Result, error) {
	key := Key(rec.ID)
	if skipIfExists {
		ok, err := p.store.Exists(key)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return Result{Skipped: true}, nil
		}
	}

	prompt := BuildPrompt(rec.FullOpinionText())
	completion, err := p.gen.Generate(ctx, prompt, Schema(), func(blob []byte) error {
		return p.store.Write(key, blob)
	}, onFragment)
	if err != nil {
		return Result{}, err
	}

	a := completion.Value.(*Analysis)
	return Result{Analysis: a, HTML: RenderHTML(a, "")}, nil
}

// Cached returns the persisted analysis for a case, if any.
func (p *Pipeline) Cached(caseID string) (*Analysis, bool, error) {
	ok, err := p.store.Exists(Key(caseID))
	if err != nil || !ok {
		return nil, false, err
	}
	blob, err := p.store.Read(Key(caseID))
	if err != nil {
		return nil, false, err
	}
	a, err := Decode(blob)
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}
