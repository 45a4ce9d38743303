// Package batch drives either pipeline stage across a corpus: sorted order,
// idempotent skip, per-item failure isolation, incremental progress.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/sravan953/saul/internal/analysis"
	"github.com/sravan953/saul/internal/atomize"
	"github.com/sravan953/saul/internal/casefile"
)

type Stage string

const (
	StageAnalyze Stage = "analyze"
	StageAtomize Stage = "atomize"
)

type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeError     Outcome = "error"
)

// Summary holds the three disjoint outcome counts for one batch run.
type Summary struct {
	Total     int
	Processed int
	Skipped   int
	Errored   int
}

// ProgressFn observes one item transition. It fires once per item, after
// that item reached a terminal outcome, so a long batch is observable
// before completion.
type ProgressFn func(caseID string, outcome Outcome, s Summary)

type Runner struct {
	corpus   casefile.Source
	analysis *analysis.Pipeline
	atomize  *atomize.Pipeline
}

func NewRunner(corpus casefile.Source, ap *analysis.Pipeline, tp *atomize.Pipeline) *Runner {
	return &Runner{corpus: corpus, analysis: ap, atomize: tp}
}

// Run processes the corpus strictly sequentially in sorted-identifier order.
// limit > 0 restricts the run to the first limit items. A failure in one
// item is counted, logged, and does not stop the batch; there are no
// retries within a run; re-running the batch is the retry mechanism, which
// the skip policy makes safe.
func (r *Runner) Run(ctx context.Context, stage Stage, limit int, progress ProgressFn) (Summary, error) {
	ids, err := r.corpus.List()
	if err != nil {
		return Summary{}, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	s := Summary{Total: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		outcome, err := r.runOne(ctx, stage, id)
		switch outcome {
		case OutcomeProcessed:
			s.Processed++
		case OutcomeSkipped:
			s.Skipped++
		default:
			s.Errored++
			log.Printf("batch %s: case %s failed: %v", stage, id, err)
		}
		if progress != nil {
			progress(id, outcome, s)
		}
	}
	return s, nil
}

func (r *Runner) runOne(ctx context.Context, stage Stage, id string) (Outcome, error) {
	switch stage {
	case StageAnalyze:
		rec, err := r.corpus.Load(id)
		if err != nil {
			return OutcomeError, err
		}
		res, err := r.analysis.Analyze(ctx, rec, true, nil)
		if err != nil {
			return OutcomeError, err
		}
		if res.Skipped {
			return OutcomeSkipped, nil
		}
		return OutcomeProcessed, nil

	case StageAtomize:
		_, cached, err := r.atomize.Atomize(ctx, id)
		var pm *atomize.PrecursorMissingError
		if errors.As(err, &pm) {
			return OutcomeSkipped, nil
		}
		if err != nil {
			return OutcomeError, err
		}
		if cached {
			return OutcomeSkipped, nil
		}
		return OutcomeProcessed, nil

	default:
		return OutcomeError, fmt.Errorf("unknown stage %q", stage)
	}
}
