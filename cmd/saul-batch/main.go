package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sravan953/saul/internal/analysis"
	"github.com/sravan953/saul/internal/artifact"
	"github.com/sravan953/saul/internal/atomize"
	"github.com/sravan953/saul/internal/batch"
	"github.com/sravan953/saul/internal/casefile"
	"github.com/sravan953/saul/internal/llm"
)

func main() {
	dataDir := flag.String("data", "data", "directory of case record JSON files")
	outDir := flag.String("out", "out", "artifact directory")
	dbFlag := flag.String("db", "", "path to SQLite artifact database (overrides -out)")
	stageFlag := flag.String("stage", "analyze", "pipeline stage to run: analyze or atomize")
	limit := flag.Int("limit", 0, "process at most this many cases (0 = all)")
	flag.Parse()

	var stage batch.Stage
	switch *stageFlag {
	case "analyze":
		stage = batch.StageAnalyze
	case "atomize":
		stage = batch.StageAtomize
	default:
		log.Fatalf("unknown -stage %q (want analyze or atomize)", *stageFlag)
	}

	store := openStore(*dbFlag, *outDir)

	cfg := llm.ConfigFromEnv()
	gen, err := llm.New(cfg)
	if err != nil {
		log.Fatalf("configure provider: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner := batch.NewRunner(casefile.NewDirSource(*dataDir),
		analysis.NewPipeline(gen, store), atomize.NewPipeline(gen, store))

	log.Printf("batch %s starting (provider=%s, data=%s)", stage, cfg.Backend, *dataDir)
	summary, err := runner.Run(ctx, stage, *limit, func(caseID string, outcome batch.Outcome, s batch.Summary) {
		log.Printf("[%d/%d] %s: %s", s.Processed+s.Skipped+s.Errored, s.Total, caseID, outcome)
	})
	if err != nil {
		if err == context.Canceled {
			log.Printf("batch %s interrupted", stage)
		} else {
			log.Fatalf("batch: %v", err)
		}
	}
	log.Printf("batch %s done: %d processed, %d skipped, %d errored (of %d)",
		stage, summary.Processed, summary.Skipped, summary.Errored, summary.Total)
	if summary.Errored > 0 {
		os.Exit(1)
	}
}

func openStore(dbPath, outDir string) artifact.Store {
	if dbPath != "" {
		store, err := artifact.NewSQLiteStore(dbPath)
		if err != nil {
			log.Fatalf("open sqlite store (%s): %v", dbPath, err)
		}
		log.Printf("using sqlite artifact store at %s", dbPath)
		return store
	}
	store, err := artifact.NewFSStore(outDir)
	if err != nil {
		log.Fatalf("open artifact directory (%s): %v", outDir, err)
	}
	return store
}
