package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/sravan953/saul/internal/analysis"
	"github.com/sravan953/saul/internal/artifact"
	"github.com/sravan953/saul/internal/atomize"
	"github.com/sravan953/saul/internal/casefile"
	"github.com/sravan953/saul/internal/httpapi"
	"github.com/sravan953/saul/internal/llm"
)

func main() {
	addrFlag := flag.String("addr", "", "listen address (defaults to :8080, or PORT env)")
	dataDir := flag.String("data", "data", "directory of case record JSON files")
	outDir := flag.String("out", "out", "artifact directory")
	dbFlag := flag.String("db", "", "path to SQLite artifact database (overrides -out)")
	flag.Parse()

	addr := *addrFlag
	if addr == "" {
		addr = ":8080"
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		}
	}

	store := openStore(*dbFlag, *outDir)

	cfg := llm.ConfigFromEnv()
	gen, err := llm.New(cfg)
	if err != nil {
		log.Fatalf("configure provider: %v", err)
	}

	corpus := casefile.NewDirSource(*dataDir)
	handler := httpapi.NewServer(corpus, store,
		analysis.NewPipeline(gen, store), atomize.NewPipeline(gen, store))

	log.Printf("serving on %s (provider=%s, data=%s)", addr, cfg.Backend, *dataDir)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server: %v", err)
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
