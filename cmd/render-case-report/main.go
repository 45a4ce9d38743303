package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sravan953/saul/internal/analysis"
	"github.com/sravan953/saul/internal/artifact"
	"github.com/sravan953/saul/internal/atomize"
	"github.com/sravan953/saul/internal/report"
)

func main() {
	caseID := flag.String("case", "", "case identifier (artifact key)")
	outDir := flag.String("out", "out", "artifact directory")
	dbFlag := flag.String("db", "", "path to SQLite artifact database (overrides -out)")
	mdPath := flag.String("markdown", "", "optional path to write the markdown report (defaults to stdout when -pdf is unset)")
	pdfPath := flag.String("pdf", "", "optional path to write a rendered PDF")
	flag.Parse()

	if *caseID == "" {
		log.Fatal("missing required -case")
	}

	store := openStore(*dbFlag, *outDir)

	blob, err := store.Read(analysis.Key(*caseID))
	if err != nil {
		log.Fatalf("read analysis artifact: %v", err)
	}
	a, err := analysis.Decode(blob)
	if err != nil {
		log.Fatalf("decode analysis artifact: %v", err)
	}

	var atom *atomize.AtomizedCaseOutput
	if blob, err := store.Read(atomize.Key(*caseID)); err == nil {
		atom, err = atomize.Decode(blob)
		if err != nil {
			log.Fatalf("decode atomized artifact: %v", err)
		}
	}

	markdown := report.BuildMarkdown(*caseID, a, atom)

	if *mdPath != "" {
		if err := os.WriteFile(*mdPath, []byte(markdown), 0o644); err != nil {
			log.Fatalf("write markdown: %v", err)
		}
	} else if *pdfPath == "" {
		fmt.Print(markdown)
	}

	if *pdfPath != "" {
		pdf, err := report.NewPDFRenderer().Render(context.Background(), *caseID, markdown)
		if err != nil {
			log.Fatalf("render pdf: %v", err)
		}
		if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
			log.Fatalf("write pdf: %v", err)
		}
		log.Printf("wrote %s", *pdfPath)
	}
}

func openStore(dbPath, outDir string) artifact.Store {
	if dbPath != "" {
		store, err := artifact.NewSQLiteStore(dbPath)
		if err != nil {
			log.Fatalf("open sqlite store (%s): %v", dbPath, err)
		}
		return store
	}
	store, err := artifact.NewFSStore(outDir)
	if err != nil {
		log.Fatalf("open artifact directory (%s): %v", outDir, err)
	}
	return store
}
