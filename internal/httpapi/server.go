// Package httpapi maps HTTP routes onto the pipelines. It owns no pipeline
// logic: handlers translate pipeline errors into response codes and render
// validated artifacts for the front end.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sravan953/saul/internal/analysis"
	"github.com/sravan953/saul/internal/artifact"
	"github.com/sravan953/saul/internal/atomize"
	"github.com/sravan953/saul/internal/casefile"
	"github.com/sravan953/saul/internal/llm"
	"github.com/sravan953/saul/internal/report"
)

type Server struct {
	corpus   casefile.Source
	store    artifact.Store
	analysis *analysis.Pipeline
	atomize  *atomize.Pipeline
}

func NewServer(corpus casefile.Source, store artifact.Store, ap *analysis.Pipeline, tp *atomize.Pipeline) http.Handler {
	s := &Server{corpus: corpus, store: store, analysis: ap, atomize: tp}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/files", s.handleListFiles)
	mux.HandleFunc("GET /api/output/{case}", s.handleOutput)
	mux.HandleFunc("POST /api/analyze/{case}", s.handleAnalyze)
	mux.HandleFunc("POST /api/atomize/{case}", s.handleAtomize)
	mux.HandleFunc("GET /api/report/{case}", s.handleReport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeHTML(w http.ResponseWriter, status int, markup string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(markup))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"detail": message})
}

// writePipelineError maps pipeline failures onto response codes. The
// unreachable local backend is actionable (503) and a missing stage-1
// precursor is a conflict (409); everything else is a generic failure.
func writePipelineError(w http.ResponseWriter, err error) {
	var pm *atomize.PrecursorMissingError
	switch {
	case errors.Is(err, llm.ErrProviderUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &pm):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	ids, err := s.corpus.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// caseType returns the stage-2 classification for a case, or "" if the case
// has not been atomized.
func (s *Server) caseType(caseID string) string {
	blob, err := s.store.Read(atomize.Key(caseID))
	if err != nil {
		return ""
	}
	out, err := atomize.Decode(blob)
	if err != nil {
		return ""
	}
	return string(out.CaseType)
}

func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case")
	a, ok, err := s.analysis.Cached(caseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "cached output not found")
		return
	}
	writeHTML(w, http.StatusOK, analysis.RenderHTML(a, s.caseType(caseID)))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case")
	rec, err := s.corpus.Load(caseID)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	// Cached-first: an unreadable cached artifact is logged and re-analyzed,
	// not surfaced.
	a, ok, err := s.analysis.Cached(caseID)
	if err == nil && ok {
		writeHTML(w, http.StatusOK, analysis.RenderHTML(a, s.caseType(caseID)))
		return
	}
	if err != nil {
		log.Printf("analyze %s: ignoring unreadable cache: %v", caseID, err)
	}

	res, err := s.analysis.Analyze(r.Context(), rec, false, nil)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeHTML(w, http.StatusOK, res.HTML)
}

func (s *Server) handleAtomize(w http.ResponseWriter, r *http.Request) {
	out, _, err := s.atomize.Atomize(r.Context(), r.PathValue("case"))
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	caseID := r.PathValue("case")
	a, ok, err := s.analysis.Cached(caseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no analysis artifact for case")
		return
	}

	var atom *atomize.AtomizedCaseOutput
	if blob, err := s.store.Read(atomize.Key(caseID)); err == nil {
		if decoded, err := atomize.Decode(blob); err == nil {
			atom = decoded
		}
	} else {
		var nf *artifact.NotFoundError
		if !errors.As(err, &nf) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	md := report.BuildMarkdown(caseID, a, atom)
	fragment, err := report.MarkdownToHTML(md)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeHTML(w, http.StatusOK, report.BuildDocument("Case Report "+caseID, fragment))
}
