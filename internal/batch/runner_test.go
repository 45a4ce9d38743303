package batch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sravan953/saul/internal/analysis"
	"github.com/sravan953/saul/internal/artifact"
	"github.com/sravan953/saul/internal/atomize"
	"github.com/sravan953/saul/internal/casefile"
	"github.com/sravan953/saul/internal/llm"
)

type fakeCorpus struct {
	ids     []string
	loadErr map[string]error
}

func (f *fakeCorpus) List() ([]string, error) { return f.ids, nil }

func (f *fakeCorpus) Load(id string) (casefile.CaseRecord, error) {
	if err := f.loadErr[id]; err != nil {
		return casefile.CaseRecord{}, err
	}
	return casefile.CaseRecord{ID: id, Casebody: casefile.Casebody{Opinions: []casefile.Opinion{{Text: "opinion " + id}}}}, nil
}

const analysisResponse = `{"facts":["f"],"issues":["i"],"reasonings":["r"],"outcomes":"o"}`

const atomizeResponse = `{"case_type":"civil","legal_issues":[],"outcome_category":"damages","outcome_details":"$1",
  "criminal":null,"civil":{"cause_of_action":"Negligence","duty_of_care_source":"common law","breach_description":"b",
  "causation_score":0.9,"damages_amount":1,"settlement":false}}`

func testRunner(t *testing.T, corpus *fakeCorpus, stageResponse string, calls *int) (*Runner, artifact.Store) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[]}`)
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":true}`+"\n", stageResponse)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gen, err := llm.New(llm.Config{Backend: llm.BackendOllama, OllamaBaseURL: srv.URL, OllamaModel: "gemma3:12b"})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	store := artifact.NewMemStore()
	return NewRunner(corpus, analysis.NewPipeline(gen, store), atomize.NewPipeline(gen, store)), store
}

func TestRunPerItemIsolation(t *testing.T) {
	corpus := &fakeCorpus{
		ids:     []string{"a.json", "b.json", "c.json"},
		loadErr: map[string]error{"b.json": fmt.Errorf("corrupt case file")},
	}
	calls := 0
	r, _ := testRunner(t, corpus, analysisResponse, &calls)

	var order []string
	s, err := r.Run(context.Background(), StageAnalyze, 0, func(id string, o Outcome, _ Summary) {
		order = append(order, fmt.Sprintf("%s=%s", id, o))
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Total != 3 || s.Processed != 2 || s.Errored != 1 || s.Skipped != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	want := []string{"a.json=processed", "b.json=error", "c.json=processed"}
	if len(order) != 3 {
		t.Fatalf("expected 3 progress notifications, got %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unexpected progress order: %v", order)
		}
	}
}

func TestRunSecondPassSkipsEverything(t *testing.T) {
	corpus := &fakeCorpus{ids: []string{"a.json", "b.json"}}
	calls := 0
	r, _ := testRunner(t, corpus, analysisResponse, &calls)

	if _, err := r.Run(context.Background(), StageAnalyze, 0, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	s, err := r.Run(context.Background(), StageAnalyze, 0, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if s.Skipped != 2 || s.Processed != 0 || s.Errored != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if calls != 2 {
		t.Fatalf("re-run must not issue new provider calls, got %d total", calls)
	}
}

func TestRunHonorsLimit(t *testing.T) {
	corpus := &fakeCorpus{ids: []string{"a.json", "b.json", "c.json"}}
	calls := 0
	r, _ := testRunner(t, corpus, analysisResponse, &calls)

	s, err := r.Run(context.Background(), StageAnalyze, 2, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Total != 2 || s.Processed != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestRunAtomizeCountsMissingPrecursorAsSkipped(t *testing.T) {
	corpus := &fakeCorpus{ids: []string{"a.json", "b.json"}}
	calls := 0
	r, store := testRunner(t, corpus, atomizeResponse, &calls)
	// Only a.json has a stage-1 artifact.
	if err := store.Write("a.json", []byte(analysisResponse)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, err := r.Run(context.Background(), StageAtomize, 0, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Processed != 1 || s.Skipped != 1 || s.Errored != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if ok, _ := store.Exists(atomize.Key("a.json")); !ok {
		t.Fatal("stage-2 artifact missing for a.json")
	}
	if ok, _ := store.Exists(atomize.Key("b.json")); ok {
		t.Fatal("stage-2 artifact must not exist for b.json")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	corpus := &fakeCorpus{ids: []string{"a.json", "b.json"}}
	calls := 0
	r, _ := testRunner(t, corpus, analysisResponse, &calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Run(ctx, StageAnalyze, 0, nil); err == nil {
		t.Fatal("expected context error")
	}
	if calls != 0 {
		t.Fatalf("cancelled run must not call the provider, got %d", calls)
	}
}
