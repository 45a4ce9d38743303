package atomize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sravan953/saul/internal/artifact"
	"github.com/sravan953/saul/internal/llm"
)

const criminalResponse = `{
  "case_type": "criminal",
  "legal_issues": ["sufficiency of evidence"],
  "outcome_category": "conviction affirmed",
  "outcome_details": "10 year sentence upheld",
  "criminal": {
    "severity": "felony",
    "charges": ["armed robbery"],
    "weapon": "handgun",
    "victim_count": 1,
    "evidence_types": ["eyewitness"],
    "aggravating_factors": [],
    "prior_record_severity": "minor"
  },
  "civil": null
}`

func testGenerator(t *testing.T, response string, calls *int) *llm.Generator {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"models":[]}`)
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		*calls++
		fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":true}`+"\n", response)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gen, err := llm.New(llm.Config{Backend: llm.BackendOllama, OllamaBaseURL: srv.URL, OllamaModel: "gemma3:12b"})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	return gen
}

func seedStage1(t *testing.T, store artifact.Store, caseID string) {
	t.Helper()
	err := store.Write(caseID, []byte(`{"facts":["f"],"issues":["i"],"reasonings":["r"],"outcomes":"o"}`))
	if err != nil {
		t.Fatalf("seed stage-1: %v", err)
	}
}

func TestAtomizeRequiresPrecursor(t *testing.T) {
	calls := 0
	p := NewPipeline(testGenerator(t, criminalResponse, &calls), artifact.NewMemStore())

	_, _, err := p.Atomize(context.Background(), "a.json")
	var pm *PrecursorMissingError
	if !errors.As(err, &pm) {
		t.Fatalf("expected PrecursorMissingError, got %v", err)
	}
	if pm.CaseID != "a.json" {
		t.Fatalf("wrong case id: %q", pm.CaseID)
	}
	if calls != 0 {
		t.Fatalf("missing precursor must never trigger a provider call, got %d", calls)
	}
}

func TestAtomizePersistsAndReadsThrough(t *testing.T) {
	calls := 0
	store := artifact.NewMemStore()
	p := NewPipeline(testGenerator(t, criminalResponse, &calls), store)
	seedStage1(t, store, "a.json")

	out, cached, err := p.Atomize(context.Background(), "a.json")
	if err != nil {
		t.Fatalf("atomize: %v", err)
	}
	if cached {
		t.Fatal("first run must not report cached")
	}
	if out.CaseType != CaseTypeCriminal || out.Criminal == nil || out.Civil != nil {
		t.Fatalf("unexpected output: %+v", out)
	}
	if ok, _ := store.Exists(Key("a.json")); !ok {
		t.Fatal("stage-2 artifact not persisted")
	}

	again, cached, err := p.Atomize(context.Background(), "a.json")
	if err != nil {
		t.Fatalf("second atomize: %v", err)
	}
	if !cached {
		t.Fatal("second run must hit the read-through cache")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", calls)
	}
	if again.Criminal.Severity != SeverityFelony || *again.Criminal.Weapon != "handgun" {
		t.Fatalf("cached output mismatch: %+v", again.Criminal)
	}
}

func TestAtomizeRejectsUnionViolations(t *testing.T) {
	for name, body := range map[string]string{
		"both branches": `{"case_type":"criminal","legal_issues":[],"outcome_category":"c","outcome_details":"d",
			"criminal":{"severity":"felony","charges":[],"victim_count":0,"evidence_types":[],"prior_record_severity":"none"},
			"civil":{"cause_of_action":"Negligence","duty_of_care_source":"s","breach_description":"b","causation_score":0.5,"damages_amount":1,"settlement":false}}`,
		"missing branch": `{"case_type":"civil","legal_issues":[],"outcome_category":"c","outcome_details":"d","criminal":null,"civil":null}`,
		"wrong branch":   `{"case_type":"civil","legal_issues":[],"outcome_category":"c","outcome_details":"d","criminal":{"severity":"felony","charges":[],"victim_count":0,"evidence_types":[],"prior_record_severity":"none"},"civil":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			calls := 0
			store := artifact.NewMemStore()
			p := NewPipeline(testGenerator(t, body, &calls), store)
			seedStage1(t, store, "a.json")

			_, _, err := p.Atomize(context.Background(), "a.json")
			var sve *llm.SchemaValidationError
			if !errors.As(err, &sve) {
				t.Fatalf("expected SchemaValidationError, got %v", err)
			}
			if ok, _ := store.Exists(Key("a.json")); ok {
				t.Fatal("invalid output must never be persisted")
			}
		})
	}
}

func TestAtomizeFieldConstraints(t *testing.T) {
	negVictims := `{"case_type":"criminal","legal_issues":[],"outcome_category":"c","outcome_details":"d",
		"criminal":{"severity":"felony","charges":[],"victim_count":-1,"evidence_types":[],"prior_record_severity":"none"},"civil":null}`
	calls := 0
	store := artifact.NewMemStore()
	p := NewPipeline(testGenerator(t, negVictims, &calls), store)
	seedStage1(t, store, "a.json")

	_, _, err := p.Atomize(context.Background(), "a.json")
	var sve *llm.SchemaValidationError
	if !errors.As(err, &sve) {
		t.Fatalf("negative victim count must fail validation, got %v", err)
	}
}

func TestCivilDefaultsApplied(t *testing.T) {
	out, err := Decode([]byte(`{"case_type":"civil","outcome_category":"c","outcome_details":"d","criminal":null,
		"civil":{"cause_of_action":"","duty_of_care_source":"statute","breach_description":"b","causation_score":1,"damages_amount":5000,"settlement":true}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Civil.CauseOfAction != "Negligence" {
		t.Fatalf("cause_of_action default not applied: %q", out.Civil.CauseOfAction)
	}
	if out.LegalIssues == nil {
		t.Fatal("legal_issues must default to an empty list")
	}
}

func TestKeyUsesAtomizedSuffix(t *testing.T) {
	if Key("a.json") != "a.json.atomized" {
		t.Fatalf("unexpected key: %q", Key("a.json"))
	}
}
