// Package casefile reads court-opinion case records from a corpus directory.
// Each record is one JSON file; the filename is the stable case identifier.
package casefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Opinion struct {
	Type   string `json:"type,omitempty"`
	Author string `json:"author,omitempty"`
	Text   string `json:"text"`
}

type Casebody struct {
	Opinions []Opinion `json:"opinions"`
}

type CaseRecord struct {
	ID       string   `json:"-"`
	Name     string   `json:"name,omitempty"`
	Casebody Casebody `json:"casebody"`
}

// FullOpinionText concatenates the opinion texts in file order. A record
// with no opinions yields the empty string, never an error.
func (r CaseRecord) FullOpinionText() string {
	var b strings.Builder
	for _, op := range r.Casebody.Opinions {
		b.WriteString(op.Text)
	}
	return b.String()
}

type Source interface {
	List() ([]string, error)
	Load(id string) (CaseRecord, error)
}

// DirSource lists and loads case records from a flat directory of JSON files.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list corpus %s: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *DirSource) Load(id string) (CaseRecord, error) {
	blob, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(id)))
	if err != nil {
		return CaseRecord{}, fmt.Errorf("load case %s: %w", id, err)
	}
	var rec CaseRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return CaseRecord{}, fmt.Errorf("parse case %s: %w", id, err)
	}
	rec.ID = id
	return rec, nil
}
