// Package istanbul produces Istanbul coverage-final.json documents.
package istanbul

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/IgorBayerl/sfcov/internal/formatter"
)

// Name is the registry key for this format.
const Name = "json"

// Position is a line/column pair. Columns are unknown and always 0.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a statement location.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// FileCoverage is one file's Istanbul record. Statement ids are line numbers.
type FileCoverage struct {
	Path         string           `json:"path"`
	StatementMap map[string]Range `json:"statementMap"`
	FnMap        map[string]any   `json:"fnMap"`
	BranchMap    map[string]any   `json:"branchMap"`
	S            map[string]int   `json:"s"`
	F            map[string]int   `json:"f"`
	B            map[string][]int `json:"b"`
}

// Report maps file paths to their coverage.
type Report struct {
	Files map[string]*FileCoverage
}

// Encoding implements formatter.Document.
func (*Report) Encoding() formatter.Encoding { return formatter.EncodingJSON }

// MarshalJSON writes the file entries with their keys in lexicographic order.
func (r *Report) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r.Files))
	for k := range r.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Files[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Handler accumulates files for the Istanbul report.
type Handler struct {
	formatter.Collector
}

// New returns an empty Istanbul handler.
func New() *Handler { return &Handler{} }

// Finalize implements formatter.Handler.
func (h *Handler) Finalize() formatter.Document {
	doc := &Report{Files: make(map[string]*FileCoverage)}
	for _, f := range h.Files() {
		fc := &FileCoverage{
			Path:         f.Path,
			StatementMap: make(map[string]Range, len(f.Lines)),
			FnMap:        map[string]any{},
			BranchMap:    map[string]any{},
			S:            make(map[string]int, len(f.Lines)),
			F:            map[string]int{},
			B:            map[string][]int{},
		}
		for _, l := range f.Lines {
			id := strconv.Itoa(l.Number)
			fc.StatementMap[id] = Range{
				Start: Position{Line: l.Number},
				End:   Position{Line: l.Number},
			}
			fc.S[id] = l.Hits()
		}
		doc.Files[f.Path] = fc
	}
	return doc
}

// Registration describes the Istanbul JSON format.
func Registration() formatter.Registration {
	return formatter.Registration{
		Name:                Name,
		Description:         "Istanbul coverage-final.json format",
		Extension:           ".json",
		Factory:             func() formatter.Handler { return New() },
		CompatiblePlatforms: []string{"Codecov", "Coveralls", "Istanbul/nyc"},
	}
}
