// Package jsonsummary produces Istanbul json-summary documents.
package jsonsummary

import (
	"bytes"
	"encoding/json"

	"github.com/IgorBayerl/sfcov/internal/formatter"
)

// Name is the registry key for this format.
const Name = "json-summary"

// TotalKey is the key of the aggregate entry.
const TotalKey = "total"

// Metric is one coverage counter block.
type Metric struct {
	Total   int     `json:"total"`
	Covered int     `json:"covered"`
	Skipped int     `json:"skipped"`
	Pct     float64 `json:"pct"`
}

// Summary holds the counters of a file or of the aggregate. Lines and
// statements always carry the same numbers.
type Summary struct {
	Lines      Metric `json:"lines"`
	Statements Metric `json:"statements"`
}

func newSummary(total, covered int) Summary {
	m := Metric{Total: total, Covered: covered, Pct: formatter.Percent(covered, total)}
	return Summary{Lines: m, Statements: m}
}

// Entry is a named summary.
type Entry struct {
	Path    string
	Summary Summary
}

// Report is the aggregate summary followed by one summary per file.
type Report struct {
	Total Summary
	Files []Entry
}

// Encoding implements formatter.Document.
func (*Report) Encoding() formatter.Encoding { return formatter.EncodingJSON }

// MarshalJSON writes "total" first, then the files in path order.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, TotalKey, r.Total); err != nil {
		return nil, err
	}
	for _, e := range r.Files {
		buf.WriteByte(',')
		if err := writeMember(&buf, e.Path, e.Summary); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, v any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

// Handler accumulates files for the json-summary report.
type Handler struct {
	formatter.Collector
}

// New returns an empty json-summary handler.
func New() *Handler { return &Handler{} }

// Finalize implements formatter.Handler.
func (h *Handler) Finalize() formatter.Document {
	files := h.Files()
	doc := &Report{Files: make([]Entry, 0, len(files))}
	for _, f := range files {
		doc.Files = append(doc.Files, Entry{Path: f.Path, Summary: newSummary(f.Total, f.Covered)})
	}
	doc.Total = newSummary(formatter.Totals(files))
	return doc
}

// Registration describes the json-summary format.
func Registration() formatter.Registration {
	return formatter.Registration{
		Name:                Name,
		Description:         "Istanbul json-summary format",
		Extension:           ".json",
		Factory:             func() formatter.Handler { return New() },
		CompatiblePlatforms: []string{"GitHub Actions", "Codecov", "custom dashboards"},
	}
}
