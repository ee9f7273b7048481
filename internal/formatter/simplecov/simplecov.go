// Package simplecov produces SimpleCov JSON documents.
package simplecov

import (
	"github.com/IgorBayerl/sfcov/internal/formatter"
)

// Name is the registry key for this format.
const Name = "simplecov"

// Report is the SimpleCov document. Each file maps to an array indexed by
// line number - 1; entries are 1 (covered), 0 (uncovered) or null (not
// executable). Go's encoder writes map keys sorted, so output is stable.
type Report struct {
	Coverage  map[string][]*int `json:"coverage"`
	Timestamp int64             `json:"timestamp"`
}

// Encoding implements formatter.Document.
func (*Report) Encoding() formatter.Encoding { return formatter.EncodingJSON }

// Handler accumulates files for the SimpleCov report.
type Handler struct {
	formatter.Collector
	clock formatter.Clock
}

// New returns an empty SimpleCov handler stamped with clock.
func New(clock formatter.Clock) *Handler { return &Handler{clock: clock} }

// Finalize implements formatter.Handler.
func (h *Handler) Finalize() formatter.Document {
	doc := &Report{
		Coverage:  make(map[string][]*int),
		Timestamp: h.clock.Now().Unix(),
	}
	for _, f := range h.Files() {
		doc.Coverage[f.Path] = lineArray(f.Lines)
	}
	return doc
}

func lineArray(lines []formatter.Line) []*int {
	if len(lines) == 0 {
		return []*int{}
	}
	maxLine := lines[len(lines)-1].Number
	out := make([]*int, maxLine)
	for _, l := range lines {
		hits := l.Hits()
		out[l.Number-1] = &hits
	}
	return out
}

// Registration describes the SimpleCov format.
func Registration(clock formatter.Clock) formatter.Registration {
	return formatter.Registration{
		Name:                Name,
		Description:         "SimpleCov JSON format",
		Extension:           ".json",
		Factory:             func() formatter.Handler { return New(clock) },
		CompatiblePlatforms: []string{"Code Climate", "Codecov"},
	}
}
