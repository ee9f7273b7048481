// Package html collects the data behind the HTML coverage page. Rendering the
// page is left to reporter/htmlreport.
package html

import (
	"github.com/IgorBayerl/sfcov/internal/formatter"
)

// Name is the registry key for this format.
const Name = "html"

// Report is the data document for the HTML page.
type Report struct {
	Title   string  `json:"title"`
	Summary Summary `json:"summary"`
	Files   []File  `json:"files"`
}

// Summary is the sum over every file.
type Summary struct {
	Files        int     `json:"files"`
	TotalLines   int     `json:"totalLines"`
	CoveredLines int     `json:"coveredLines"`
	LineRate     float64 `json:"lineRate"`
}

// File is one file's coverage.
type File struct {
	Path         string  `json:"path"`
	Name         string  `json:"name"`
	TotalLines   int     `json:"totalLines"`
	CoveredLines int     `json:"coveredLines"`
	LineRate     float64 `json:"lineRate"`
	Lines        []Line  `json:"lines"`
}

// Line is one line's coverage.
type Line struct {
	Number  int  `json:"number"`
	Covered bool `json:"covered"`
}

// Encoding implements formatter.Document.
func (*Report) Encoding() formatter.Encoding { return formatter.EncodingHTML }

// Handler accumulates files for the HTML report.
type Handler struct {
	formatter.Collector
}

// New returns an empty HTML handler.
func New() *Handler { return &Handler{} }

// Finalize implements formatter.Handler.
func (h *Handler) Finalize() formatter.Document {
	files := h.Files()
	doc := &Report{Title: "Apex Code Coverage", Files: make([]File, 0, len(files))}
	for _, f := range files {
		file := File{
			Path:         f.Path,
			Name:         f.DisplayName,
			TotalLines:   f.Total,
			CoveredLines: f.Covered,
			LineRate:     formatter.Rate(f.Covered, f.Total),
			Lines:        make([]Line, 0, len(f.Lines)),
		}
		for _, l := range f.Lines {
			file.Lines = append(file.Lines, Line{Number: l.Number, Covered: l.Covered})
		}
		doc.Files = append(doc.Files, file)
		doc.Summary.TotalLines += f.Total
		doc.Summary.CoveredLines += f.Covered
	}
	doc.Summary.Files = len(files)
	doc.Summary.LineRate = formatter.Rate(doc.Summary.CoveredLines, doc.Summary.TotalLines)
	return doc
}

// Registration describes the HTML format.
func Registration() formatter.Registration {
	return formatter.Registration{
		Name:                Name,
		Description:         "Static HTML coverage page",
		Extension:           ".html",
		Factory:             func() formatter.Handler { return New() },
		CompatiblePlatforms: []string{"browsers", "CI artifacts"},
	}
}
