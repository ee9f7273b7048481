// Package lcov produces the line-oriented LCOV tracefile format.
package lcov

import (
	"bufio"
	"fmt"
	"io"

	"github.com/IgorBayerl/sfcov/internal/formatter"
)

// Name is the registry key for this format.
const Name = "lcovonly"

// Report is the list of LCOV records, one per source file.
type Report struct {
	Files []formatter.FileCoverage
}

// Encoding implements formatter.Document.
func (*Report) Encoding() formatter.Encoding { return formatter.EncodingText }

// WriteText implements formatter.TextWriter.
func (r *Report) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, f := range r.Files {
		fmt.Fprintln(bw, "TN:")
		fmt.Fprintf(bw, "SF:%s\n", f.Path)
		fmt.Fprintln(bw, "FNF:0")
		fmt.Fprintln(bw, "FNH:0")
		for _, l := range f.Lines {
			fmt.Fprintf(bw, "DA:%d,%d\n", l.Number, l.Hits())
		}
		fmt.Fprintf(bw, "LF:%d\n", f.Total)
		fmt.Fprintf(bw, "LH:%d\n", f.Covered)
		fmt.Fprintln(bw, "BRF:0")
		fmt.Fprintln(bw, "BRH:0")
		fmt.Fprintln(bw, "end_of_record")
	}
	return bw.Flush()
}

// Handler accumulates files for the LCOV report.
type Handler struct {
	formatter.Collector
}

// New returns an empty LCOV handler.
func New() *Handler { return &Handler{} }

// Finalize implements formatter.Handler.
func (h *Handler) Finalize() formatter.Document {
	return &Report{Files: h.Files()}
}

// Registration describes the LCOV format.
func Registration() formatter.Registration {
	return formatter.Registration{
		Name:                Name,
		Description:         "LCOV tracefile (lcov.info)",
		Extension:           ".info",
		Factory:             func() formatter.Handler { return New() },
		CompatiblePlatforms: []string{"Codecov", "Coveralls", "SonarQube", "GitHub Actions"},
	}
}
