// Package sonar produces SonarQube generic test coverage XML.
package sonar

import (
	"encoding/xml"

	"github.com/IgorBayerl/sfcov/internal/formatter"
)

// Name is the registry key for this format.
const Name = "sonar"

// Coverage is the <coverage> root element.
type Coverage struct {
	XMLName xml.Name `xml:"coverage"`
	Version string   `xml:"version,attr"`
	Files   []File   `xml:"file"`
}

// File is a <file> element.
type File struct {
	Path  string        `xml:"path,attr"`
	Lines []LineToCover `xml:"lineToCover"`
}

// LineToCover is a <lineToCover> element.
type LineToCover struct {
	LineNumber int  `xml:"lineNumber,attr"`
	Covered    bool `xml:"covered,attr"`
}

// Encoding implements formatter.Document.
func (*Coverage) Encoding() formatter.Encoding { return formatter.EncodingXML }

// Handler accumulates files for the Sonar report.
type Handler struct {
	formatter.Collector
}

// New returns an empty Sonar handler.
func New() *Handler { return &Handler{} }

// Finalize implements formatter.Handler.
func (h *Handler) Finalize() formatter.Document {
	doc := &Coverage{Version: "1", Files: []File{}}
	for _, f := range h.Files() {
		file := File{Path: f.Path, Lines: make([]LineToCover, 0, len(f.Lines))}
		for _, l := range f.Lines {
			file.Lines = append(file.Lines, LineToCover{LineNumber: l.Number, Covered: l.Covered})
		}
		doc.Files = append(doc.Files, file)
	}
	return doc
}

// Registration describes the Sonar format.
func Registration() formatter.Registration {
	return formatter.Registration{
		Name:                Name,
		Description:         "SonarQube generic test coverage format",
		Extension:           ".xml",
		Factory:             func() formatter.Handler { return New() },
		CompatiblePlatforms: []string{"SonarQube", "SonarCloud"},
	}
}
