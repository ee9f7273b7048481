// Package clover produces Clover 3.2 coverage XML.
package clover

import (
	"encoding/xml"
	"path"

	"github.com/IgorBayerl/sfcov/internal/formatter"
)

// Name is the registry key for this format.
const Name = "clover"

const header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Coverage is the <coverage> root element.
type Coverage struct {
	XMLName   xml.Name `xml:"coverage"`
	Generated int64    `xml:"generated,attr"`
	Clover    string   `xml:"clover,attr"`
	Project   Project  `xml:"project"`
}

// Project is the single implicit <project>.
type Project struct {
	Timestamp int64          `xml:"timestamp,attr"`
	Name      string         `xml:"name,attr"`
	Metrics   ProjectMetrics `xml:"metrics"`
	Files     []File         `xml:"file"`
}

// ProjectMetrics is the project-level <metrics> element.
type ProjectMetrics struct {
	Statements          int `xml:"statements,attr"`
	CoveredStatements   int `xml:"coveredstatements,attr"`
	Conditionals        int `xml:"conditionals,attr"`
	CoveredConditionals int `xml:"coveredconditionals,attr"`
	Methods             int `xml:"methods,attr"`
	CoveredMethods      int `xml:"coveredmethods,attr"`
	Elements            int `xml:"elements,attr"`
	CoveredElements     int `xml:"coveredelements,attr"`
	Complexity          int `xml:"complexity,attr"`
	Loc                 int `xml:"loc,attr"`
	Ncloc               int `xml:"ncloc,attr"`
	Packages            int `xml:"packages,attr"`
	Files               int `xml:"files,attr"`
	Classes             int `xml:"classes,attr"`
}

// File is a <file> element.
type File struct {
	Name    string      `xml:"name,attr"`
	Path    string      `xml:"path,attr"`
	Metrics FileMetrics `xml:"metrics"`
	Lines   []Line      `xml:"line"`
}

// FileMetrics is the file-level <metrics> element.
type FileMetrics struct {
	Statements          int `xml:"statements,attr"`
	CoveredStatements   int `xml:"coveredstatements,attr"`
	Conditionals        int `xml:"conditionals,attr"`
	CoveredConditionals int `xml:"coveredconditionals,attr"`
	Methods             int `xml:"methods,attr"`
	CoveredMethods      int `xml:"coveredmethods,attr"`
}

// Line is a <line> element.
type Line struct {
	Num   int    `xml:"num,attr"`
	Count int    `xml:"count,attr"`
	Type  string `xml:"type,attr"`
}

// Encoding implements formatter.Document.
func (*Coverage) Encoding() formatter.Encoding { return formatter.EncodingXML }

// XMLHeader implements formatter.XMLHeaderer.
func (*Coverage) XMLHeader() string { return header }

// Handler accumulates files for the Clover report.
type Handler struct {
	formatter.Collector
	clock formatter.Clock
}

// New returns an empty Clover handler stamped with clock.
func New(clock formatter.Clock) *Handler { return &Handler{clock: clock} }

// Finalize implements formatter.Handler.
func (h *Handler) Finalize() formatter.Document {
	now := h.clock.Now().UnixMilli()
	doc := &Coverage{
		Generated: now,
		Clover:    "3.2.0",
		Project: Project{
			Timestamp: now,
			Name:      "All files",
			Files:     []File{},
		},
	}
	m := &doc.Project.Metrics

	for _, f := range h.Files() {
		file := File{
			Name: path.Base(f.Path),
			Path: f.Path,
			Metrics: FileMetrics{
				Statements:        f.Total,
				CoveredStatements: f.Covered,
			},
			Lines: make([]Line, 0, len(f.Lines)),
		}
		for _, l := range f.Lines {
			file.Lines = append(file.Lines, Line{Num: l.Number, Count: l.Hits(), Type: "stmt"})
		}
		doc.Project.Files = append(doc.Project.Files, file)

		m.Statements += f.Total
		m.CoveredStatements += f.Covered
		m.Elements += f.Total
		m.CoveredElements += f.Covered
		m.Loc += f.Total
		m.Ncloc += f.Total
		m.Files++
		m.Classes++
	}
	// The project is always reported as a single package.
	m.Packages = 1
	return doc
}

// Registration describes the Clover format.
func Registration(clock formatter.Clock) formatter.Registration {
	return formatter.Registration{
		Name:                Name,
		Description:         "Clover XML coverage format",
		Extension:           ".xml",
		Factory:             func() formatter.Handler { return New(clock) },
		CompatiblePlatforms: []string{"Bamboo", "Codecov", "Jenkins"},
	}
}
