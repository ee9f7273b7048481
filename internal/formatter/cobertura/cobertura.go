// Package cobertura produces Cobertura 0.4 coverage XML.
package cobertura

import (
	"encoding/xml"
	"sort"
	"strings"

	"github.com/IgorBayerl/sfcov/internal/formatter"
)

// Name is the registry key for this format.
const Name = "cobertura"

const header = `<?xml version="1.0" ?>` + "\n" +
	`<!DOCTYPE coverage SYSTEM "http://cobertura.sourceforge.net/xml/coverage-04.dtd">` + "\n"

// Coverage is the <coverage> root element.
type Coverage struct {
	XMLName         xml.Name `xml:"coverage"`
	LinesValid      int      `xml:"lines-valid,attr"`
	LinesCovered    int      `xml:"lines-covered,attr"`
	LineRate        float64  `xml:"line-rate,attr"`
	BranchesValid   int      `xml:"branches-valid,attr"`
	BranchesCovered int      `xml:"branches-covered,attr"`
	BranchRate      float64  `xml:"branch-rate,attr"`
	Timestamp       int64    `xml:"timestamp,attr"`
	Complexity      int      `xml:"complexity,attr"`
	Version         string   `xml:"version,attr"`
	Sources         Sources  `xml:"sources"`
	Packages        Packages `xml:"packages"`
}

// Sources is the <sources> element.
type Sources struct {
	Source []string `xml:"source"`
}

// Packages is the <packages> element.
type Packages struct {
	Package []Package `xml:"package"`
}

// Package is a <package> element; its name is the first path segment.
type Package struct {
	Name       string  `xml:"name,attr"`
	LineRate   float64 `xml:"line-rate,attr"`
	BranchRate float64 `xml:"branch-rate,attr"`
	Complexity int     `xml:"complexity,attr"`
	Classes    Classes `xml:"classes"`

	linesValid, linesCovered int
}

// Classes is the <classes> element.
type Classes struct {
	Class []Class `xml:"class"`
}

// Class is a <class> element, one per source file.
type Class struct {
	Name       string   `xml:"name,attr"`
	Filename   string   `xml:"filename,attr"`
	LineRate   float64  `xml:"line-rate,attr"`
	BranchRate float64  `xml:"branch-rate,attr"`
	Complexity int      `xml:"complexity,attr"`
	Methods    struct{} `xml:"methods"`
	Lines      Lines    `xml:"lines"`
}

// Lines is the <lines> element.
type Lines struct {
	Line []Line `xml:"line"`
}

// Line is a <line> element.
type Line struct {
	Number int    `xml:"number,attr"`
	Hits   int    `xml:"hits,attr"`
	Branch string `xml:"branch,attr"`
}

// Encoding implements formatter.Document.
func (*Coverage) Encoding() formatter.Encoding { return formatter.EncodingXML }

// XMLHeader implements formatter.XMLHeaderer.
func (*Coverage) XMLHeader() string { return header }

// Handler accumulates files for the Cobertura report.
type Handler struct {
	formatter.Collector
	clock formatter.Clock
}

// New returns an empty Cobertura handler stamped with clock.
func New(clock formatter.Clock) *Handler { return &Handler{clock: clock} }

// Finalize implements formatter.Handler.
func (h *Handler) Finalize() formatter.Document {
	doc := &Coverage{
		BranchRate: 1,
		Timestamp:  h.clock.Now().UnixMilli(),
		Version:    "0.1",
		Sources:    Sources{Source: []string{"."}},
	}

	byName := make(map[string]*Package)
	for _, f := range h.Files() {
		name := packageName(f.Path)
		pkg, ok := byName[name]
		if !ok {
			pkg = &Package{Name: name, BranchRate: 1}
			byName[name] = pkg
		}

		class := Class{
			Name:       f.DisplayName,
			Filename:   f.Path,
			LineRate:   formatter.Round(formatter.Rate(f.Covered, f.Total), 4),
			BranchRate: 1,
		}
		for _, l := range f.Lines {
			class.Lines.Line = append(class.Lines.Line, Line{Number: l.Number, Hits: l.Hits(), Branch: "false"})
		}
		pkg.Classes.Class = append(pkg.Classes.Class, class)
		pkg.linesValid += f.Total
		pkg.linesCovered += f.Covered

		doc.LinesValid += f.Total
		doc.LinesCovered += f.Covered
	}

	for _, pkg := range byName {
		sort.SliceStable(pkg.Classes.Class, func(i, j int) bool {
			return pkg.Classes.Class[i].Filename < pkg.Classes.Class[j].Filename
		})
		pkg.LineRate = formatter.Round(formatter.Rate(pkg.linesCovered, pkg.linesValid), 4)
		doc.Packages.Package = append(doc.Packages.Package, *pkg)
	}
	sort.Slice(doc.Packages.Package, func(i, j int) bool {
		return doc.Packages.Package[i].Name < doc.Packages.Package[j].Name
	})
	doc.LineRate = formatter.Round(formatter.Rate(doc.LinesCovered, doc.LinesValid), 4)
	return doc
}

// packageName returns the first segment of a '/' separated path.
func packageName(path string) string {
	if i := strings.Index(path, "/"); i > 0 {
		return path[:i]
	}
	return path
}

// Registration describes the Cobertura format.
func Registration(clock formatter.Clock) formatter.Registration {
	return formatter.Registration{
		Name:                Name,
		Description:         "Cobertura XML coverage format",
		Extension:           ".xml",
		Factory:             func() formatter.Handler { return New(clock) },
		CompatiblePlatforms: []string{"Azure DevOps", "GitLab", "Jenkins", "Codecov"},
	}
}
