// Package jacoco produces JaCoCo 1.1 report XML.
package jacoco

import (
	"encoding/xml"
	"path"
	"sort"

	"github.com/IgorBayerl/sfcov/internal/formatter"
)

// Name is the registry key for this format.
const Name = "jacoco"

const header = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>` + "\n" +
	`<!DOCTYPE report PUBLIC "-//JACOCO//DTD Report 1.1//EN" "report.dtd">` + "\n"

// Report is the <report> root element.
type Report struct {
	XMLName  xml.Name  `xml:"report"`
	Name     string    `xml:"name,attr"`
	Packages []Package `xml:"package"`
	Counter  Counter   `xml:"counter"`
}

// Package is a <package> element; its name is the directory of its files.
type Package struct {
	Name        string       `xml:"name,attr"`
	SourceFiles []SourceFile `xml:"sourcefile"`
	Counter     Counter      `xml:"counter"`
}

// SourceFile is a <sourcefile> element.
type SourceFile struct {
	Name    string  `xml:"name,attr"`
	Lines   []Line  `xml:"line"`
	Counter Counter `xml:"counter"`
}

// Line is a <line> element. Branch counters are always zero.
type Line struct {
	Nr int `xml:"nr,attr"`
	Mi int `xml:"mi,attr"`
	Ci int `xml:"ci,attr"`
	Mb int `xml:"mb,attr"`
	Cb int `xml:"cb,attr"`
}

// Counter is a <counter> element.
type Counter struct {
	Type    string `xml:"type,attr"`
	Missed  int    `xml:"missed,attr"`
	Covered int    `xml:"covered,attr"`
}

func (c *Counter) add(missed, covered int) {
	c.Missed += missed
	c.Covered += covered
}

// Encoding implements formatter.Document.
func (*Report) Encoding() formatter.Encoding { return formatter.EncodingXML }

// XMLHeader implements formatter.XMLHeaderer.
func (*Report) XMLHeader() string { return header }

// Handler accumulates files for the JaCoCo report.
type Handler struct {
	formatter.Collector
}

// New returns an empty JaCoCo handler.
func New() *Handler { return &Handler{} }

// Finalize implements formatter.Handler.
func (h *Handler) Finalize() formatter.Document {
	doc := &Report{Name: "JaCoCo", Packages: []Package{}, Counter: Counter{Type: "LINE"}}

	byName := make(map[string]*Package)
	for _, f := range h.Files() {
		dir := packageName(f.Path)
		pkg, ok := byName[dir]
		if !ok {
			pkg = &Package{Name: dir, Counter: Counter{Type: "LINE"}}
			byName[dir] = pkg
		}

		sf := SourceFile{Name: path.Base(f.Path), Counter: Counter{Type: "LINE"}}
		for _, l := range f.Lines {
			line := Line{Nr: l.Number}
			if l.Covered {
				line.Ci = 1
			} else {
				line.Mi = 1
			}
			sf.Lines = append(sf.Lines, line)
		}
		sf.Counter.add(f.Missed(), f.Covered)
		pkg.SourceFiles = append(pkg.SourceFiles, sf)
		pkg.Counter.add(f.Missed(), f.Covered)
		doc.Counter.add(f.Missed(), f.Covered)
	}

	for _, pkg := range byName {
		sort.SliceStable(pkg.SourceFiles, func(i, j int) bool {
			return pkg.SourceFiles[i].Name < pkg.SourceFiles[j].Name
		})
		doc.Packages = append(doc.Packages, *pkg)
	}
	sort.Slice(doc.Packages, func(i, j int) bool { return doc.Packages[i].Name < doc.Packages[j].Name })
	return doc
}

// packageName is the directory of p; files at the repository root belong to
// the unnamed package.
func packageName(p string) string {
	if dir := path.Dir(p); dir != "." {
		return dir
	}
	return ""
}

// Registration describes the JaCoCo format.
func Registration() formatter.Registration {
	return formatter.Registration{
		Name:                Name,
		Description:         "JaCoCo XML report format",
		Extension:           ".xml",
		Factory:             func() formatter.Handler { return New() },
		CompatiblePlatforms: []string{"Codecov", "Jenkins", "GitLab", "SonarQube"},
	}
}
