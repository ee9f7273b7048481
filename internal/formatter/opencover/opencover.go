// Package opencover produces OpenCover coverage session XML.
package opencover

import (
	"encoding/xml"
	"sort"

	"github.com/IgorBayerl/sfcov/internal/formatter"
)

// Name is the registry key for this format.
const Name = "opencover"

// CoverageSession is the root element.
type CoverageSession struct {
	XMLName xml.Name `xml:"CoverageSession"`
	Summary Summary  `xml:"Summary"`
	Modules Modules  `xml:"Modules"`
}

// Summary is shared by the session, classes and methods. Branch counters are
// always zero because no branch data is available.
type Summary struct {
	NumSequencePoints       int     `xml:"numSequencePoints,attr"`
	VisitedSequencePoints   int     `xml:"visitedSequencePoints,attr"`
	NumBranchPoints         int     `xml:"numBranchPoints,attr"`
	VisitedBranchPoints     int     `xml:"visitedBranchPoints,attr"`
	SequenceCoverage        float64 `xml:"sequenceCoverage,attr"`
	BranchCoverage          float64 `xml:"branchCoverage,attr"`
	MaxCyclomaticComplexity int     `xml:"maxCyclomaticComplexity,attr"`
	MinCyclomaticComplexity int     `xml:"minCyclomaticComplexity,attr"`
	VisitedClasses          int     `xml:"visitedClasses,attr"`
	NumClasses              int     `xml:"numClasses,attr"`
	VisitedMethods          int     `xml:"visitedMethods,attr"`
	NumMethods              int     `xml:"numMethods,attr"`
}

// Modules wraps the single module.
type Modules struct {
	Module []Module `xml:"Module"`
}

// Module holds every file and class of the report.
type Module struct {
	Hash       string  `xml:"hash,attr"`
	ModulePath string  `xml:"ModulePath"`
	ModuleName string  `xml:"ModuleName"`
	Files      Files   `xml:"Files"`
	Classes    Classes `xml:"Classes"`
}

// Files is the <Files> element.
type Files struct {
	File []File `xml:"File"`
}

// File is a <File> element.
type File struct {
	UID      int    `xml:"uid,attr"`
	FullPath string `xml:"fullPath,attr"`
}

// Classes is the <Classes> element.
type Classes struct {
	Class []Class `xml:"Class"`
}

// Class is a <Class> element; each source file becomes one class.
type Class struct {
	Summary  Summary `xml:"Summary"`
	FullName string  `xml:"FullName"`
	Methods  Methods `xml:"Methods"`
}

// Methods is the <Methods> element.
type Methods struct {
	Method []Method `xml:"Method"`
}

// Method is the single synthetic method of a class.
type Method struct {
	Visited              bool           `xml:"visited,attr"`
	CyclomaticComplexity int            `xml:"cyclomaticComplexity,attr"`
	SequenceCoverage     float64        `xml:"sequenceCoverage,attr"`
	BranchCoverage       float64        `xml:"branchCoverage,attr"`
	IsConstructor        bool           `xml:"isConstructor,attr"`
	IsStatic             bool           `xml:"isStatic,attr"`
	IsGetter             bool           `xml:"isGetter,attr"`
	IsSetter             bool           `xml:"isSetter,attr"`
	Summary              Summary        `xml:"Summary"`
	MetadataToken        int            `xml:"MetadataToken"`
	Name                 string         `xml:"Name"`
	FileRef              FileRef        `xml:"FileRef"`
	SequencePoints       SequencePoints `xml:"SequencePoints"`
	BranchPoints         struct{}       `xml:"BranchPoints"`
}

// FileRef points a method at its <File>.
type FileRef struct {
	UID int `xml:"uid,attr"`
}

// SequencePoints is the <SequencePoints> element.
type SequencePoints struct {
	SequencePoint []SequencePoint `xml:"SequencePoint"`
}

// SequencePoint is one line. Columns are unknown and always 0.
type SequencePoint struct {
	VisitCount  int `xml:"vc,attr"`
	UniqueSeqID int `xml:"uspid,attr"`
	Ordinal     int `xml:"ordinal,attr"`
	StartLine   int `xml:"sl,attr"`
	StartColumn int `xml:"sc,attr"`
	EndLine     int `xml:"el,attr"`
	EndColumn   int `xml:"ec,attr"`
	BranchExits int `xml:"bec,attr"`
	BranchVisit int `xml:"bev,attr"`
	FileID      int `xml:"fileid,attr"`
}

// Encoding implements formatter.Document.
func (*CoverageSession) Encoding() formatter.Encoding { return formatter.EncodingXML }

// Handler accumulates files for the OpenCover report.
type Handler struct {
	formatter.Collector
}

// New returns an empty OpenCover handler.
func New() *Handler { return &Handler{} }

// Finalize implements formatter.Handler.
func (h *Handler) Finalize() formatter.Document {
	files := h.Files()
	module := Module{ModulePath: "force-app", ModuleName: "Apex"}

	uids := make(map[string]int, len(files))
	for i, f := range files {
		uid := i + 1
		uids[f.Path] = uid
		module.Files.File = append(module.Files.File, File{UID: uid, FullPath: f.Path})
	}

	classFiles := append([]formatter.FileCoverage(nil), files...)
	sort.SliceStable(classFiles, func(i, j int) bool {
		return classFiles[i].DisplayName < classFiles[j].DisplayName
	})

	session := Summary{MinCyclomaticComplexity: 1, MaxCyclomaticComplexity: 1}
	uspid := 0
	for _, f := range classFiles {
		uid := uids[f.Path]
		summary := Summary{
			NumSequencePoints:       f.Total,
			VisitedSequencePoints:   f.Covered,
			SequenceCoverage:        formatter.Percent(f.Covered, f.Total),
			MaxCyclomaticComplexity: 1,
			MinCyclomaticComplexity: 1,
			NumClasses:              1,
			NumMethods:              1,
		}
		if f.Covered > 0 {
			summary.VisitedClasses = 1
			summary.VisitedMethods = 1
		}

		method := Method{
			Visited:              f.Covered > 0,
			CyclomaticComplexity: 1,
			SequenceCoverage:     summary.SequenceCoverage,
			Summary:              summary,
			MetadataToken:        uid,
			Name:                 f.DisplayName,
			FileRef:              FileRef{UID: uid},
		}
		for i, l := range f.Lines {
			uspid++
			method.SequencePoints.SequencePoint = append(method.SequencePoints.SequencePoint, SequencePoint{
				VisitCount:  l.Hits(),
				UniqueSeqID: uspid,
				Ordinal:     i,
				StartLine:   l.Number,
				EndLine:     l.Number,
				FileID:      uid,
			})
		}

		module.Classes.Class = append(module.Classes.Class, Class{
			Summary:  summary,
			FullName: f.DisplayName,
			Methods:  Methods{Method: []Method{method}},
		})

		session.NumSequencePoints += f.Total
		session.VisitedSequencePoints += f.Covered
		session.NumClasses++
		session.NumMethods++
		session.VisitedClasses += summary.VisitedClasses
		session.VisitedMethods += summary.VisitedMethods
	}
	session.SequenceCoverage = formatter.Percent(session.VisitedSequencePoints, session.NumSequencePoints)

	return &CoverageSession{
		Summary: session,
		Modules: Modules{Module: []Module{module}},
	}
}

// Registration describes the OpenCover format.
func Registration() formatter.Registration {
	return formatter.Registration{
		Name:                Name,
		Description:         "OpenCover XML coverage format",
		Extension:           ".xml",
		Factory:             func() formatter.Handler { return New() },
		CompatiblePlatforms: []string{"Azure DevOps", "Codecov", "ReportGenerator"},
	}
}
