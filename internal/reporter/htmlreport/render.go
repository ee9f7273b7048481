// Package htmlreport renders the HTML coverage document as a single static page.
package htmlreport

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	htmlfmt "github.com/IgorBayerl/sfcov/internal/formatter/html"
)

// sanitizeIDChars removes characters that are awkward in fragment identifiers.
var sanitizeIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

const stylesheet = `body{font-family:sans-serif;margin:2em}
table{border-collapse:collapse;margin-bottom:1.5em}
th,td{border:1px solid #ccc;padding:2px 8px;text-align:left}
tr.covered td{background:#dfd}
tr.uncovered td{background:#fdd}`

// Render writes report as a complete HTML5 document.
func Render(w io.Writer, report *htmlfmt.Report) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, nil,
		element(atom.Head, nil,
			element(atom.Meta, map[string]string{"charset": "utf-8"}),
			element(atom.Title, nil, text(report.Title)),
			element(atom.Style, nil, text(stylesheet)),
		),
		body(report),
	)
	doc.AppendChild(root)

	if err := html.Render(w, doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func body(report *htmlfmt.Report) *html.Node {
	b := element(atom.Body, nil,
		element(atom.H1, nil, text(report.Title)),
		summaryTable(report),
		filesTable(report),
	)
	ids := newIDSet()
	for _, f := range report.Files {
		b.AppendChild(fileSection(f, ids.next(f.Path)))
	}
	return b
}

func summaryTable(report *htmlfmt.Report) *html.Node {
	s := report.Summary
	return element(atom.Table, map[string]string{"class": "summary"},
		row(atom.Th, "Files", "Lines", "Covered", "Line coverage"),
		row(atom.Td, strconv.Itoa(s.Files), strconv.Itoa(s.TotalLines), strconv.Itoa(s.CoveredLines), percent(s.LineRate)),
	)
}

func filesTable(report *htmlfmt.Report) *html.Node {
	t := element(atom.Table, map[string]string{"class": "files"},
		row(atom.Th, "File", "Name", "Lines", "Covered", "Line coverage"),
	)
	ids := newIDSet()
	for _, f := range report.Files {
		link := element(atom.A, map[string]string{"href": "#" + ids.next(f.Path)}, text(f.Path))
		t.AppendChild(element(atom.Tr, nil,
			element(atom.Td, nil, link),
			cell(atom.Td, f.Name),
			cell(atom.Td, strconv.Itoa(f.TotalLines)),
			cell(atom.Td, strconv.Itoa(f.CoveredLines)),
			cell(atom.Td, percent(f.LineRate)),
		))
	}
	return t
}

func fileSection(f htmlfmt.File, id string) *html.Node {
	lines := element(atom.Table, map[string]string{"class": "lines"}, row(atom.Th, "Line", "Status"))
	for _, l := range f.Lines {
		status := "uncovered"
		if l.Covered {
			status = "covered"
		}
		tr := row(atom.Td, strconv.Itoa(l.Number), status)
		tr.Attr = append(tr.Attr, html.Attribute{Key: "class", Val: status})
		lines.AppendChild(tr)
	}
	return element(atom.Section, map[string]string{"id": id},
		element(atom.H2, nil, text(f.Path)),
		lines,
	)
}

func row(cellAtom atom.Atom, values ...string) *html.Node {
	tr := element(atom.Tr, nil)
	for _, v := range values {
		tr.AppendChild(cell(cellAtom, v))
	}
	return tr
}

func cell(a atom.Atom, value string) *html.Node {
	return element(a, nil, text(value))
}

// element builds an element node. Attributes are emitted in key order so the
// output is stable.
func element(a atom.Atom, attrs map[string]string, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: attrs[k]})
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

// idSet hands out unique, sanitized fragment identifiers.
type idSet struct {
	seen map[string]int
}

func newIDSet() *idSet { return &idSet{seen: make(map[string]int)} }

func (s *idSet) next(path string) string {
	base := strings.Trim(sanitizeIDChars.ReplaceAllString(path, "-"), "-")
	if base == "" {
		base = "file"
	}
	s.seen[base]++
	if n := s.seen[base]; n > 1 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}
