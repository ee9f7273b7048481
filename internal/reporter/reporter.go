// Package reporter turns finalized documents into the bytes written to disk.
package reporter

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"regexp"

	"github.com/IgorBayerl/sfcov/internal/formatter"
	htmlfmt "github.com/IgorBayerl/sfcov/internal/formatter/html"
	"github.com/IgorBayerl/sfcov/internal/reporter/htmlreport"
)

// genericXMLHeader is used for XML documents that do not supply their own.
const genericXMLHeader = `<?xml version="1.0"?>` + "\n"

const indent = "  "

// emptyElementRegex matches an element with no content, e.g. <a x="1"></a>.
var emptyElementRegex = regexp.MustCompile(`<([A-Za-z][\w.:-]*)([^<>]*)></([A-Za-z][\w.:-]*)>`)

// Serializer renders documents and resolves output extensions through the
// registry, so a format's extension is declared in exactly one place.
type Serializer struct {
	registry *formatter.Registry
}

// New returns a Serializer backed by registry.
func New(registry *formatter.Registry) *Serializer {
	return &Serializer{registry: registry}
}

// ExtensionFor returns the registry-declared extension for format.
func (s *Serializer) ExtensionFor(format string) string {
	return s.registry.Extension(format)
}

// Serialize renders doc in its native encoding.
func (s *Serializer) Serialize(doc formatter.Document) ([]byte, error) {
	return Serialize(doc)
}

// Serialize renders doc in its native encoding.
func Serialize(doc formatter.Document) ([]byte, error) {
	switch doc.Encoding() {
	case formatter.EncodingXML:
		return serializeXML(doc)
	case formatter.EncodingJSON:
		return serializeJSON(doc)
	case formatter.EncodingText:
		tw, ok := doc.(formatter.TextWriter)
		if !ok {
			return nil, fmt.Errorf("text document %T cannot write itself", doc)
		}
		var buf bytes.Buffer
		if err := tw.WriteText(&buf); err != nil {
			return nil, fmt.Errorf("writing text report: %w", err)
		}
		return buf.Bytes(), nil
	case formatter.EncodingHTML:
		report, ok := doc.(*htmlfmt.Report)
		if !ok {
			return nil, fmt.Errorf("unsupported html document %T", doc)
		}
		var buf bytes.Buffer
		if err := htmlreport.Render(&buf, report); err != nil {
			return nil, fmt.Errorf("rendering html report: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown document encoding %s", doc.Encoding())
	}
}

func serializeXML(doc formatter.Document) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", indent)
	if err != nil {
		return nil, fmt.Errorf("marshalling xml report: %w", err)
	}
	body = collapseEmptyElements(body)

	header := genericXMLHeader
	if h, ok := doc.(formatter.XMLHeaderer); ok {
		header = h.XMLHeader()
	}

	out := make([]byte, 0, len(header)+len(body)+1)
	out = append(out, header...)
	out = append(out, body...)
	return append(out, '\n'), nil
}

// collapseEmptyElements rewrites <a x="1"></a> as <a x="1"/>.
func collapseEmptyElements(b []byte) []byte {
	return emptyElementRegex.ReplaceAllFunc(b, func(m []byte) []byte {
		sub := emptyElementRegex.FindSubmatch(m)
		if !bytes.Equal(sub[1], sub[3]) {
			return m
		}
		out := make([]byte, 0, len(m))
		out = append(out, '<')
		out = append(out, sub[1]...)
		out = append(out, sub[2]...)
		return append(out, '/', '>')
	})
}

func serializeJSON(doc formatter.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshalling json report: %w", err)
	}
	return buf.Bytes(), nil
}
