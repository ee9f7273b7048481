// Package formatter defines the format handler contract and the registry that
// maps report format names to handler factories.
package formatter

import (
	"errors"
	"io"
	"time"
)

// ErrInvalidInput is returned by a handler for line maps it cannot represent,
// such as non-positive line numbers.
var ErrInvalidInput = errors.New("invalid coverage input")

// Handler accumulates per-file line coverage into a format-specific document.
//
// ProcessFile may be called concurrently from several goroutines; every
// handler serialises its own state. Finalize is called once, after the last
// ProcessFile, and sorts what was collected so the output does not depend on
// the order files arrived in.
type Handler interface {
	ProcessFile(path, displayName string, lines map[int]int) error
	Finalize() Document
}

// Encoding is the wire representation of a finalized document.
type Encoding int

const (
	EncodingXML Encoding = iota
	EncodingJSON
	EncodingText
	EncodingHTML
)

func (e Encoding) String() string {
	switch e {
	case EncodingXML:
		return "xml"
	case EncodingJSON:
		return "json"
	case EncodingText:
		return "text"
	case EncodingHTML:
		return "html"
	default:
		return "unknown"
	}
}

// Document is the finalized in-memory report produced by a Handler.
type Document interface {
	Encoding() Encoding
}

// XMLHeaderer is implemented by XML documents whose consumers validate
// against a DTD. The returned prolog replaces the generic XML declaration.
type XMLHeaderer interface {
	XMLHeader() string
}

// TextWriter is implemented by documents with a line-oriented text encoding.
type TextWriter interface {
	WriteText(w io.Writer) error
}

// Clock returns the current time. Handlers that stamp their output take one
// so tests can freeze it.
type Clock func() time.Time

// Now returns c() or time.Now() when c is nil.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
