// Package filereader reads source files that coverage records point at.
package filereader

import (
	"bufio"
	"io"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxLineLength bounds a single source line; generated Apex can be long.
const maxLineLength = 4 * 1024 * 1024

// FileReader counts the physical lines of a source file. It is the only
// blocking I/O performed while converting a single coverage record.
type FileReader interface {
	CountLines(path string) (int, error)
}

// AferoReader is the production FileReader backed by an afero filesystem.
type AferoReader struct {
	fs afero.Fs
}

// New returns a FileReader that reads from fs.
func New(fs afero.Fs) *AferoReader {
	return &AferoReader{fs: fs}
}

// CountLines counts the lines of the file at path. A UTF-8 or UTF-16 byte
// order mark is honoured; files without one are read as UTF-8. A trailing
// newline does not start an extra line.
func (r *AferoReader) CountLines(path string) (int, error) {
	f, err := r.fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return countLines(decodingReader(f))
}

func decodingReader(rd io.Reader) io.Reader {
	return transform.NewReader(rd, unicode.BOMOverride(transform.Nop))
}

func countLines(rd io.Reader) (int, error) {
	scanner := newScanner(rd)
	n := 0
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

func newScanner(rd io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return scanner
}
