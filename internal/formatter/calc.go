package formatter

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Line is a single line's coverage reduced to what every format keeps.
type Line struct {
	Number  int
	Covered bool
}

// Hits returns the line's hit count as stored by formats with a count field.
func (l Line) Hits() int {
	if l.Covered {
		return 1
	}
	return 0
}

// FileCoverage is one processed file.
type FileCoverage struct {
	Path        string
	DisplayName string
	// Lines is ordered by ascending line number.
	Lines   []Line
	Total   int
	Covered int
}

// Missed returns the number of uncovered lines.
func (f FileCoverage) Missed() int { return f.Total - f.Covered }

// NewFileCoverage validates lines and reduces hit counts to covered flags.
func NewFileCoverage(path, displayName string, lines map[int]int) (FileCoverage, error) {
	fc := FileCoverage{Path: path, DisplayName: displayName}
	if err := ValidateLines(lines); err != nil {
		return fc, fmt.Errorf("%s: %w", path, err)
	}
	fc.Lines = SortedLines(lines)
	fc.Total, fc.Covered = Count(lines)
	return fc, nil
}

// MaxLineNumber is the largest line number a handler accepts. Formats such as
// SimpleCov allocate one slot per line up to the highest line.
const MaxLineNumber = 1 << 20

// ValidateLines rejects line numbers outside [1, MaxLineNumber] and negative
// hit counts.
func ValidateLines(lines map[int]int) error {
	for n, hits := range lines {
		if n < 1 || n > MaxLineNumber {
			return fmt.Errorf("%w: line number %d", ErrInvalidInput, n)
		}
		if hits < 0 {
			return fmt.Errorf("%w: negative hit count %d on line %d", ErrInvalidInput, hits, n)
		}
	}
	return nil
}

// SortedLines returns lines ordered by line number.
func SortedLines(lines map[int]int) []Line {
	out := make([]Line, 0, len(lines))
	for n, hits := range lines {
		out = append(out, Line{Number: n, Covered: hits > 0})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Count returns the number of lines and how many of them were hit.
func Count(lines map[int]int) (total, covered int) {
	for _, hits := range lines {
		total++
		if hits > 0 {
			covered++
		}
	}
	return total, covered
}

// Rate returns covered/total, or 0 when total is 0.
func Rate(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(covered) / float64(total)
}

// Percent returns covered/total*100 rounded to two decimals, or 0 when total is 0.
func Percent(covered, total int) float64 {
	return Round(Rate(covered, total)*100, 2)
}

// Round rounds x half away from zero to the given number of decimals.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// SortByPath sorts files by path, then by display name for equal paths.
func SortByPath(files []FileCoverage) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Path != files[j].Path {
			return files[i].Path < files[j].Path
		}
		return files[i].DisplayName < files[j].DisplayName
	})
}

// Collector is the shared, goroutine-safe accumulator most handlers embed.
type Collector struct {
	mu    sync.Mutex
	files []FileCoverage
}

// ProcessFile records one file. It satisfies the first half of Handler.
func (c *Collector) ProcessFile(path, displayName string, lines map[int]int) error {
	fc, err := NewFileCoverage(path, displayName, lines)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.files = append(c.files, fc)
	c.mu.Unlock()
	return nil
}

// Files returns a path-sorted copy of everything collected so far.
func (c *Collector) Files() []FileCoverage {
	c.mu.Lock()
	out := append([]FileCoverage(nil), c.files...)
	c.mu.Unlock()
	SortByPath(out)
	return out
}

// Totals sums line totals over files.
func Totals(files []FileCoverage) (total, covered int) {
	for _, f := range files {
		total += f.Total
		covered += f.Covered
	}
	return total, covered
}
