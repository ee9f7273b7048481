// Package filtering decides which coverage records make it into a report,
// based on +include / -exclude wildcard patterns over class names.
package filtering

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter reports whether a class or trigger name should be converted.
type Filter interface {
	Includes(name string) bool
	HasCustomFilters() bool
}

// PatternFilter is the default Filter. Exclusions win over inclusions; with no
// inclusions configured every name not excluded is included.
type PatternFilter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// New builds a PatternFilter from patterns such as "+Account*" or "-*Test".
// Empty patterns are ignored. Every malformed pattern is reported in a single
// error.
func New(patterns []string) (*PatternFilter, error) {
	f := &PatternFilter{}
	var errs []string

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := compilePattern(p)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if p[0] == '+' {
			f.include = append(f.include, re)
		} else {
			f.exclude = append(f.exclude, re)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid class filters: %s", strings.Join(errs, "; "))
	}
	return f, nil
}

// Includes implements Filter.
func (f *PatternFilter) Includes(name string) bool {
	for _, re := range f.exclude {
		if re.MatchString(name) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, re := range f.include {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// HasCustomFilters implements Filter.
func (f *PatternFilter) HasCustomFilters() bool {
	return len(f.include) > 0 || len(f.exclude) > 0
}

// compilePattern turns "+Foo*Bar?" into the anchored, case-insensitive regex
// ^Foo.*Bar.$ after escaping every other metacharacter.
func compilePattern(p string) (*regexp.Regexp, error) {
	if p[0] != '+' && p[0] != '-' {
		return nil, fmt.Errorf("filter %q must start with '+' or '-'", p)
	}
	if len(p) == 1 {
		return nil, fmt.Errorf("filter %q has no pattern", p)
	}
	body := regexp.QuoteMeta(p[1:])
	body = strings.ReplaceAll(body, `\*`, ".*")
	body = strings.ReplaceAll(body, `\?`, ".")
	return regexp.Compile("(?i)^" + body + "$")
}
