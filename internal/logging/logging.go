// Package logging maps the CLI verbosity levels onto log/slog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// VerbosityLevel defines the logging verbosity.
type VerbosityLevel int

const (
	Verbose VerbosityLevel = iota
	Info
	Warning
	Error
	Off
)

var names = map[VerbosityLevel]string{
	Verbose: "verbose",
	Info:    "info",
	Warning: "warning",
	Error:   "error",
	Off:     "off",
}

func (v VerbosityLevel) String() string {
	if n, ok := names[v]; ok {
		return n
	}
	return fmt.Sprintf("VerbosityLevel(%d)", int(v))
}

// ParseVerbosity accepts a level name in any case.
func ParseVerbosity(s string) (VerbosityLevel, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for level, name := range names {
		if name == want {
			return level, nil
		}
	}
	return Info, fmt.Errorf("invalid verbosity level %q, valid levels are Verbose, Info, Warning, Error, Off", s)
}

// Level returns the slog level for v. Off maps above every level slog emits.
func (v VerbosityLevel) Level() slog.Level {
	switch v {
	case Verbose:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Warning:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

// NewLogger returns a text logger writing to w at verbosity v.
func NewLogger(w io.Writer, v VerbosityLevel) *slog.Logger {
	if v == Off {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: v.Level()}))
}
