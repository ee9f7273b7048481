// Package builtin registers every production report format.
package builtin

import (
	"fmt"

	"github.com/IgorBayerl/sfcov/internal/formatter"
	"github.com/IgorBayerl/sfcov/internal/formatter/clover"
	"github.com/IgorBayerl/sfcov/internal/formatter/cobertura"
	"github.com/IgorBayerl/sfcov/internal/formatter/html"
	"github.com/IgorBayerl/sfcov/internal/formatter/istanbul"
	"github.com/IgorBayerl/sfcov/internal/formatter/jacoco"
	"github.com/IgorBayerl/sfcov/internal/formatter/jsonsummary"
	"github.com/IgorBayerl/sfcov/internal/formatter/lcov"
	"github.com/IgorBayerl/sfcov/internal/formatter/opencover"
	"github.com/IgorBayerl/sfcov/internal/formatter/simplecov"
	"github.com/IgorBayerl/sfcov/internal/formatter/sonar"
)

// Registrations returns the production formats. clock stamps the formats
// that carry a generation time; nil means time.Now.
func Registrations(clock formatter.Clock) []formatter.Registration {
	return []formatter.Registration{
		sonar.Registration(),
		cobertura.Registration(clock),
		clover.Registration(clock),
		lcov.Registration(),
		jacoco.Registration(),
		istanbul.Registration(),
		jsonsummary.Registration(),
		simplecov.Registration(clock),
		opencover.Registration(),
		html.Registration(),
	}
}

// Register adds every production format to r.
func Register(r *formatter.Registry, clock formatter.Clock) error {
	for _, reg := range Registrations(clock) {
		if err := r.Register(reg); err != nil {
			return fmt.Errorf("registering built-in formats: %w", err)
		}
	}
	return nil
}

// NewRegistry returns a registry holding every production format.
func NewRegistry(clock formatter.Clock) *formatter.Registry {
	r := formatter.NewRegistry()
	if err := Register(r, clock); err != nil {
		// Built-in names are unique; reaching this is a programming error.
		panic(err)
	}
	return r
}
