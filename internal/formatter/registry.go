package formatter

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnsupportedFormat is returned by Registry.Get for unknown names.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDuplicateRegistration is returned when a name is registered twice.
	ErrDuplicateRegistration = errors.New("duplicate format")
)

// DefaultExtension is reported for formats that are not registered.
const DefaultExtension = ".xml"

// Registration describes one report format.
type Registration struct {
	Name        string
	Description string
	// Extension includes the leading dot.
	Extension           string
	Factory             func() Handler
	CompatiblePlatforms []string
}

// Registry is a name-keyed table of handler factories. Production code fills
// it once at startup; it is read-only afterwards.
type Registry struct {
	mu   sync.RWMutex
	regs map[string]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{regs: make(map[string]Registration)}
}

// Register adds reg. Registering a name that is already present fails.
func (r *Registry) Register(reg Registration) error {
	if reg.Name == "" || reg.Factory == nil {
		return fmt.Errorf("registration for %q needs a name and a factory", reg.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.regs[reg.Name]; exists {
		return fmt.Errorf("%w: %q is already registered", ErrDuplicateRegistration, reg.Name)
	}
	r.regs[reg.Name] = reg
	return nil
}

// Get returns a fresh handler for the named format.
func (r *Registry) Get(name string) (Handler, error) {
	r.mu.RLock()
	reg, ok := r.regs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q, available: %v", ErrUnsupportedFormat, name, r.AvailableFormats())
	}
	return reg.Factory(), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.regs[name]
	return ok
}

// AvailableFormats returns every registered name in lexicographic order.
func (r *Registry) AvailableFormats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.regs))
	for name := range r.regs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registrations returns every registration ordered by name.
func (r *Registry) Registrations() []Registration {
	names := r.AvailableFormats()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registration, 0, len(names))
	for _, n := range names {
		out = append(out, r.regs[n])
	}
	return out
}

// Extension returns the declared file extension, or DefaultExtension.
func (r *Registry) Extension(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg, ok := r.regs[name]; ok && reg.Extension != "" {
		return reg.Extension
	}
	return DefaultExtension
}

// Description returns the declared description, or "".
func (r *Registry) Description(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.regs[name].Description
}

// CompatiblePlatforms returns the declared platforms, or an empty list.
func (r *Registry) CompatiblePlatforms(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[name]
	if !ok || reg.CompatiblePlatforms == nil {
		return []string{}
	}
	return append([]string(nil), reg.CompatiblePlatforms...)
}

// Clear removes every registration. Only tests should need it.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs = make(map[string]Registration)
}
