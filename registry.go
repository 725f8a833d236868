package pickle

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"
)

// ErrorFactory builds a native error for a decoded error name. Returning nil
// keeps the generic *Error.
type ErrorFactory func(message string) error

// Registry holds the custom plugins and error factories used by Encode and
// Decode. Built-in plugins are shared by every registry and cannot be
// replaced. A Registry is safe for concurrent use; each Encode and Decode
// works on a snapshot of the custom plugins taken when it starts.
type Registry struct {
	mu      sync.RWMutex
	custom  []Registered
	byTag   map[string]int
	factory map[string]ErrorFactory
}

// NewRegistry returns a registry holding only the built-in plugins.
func NewRegistry() *Registry {
	return &Registry{
		byTag:   make(map[string]int),
		factory: make(map[string]ErrorFactory),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry behind the package-level functions.
func Default() *Registry {
	return defaultRegistry
}

// Custom registers a plugin for tag on the default registry.
func Custom(tag string, p Plugin) error {
	return Default().Register(tag, p)
}

// ClearCustom removes every custom plugin from the default registry.
// This is primarily useful for test isolation.
func ClearCustom() {
	Default().ClearCustom()
}

// reservedTagChars delimit keys and array tags and cannot be tags themselves.
const reservedTagChars = "<>![],*"

// Register adds a custom plugin under tag. Registration fails with a
// *ConfigError when the tag is not a single character, belongs to a
// built-in or the key grammar, is already taken, or when the plugin lacks a required handler.
func (r *Registry) Register(tag string, p Plugin) error {
	if utf8.RuneCountInString(tag) != 1 || strings.ContainsAny(tag, reservedTagChars) {
		return newConfigError(ErrInvalidTag, tag, "")
	}
	if _, ok := builtins[tag]; ok {
		return newConfigError(ErrBuiltinTag, tag, "")
	}
	if err := p.validate(tag); err != nil {
		return err
	}

	r.mu.Lock()
	if _, ok := r.byTag[tag]; ok {
		r.mu.Unlock()
		return newConfigError(ErrDuplicateTag, tag, "")
	}
	r.byTag[tag] = len(r.custom)
	r.custom = append(r.custom, Registered{Tag: tag, Plugin: p})
	r.mu.Unlock()

	emitPluginRegistered(context.Background(), tag)
	return nil
}

// Custom returns the custom plugins in registration order.
func (r *Registry) Custom() []Registered {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registered, len(r.custom))
	copy(out, r.custom)
	return out
}

// ClearCustom removes every custom plugin. Built-in plugins and error
// factories are unaffected.
func (r *Registry) ClearCustom() {
	r.mu.Lock()
	removed := len(r.custom)
	r.custom = nil
	r.byTag = make(map[string]int)
	r.mu.Unlock()

	emitCustomCleared(context.Background(), removed)
}

// Lookup returns the plugin registered for tag, built-in or custom.
func (r *Registry) Lookup(tag string) (Plugin, bool) {
	if p, ok := builtins[tag]; ok {
		return p, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.byTag[tag]; ok {
		return r.custom[i].Plugin, true
	}
	return Plugin{}, false
}

// RegisterError installs a constructor for errors decoded under name.
// A later registration for the same name replaces the earlier one.
func (r *Registry) RegisterError(name string, f ErrorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factory[name] = f
}

// newError rebuilds a decoded error. Unknown names, missing factories and
// factories that return nil all degrade to a generic *Error carrying name.
func (r *Registry) newError(name, message, stack string) (e *Error) {
	e = &Error{Name: name, Message: message, Stack: stack}

	r.mu.RLock()
	f := r.factory[name]
	r.mu.RUnlock()
	if f == nil {
		return e
	}

	defer func() {
		// A factory that panics falls back to the generic error.
		if recover() != nil {
			e.native = nil
		}
	}()
	e.native = f(message)
	return e
}

// snapshot returns a stable view of the registry for one traversal.
func (r *Registry) snapshot() *view {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v := &view{
		registry: r,
		custom:   make([]Registered, len(r.custom)),
		byTag:    make(map[string]Plugin, len(r.custom)),
	}
	copy(v.custom, r.custom)
	for _, c := range r.custom {
		v.byTag[c.Tag] = c.Plugin
	}
	return v
}

// view is the plugin set seen by a single Encode or Decode call.
type view struct {
	registry *Registry
	custom   []Registered
	byTag    map[string]Plugin
}

func (v *view) lookup(tag string) (Plugin, bool) {
	if p, ok := builtins[tag]; ok {
		return p, true
	}
	p, ok := v.byTag[tag]
	return p, ok
}
