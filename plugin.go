package pickle

import "context"

// Plugin handles one kind of value. Check decides whether a value belongs to
// the plugin, Encode turns it into a JSON-safe value and Decode reverses it.
//
// OnSend and OnReceive are optional lifecycle hooks for side-channel work such
// as shipping a large payload out of band. The encoder and decoder never call
// them; a Serializer calls them after encoding (for every value the plugin
// encoded) and after decoding (for every value the plugin decoded).
type Plugin struct {
	Check  func(key string, value any) bool
	Encode func(path Path, key string, value any, ctx *EncodeContext) (any, error)
	Decode func(value any, path Path, ctx *DecodeContext) (any, error)

	OnSend    func(ctx context.Context, path Path, value any) error
	OnReceive func(ctx context.Context, path Path, value any) error
}

// validate checks the plugin has every required handler.
func (p Plugin) validate(tag string) error {
	if p.Check == nil {
		return newConfigError(ErrMissingHandler, tag, "Check")
	}
	if p.Encode == nil {
		return newConfigError(ErrMissingHandler, tag, "Encode")
	}
	if p.Decode == nil {
		return newConfigError(ErrMissingHandler, tag, "Decode")
	}
	return nil
}

// Registered pairs a custom plugin with its tag.
type Registered struct {
	Tag    string
	Plugin Plugin
}

// Hit records a custom plugin handling a value during one traversal.
// On encode Value is the original value; on decode it is the decoded value.
type Hit struct {
	Tag   string
	Path  Path
	Value any
}

// EncodeContext carries per-call encoder state to plugins.
type EncodeContext struct {
	registry *Registry
}

// Registry returns the registry driving the current encode.
func (c *EncodeContext) Registry() *Registry { return c.registry }

// DecodeContext carries per-call decoder state to plugins.
type DecodeContext struct {
	registry *Registry
	backlog  []pending
}

// pending is a pointer assignment deferred until the whole tree is decoded.
type pending struct {
	target Path
	source Path
}

// Registry returns the registry driving the current decode.
func (c *DecodeContext) Registry() *Registry { return c.registry }

// Defer schedules source to be set to the value found at target once the
// whole tree has been decoded. Assignments run in the order they were deferred.
func (c *DecodeContext) Defer(target, source Path) {
	c.backlog = append(c.backlog, pending{target: target.clone(), source: source.clone()})
}

// Pending returns the number of deferred assignments.
func (c *DecodeContext) Pending() int { return len(c.backlog) }
