package pickle

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrInvalidTag indicates a custom tag is not exactly one character.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrBuiltinTag indicates a custom tag collides with a built-in tag.
	ErrBuiltinTag = errors.New("tag is reserved by a built-in plugin")

	// ErrDuplicateTag indicates a custom tag is already registered.
	ErrDuplicateTag = errors.New("tag already registered")

	// ErrMissingHandler indicates a plugin lacks a required handler.
	ErrMissingHandler = errors.New("missing handler")

	// ErrUnsupported indicates a plugin does not support the requested direction.
	ErrUnsupported = errors.New("unsupported operation")

	// ErrEncode indicates a plugin failed to encode a value.
	ErrEncode = errors.New("encode failed")

	// ErrDecode indicates a plugin failed to decode a value.
	ErrDecode = errors.New("decode failed")

	// ErrBrokenPointer indicates a pointer path does not resolve in the decoded tree.
	ErrBrokenPointer = errors.New("broken pointer")

	// ErrTooDeep indicates the input nests deeper than MaxDepth.
	ErrTooDeep = errors.New("maximum depth exceeded")

	// ErrHook indicates an OnSend or OnReceive hook failed.
	ErrHook = errors.New("hook failed")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")
)

// ConfigError represents a plugin registration error.
// It wraps a sentinel error with the offending tag and handler.
type ConfigError struct {
	Err     error  // Underlying sentinel error (ErrInvalidTag, etc.)
	Tag     string // Tag being registered
	Handler string // Handler that was missing, if any
}

func (e *ConfigError) Error() string {
	if e.Tag != "" && e.Handler != "" {
		return fmt.Sprintf("%s: %s (tag %q)", e.Err.Error(), e.Handler, e.Tag)
	}
	if e.Handler != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Handler)
	}
	if e.Tag != "" {
		return fmt.Sprintf("%s (tag %q)", e.Err.Error(), e.Tag)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransformError represents a failure while encoding or decoding a value.
// It wraps a sentinel error with the tag and path where the failure happened.
type TransformError struct {
	Err       error  // Underlying sentinel error (ErrEncode, ErrDecode, etc.)
	Operation string // Operation that failed (encode, decode, resolve, send, receive)
	Tag       string // Tag of the plugin involved, if any
	Path      Path   // Location in the tree
	Cause     error  // Original error from the plugin or walker
}

func (e *TransformError) Error() string {
	where := e.Path.String()
	if e.Tag != "" {
		where = fmt.Sprintf("%s <!%s>", where, e.Tag)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s at %s: %v", e.Operation, where, e.Cause)
	}
	return fmt.Sprintf("%s at %s: %s", e.Operation, where, e.Err.Error())
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *TransformError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// newConfigError creates a ConfigError for a rejected registration.
func newConfigError(sentinel error, tag, handler string) error {
	return &ConfigError{
		Err:     sentinel,
		Tag:     tag,
		Handler: handler,
	}
}

// newTransformError creates a TransformError for walker and plugin failures.
func newTransformError(sentinel error, operation, tag string, path Path, cause error) error {
	return &TransformError{
		Err:       sentinel,
		Operation: operation,
		Tag:       tag,
		Path:      path.clone(),
		Cause:     cause,
	}
}

// newCodecError creates a CodecError for marshal/unmarshal failures.
func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}
