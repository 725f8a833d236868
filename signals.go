package pickle

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for pickle events.
var (
	SignalPluginRegistered  = capitan.NewSignal("pickle.plugin.registered", "Custom plugin registered")
	SignalCustomCleared     = capitan.NewSignal("pickle.custom.cleared", "Custom plugins removed")
	SignalMarshalStart      = capitan.NewSignal("pickle.marshal.start", "Marshal operation beginning")
	SignalMarshalComplete   = capitan.NewSignal("pickle.marshal.complete", "Marshal operation finished")
	SignalUnmarshalStart    = capitan.NewSignal("pickle.unmarshal.start", "Unmarshal operation beginning")
	SignalUnmarshalComplete = capitan.NewSignal("pickle.unmarshal.complete", "Unmarshal operation finished")
	SignalHooksComplete     = capitan.NewSignal("pickle.hooks.complete", "Plugin lifecycle hooks finished")
)

// Keys for typed event data.
var (
	KeyContentType  = capitan.NewStringKey("content_type")
	KeyTag          = capitan.NewStringKey("tag")
	KeyHook         = capitan.NewStringKey("hook")
	KeySize         = capitan.NewIntKey("size")
	KeyDuration     = capitan.NewDurationKey("duration")
	KeyError        = capitan.NewErrorKey("error")
	KeyRemovedCount = capitan.NewIntKey("removed_count")
	KeyHookCount    = capitan.NewIntKey("hook_count")
)

// emitPluginRegistered emits an event when a custom plugin is registered.
func emitPluginRegistered(ctx context.Context, tag string) {
	capitan.Emit(ctx, SignalPluginRegistered,
		KeyTag.Field(tag),
	)
}

// emitCustomCleared emits an event when custom plugins are cleared.
func emitCustomCleared(ctx context.Context, removed int) {
	capitan.Emit(ctx, SignalCustomCleared,
		KeyRemovedCount.Field(removed),
	)
}

// emitMarshalStart emits an event when marshal begins.
func emitMarshalStart(ctx context.Context, contentType string) {
	capitan.Emit(ctx, SignalMarshalStart,
		KeyContentType.Field(contentType),
	)
}

// emitMarshalComplete emits an event when marshal finishes.
func emitMarshalComplete(ctx context.Context, contentType string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalMarshalComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalMarshalComplete, fields...)
	}
}

// emitUnmarshalStart emits an event when unmarshal begins.
func emitUnmarshalStart(ctx context.Context, contentType string, size int) {
	capitan.Emit(ctx, SignalUnmarshalStart,
		KeyContentType.Field(contentType),
		KeySize.Field(size),
	)
}

// emitUnmarshalComplete emits an event when unmarshal finishes.
func emitUnmarshalComplete(ctx context.Context, contentType string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalUnmarshalComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalUnmarshalComplete, fields...)
	}
}

// emitHooksComplete emits an event when OnSend or OnReceive hooks finish.
func emitHooksComplete(ctx context.Context, hook string, count int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyHook.Field(hook),
		KeyHookCount.Field(count),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalHooksComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalHooksComplete, fields...)
	}
}
