package offload

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for store events.
var (
	SignalBlobStored  = capitan.NewSignal("pickle.offload.stored", "Blob written to a store")
	SignalBlobFetched = capitan.NewSignal("pickle.offload.fetched", "Blob read from a store")
)

// Keys for typed event data.
var (
	KeyBlobID     = capitan.NewStringKey("blob_id")
	KeySize       = capitan.NewIntKey("size")
	KeyStoredSize = capitan.NewIntKey("stored_size")
	KeyDuration   = capitan.NewDurationKey("duration")
	KeyError      = capitan.NewErrorKey("error")
)

func emitStored(ctx context.Context, id string, size, stored int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyBlobID.Field(id),
		KeySize.Field(size),
		KeyStoredSize.Field(stored),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalBlobStored, fields...)
	} else {
		capitan.Emit(ctx, SignalBlobStored, fields...)
	}
}

func emitFetched(ctx context.Context, id string, size int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyBlobID.Field(id),
		KeySize.Field(size),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalBlobFetched, fields...)
	} else {
		capitan.Emit(ctx, SignalBlobFetched, fields...)
	}
}
