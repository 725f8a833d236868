package pickle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Serializer moves values across a boundary: it encodes them with a
// registry, carries the tagged tree with a Codec, and runs plugin lifecycle
// hooks on either side.
//
// Serializers are safe for concurrent use.
type Serializer struct {
	codec     Codec
	registry  *Registry
	hookLimit int
}

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithRegistry sets the registry used to encode and decode.
// The default registry is used otherwise.
func WithRegistry(r *Registry) SerializerOption {
	return func(s *Serializer) {
		s.registry = r
	}
}

// WithHookLimit bounds how many OnSend/OnReceive hooks run at once.
// Zero or less means no bound.
func WithHookLimit(n int) SerializerOption {
	return func(s *Serializer) {
		s.hookLimit = n
	}
}

// NewSerializer creates a Serializer that carries tagged trees with codec.
func NewSerializer(codec Codec, opts ...SerializerOption) *Serializer {
	s := &Serializer{
		codec:    codec,
		registry: Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ContentType returns the content type of the underlying codec.
func (s *Serializer) ContentType() string {
	return s.codec.ContentType()
}

// Registry returns the registry the serializer encodes and decodes with.
func (s *Serializer) Registry() *Registry {
	return s.registry
}

// Marshal encodes v and marshals the tagged tree. Hooks are not run.
func (s *Serializer) Marshal(ctx context.Context, v any) ([]byte, error) {
	data, _, err := s.marshal(ctx, v)
	return data, err
}

// Unmarshal unmarshals data and decodes the tagged tree. Hooks are not run.
func (s *Serializer) Unmarshal(ctx context.Context, data []byte) (any, error) {
	v, _, err := s.unmarshal(ctx, data)
	return v, err
}

// Send marshals v, then runs the OnSend hook of every custom plugin for each
// value it encoded. The data is returned only if every hook succeeds.
func (s *Serializer) Send(ctx context.Context, v any) ([]byte, error) {
	data, hits, err := s.marshal(ctx, v)
	if err != nil {
		return nil, err
	}
	if err := s.runHooks(ctx, "send", hits, func(p Plugin) hookFunc { return p.OnSend }); err != nil {
		return nil, err
	}
	return data, nil
}

// Receive unmarshals data, then runs the OnReceive hook of every custom
// plugin for each value it decoded.
func (s *Serializer) Receive(ctx context.Context, data []byte) (any, error) {
	v, hits, err := s.unmarshal(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := s.runHooks(ctx, "receive", hits, func(p Plugin) hookFunc { return p.OnReceive }); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Serializer) marshal(ctx context.Context, v any) ([]byte, []Hit, error) {
	start := time.Now()
	emitMarshalStart(ctx, s.codec.ContentType())

	var retErr error
	var retData []byte
	defer func() {
		emitMarshalComplete(ctx, s.codec.ContentType(), len(retData), time.Since(start), retErr)
	}()

	tree, hits, err := s.registry.encode(v)
	if err != nil {
		retErr = fmt.Errorf("encode: %w", err)
		return nil, nil, retErr
	}

	retData, err = s.codec.Marshal(tree)
	if err != nil {
		retErr = newCodecError(ErrMarshal, err)
		return nil, nil, retErr
	}
	return retData, hits, nil
}

func (s *Serializer) unmarshal(ctx context.Context, data []byte) (any, []Hit, error) {
	start := time.Now()
	emitUnmarshalStart(ctx, s.codec.ContentType(), len(data))

	var retErr error
	defer func() {
		emitUnmarshalComplete(ctx, s.codec.ContentType(), time.Since(start), retErr)
	}()

	var tree any
	if err := s.codec.Unmarshal(data, &tree); err != nil {
		retErr = newCodecError(ErrUnmarshal, err)
		return nil, nil, retErr
	}

	v, hits, err := s.registry.decode(tree)
	if err != nil {
		retErr = fmt.Errorf("decode: %w", err)
		return nil, nil, retErr
	}
	return v, hits, nil
}

type hookFunc func(ctx context.Context, path Path, value any) error

// runHooks calls the selected hook for each hit concurrently and returns the
// first failure.
func (s *Serializer) runHooks(ctx context.Context, name string, hits []Hit, pick func(Plugin) hookFunc) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	if s.hookLimit > 0 {
		g.SetLimit(s.hookLimit)
	}

	count := 0
	for _, hit := range hits {
		p, ok := s.registry.Lookup(hit.Tag)
		if !ok {
			continue
		}
		hook := pick(p)
		if hook == nil {
			continue
		}
		count++
		g.Go(func() error {
			if err := hook(gctx, hit.Path, hit.Value); err != nil {
				return newTransformError(ErrHook, name, hit.Tag, hit.Path, err)
			}
			return nil
		})
	}

	err := g.Wait()
	emitHooksComplete(ctx, name, count, time.Since(start), err)
	return err
}
