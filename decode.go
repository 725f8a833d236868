package pickle

// Decode restores the values described by a tagged tree using the default registry.
func Decode(v any) (any, error) {
	return Default().Decode(v)
}

// Decode restores the values described by a tagged tree.
//
// Decoding runs in two phases. The first rebuilds the tree, leaving nil
// placeholders where pointers appear. The second replaces each placeholder
// with the value its pointer path names, so shared and circular references
// come back as the same Go map or slice. Unknown tags are ignored and their
// values pass through unchanged.
func (r *Registry) Decode(v any) (any, error) {
	out, _, err := r.decode(v)
	return out, err
}

// decode runs one traversal and also returns the custom plugin hits.
func (r *Registry) decode(v any) (any, []Hit, error) {
	d := &decoder{
		view: r.snapshot(),
		ctx:  &DecodeContext{registry: r},
	}
	out, err := d.value(v, "", Path{}, 0)
	if err != nil {
		return nil, nil, err
	}
	if err := d.resolve(out); err != nil {
		return nil, nil, err
	}
	return out, d.hits, nil
}

// decoder holds the state of one Decode call.
type decoder struct {
	view *view
	ctx  *DecodeContext
	hits []Hit
}

func (d *decoder) value(v any, tag string, path Path, depth int) (any, error) {
	if depth > MaxDepth {
		return nil, newTransformError(ErrTooDeep, "decode", tag, path, nil)
	}

	if tag != "" {
		if p, ok := d.view.lookup(tag); ok {
			out, err := p.Decode(v, path, d.ctx)
			if err != nil {
				return nil, newTransformError(ErrDecode, "decode", tag, path, err)
			}
			if _, builtin := builtins[tag]; !builtin {
				d.hits = append(d.hits, Hit{Tag: tag, Path: path.clone(), Value: out})
			}
			return out, nil
		}
	}

	if items, ok := asArray(v); ok {
		tags := elementTags(tag, len(items))
		out := make([]any, len(items))
		for i, item := range items {
			dec, err := d.value(item, tags[i], path.child(i), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil
	}

	if obj, ok := asObject(v); ok {
		out := make(map[string]any, len(obj))
		for key, item := range obj {
			name, itemTag := SplitKey(key)
			dec, err := d.value(item, itemTag, path.child(name), depth+1)
			if err != nil {
				return nil, err
			}
			out[name] = dec
		}
		return out, nil
	}

	return v, nil
}

// resolve performs the deferred pointer assignments against the decoded root.
func (d *decoder) resolve(root any) error {
	for _, p := range d.ctx.backlog {
		target, err := lookup(root, p.target)
		if err != nil {
			return newTransformError(ErrBrokenPointer, "resolve", TagPointer, p.source, err)
		}
		if len(p.source) == 0 {
			return newTransformError(ErrBrokenPointer, "resolve", TagPointer, p.source, nil)
		}
		parent, err := lookup(root, p.source[:len(p.source)-1])
		if err != nil {
			return newTransformError(ErrBrokenPointer, "resolve", TagPointer, p.source, err)
		}
		if err := assign(parent, p.source[len(p.source)-1], target); err != nil {
			return newTransformError(ErrBrokenPointer, "resolve", TagPointer, p.source, err)
		}
	}
	return nil
}
