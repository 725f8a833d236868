package pickle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func passPlugin() Plugin {
	return Plugin{
		Check:  func(string, any) bool { return false },
		Encode: func(_ Path, _ string, v any, _ *EncodeContext) (any, error) { return v, nil },
		Decode: func(v any, _ Path, _ *DecodeContext) (any, error) { return v, nil },
	}
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("V", passPlugin()); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := r.Register("é", passPlugin()); err != nil {
		t.Fatalf("Register() with a multi-byte rune error: %v", err)
	}

	got := r.Custom()
	if len(got) != 2 || got[0].Tag != "V" || got[1].Tag != "é" {
		t.Errorf("Custom() = %v, want [V é] in registration order", got)
	}
	if _, ok := r.Lookup("V"); !ok {
		t.Error("Lookup(V) = false, want true")
	}
	if _, ok := r.Lookup(TagDate); !ok {
		t.Error("Lookup(D) = false, want built-in")
	}
	if _, ok := r.Lookup("Q"); ok {
		t.Error("Lookup(Q) = true, want false")
	}
}

func TestRegister_Rejections(t *testing.T) {
	missing := func(drop string) Plugin {
		p := passPlugin()
		switch drop {
		case "Check":
			p.Check = nil
		case "Encode":
			p.Encode = nil
		case "Decode":
			p.Decode = nil
		}
		return p
	}

	tests := []struct {
		name        string
		tag         string
		plugin      Plugin
		wantErr     error
		wantHandler string
	}{
		{"empty tag", "", passPlugin(), ErrInvalidTag, ""},
		{"long tag", "AB", passPlugin(), ErrInvalidTag, ""},
		{"comma", ",", passPlugin(), ErrInvalidTag, ""},
		{"open bracket", "[", passPlugin(), ErrInvalidTag, ""},
		{"close bracket", "]", passPlugin(), ErrInvalidTag, ""},
		{"star", "*", passPlugin(), ErrInvalidTag, ""},
		{"less than", "<", passPlugin(), ErrInvalidTag, ""},
		{"greater than", ">", passPlugin(), ErrInvalidTag, ""},
		{"bang", "!", passPlugin(), ErrInvalidTag, ""},
		{"builtin D", TagDate, passPlugin(), ErrBuiltinTag, ""},
		{"builtin P", TagPointer, passPlugin(), ErrBuiltinTag, ""},
		{"builtin I", TagBinary, passPlugin(), ErrBuiltinTag, ""},
		{"duplicate", "V", passPlugin(), ErrDuplicateTag, ""},
		{"no check", "C", missing("Check"), ErrMissingHandler, "Check"},
		{"no encode", "C", missing("Encode"), ErrMissingHandler, "Encode"},
		{"no decode", "C", missing("Decode"), ErrMissingHandler, "Decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if err := r.Register("V", passPlugin()); err != nil {
				t.Fatalf("Register(V) error: %v", err)
			}

			err := r.Register(tt.tag, tt.plugin)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register(%q) error = %v, want %v", tt.tag, err, tt.wantErr)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Register(%q) error type = %T, want *ConfigError", tt.tag, err)
			}
			if ce.Tag != tt.tag || ce.Handler != tt.wantHandler {
				t.Errorf("ConfigError = tag %q handler %q, want %q %q", ce.Tag, ce.Handler, tt.tag, tt.wantHandler)
			}
			if len(r.Custom()) != 1 {
				t.Errorf("rejected plugin was registered: %v", r.Custom())
			}
		})
	}
}

func TestRegister_OptionalHooks(t *testing.T) {
	p := passPlugin()
	p.OnSend = func(context.Context, Path, any) error { return nil }
	if err := NewRegistry().Register("H", p); err != nil {
		t.Errorf("Register() with hooks error: %v", err)
	}
}

func TestClearCustom(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("V", passPlugin()); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	r.RegisterError("Custom", func(m string) error { return errors.New(m) })

	r.ClearCustom()
	if len(r.Custom()) != 0 {
		t.Errorf("Custom() after ClearCustom = %v, want none", r.Custom())
	}
	if err := r.Register("V", passPlugin()); err != nil {
		t.Errorf("Register() after ClearCustom error: %v", err)
	}
	if e := r.newError("Custom", "kept", ""); e.Unwrap() == nil {
		t.Error("ClearCustom() removed error factories")
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Cleanup(ClearCustom)
	ClearCustom()

	if err := Custom("V", passPlugin()); err != nil {
		t.Fatalf("Custom() error: %v", err)
	}
	if err := Custom("V", passPlugin()); !errors.Is(err, ErrDuplicateTag) {
		t.Errorf("Custom() duplicate error = %v, want ErrDuplicateTag", err)
	}
	if _, ok := Default().Lookup("V"); !ok {
		t.Error("Default().Lookup(V) = false after Custom")
	}

	ClearCustom()
	if _, ok := Default().Lookup("V"); ok {
		t.Error("Default().Lookup(V) = true after ClearCustom")
	}
}

func TestRegistry_SnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	v := r.snapshot()
	if err := r.Register("V", passPlugin()); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if _, ok := v.lookup("V"); ok {
		t.Error("snapshot saw a plugin registered after it was taken")
	}
	if _, ok := r.snapshot().lookup("V"); !ok {
		t.Error("new snapshot missed a registered plugin")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = r.Register(fmt.Sprintf("%c", 'a'+i), passPlugin())
		}(i)
		go func() {
			defer wg.Done()
			if _, err := r.Stringify(map[string]any{"n": 1, "s": NewSet(1)}); err != nil {
				t.Errorf("Stringify() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(r.Custom()) != 20 {
		t.Errorf("Custom() = %d plugins, want 20", len(r.Custom()))
	}
}
