package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func noopHandler(ctx context.Context, args json.RawMessage) (any, error) {
	return "ok", nil
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Spec{Name: "alpha"}, noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}
	entry, err := registry.Resolve("alpha")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if entry.Spec.Name != "alpha" {
		t.Errorf("spec name = %q", entry.Spec.Name)
	}
	if registry.Len() != 1 {
		t.Errorf("len = %d", registry.Len())
	}
}

func TestRegistryDuplicate(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Spec{Name: "alpha"}, noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := registry.Register(Spec{Name: "alpha"}, noopHandler)
	var dupErr DuplicateToolError
	if !errors.As(err, &dupErr) {
		t.Fatalf("error = %v, want DuplicateToolError", err)
	}
	if dupErr.Name != "alpha" {
		t.Errorf("name = %q", dupErr.Name)
	}
}

func TestRegistryUnknown(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Resolve("missing")
	var unknownErr UnknownToolError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("error = %v, want UnknownToolError", err)
	}
}

func TestRegistryFrozen(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Spec{Name: "alpha"}, noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}
	registry.Freeze()
	if err := registry.Register(Spec{Name: "beta"}, noopHandler); err == nil {
		t.Fatal("expected error registering into a frozen registry")
	}
	// existing entries stay resolvable
	if _, err := registry.Resolve("alpha"); err != nil {
		t.Errorf("resolve after freeze: %v", err)
	}
}

func TestRegistrySpecsKeepRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := registry.Register(Spec{Name: name}, noopHandler); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	specs := registry.Specs()
	want := []string{"zeta", "alpha", "mid"}
	for i, spec := range specs {
		if spec.Name != want[i] {
			t.Errorf("specs[%d] = %q, want %q", i, spec.Name, want[i])
		}
	}
}

func TestRegistryRejectsEmptyNameAndNilHandler(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Spec{}, noopHandler); err == nil {
		t.Error("expected error for empty name")
	}
	if err := registry.Register(Spec{Name: "alpha"}, nil); err == nil {
		t.Error("expected error for nil handler")
	}
}
