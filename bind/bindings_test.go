package bind_test

import (
	"testing"

	"github.com/kmill/pynomic/bind"
	"github.com/kmill/pynomic/path"
	"github.com/kmill/pynomic/value"
)

func TestExtendAndLookup(t *testing.T) {
	env := bind.Root("db", value.Int(1))
	if _, ok := env.Lookup("missing"); ok {
		t.Error("Lookup of an unbound name should fail")
	}
	r, ok := env.Lookup("db")
	if !ok || r.Value != value.Int(1) {
		t.Fatalf("Lookup(db) = %v, %v; want Int(1), true", r, ok)
	}
}

func TestExtendShadowing(t *testing.T) {
	outer := bind.Root("x", value.Int(1))
	inner := outer.Extend("x", bind.Synthesized(value.Int(2)))

	r, _ := inner.Lookup("x")
	if r.Value != value.Int(2) {
		t.Errorf("inner Lookup(x) = %v, want Int(2)", r.Value)
	}
	r, _ = outer.Lookup("x")
	if r.Value != value.Int(1) {
		t.Errorf("Extend mutated its receiver: outer Lookup(x) = %v, want Int(1)", r.Value)
	}
}

func TestExtendEmptyNameIsNoOp(t *testing.T) {
	env := bind.Root("x", value.Int(1))
	same := env.Extend("", bind.Synthesized(value.Int(99)))
	if same != env {
		t.Error("Extend with an empty name should return the same environment unchanged")
	}
}

func TestSynthesizedHasNoPath(t *testing.T) {
	r := bind.Synthesized(value.Str("hi"))
	if r.HasPath {
		t.Error("Synthesized result should have HasPath == false")
	}
}

func TestFromTreeHasPath(t *testing.T) {
	p := path.Of("a", 0)
	r := bind.FromTree(p, value.Null)
	if !r.HasPath {
		t.Error("FromTree result should have HasPath == true")
	}
	if got, _ := r.Path.Last(); got != path.ArrayIndex(0) {
		t.Errorf("FromTree path = %v, want last step ArrayIndex(0)", r.Path)
	}
}
