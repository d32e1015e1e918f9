package query_test

import (
	"testing"

	"github.com/kmill/pynomic/query"
	"github.com/kmill/pynomic/value"
)

func call(t *testing.T, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	f, ok := query.Lookup(name)
	if !ok {
		t.Fatalf("Lookup(%q): not found", name)
	}
	return f(args)
}

func TestArithmeticPreservesIntness(t *testing.T) {
	got, err := call(t, "add", value.Int(2), value.Int(3))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got != value.Int(5) {
		t.Errorf("add(2, 3) = %v (%T), want Int(5)", got, got)
	}
}

func TestDivAlwaysFloat(t *testing.T) {
	got, err := call(t, "div", value.Int(6), value.Int(3))
	if err != nil {
		t.Fatalf("div: %v", err)
	}
	if got != value.Float(2) {
		t.Errorf("div(6, 3) = %v (%T), want Float(2)", got, got)
	}
}

func TestDivByZero(t *testing.T) {
	if _, err := call(t, "div", value.Int(1), value.Int(0)); err == nil {
		t.Error("div by zero should fail")
	}
}

func TestModMatchesPythonSign(t *testing.T) {
	got, err := call(t, "mod", value.Int(-1), value.Int(3))
	if err != nil {
		t.Fatalf("mod: %v", err)
	}
	if got != value.Int(2) {
		t.Errorf("mod(-1, 3) = %v, want Int(2) (Python-style floor modulo)", got)
	}
}

func TestStringAdd(t *testing.T) {
	got, err := call(t, "add", value.Str("foo"), value.Str("bar"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got != value.Str("foobar") {
		t.Errorf("add(foo, bar) = %v, want Str(foobar)", got)
	}
}

func TestContainsArrayMapStr(t *testing.T) {
	tests := []struct {
		name      string
		container value.Value
		item      value.Value
		want      bool
	}{
		{"ArrayHit", value.Array{value.Int(1), value.Int(2)}, value.Int(2), true},
		{"ArrayMiss", value.Array{value.Int(1)}, value.Int(2), false},
		{"MapKeyHit", value.Map{"a": value.Int(1)}, value.Str("a"), true},
		{"MapKeyMiss", value.Map{"a": value.Int(1)}, value.Str("b"), false},
		{"StrSubstringHit", value.Str("hello"), value.Str("ell"), true},
		{"StrSubstringMiss", value.Str("hello"), value.Str("xyz"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := call(t, "contains", tc.container, tc.item)
			if err != nil {
				t.Fatalf("contains: %v", err)
			}
			if got != value.Bool(tc.want) {
				t.Errorf("contains(%v, %v) = %v, want %v", tc.container, tc.item, got, tc.want)
			}
		})
	}
}

func TestComparisonAndEquality(t *testing.T) {
	got, err := call(t, "lt", value.Int(1), value.Float(1.5))
	if err != nil {
		t.Fatalf("lt: %v", err)
	}
	if got != value.Bool(true) {
		t.Errorf("lt(1, 1.5) = %v, want true", got)
	}

	got, err = call(t, "eq", value.Int(2), value.Float(2))
	if err != nil {
		t.Fatalf("eq: %v", err)
	}
	if got != value.Bool(true) {
		t.Errorf("eq(Int(2), Float(2)) = %v, want true (cross-numeric equality)", got)
	}
}

func TestAnyAll(t *testing.T) {
	got, err := call(t, "any", value.Array{value.Bool(false), value.Int(0), value.Str("x")})
	if err != nil {
		t.Fatalf("any: %v", err)
	}
	if got != value.Bool(true) {
		t.Errorf("any(...) = %v, want true", got)
	}

	got, err = call(t, "all", value.Array{value.Bool(true), value.Int(1)})
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if got != value.Bool(true) {
		t.Errorf("all(...) = %v, want true", got)
	}
}

func TestOpConstructionPanicsOnUnknownName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("query.Op with an unknown name should panic")
		}
	}()
	query.Op("nonesuch", query.Lit(value.Int(1)))
}

func TestWrongArityIsAnError(t *testing.T) {
	if _, err := call(t, "add", value.Int(1)); err == nil {
		t.Error("add with one argument should fail")
	}
}
