package value_test

import (
	"testing"

	"github.com/kmill/pynomic/value"
)

func TestTruth(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want bool
	}{
		{"Null", value.Null, false},
		{"FalseBool", value.Bool(false), false},
		{"TrueBool", value.Bool(true), true},
		{"ZeroInt", value.Int(0), false},
		{"NonZeroInt", value.Int(-3), true},
		{"ZeroFloat", value.Float(0), false},
		{"EmptyStr", value.Str(""), false},
		{"NonEmptyStr", value.Str("x"), true},
		{"EmptyArray", value.Array{}, false},
		{"NonEmptyArray", value.Array{value.Null}, true},
		{"EmptyMap", value.Map{}, false},
		{"NonEmptyMap", value.Map{"a": value.Null}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := value.Truth(tc.v); got != tc.want {
				t.Errorf("Truth(%v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b value.Value
		want bool
	}{
		{"IntFloatCross", value.Int(3), value.Float(3), true},
		{"IntMismatch", value.Int(3), value.Int(4), false},
		{"StrMatch", value.Str("a"), value.Str("a"), true},
		{"ArrayMatch", value.Array{value.Int(1), value.Str("x")}, value.Array{value.Int(1), value.Str("x")}, true},
		{"ArrayLenMismatch", value.Array{value.Int(1)}, value.Array{}, false},
		{"MapMatch", value.Map{"a": value.Int(1)}, value.Map{"a": value.Int(1)}, true},
		{"MapKeyMismatch", value.Map{"a": value.Int(1)}, value.Map{"b": value.Int(1)}, false},
		{"DifferentKinds", value.Str("1"), value.Int(1), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := value.Equal(tc.a, tc.b); got != tc.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestAllowed(t *testing.T) {
	if !value.Allowed(value.Array{value.Map{"a": value.Int(1)}, value.Null}) {
		t.Error("Allowed: expected a nested Array/Map of whitelisted types to pass")
	}
	if value.Allowed(nil) {
		t.Error("Allowed(nil) should be false")
	}
}

func TestJSON(t *testing.T) {
	v := value.Map{"a": value.Array{value.Int(1), value.Str("hi\n")}}
	want := `{"a":[1,"hi\n"]}`
	if got := v.JSON(); got != want {
		t.Errorf("JSON() = %q, want %q", got, want)
	}
}
