package codec_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kmill/pynomic/codec"
	"github.com/kmill/pynomic/value"
)

func decodeStr(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := codec.Decode(strings.NewReader(s))
	if err != nil {
		t.Fatalf("Decode(%q): %v", s, err)
	}
	return v
}

func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		in   string
		want value.Value
	}{
		{"null", value.Null},
		{"true", value.Bool(true)},
		{"false", value.Bool(false)},
		{"42", value.Int(42)},
		{"-3", value.Int(-3)},
		{"1.5", value.Float(1.5)},
		{`"hi"`, value.Str("hi")},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := decodeStr(t, tc.in)
			if got != tc.want {
				t.Errorf("Decode(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecodeArrayAndMap(t *testing.T) {
	got := decodeStr(t, `{"a":[1,2,"x"],"b":{}}`)
	want := value.Map{
		"a": value.Array{value.Int(1), value.Int(2), value.Str("x")},
		"b": value.Map{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEmptyArray(t *testing.T) {
	got := decodeStr(t, `[]`)
	if arr, ok := got.(value.Array); !ok || len(arr) != 0 {
		t.Errorf("Decode([]) = %v, want empty Array", got)
	}
}

func TestDecodeRejectsTrailingInput(t *testing.T) {
	_, err := codec.Decode(strings.NewReader(`1 2`))
	if err == nil {
		t.Error("Decode of trailing input after a complete value should fail")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []string{`{`, `[1,`, `{"a"}`, ``}
	for _, in := range tests {
		if _, err := codec.Decode(strings.NewReader(in)); err == nil {
			t.Errorf("Decode(%q) should fail", in)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := value.Map{
		"nested": value.Array{
			value.Map{"k": value.Str("v\nwith\tescapes\"and\\slashes")},
			value.Int(7),
			value.Float(2.25),
			value.Null,
			value.Bool(true),
		},
	}
	var buf strings.Builder
	if err := codec.Encode(&buf, v); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := codec.Decode(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Decode(Encode(v)): %v", err)
	}
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnescapeBasicEscapes(t *testing.T) {
	got, err := codec.Unescape([]byte(`a\nb\tc\"d\\e`))
	if err != nil {
		t.Fatalf("Unescape: %v", err)
	}
	want := "a\nb\tc\"d\\e"
	if got != want {
		t.Errorf("Unescape = %q, want %q", got, want)
	}
}

func TestUnescapeNoBackslashIsUntouched(t *testing.T) {
	got, err := codec.Unescape([]byte("plain text"))
	if err != nil {
		t.Fatalf("Unescape: %v", err)
	}
	if got != "plain text" {
		t.Errorf("Unescape = %q, want unchanged input", got)
	}
}

func TestUnescapeUnicodeEscape(t *testing.T) {
	got, err := codec.Unescape([]byte("\\u00e9"))
	if err != nil {
		t.Fatalf("Unescape: %v", err)
	}
	if got != "é" {
		t.Errorf("Unescape(\\u00e9) = %q, want %q", got, "é")
	}
}

func TestUnescapeIncompleteEscapeFails(t *testing.T) {
	if _, err := codec.Unescape([]byte(`trailing\`)); err == nil {
		t.Error("Unescape of a trailing backslash should fail")
	}
}

func TestUnescapeIncompleteUnicodeEscapeFails(t *testing.T) {
	if _, err := codec.Unescape([]byte(`\u12`)); err == nil {
		t.Error("Unescape of a short \\u escape should fail")
	}
}
