package codec

import (
	"fmt"
	"io"

	"github.com/kmill/pynomic/value"
)

// Decode reads exactly one JSON value from r and returns it as a
// value.Value tree, rejecting any type the whitelist does not already
// admit (the scanner only ever produces whitelisted shapes, so Decode
// cannot itself produce a value.Allowed failure; that check exists for
// values built programmatically, not ones read back from the backing
// file).
//
// This replaces jtree's Stream/Handler SAX-style indirection (stream.go)
// and ast/parser.go's stack-machine handler: that indirection exists in
// jtree to let several front ends (the AST builder, the JWCC builder, a
// hypothetical streaming consumer) share one Stream, which this package
// does not need, since value.Value is its only consumer. The underlying
// Scanner is still carried over unchanged in spirit, because the backing
// file's codec is real production surface, not a demo.
func Decode(r io.Reader) (value.Value, error) {
	s := NewScanner(r)
	if err := s.Next(); err != nil {
		return nil, err
	}
	v, err := decodeValue(s)
	if err != nil {
		return nil, err
	}
	if s.Token() != Invalid {
		return nil, fmt.Errorf("offset %d: unexpected trailing input", s.Offset())
	}
	return v, nil
}

func decodeValue(s *Scanner) (value.Value, error) {
	switch s.Token() {
	case Null:
		if err := s.Next(); err != nil && err != io.EOF {
			return nil, err
		}
		return value.Null, nil
	case True:
		if err := advance(s); err != nil {
			return nil, err
		}
		return value.Bool(true), nil
	case False:
		if err := advance(s); err != nil {
			return nil, err
		}
		return value.Bool(false), nil
	case Integer:
		n, err := s.Int64()
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", s.Offset(), err)
		}
		if err := advance(s); err != nil {
			return nil, err
		}
		return value.Int(n), nil
	case Number:
		f, err := s.Float64()
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", s.Offset(), err)
		}
		if err := advance(s); err != nil {
			return nil, err
		}
		return value.Float(f), nil
	case String:
		str, err := Unescape(s.Text())
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", s.Offset(), err)
		}
		if err := advance(s); err != nil {
			return nil, err
		}
		return value.Str(str), nil
	case LSquare:
		return decodeArray(s)
	case LBrace:
		return decodeMap(s)
	default:
		return nil, fmt.Errorf("offset %d: unexpected token %v", s.Offset(), s.Token())
	}
}

// advance calls Next and turns a bare io.EOF into success: the caller has
// already consumed the value that was the last thing in the stream, and
// Decode itself checks for a clean end of input afterward.
func advance(s *Scanner) error {
	if err := s.Next(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func decodeArray(s *Scanner) (value.Value, error) {
	if err := s.Next(); err != nil {
		return nil, err
	}
	out := value.Array{}
	if s.Token() == RSquare {
		if err := advance(s); err != nil {
			return nil, err
		}
		return out, nil
	}
	for {
		elt, err := decodeValue(s)
		if err != nil {
			return nil, err
		}
		out = append(out, elt)
		switch s.Token() {
		case Comma:
			if err := s.Next(); err != nil {
				return nil, err
			}
		case RSquare:
			if err := advance(s); err != nil {
				return nil, err
			}
			return out, nil
		default:
			return nil, fmt.Errorf("offset %d: expected ',' or ']'", s.Offset())
		}
	}
}

func decodeMap(s *Scanner) (value.Value, error) {
	if err := s.Next(); err != nil {
		return nil, err
	}
	out := value.Map{}
	if s.Token() == RBrace {
		if err := advance(s); err != nil {
			return nil, err
		}
		return out, nil
	}
	for {
		if s.Token() != String {
			return nil, fmt.Errorf("offset %d: expected string key", s.Offset())
		}
		key, err := Unescape(s.Text())
		if err != nil {
			return nil, err
		}
		if err := s.Next(); err != nil {
			return nil, err
		}
		if s.Token() != Colon {
			return nil, fmt.Errorf("offset %d: expected ':'", s.Offset())
		}
		if err := s.Next(); err != nil {
			return nil, err
		}
		val, err := decodeValue(s)
		if err != nil {
			return nil, err
		}
		out[key] = val
		switch s.Token() {
		case Comma:
			if err := s.Next(); err != nil {
				return nil, err
			}
		case RBrace:
			if err := advance(s); err != nil {
				return nil, err
			}
			return out, nil
		default:
			return nil, fmt.Errorf("offset %d: expected ',' or '}'", s.Offset())
		}
	}
}

// Encode renders v as JSON to w. The backing file has no need for
// indentation or stable key ordering beyond what value.Map.JSON already
// provides (sorted, for a deterministic on-disk rendering).
func Encode(w io.Writer, v value.Value) error {
	_, err := io.WriteString(w, v.JSON())
	return err
}
