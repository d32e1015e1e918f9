// Package codec implements the JSON encoding used by the backing file: a
// hand-rolled scanner and recursive-descent decoder building value.Value
// trees directly, plus an encoder rendering them back to bytes.
//
// The scanner is adapted from github.com/creachadair/jtree's scanner.go,
// trimmed to the plain-JSON token set (no JWCC comments or trailing commas:
// the backing file is machine-written, never hand-edited, so there is
// nothing for a lenient grammar to tolerate) and stripped of line/column
// position tracking, which jtree needs for editor-facing diagnostics but a
// single-file embedded store has no use for.
package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Token is the type of a lexical token in the JSON grammar.
type Token byte

// The complete set of token kinds the scanner produces.
const (
	Invalid Token = iota
	LBrace
	RBrace
	LSquare
	RSquare
	Comma
	Colon
	Integer
	Number
	String
	True
	False
	Null
)

// Scanner reads lexical tokens from an input stream. Each call to Next
// advances the scanner to the next token, or reports an error.
type Scanner struct {
	r   *bufio.Reader
	buf bytes.Buffer
	tok Token
	err error

	pos, end int
	last     int
}

// NewScanner constructs a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Scanner{r: br}
}

// Token reports the kind of the current token.
func (s *Scanner) Token() Token { return s.tok }

// Text returns the undecoded text of the current token. The slice is valid
// only until the next call to Next.
func (s *Scanner) Text() []byte { return s.buf.Bytes() }

// Offset reports the byte offset where the current token starts, for error
// messages.
func (s *Scanner) Offset() int { return s.pos }

// Int64 parses the current token's text as a signed integer.
func (s *Scanner) Int64() (int64, error) { return strconv.ParseInt(s.buf.String(), 10, 64) }

// Float64 parses the current token's text as a floating-point number.
func (s *Scanner) Float64() (float64, error) { return strconv.ParseFloat(s.buf.String(), 64) }

// Next advances s to the next token, or returns io.EOF at the end of input.
func (s *Scanner) Next() error {
	s.buf.Reset()
	s.err = nil
	s.tok = Invalid
	s.pos = s.end

	for {
		ch, err := s.rune()
		if err == io.EOF {
			return s.setErr(err)
		} else if err != nil {
			return s.fail(err)
		}

		if isSpace(ch) {
			s.pos = s.end
			continue
		}

		if t, ok := selfDelim(ch); ok {
			s.buf.WriteRune(ch)
			s.tok = t
			return nil
		}

		if isNumStart(ch) {
			return s.scanNumber(ch)
		}

		if ch == '"' {
			return s.scanString(ch)
		}

		var want string
		switch ch {
		case 't':
			s.tok, want = True, "true"
		case 'f':
			s.tok, want = False, "false"
		case 'n':
			s.tok, want = Null, "null"
		default:
			return s.failf("unexpected %q", ch)
		}
		if err := s.scanName(ch); err != nil {
			return err
		}
		if got := s.buf.String(); got != want {
			return s.failf("unknown constant %q", got)
		}
		return nil
	}
}

func (s *Scanner) scanString(open rune) error {
	var esc bool
	for {
		ch, err := s.rune()
		if err != nil {
			return s.fail(err)
		} else if ch == open && !esc {
			s.tok = String
			return nil
		}
		if esc {
			switch ch {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				s.buf.WriteByte(byte(ch))
			case 'u':
				s.buf.WriteByte(byte(ch))
				if err := s.readHex4(); err != nil {
					return s.failf("invalid Unicode escape: %w", err)
				}
			default:
				return s.failf("invalid %q after escape", ch)
			}
			esc = false
		} else if ch < ' ' {
			return s.failf("unescaped control %q", ch)
		} else if ch > unicode.MaxRune {
			return s.failf("invalid Unicode rune %q", ch)
		} else {
			s.buf.WriteRune(ch)
			esc = ch == '\\'
		}
	}
}

func (s *Scanner) scanNumber(start rune) error {
	s.buf.WriteRune(start)
	if start == '-' {
		ch, err := s.require(isDigit, "digit")
		if err != nil {
			return err
		}
		s.buf.WriteRune(ch)
	}

	ch, err := s.readWhile(isDigit)
	if err != nil {
		if err == io.EOF {
			s.tok = Integer
			return nil
		}
		return err
	}

	var isFloat bool
	if ch == '.' {
		s.buf.WriteRune(ch)
		ch, err = s.readWhile(isDigit)
		if err == io.EOF {
			s.tok = Number
			return nil
		} else if err != nil {
			return s.fail(err)
		}
		isFloat = true
	}

	if ch != 'E' && ch != 'e' {
		s.unrune()
		if isFloat {
			s.tok = Number
		} else {
			s.tok = Integer
		}
		return nil
	}

	s.buf.WriteRune(ch)
	ch, err = s.require(isExpStart, "sign or digit")
	if err != nil {
		return err
	}
	s.buf.WriteRune(ch)
	_, err = s.readWhile(isDigit)
	if err == io.EOF {
		s.tok = Number
		return nil
	} else if err != nil {
		return s.fail(err)
	}
	s.unrune()
	s.tok = Number
	return nil
}

func (s *Scanner) scanName(first rune) error {
	s.buf.Reset()
	s.buf.WriteRune(first)
	_, err := s.readWhile(isNameRune)
	if err == io.EOF {
		return nil
	} else if err != nil {
		return s.fail(err)
	}
	s.unrune()
	return nil
}

func (s *Scanner) rune() (rune, error) {
	ch, nb, err := s.r.ReadRune()
	s.last = nb
	s.end += nb
	return ch, err
}

func (s *Scanner) unrune() {
	s.end -= s.last
	s.last = 0
	s.r.UnreadRune()
}

func (s *Scanner) require(f func(rune) bool, label string) (rune, error) {
	ch, err := s.rune()
	if err != nil {
		return 0, s.failf("want %s, got error: %w", label, err)
	} else if !f(ch) {
		s.unrune()
		return 0, s.failf("got %q, want %s", ch, label)
	}
	return ch, nil
}

func (s *Scanner) readWhile(f func(rune) bool) (rune, error) {
	for {
		ch, err := s.rune()
		if err != nil {
			return 0, err
		} else if !f(ch) {
			return ch, nil
		}
		s.buf.WriteRune(ch)
	}
}

func (s *Scanner) readHex4() error {
	for i := 0; i < 4; i++ {
		ch, err := s.rune()
		if err != nil {
			return err
		} else if !isHexDigit(ch) {
			return fmt.Errorf("not a hex digit: %q", ch)
		}
		s.buf.WriteRune(ch)
	}
	return nil
}

func (s *Scanner) setErr(err error) error {
	s.err = err
	return err
}

func (s *Scanner) fail(err error) error {
	return s.setErr(fmt.Errorf("offset %d: unexpected error: %w", s.end, err))
}

func (s *Scanner) failf(msg string, args ...interface{}) error {
	return s.setErr(fmt.Errorf("offset %d: "+msg, append([]interface{}{s.end}, args...)...))
}

func isSpace(ch rune) bool    { return ch == ' ' || ch == '\r' || ch == '\n' || ch == '\t' }
func isNumStart(ch rune) bool { return ch == '-' || isDigit(ch) }
func isExpStart(ch rune) bool { return ch == '-' || ch == '+' || isDigit(ch) }
func isDigit(ch rune) bool    { return '0' <= ch && ch <= '9' }
func isNameRune(ch rune) bool { return ch >= 'a' && ch <= 'z' }

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

var self = [...]Token{LBrace, RBrace, LSquare, RSquare, Comma, Colon}

func selfDelim(ch rune) (Token, bool) {
	i := strings.IndexRune("{}[],:", ch)
	if i >= 0 {
		return self[i], true
	}
	return Invalid, false
}
