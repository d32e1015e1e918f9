package codec

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"go4.org/mem"
)

// Unescape decodes the JSON encoding of a string whose surrounding
// quotation marks have already been removed, returning the decoded text.
// This is github.com/creachadair/jtree/internal/escape's Unquote, adapted to
// return a string instead of a []byte, using the same go4.org/mem
// zero-allocation-on-the-common-case approach (a token with no backslash at
// all is copied once, not scanned rune by rune).
func Unescape(src []byte) (string, error) {
	ro := mem.B(src)
	dec := make([]byte, 0, ro.Len())
	i := mem.IndexByte(ro, '\\')
	if i < 0 {
		dec = mem.Append(dec, ro)
		return string(dec), nil
	}

	putByte := func(bs ...byte) { dec = append(dec, bs...) }
	putRune := func(r rune) {
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		dec = append(dec, buf[:n]...)
	}
	for ro.Len() != 0 {
		dec = mem.Append(dec, ro.SliceTo(i))

		ro = ro.SliceFrom(i + 1)
		if ro.Len() == 0 {
			return "", errors.New("incomplete escape sequence")
		}
		r, n := mem.DecodeRune(ro)
		if n == 0 {
			n++
		}
		ro = ro.SliceFrom(n)

		switch r {
		case '"', '\\', '/':
			putByte(byte(r))
		case 'b':
			putByte('\b')
		case 'f':
			putByte('\f')
		case 'n':
			putByte('\n')
		case 'r':
			putByte('\r')
		case 't':
			putByte('\t')
		case 'u':
			if ro.Len() < 4 {
				return "", errors.New("incomplete Unicode escape")
			}
			v, err := parseHex(ro.SliceTo(4))
			if err != nil {
				putRune(utf8.RuneError)
			} else {
				putRune(rune(v))
			}
			ro = ro.SliceFrom(4)
		default:
			putRune(utf8.RuneError)
		}

		i = mem.IndexByte(ro, '\\')
		if i < 0 {
			dec = mem.Append(dec, ro)
			break
		}
	}
	return string(dec), nil
}

func parseHex(data mem.RO) (int64, error) {
	var v int64
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		switch {
		case '0' <= b && b <= '9':
			v += int64(b - '0')
		case 'a' <= b && b <= 'f':
			v += int64(b - 'a' + 10)
		case 'A' <= b && b <= 'F':
			v += int64(b - 'A' + 10)
		default:
			return 0, fmt.Errorf("invalid hex digit %q", b)
		}
	}
	return v, nil
}
