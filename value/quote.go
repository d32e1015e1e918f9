package value

import "unicode/utf8"

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel: not actually escaped
}

const hexDigit = "0123456789abcdef"

// quoteString renders s as a double-quoted JSON string, escaping control
// characters and the characters JSON requires ('"', '\\').
func quoteString(s string) string {
	var buf []byte
	buf = append(buf, '"')
	for _, r := range s {
		switch {
		case r < ' ':
			if b := controlEsc[r]; b != 0 {
				buf = append(buf, '\\', b)
			} else {
				buf = append(buf, '\\', 'u', '0', '0', hexDigit[r>>4], hexDigit[r&15])
			}
		case r == '\\' || r == '"':
			buf = append(buf, '\\', byte(r))
		case r < utf8.RuneSelf:
			buf = append(buf, byte(r))
		default:
			var rbuf [utf8.UTFMax]byte
			n := utf8.EncodeRune(rbuf[:], r)
			buf = append(buf, rbuf[:n]...)
		}
	}
	buf = append(buf, '"')
	return string(buf)
}
