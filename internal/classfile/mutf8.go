package classfile

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// Utf8 constants hold modified UTF-8: NUL is written as C0 80 and characters
// outside the BMP as two three-byte surrogates.

func encodeModifiedUTF8(s string) []byte {
	if isPlainASCII(s) {
		return []byte(s)
	}
	out := make([]byte, 0, len(s)+4)
	for _, r := range s {
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			out = appendModifiedChar(out, uint16(hi))
			out = appendModifiedChar(out, uint16(lo))
			continue
		}
		out = appendModifiedChar(out, uint16(r))
	}
	return out
}

func appendModifiedChar(out []byte, c uint16) []byte {
	switch {
	case c != 0 && c < 0x80:
		return append(out, byte(c))
	case c < 0x800:
		return append(out, 0xC0|byte(c>>6), 0x80|byte(c&0x3F))
	default:
		return append(out, 0xE0|byte(c>>12), 0x80|byte(c>>6&0x3F), 0x80|byte(c&0x3F))
	}
}

func decodeModifiedUTF8(b []byte) (string, error) {
	if isPlainASCII(string(b)) {
		return string(b), nil
	}
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c != 0 && c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b) && b[i+1]&0xC0 == 0x80:
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b) && b[i+1]&0xC0 == 0x80 && b[i+2]&0xC0 == 0x80:
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("%w: malformed modified UTF-8 at byte %d", ErrBadConstant, i)
		}
	}
	return string(utf16.Decode(units)), nil
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 || s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
