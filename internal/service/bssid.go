package service

import "strings"

// NormalizeBSSID converts a MAC address written with ':', '-' or '.'
// separators (or none) to upper-case colon form. ok is false if the input is
// not 12 hex digits.
func NormalizeBSSID(raw string) (string, bool) {
	hex := make([]byte, 0, 12)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == ':' || c == '-' || c == '.' || c == ' ':
			continue
		case c >= '0' && c <= '9', c >= 'A' && c <= 'F':
			hex = append(hex, c)
		case c >= 'a' && c <= 'f':
			hex = append(hex, c-'a'+'A')
		default:
			return "", false
		}
	}
	if len(hex) != 12 {
		return "", false
	}

	var b strings.Builder
	b.Grow(17)
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.Write(hex[i : i+2])
	}
	return b.String(), true
}
