package intrinsics

import (
	"strings"
)

// DemangleRustLegacy decodes the legacy Rust scheme: "_ZN" (or "ZN"), then
// length-prefixed path segments, an optional "h<hex>" hash segment and a
// closing "E". Segments are joined with "::".
//
//	@_ZN4core9panicking5panic17h0123456789abcdefE -> @core::panicking::panic
func DemangleRustLegacy(name string) (string, bool) {
	s := strings.TrimPrefix(name, "@")
	switch {
	case strings.HasPrefix(s, "_ZN"):
		s = s[3:]
	case strings.HasPrefix(s, "ZN"):
		s = s[2:]
	default:
		return "", false
	}
	if !strings.HasSuffix(s, "E") {
		return "", false
	}

	var segments []string
	for {
		n, rest, ok := scanLength(s)
		if !ok {
			break
		}
		if n > len(rest) {
			return "", false
		}
		seg := rest[:n]
		s = rest[n:]
		if isHashSegment(seg) {
			break
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 || s != "E" {
		return "", false
	}
	return "@" + strings.Join(segments, "::"), true
}

func scanLength(s string) (int, string, bool) {
	i := 0
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		if n > len(s) {
			return 0, "", false
		}
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	return n, s[i:], true
}

func isHashSegment(seg string) bool {
	if len(seg) < 2 || seg[0] != 'h' {
		return false
	}
	for _, c := range seg[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
