package scrub

import "strings"

const maxLen = 200

// String makes a user-supplied value safe to log: control characters are
// stripped and the result is truncated to 200 characters.
func String(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
		if b.Len() >= maxLen {
			break
		}
	}
	return b.String()
}
