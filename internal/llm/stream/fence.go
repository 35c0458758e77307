package stream

import "strings"

// Unfence strips a surrounding markdown code fence (```json ... ```) from a
// model response. An opening fence whose first line has not arrived yet
// yields an empty string.
func Unfence(s string) string {
	t := strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(t, "```") {
		return s
	}
	nl := strings.IndexByte(t, '\n')
	if nl < 0 {
		return ""
	}
	t = strings.TrimRight(t[nl+1:], " \t\r\n")
	return strings.TrimRight(strings.TrimSuffix(t, "```"), " \t\r\n")
}
