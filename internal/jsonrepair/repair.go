// Package jsonrepair turns an in-progress JSON document into a best-effort
// parsed value by closing whatever structures are still open.
//
// The repair is a single pass over the whole input: it closes an open string,
// drops one trailing comma, completes a dangling `"key":` with null and then
// closes open objects and arrays in LIFO order. Nothing else is repaired. In
// particular a missing comma between siblings, or an invalid escape, makes the
// attempt fail; callers are expected to wait for more text and try again.
package jsonrepair

import (
	"encoding/json"
	"strings"
)

// Repair returns the value decoded from the repaired form of text. It never
// panics; ok is false when text is blank or still unparsable after repair.
func Repair(text string) (v any, ok bool) {
	fixed, ok := Complete(text)
	if !ok {
		return nil, false
	}
	return Parse(fixed)
}

// Complete returns the repaired text without parsing it.
func Complete(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	var (
		closers  = make([]byte, 0, 16)
		inString bool
		escaped  bool
	)
	// Delimiters are ASCII, so a byte scan is safe for UTF-8 input.
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			closers = append(closers, '}')
		case c == '[':
			closers = append(closers, ']')
		case c == '}' || c == ']':
			// A closer that does not match the top is dropped.
			if n := len(closers); n > 0 && closers[n-1] == c {
				closers = closers[:n-1]
			}
		}
	}

	var b strings.Builder
	b.Grow(len(text) + len(closers) + 6)
	b.WriteString(text)
	if inString {
		b.WriteByte('"')
	}
	out := strings.TrimRight(b.String(), " \t\r\n")
	out = strings.TrimSuffix(out, ",")
	if strings.HasSuffix(out, ":") {
		out += "null"
	}

	b.Reset()
	b.WriteString(out)
	for i := len(closers) - 1; i >= 0; i-- {
		b.WriteByte(closers[i])
	}
	return b.String(), true
}

// Parse is a strict parse with no repair.
func Parse(text string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	return v, true
}
