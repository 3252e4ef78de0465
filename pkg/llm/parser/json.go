package parser

import (
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when a reply contains no JSON object.
var ErrNoJSONObject = errors.New("no JSON object in reply")

// ExtractJSONObject returns the first balanced {...} object in content.
// Markdown code fences and surrounding prose are ignored. Braces inside JSON
// strings do not count towards nesting.
func ExtractJSONObject(content string) (string, error) {
	start := strings.IndexByte(content, '{')
	for start >= 0 {
		if end := matchBrace(content[start:]); end > 0 {
			return content[start : start+end], nil
		}
		next := strings.IndexByte(content[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSONObject
}

// matchBrace returns the length of the object opening at s[0], or 0 when it
// is never closed.
func matchBrace(s string) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return 0
}
