package coursegen

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoObject = errors.New("no json object in model output")

var smartQuotes = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
)

// repairJSON turns model output into a decodable object. It strips fences, extracts the
// outermost object and, only when that still fails to parse, drops trailing commas and
// straightens smart quotes.
func repairJSON(text string) ([]byte, error) {
	s, ok := outermostObject(stripFences(strings.TrimSpace(text)))
	if !ok {
		return nil, errNoObject
	}
	if json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	fixed := dropTrailingCommas(s)
	if json.Valid([]byte(fixed)) {
		return []byte(fixed), nil
	}
	fixed = dropTrailingCommas(smartQuotes.Replace(s))
	if json.Valid([]byte(fixed)) {
		return []byte(fixed), nil
	}
	var parsed any
	err := json.Unmarshal([]byte(fixed), &parsed)
	return nil, err
}

func stripFences(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// Drop the info string ("json", "JSON", ...).
		if !strings.ContainsAny(body[:nl], "{[") {
			body = body[nl+1:]
		}
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// outermostObject returns the first balanced {...} span, honoring string literals. An
// unbalanced tail falls back to the last closing brace.
func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inStr, esc := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	end := strings.LastIndexByte(s, '}')
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func dropTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			b.WriteByte(c)
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		if c == '"' {
			inStr = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
