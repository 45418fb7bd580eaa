package intent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var specialTokenRe = regexp.MustCompile(`<\|[^|]+\|>`)

// Clean strips model control tokens and Markdown code fences from raw model
// output and narrows it to the first balanced JSON object when one exists.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = specialTokenRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = stripFence(s)
	if obj, ok := firstObject(s); ok {
		s = obj
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "`"))
}

func stripFence(s string) string {
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[3:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// firstObject returns the first brace-balanced object in s, skipping braces
// that appear inside JSON strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// Parse turns raw model output into a request. It never fails: output that
// cannot be decoded becomes a "none" intent whose answer describes the
// problem.
func Parse(raw string) Request {
	cleaned := Clean(raw)
	if cleaned != "" && !strings.ContainsRune(cleaned, '{') {
		return Answer(cleaned)
	}
	req, err := Decode([]byte(cleaned))
	if err == nil {
		return req
	}
	// Last resort: everything between the first '{' and the last '}'.
	if start, end := strings.IndexByte(cleaned, '{'), strings.LastIndexByte(cleaned, '}'); start >= 0 && end > start {
		if retry, rerr := Decode([]byte(cleaned[start : end+1])); rerr == nil {
			return retry
		}
	}
	if errors.Is(err, ErrEmpty) {
		return Answer("The interpreter returned an empty response.")
	}
	return Answer(fmt.Sprintf("Could not parse interpreter output: %v\n\nReceived: %s", err, truncate(cleaned, 200)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
