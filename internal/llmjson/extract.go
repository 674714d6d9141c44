// Package llmjson recovers JSON objects from free-form model output.
//
// Models wrap their JSON in markdown fences, prose, or prompt-template
// artifacts (doubled braces). Recovery runs in two stages: a fenced code
// block (```json or bare ```) wins; otherwise the first brace-balanced
// {...} span in the text is taken. If the span fails to parse, one
// level of doubled braces is collapsed and the parse is retried.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoJSON means no JSON-shaped span was found in the text.
	ErrNoJSON = errors.New("no JSON content found in model output")
	// ErrInvalidJSON means a span was found but did not parse.
	ErrInvalidJSON = errors.New("recovered content is not valid JSON")
)

var fencedBlockRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// Extract recovers the first JSON object from model output text.
func Extract(text string) (map[string]interface{}, error) {
	span, found := recoverSpan(text)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrNoJSON, truncate(text, 200))
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(span), &parsed); err == nil {
		return parsed, nil
	}

	// Retry with prompt-template brace doubling collapsed. Only done on
	// parse failure: valid nested JSON also ends in }} and must not be
	// rewritten.
	span = unescapeBraces(span)
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v: %q", ErrInvalidJSON, err, truncate(span, 200))
	}
	return parsed, nil
}

func recoverSpan(text string) (string, bool) {
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return balancedBraceSpan(text)
}

// balancedBraceSpan finds the first {...} span with matched nesting.
// A counting scan is used instead of a greedy regex so nested objects
// terminate at the right closing brace. Braces inside JSON strings are
// skipped.
func balancedBraceSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// unescapeBraces collapses prompt-templating artifacts ({{ and }}) by
// exactly one level. Valid bare JSON passes through unchanged.
func unescapeBraces(s string) string {
	s = strings.ReplaceAll(s, "{{", "{")
	return strings.ReplaceAll(s, "}}", "}")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
