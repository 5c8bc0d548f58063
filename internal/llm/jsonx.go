package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Model responses are supposed to be JSON but routinely arrive wrapped in
// code fences, prefixed with chatter, or with raw control characters inside
// string literals. Salvage is the single pure function that recovers a
// parseable document, so every known failure mode has a fixture in the
// tests.

// ParseOutcome tags how the document was recovered.
type ParseOutcome int

const (
	ParseFailed    ParseOutcome = iota // Nothing parseable found
	ParsedStrict                       // Valid as-is (after fence stripping)
	ParsedExtracted                    // First balanced span parsed
	ParsedRepaired                     // Parsed after string/comma repair
)

var fenceRE = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*(.*?)\\s*```$")

// Salvage recovers a JSON document from noisy model output. The escalation
// order is: strict parse, balanced-span extraction, string-literal and
// trailing-comma repair. Returns ParseFailed and nil when all of it fails.
func Salvage(raw string) (json.RawMessage, ParseOutcome) {
	text := strings.TrimSpace(raw)
	if m := fenceRE.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	if json.Valid([]byte(text)) {
		return json.RawMessage(text), ParsedStrict
	}

	span := balancedSpan(text)
	if span == "" {
		return nil, ParseFailed
	}
	if json.Valid([]byte(span)) {
		return json.RawMessage(span), ParsedExtracted
	}

	repaired := repairStrings(span)
	repaired = stripTrailingCommas(repaired)
	if json.Valid([]byte(repaired)) {
		return json.RawMessage(repaired), ParsedRepaired
	}
	return nil, ParseFailed
}

// Unmarshal salvages and decodes in one step.
func Unmarshal(raw string, v any) error {
	doc, outcome := Salvage(raw)
	if outcome == ParseFailed {
		return fmt.Errorf("no parseable JSON in response")
	}
	if err := json.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// balancedSpan returns the first balanced {...} or [...] span, tracking
// string state and escape sequences so braces inside strings don't count.
func balancedSpan(text string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if text[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start < 0 {
		return ""
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// repairStrings escapes raw newlines and tabs that appear inside string
// literals, the most common corruption in long generated texts.
func repairStrings(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteByte(c)
			case c == '\\':
				escaped = true
				b.WriteByte(c)
			case c == '"':
				inString = false
				b.WriteByte(c)
			case c == '\n':
				b.WriteString(`\n`)
			case c == '\r':
				b.WriteString(`\r`)
			case c == '\t':
				b.WriteString(`\t`)
			default:
				b.WriteByte(c)
			}
			continue
		}
		if c == '"' {
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

var trailingCommaRE = regexp.MustCompile(`,\s*([}\]])`)

// stripTrailingCommas removes a comma directly before a closing bracket.
func stripTrailingCommas(text string) string {
	return trailingCommaRE.ReplaceAllString(text, "$1")
}
