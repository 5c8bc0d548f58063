package llm

import (
	"encoding/json"
	"testing"
)

func TestSalvage(t *testing.T) {
	tests := []struct {
		raw     string
		outcome ParseOutcome
		desc    string
	}{
		{
			raw:     `{"score": 90, "issues": []}`,
			outcome: ParsedStrict,
			desc:    "clean JSON",
		},
		{
			raw:     "```json\n{\"score\": 90, \"issues\": []}\n```",
			outcome: ParsedStrict,
			desc:    "fenced JSON",
		},
		{
			raw:     "```\n[{\"paragraph_id\": \"p1\"}]\n```",
			outcome: ParsedStrict,
			desc:    "fenced array without language tag",
		},
		{
			raw:     `Here is the critique you asked for: {"score": 90, "issues": []} Hope this helps!`,
			outcome: ParsedExtracted,
			desc:    "chatter around the document",
		},
		{
			raw:     "{\"rewritten\": \"regel een\nregel twee\"}",
			outcome: ParsedRepaired,
			desc:    "raw newline inside a string literal",
		},
		{
			raw:     `{"issues": [{"id": "c1"},]}`,
			outcome: ParsedRepaired,
			desc:    "trailing comma",
		},
		{
			raw:     `{"evidence": "tekst met {accolades} erin"}`,
			outcome: ParsedStrict,
			desc:    "braces inside strings do not confuse the scanner",
		},
		{
			raw:     "I could not produce a critique for this section.",
			outcome: ParseFailed,
			desc:    "no JSON at all",
		},
		{
			raw:     `{"never": "closed"`,
			outcome: ParseFailed,
			desc:    "unbalanced document",
		},
	}

	for _, tt := range tests {
		doc, outcome := Salvage(tt.raw)
		if outcome != tt.outcome {
			t.Errorf("%s: expected outcome %d, got %d", tt.desc, tt.outcome, outcome)
			continue
		}
		if outcome != ParseFailed && !json.Valid(doc) {
			t.Errorf("%s: salvaged document is not valid JSON: %s", tt.desc, doc)
		}
	}
}

func TestUnmarshal(t *testing.T) {
	var out struct {
		Score  int `json:"score"`
		Issues []struct {
			ID string `json:"id"`
		} `json:"issues"`
	}

	raw := "```json\n{\"score\": 85, \"issues\": [{\"id\": \"c1\"}]}\n```"
	if err := Unmarshal(raw, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Score != 85 || len(out.Issues) != 1 || out.Issues[0].ID != "c1" {
		t.Errorf("unexpected decode result: %+v", out)
	}

	if err := Unmarshal("nothing here", &out); err == nil {
		t.Error("expected error for unparseable response")
	}
}
