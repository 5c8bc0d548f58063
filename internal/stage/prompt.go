package stage

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mboersen/revisor/internal/model"
)

// Paragraph texts are length-capped before they enter a prompt, keeping
// head and tail so an ending defect (a dropped terminator, a truncated
// last item) stays visible to the checker.
const (
	capChars = 1600
	capHead  = 1100
	capTail  = 400
)

const systemPreamble = `You are an experienced Dutch educational editor revising care-education textbook paragraphs (MBO niveau 3/4).
House rules:
- Always write "zorgvrager" (never cliënt/patiënt) and "zorgprofessional" (never verpleegkundige).
- Never emit a carriage return character.
- List paragraphs keep one item per line; never merge or split items.
- Side-note blocks are wrapped in <<PRAKTIJK>>...<<PRAKTIJK_END>> or <<VERDIEPING>>...<<VERDIEPING_END>> and contain no literal labels.
- Answer with JSON only, no commentary, no code fences.`

// strictFollowUp is the in-band second chance after a malformed response,
// before the stage invocation is treated as failed.
const strictFollowUp = `Your previous answer was not valid JSON. Respond again with ONLY the JSON object, no prose, no code fences, and escape every newline inside strings as \n.`

func capText(s string) string {
	if len(s) <= capChars {
		return s
	}
	// The cut points are byte offsets; back them onto rune boundaries so a
	// multi-byte character (ë, é) is never split in half.
	head := capHead
	for head > 0 && !utf8.RuneStart(s[head]) {
		head--
	}
	tail := len(s) - capTail
	for tail < len(s) && !utf8.RuneStart(s[tail]) {
		tail++
	}
	return s[:head] + " […] " + s[tail:]
}

// renderSection lists a section's paragraphs for a prompt: id, role,
// original, and current rewritten text.
func renderSection(sec *model.Section, includeRewritten bool) string {
	var b strings.Builder
	for _, p := range sec.Paragraphs {
		fmt.Fprintf(&b, "### %s (role: %s)\n", p.ID, p.Role)
		fmt.Fprintf(&b, "ORIGINAL:\n%s\n", capText(p.Original))
		if includeRewritten {
			fmt.Fprintf(&b, "REWRITTEN:\n%s\n", capText(p.Rewritten))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// BuildWriterPrompt asks for replacement text for exactly the given ids.
func BuildWriterPrompt(sec *model.Section, ids []string) string {
	return fmt.Sprintf(`Rewrite the following textbook paragraphs of section %s in clear, modern Dutch for MBO students.
Rewrite ONLY these paragraph ids: %s. Keep every fact of the original; do not add new facts.
For list paragraphs, produce exactly the same number of items, one per line (separated by \n inside the JSON string).
If the original ends with ":", the rewrite must end with ":".

%s
Answer as JSON: {"patches":[{"paragraph_id":"...","rewritten":"..."}]}`,
		sec.Key, strings.Join(ids, ", "), renderSection(sec, false))
}

// BuildCheckerPrompt asks for a structured critique of one section.
func BuildCheckerPrompt(sec *model.Section) string {
	return fmt.Sprintf(`Critique the rewritten paragraphs of section %s against their originals.
Report concrete defects only. For every issue you MUST quote, verbatim, a substring of the paragraph text as evidence; issues without a literal quote are discarded.
Severity is "critical" (meaning lost, wrong item count, broken structure) or "warning" (style, phrasing).
Category is one of: meaning_lost, list_parity, phrasing, terminology, structure, factual_drift.
Use category meaning_lost when content of the original is missing from the rewrite; only then may the evidence quote the original instead of the rewrite.

%s
Answer as JSON: {"score": <0-100>, "issues":[{"id":"i1","severity":"critical|warning","paragraph_id":"...","category":"...","message":"...","evidence":"..."}]}`,
		sec.Key, renderSection(sec, true))
}

// BuildRepairPrompt asks for minimal patches resolving the accepted issues.
func BuildRepairPrompt(sec *model.Section, issues []model.Issue) string {
	var list strings.Builder
	for _, is := range issues {
		fmt.Fprintf(&list, "- [%s] %s (paragraph %s): %s — evidence: %q\n",
			is.Severity, is.Category, orDash(is.ParagraphID), is.Message, is.Evidence)
	}
	return fmt.Sprintf(`Fix ONLY the issues listed below in section %s. Change as little text as possible; never touch paragraphs without an issue.

Issues:
%s
%s
Answer as JSON: {"patches":[{"paragraph_id":"...","rewritten":"..."}]}`,
		sec.Key, list.String(), renderSection(sec, true))
}

// BuildListRepairPrompt re-requests a single list paragraph with an
// explicit required item count.
func BuildListRepairPrompt(p *model.Paragraph, required int) string {
	return fmt.Sprintf(`Rewrite this list paragraph in clear Dutch. It MUST contain exactly %d items, one per line, in the same order as the original. Do not merge, split, add or drop items.

ORIGINAL:
%s

CURRENT (wrong item count):
%s

Answer as JSON: {"paragraph_id":%q,"rewritten":"item one\nitem two\n..."}`,
		required, capText(p.Original), capText(p.Rewritten), p.ID)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
