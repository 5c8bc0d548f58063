package fix

import (
	"regexp"
	"strings"

	"github.com/mboersen/revisor/internal/model"
)

// Side-note blocks are inline-marked "practice"/"depth" annotations carried
// inside a paragraph's rewritten text. The renderer adds the visible labels,
// so the text itself must not repeat them, and a block is only legal inside
// a body or intro paragraph.
const (
	PraktijkStart   = "<<PRAKTIJK>>"
	PraktijkEnd     = "<<PRAKTIJK_END>>"
	VerdiepingStart = "<<VERDIEPING>>"
	VerdiepingEnd   = "<<VERDIEPING_END>>"
)

var (
	praktijkRE   = regexp.MustCompile(`<<PRAKTIJK>>(.*?)<<PRAKTIJK_END>>`)
	verdiepingRE = regexp.MustCompile(`<<VERDIEPING>>(.*?)<<VERDIEPING_END>>`)

	// The renderer prepends the label; a literal one inside the block is a
	// duplication defect.
	labelRE = regexp.MustCompile(`(?i)^\s*(in de praktijk|verdieping)\s*:\s*`)
)

type sideNote struct {
	start, end string
	body       string
}

// anchorSideNotes moves side-note blocks found on illegal hosts (lists,
// headings, captions) to the last body paragraph of the section, and strips
// literal labels from block bodies. Returns true when anything moved or
// changed.
func (f *Fixer) anchorSideNotes(sec *model.Section) bool {
	changed := false

	// Strip labels everywhere first so the pass is idempotent regardless
	// of where a block ends up.
	for _, p := range sec.Paragraphs {
		stripped := stripLabels(p.Rewritten)
		if stripped != p.Rewritten {
			p.Rewritten = stripped
			changed = true
		}
	}

	host := lastLegalHost(sec)
	if host == nil {
		return changed
	}

	var orphaned []sideNote
	for _, p := range sec.Paragraphs {
		if p == host || legalHost(p) {
			continue
		}
		notes, rest := extractSideNotes(p.Rewritten)
		if len(notes) == 0 {
			continue
		}
		p.Rewritten = rest
		orphaned = append(orphaned, notes...)
		changed = true
	}

	for _, n := range orphaned {
		host.Rewritten = strings.TrimSpace(host.Rewritten) + " " + n.start + n.body + n.end
	}
	return changed
}

func legalHost(p *model.Paragraph) bool {
	return p.Role == model.RoleBody || p.Role == model.RoleIntro
}

func lastLegalHost(sec *model.Section) *model.Paragraph {
	for i := len(sec.Paragraphs) - 1; i >= 0; i-- {
		if legalHost(sec.Paragraphs[i]) {
			return sec.Paragraphs[i]
		}
	}
	return nil
}

// extractSideNotes pulls every marker block out of the text and returns the
// blocks plus the remaining text with whitespace re-collapsed.
func extractSideNotes(text string) ([]sideNote, string) {
	var notes []sideNote
	rest := text
	for _, spec := range []struct {
		re         *regexp.Regexp
		start, end string
	}{
		{praktijkRE, PraktijkStart, PraktijkEnd},
		{verdiepingRE, VerdiepingStart, VerdiepingEnd},
	} {
		for _, m := range spec.re.FindAllStringSubmatch(rest, -1) {
			notes = append(notes, sideNote{start: spec.start, end: spec.end, body: m[1]})
		}
		rest = spec.re.ReplaceAllString(rest, " ")
	}
	if len(notes) == 0 {
		return nil, text
	}
	return notes, collapseSpaces(rest)
}

// collapseSpaces tidies horizontal whitespace per line. Item separators are
// newlines, so collapsing across lines would corrupt list parity.
func collapseSpaces(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// stripLabels removes literal "In de praktijk:" / "Verdieping:" labels from
// the start of each block body.
func stripLabels(text string) string {
	out := praktijkRE.ReplaceAllStringFunc(text, func(m string) string {
		body := praktijkRE.FindStringSubmatch(m)[1]
		return PraktijkStart + labelRE.ReplaceAllString(body, "") + PraktijkEnd
	})
	out = verdiepingRE.ReplaceAllStringFunc(out, func(m string) string {
		body := verdiepingRE.FindStringSubmatch(m)[1]
		return VerdiepingStart + labelRE.ReplaceAllString(body, "") + VerdiepingEnd
	})
	return out
}
