// Package fix is the deterministic normalizer that runs before every
// scoring pass. Every repair here is mechanical, needs no network access,
// and converges: applying the fixer twice changes nothing on the second
// pass.
package fix

import (
	"strings"

	"github.com/mboersen/revisor/internal/model"
)

// Fixer repairs the known class of mechanical defects: dropped list
// terminators, misplaced side-note blocks, heading spacing, and house
// terminology.
type Fixer struct{}

// New creates a fixer.
func New() *Fixer {
	return &Fixer{}
}

// Section normalizes one section in place and returns the number of
// paragraphs it changed. Original text is never touched.
func (f *Fixer) Section(sec *model.Section) int {
	changed := 0
	for _, p := range sec.Paragraphs {
		before := p.Rewritten
		p.Rewritten = f.paragraph(p)
		if p.Rewritten != before {
			changed++
		}
	}
	if f.anchorSideNotes(sec) {
		changed++
	}
	// Terminator restoration needs the neighbour, so it runs over pairs.
	for i := 0; i+1 < len(sec.Paragraphs); i++ {
		p, next := sec.Paragraphs[i], sec.Paragraphs[i+1]
		if restored := f.restoreTerminator(p, next); restored {
			changed++
		}
	}
	return changed
}

// All normalizes every section.
func (f *Fixer) All(sections []*model.Section) int {
	changed := 0
	for _, sec := range sections {
		changed += f.Section(sec)
	}
	return changed
}

func (f *Fixer) paragraph(p *model.Paragraph) string {
	t := p.Rewritten
	if t == "" {
		return t
	}
	t = strings.ReplaceAll(t, string(model.ForbiddenRune), " ")
	t = ReplaceTerms(t)
	if p.Role == model.RoleHeading {
		t = normalizeHeading(t)
	}
	return t
}

// restoreTerminator puts the list-introducing terminator back when the
// original had one, the next paragraph is a list, and the rewrite lost it.
func (f *Fixer) restoreTerminator(p, next *model.Paragraph) bool {
	if next.Role != model.RoleBullet {
		return false
	}
	if !strings.HasSuffix(strings.TrimSpace(p.Original), model.ListTerminator) {
		return false
	}
	t := strings.TrimSpace(p.Rewritten)
	if t == "" || strings.HasSuffix(t, model.ListTerminator) {
		return false
	}
	// A rewrite often swaps the terminator for a full stop; drop it first.
	t = strings.TrimRight(t, ".;,")
	p.Rewritten = t + model.ListTerminator
	return true
}

// normalizeHeading collapses runs of whitespace and strips stray spaces
// before punctuation.
func normalizeHeading(t string) string {
	t = strings.Join(strings.Fields(t), " ")
	for _, punct := range []string{":", ";", ",", ".", "?", "!"} {
		t = strings.ReplaceAll(t, " "+punct, punct)
	}
	return t
}
