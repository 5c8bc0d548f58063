package lint

import (
	"fmt"
	"strings"

	"github.com/mboersen/revisor/internal/model"
)

// Rule identifies which deterministic check produced a violation.
type Rule string

const (
	RuleForbiddenChar Rule = "forbidden_char" // Paragraph-break character in rewritten text
	RuleOrphanedList  Rule = "orphaned_list"  // Intro lost its list terminator
	RuleListParity    Rule = "list_parity"    // Rewritten item count differs from original
	RuleBulletQuality Rule = "bullet_quality" // List item grew into a mini-paragraph
	RuleWordDoubling  Rule = "word_doubling"  // Same content word twice in a short window
	RuleStaccato      Rule = "staccato"       // Run of ultra-short sentences
	RuleDoubleNaming  Rule = "double_naming"  // "we call X ... that we call Y" phrasing
)

// Violation is one deterministic finding. These never involve a network
// call and are recomputed after every mutation.
type Violation struct {
	ParagraphID string `json:"paragraph_id"`
	Rule        Rule   `json:"rule"`
	Message     string `json:"message"`
}

// Linter evaluates the deterministic rule set. It is a pure function over
// paragraph text; the config only toggles the optional rules.
type Linter struct {
	cfg model.LintConfig
}

// New creates a linter with the given rule configuration.
func New(cfg model.LintConfig) *Linter {
	if cfg.BulletWordLimit <= 0 {
		cfg.BulletWordLimit = 12
	}
	return &Linter{cfg: cfg}
}

// CheckSection runs every rule over one section and returns the violations
// in paragraph order.
func (l *Linter) CheckSection(sec *model.Section) []Violation {
	var out []Violation
	for i, p := range sec.Paragraphs {
		out = append(out, l.checkForbidden(p)...)
		if i+1 < len(sec.Paragraphs) {
			out = append(out, l.checkOrphanedList(p, sec.Paragraphs[i+1])...)
		}
		if p.Role == model.RoleBullet {
			out = append(out, l.checkListParity(p)...)
			if l.cfg.StrictBullets {
				out = append(out, l.checkBulletQuality(p)...)
			}
		} else {
			out = append(out, l.checkWordDoubling(p)...)
			if p.Role == model.RoleBody || p.Role == model.RoleIntro {
				out = append(out, l.checkStaccato(p)...)
			}
			out = append(out, l.checkDoubleNaming(p)...)
		}
	}
	return out
}

// CheckAll runs the rule set over every section.
func (l *Linter) CheckAll(sections []*model.Section) []Violation {
	var out []Violation
	for _, sec := range sections {
		out = append(out, l.CheckSection(sec)...)
	}
	return out
}

func (l *Linter) checkForbidden(p *model.Paragraph) []Violation {
	if !strings.ContainsRune(p.Rewritten, model.ForbiddenRune) {
		return nil
	}
	return []Violation{{
		ParagraphID: p.ID,
		Rule:        RuleForbiddenChar,
		Message:     "rewritten text contains the paragraph-break character",
	}}
}

// checkOrphanedList flags an intro whose rewrite dropped the terminator
// while the next paragraph is still a list: the list would render without
// its lead-in.
func (l *Linter) checkOrphanedList(p, next *model.Paragraph) []Violation {
	if next.Role != model.RoleBullet {
		return nil
	}
	if !strings.HasSuffix(strings.TrimSpace(p.Original), model.ListTerminator) {
		return nil
	}
	if p.Rewritten == "" || strings.HasSuffix(strings.TrimSpace(p.Rewritten), model.ListTerminator) {
		return nil
	}
	return []Violation{{
		ParagraphID: p.ID,
		Rule:        RuleOrphanedList,
		Message:     fmt.Sprintf("intro before list paragraph %s no longer ends with %q", next.ID, model.ListTerminator),
	}}
}

// checkListParity enforces the hard item-count contract: the layout stage
// places one generated item per physical slot, so a merged or split item
// corrupts the page.
func (l *Linter) checkListParity(p *model.Paragraph) []Violation {
	origItems := SplitItems(p.Original)
	if len(origItems) < 2 {
		return nil
	}
	if p.Rewritten == "" {
		return nil
	}
	gotItems := SplitItems(p.Rewritten)
	if len(gotItems) == len(origItems) {
		return nil
	}
	return []Violation{{
		ParagraphID: p.ID,
		Rule:        RuleListParity,
		Message:     fmt.Sprintf("list has %d items, original has %d", len(gotItems), len(origItems)),
	}}
}

func (l *Linter) checkBulletQuality(p *model.Paragraph) []Violation {
	var out []Violation
	for i, item := range SplitItems(p.Rewritten) {
		if wordCount(item) > l.cfg.BulletWordLimit {
			out = append(out, Violation{
				ParagraphID: p.ID,
				Rule:        RuleBulletQuality,
				Message:     fmt.Sprintf("item %d exceeds %d words", i+1, l.cfg.BulletWordLimit),
			})
		}
		if countSentenceEnds(item) > 1 {
			out = append(out, Violation{
				ParagraphID: p.ID,
				Rule:        RuleBulletQuality,
				Message:     fmt.Sprintf("item %d contains multiple sentences", i+1),
			})
		}
	}
	return out
}

// SplitItems splits a list paragraph into its items. Exported because the
// repair stage re-verifies item counts on model output with the same
// convention.
func SplitItems(text string) []string {
	var items []string
	for _, part := range strings.Split(text, model.ItemSeparator) {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}
