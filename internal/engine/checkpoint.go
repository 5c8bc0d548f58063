package engine

import (
	"github.com/mboersen/revisor/internal/model"
	"github.com/mboersen/revisor/internal/store"
)

// Checkpoint is the best-known state of one section: its deterministic
// violation count, the checker score, its critical count, and the
// rewritten texts that produced them.
type Checkpoint struct {
	LintErrors int
	Score      int
	Criticals  int
	Snapshot   map[string]string // paragraph id → rewritten text
}

// Controller remembers the best checkpoint per section and restores it at
// the end of the run. This is the regression-proof guarantee: a later,
// worse iteration can never silently ship.
type Controller struct {
	best map[model.SectionKey]*Checkpoint
}

// NewController creates an empty checkpoint controller.
func NewController() *Controller {
	return &Controller{best: make(map[model.SectionKey]*Checkpoint)}
}

// Observe records a section's critique together with its deterministic
// violation count. The stored checkpoint is replaced only on strict
// improvement, and the deterministic gate outranks the checker: fewer lint
// errors always wins, then a higher score, then fewer critical issues. A
// snapshot that breaks the deterministic contract must never outlive a
// clean one, whatever the checker thought of it. Returns true when the
// snapshot was taken.
func (c *Controller) Observe(sec *model.Section, critique model.Critique, lintErrors int) bool {
	criticals := critique.CriticalCount()
	cur := c.best[sec.Key]
	if cur != nil {
		better := lintErrors < cur.LintErrors ||
			(lintErrors == cur.LintErrors &&
				(critique.Score > cur.Score ||
					(critique.Score == cur.Score && criticals < cur.Criticals)))
		if !better {
			return false
		}
	}

	snap := make(map[string]string, len(sec.Paragraphs))
	for _, p := range sec.Paragraphs {
		snap[p.ID] = p.Rewritten
	}
	c.best[sec.Key] = &Checkpoint{LintErrors: lintErrors, Score: critique.Score, Criticals: criticals, Snapshot: snap}
	return true
}

// Best returns the stored checkpoint for a section, or nil.
func (c *Controller) Best(key model.SectionKey) *Checkpoint {
	return c.best[key]
}

// Restore reverts every paragraph whose live text differs from its
// section's best snapshot, and returns the number of paragraphs reverted.
// Sections that were never checked keep their live text.
func (c *Controller) Restore(st *store.Store, sections []*model.Section) int {
	restored := 0
	for _, sec := range sections {
		best := c.best[sec.Key]
		if best == nil {
			continue
		}
		for _, p := range sec.Paragraphs {
			want, ok := best.Snapshot[p.ID]
			if !ok || p.Rewritten == want {
				continue
			}
			if err := st.SetRewritten(p.ID, want); err == nil {
				restored++
			}
		}
	}
	return restored
}

// MinScore returns the lowest best score across the given sections, or 100
// when nothing was ever checked.
func (c *Controller) MinScore(sections []*model.Section) int {
	min := 100
	for _, sec := range sections {
		if best := c.best[sec.Key]; best != nil && best.Score < min {
			min = best.Score
		}
	}
	return min
}
