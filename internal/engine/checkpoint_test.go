package engine

import (
	"testing"

	"github.com/mboersen/revisor/internal/model"
	"github.com/mboersen/revisor/internal/store"
)

func testSection(rewritten string) *model.Section {
	return &model.Section{
		Key: model.SectionKey{Chapter: 1, Number: 1, SubNumber: -1},
		Paragraphs: []*model.Paragraph{
			{ID: "p1", Chapter: 1, Number: 1, Role: model.RoleBody, Original: "origineel", Rewritten: rewritten},
		},
	}
}

func critique(score, criticals int) model.Critique {
	c := model.Critique{Score: score}
	for i := 0; i < criticals; i++ {
		c.Issues = append(c.Issues, model.Issue{Severity: model.SeverityCritical})
	}
	return c
}

func TestController_ObserveStrictImprovement(t *testing.T) {
	ctl := NewController()
	sec := testSection("versie een")

	if !ctl.Observe(sec, critique(70, 1), 0) {
		t.Fatal("first observation must always snapshot")
	}

	sec.Paragraphs[0].Rewritten = "versie twee"
	if ctl.Observe(sec, critique(60, 0), 0) {
		t.Error("lower score must not replace the checkpoint")
	}
	if ctl.Observe(sec, critique(70, 1), 0) {
		t.Error("equal score with equal criticals is not an improvement")
	}
	if !ctl.Observe(sec, critique(70, 0), 0) {
		t.Error("equal score with fewer criticals must replace")
	}
	if !ctl.Observe(sec, critique(80, 2), 0) {
		t.Error("higher score must replace regardless of criticals")
	}

	best := ctl.Best(sec.Key)
	if best == nil || best.Score != 80 {
		t.Fatalf("expected best score 80, got %+v", best)
	}
	if best.Snapshot["p1"] != "versie twee" {
		t.Errorf("snapshot carries the wrong text: %q", best.Snapshot["p1"])
	}
}

func TestController_LintErrorsOutrankScore(t *testing.T) {
	ctl := NewController()
	sec := testSection("lijst met te weinig items")

	// A perfect checker score means nothing while the deterministic gate
	// still fails.
	if !ctl.Observe(sec, critique(100, 0), 1) {
		t.Fatal("first observation must always snapshot")
	}

	sec.Paragraphs[0].Rewritten = "lijst met alle items"
	if !ctl.Observe(sec, critique(95, 0), 0) {
		t.Fatal("a lint-clean snapshot must replace a violating one despite the lower score")
	}

	best := ctl.Best(sec.Key)
	if best == nil || best.LintErrors != 0 || best.Score != 95 {
		t.Fatalf("expected the clean 95-point checkpoint, got %+v", best)
	}
	if best.Snapshot["p1"] != "lijst met alle items" {
		t.Errorf("snapshot carries the wrong text: %q", best.Snapshot["p1"])
	}

	// Once clean, a violating snapshot never wins again, whatever its score.
	sec.Paragraphs[0].Rewritten = "weer kapot"
	if ctl.Observe(sec, critique(100, 0), 1) {
		t.Error("a violating snapshot must not replace a clean one")
	}
	if ctl.Observe(sec, critique(95, 0), 2) {
		t.Error("more violations at equal score must not replace")
	}
}

func TestController_RestoreRevertsRegressions(t *testing.T) {
	p := &model.Paragraph{ID: "p1", Chapter: 1, Number: 1, Role: model.RoleBody, Original: "origineel", Rewritten: "beste versie"}
	st, err := store.New([]*model.Paragraph{p})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sec := &model.Section{Key: model.KeyOf(p), Paragraphs: []*model.Paragraph{p}}

	ctl := NewController()
	ctl.Observe(sec, critique(90, 0), 0)

	// A later iteration made it worse and the score never recovered.
	p.Rewritten = "slechtere versie"

	restored := ctl.Restore(st, []*model.Section{sec})
	if restored != 1 {
		t.Fatalf("expected 1 restoration, got %d", restored)
	}
	if p.Rewritten != "beste versie" {
		t.Errorf("expected the checkpointed text back, got %q", p.Rewritten)
	}

	// Restoring again is a no-op.
	if restored := ctl.Restore(st, []*model.Section{sec}); restored != 0 {
		t.Errorf("expected idempotent restore, got %d", restored)
	}
}

func TestController_MinScore(t *testing.T) {
	ctl := NewController()
	secA := testSection("a")
	secB := &model.Section{
		Key: model.SectionKey{Chapter: 1, Number: 2, SubNumber: -1},
		Paragraphs: []*model.Paragraph{
			{ID: "p2", Chapter: 1, Number: 2, Role: model.RoleBody, Original: "b", Rewritten: "b2"},
		},
	}

	if got := ctl.MinScore([]*model.Section{secA, secB}); got != 100 {
		t.Errorf("nothing observed yet, expected 100, got %d", got)
	}

	ctl.Observe(secA, critique(90, 0), 0)
	ctl.Observe(secB, critique(65, 1), 0)
	if got := ctl.MinScore([]*model.Section{secA, secB}); got != 65 {
		t.Errorf("expected 65, got %d", got)
	}
}
