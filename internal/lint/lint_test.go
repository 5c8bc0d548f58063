package lint

import (
	"testing"

	"github.com/mboersen/revisor/internal/model"
)

func section(paragraphs ...*model.Paragraph) *model.Section {
	return &model.Section{Key: model.SectionKey{Chapter: 1, Number: 1, SubNumber: -1}, Paragraphs: paragraphs}
}

func rules(violations []Violation) map[Rule]int {
	out := make(map[Rule]int)
	for _, v := range violations {
		out[v.Rule]++
	}
	return out
}

func TestLinter_ForbiddenChar(t *testing.T) {
	l := New(model.LintConfig{})
	sec := section(&model.Paragraph{
		ID: "p1", Role: model.RoleBody,
		Original:  "tekst",
		Rewritten: "eerste regel\rtweede regel",
	})

	got := rules(l.CheckSection(sec))
	if got[RuleForbiddenChar] != 1 {
		t.Errorf("expected 1 forbidden_char violation, got %d", got[RuleForbiddenChar])
	}
}

func TestLinter_OrphanedList(t *testing.T) {
	l := New(model.LintConfig{})

	tests := []struct {
		intro     string
		rewritten string
		want      int
		desc      string
	}{
		{"De stappen zijn:", "De stappen zijn.", 1, "dropped terminator before a list"},
		{"De stappen zijn:", "De stappen zijn:", 0, "terminator kept"},
		{"De stappen zijn.", "De stappen zijn", 0, "original had no terminator"},
		{"De stappen zijn:", "", 0, "empty rewrite is not yet a defect"},
	}

	for _, tt := range tests {
		sec := section(
			&model.Paragraph{ID: "p1", Role: model.RoleIntro, Original: tt.intro, Rewritten: tt.rewritten},
			&model.Paragraph{ID: "p2", Role: model.RoleBullet, Original: "een\ntwee", Rewritten: "een\ntwee"},
		)
		got := rules(l.CheckSection(sec))
		if got[RuleOrphanedList] != tt.want {
			t.Errorf("%s: expected %d orphaned_list, got %d", tt.desc, tt.want, got[RuleOrphanedList])
		}
	}
}

func TestLinter_ListParity(t *testing.T) {
	l := New(model.LintConfig{})

	tests := []struct {
		original  string
		rewritten string
		want      int
		desc      string
	}{
		{"een\ntwee\ndrie", "een\ntwee", 1, "merged item"},
		{"een\ntwee", "een\ntwee\ndrie", 1, "split item"},
		{"een\ntwee\ndrie", "aap\nnoot\nmies", 0, "same count"},
		{"een\ntwee", "", 0, "empty rewrite is the writer's problem"},
		{"enkel item", "iets anders", 0, "single-item paragraph is not a list"},
	}

	for _, tt := range tests {
		sec := section(&model.Paragraph{ID: "p1", Role: model.RoleBullet, Original: tt.original, Rewritten: tt.rewritten})
		got := rules(l.CheckSection(sec))
		if got[RuleListParity] != tt.want {
			t.Errorf("%s: expected %d list_parity, got %d", tt.desc, tt.want, got[RuleListParity])
		}
	}
}

func TestLinter_WordDoubling(t *testing.T) {
	l := New(model.LintConfig{})

	tests := []struct {
		text string
		want int
		desc string
	}{
		{"De zorgvrager herkent de zorgvrager niet.", 1, "content word repeated in window"},
		{"De zorgvrager gaat naar huis.", 0, "no repetition"},
		{"rode bloedcellen en witte bloedcellen", 0, "coordination carve-out"},
		{"grote cellen of kleine cellen", 0, "coordination with of"},
		{"de de de de", 0, "stopwords are exempt"},
	}

	for _, tt := range tests {
		sec := section(&model.Paragraph{ID: "p1", Role: model.RoleBody, Original: "x", Rewritten: tt.text})
		got := rules(l.CheckSection(sec))
		if got[RuleWordDoubling] != tt.want {
			t.Errorf("%s: expected %d word_doubling, got %d", tt.desc, tt.want, got[RuleWordDoubling])
		}
	}
}

func TestLinter_Staccato(t *testing.T) {
	l := New(model.LintConfig{})

	tests := []struct {
		text string
		role model.StyleRole
		want int
		desc string
	}{
		{"Dit is kort. Dat ook. Nog een keer. Dus ja.", model.RoleBody, 1, "run of short sentences"},
		{"Dit is kort. Maar deze zin heeft heel veel meer woorden dan de vorige. Dat ook.", model.RoleBody, 0, "long sentence breaks the run"},
		{"Dit is kort. Dat ook. Nog een keer.", model.RoleCaption, 0, "captions are exempt"},
	}

	for _, tt := range tests {
		sec := section(&model.Paragraph{ID: "p1", Role: tt.role, Original: "x", Rewritten: tt.text})
		got := rules(l.CheckSection(sec))
		if got[RuleStaccato] != tt.want {
			t.Errorf("%s: expected %d staccato, got %d", tt.desc, tt.want, got[RuleStaccato])
		}
	}
}

func TestLinter_DoubleNaming(t *testing.T) {
	l := New(model.LintConfig{})

	tests := []struct {
		text string
		want int
		desc string
	}{
		{"Dit noemen we plasma, dat ook wel bloedvloeistof heet.", 1, "two naming constructions in one sentence"},
		{"Dit noemen we plasma. Het wordt ook bloedvloeistof genoemd.", 0, "split over two sentences is fine"},
		{"Het plasma vervoert voedingsstoffen.", 0, "no naming at all"},
	}

	for _, tt := range tests {
		sec := section(&model.Paragraph{ID: "p1", Role: model.RoleBody, Original: "x", Rewritten: tt.text})
		got := rules(l.CheckSection(sec))
		if got[RuleDoubleNaming] != tt.want {
			t.Errorf("%s: expected %d double_naming, got %d", tt.desc, tt.want, got[RuleDoubleNaming])
		}
	}
}

func TestLinter_StrictBullets(t *testing.T) {
	long := "dit ene item bevat veel te veel woorden om nog een net lijstitem te zijn"
	sec := section(&model.Paragraph{
		ID: "p1", Role: model.RoleBullet,
		Original:  "een\ntwee",
		Rewritten: long + "\ntwee",
	})

	// Off by default.
	if got := rules(New(model.LintConfig{}).CheckSection(sec)); got[RuleBulletQuality] != 0 {
		t.Errorf("bullet_quality must be off by default, got %d", got[RuleBulletQuality])
	}

	got := rules(New(model.LintConfig{StrictBullets: true, BulletWordLimit: 12}).CheckSection(sec))
	if got[RuleBulletQuality] != 1 {
		t.Errorf("expected 1 bullet_quality violation, got %d", got[RuleBulletQuality])
	}
}

func TestSplitItems(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"een\ntwee\ndrie", 3},
		{"een\n\ntwee\n", 2},
		{"  \n ", 0},
		{"enkel", 1},
	}
	for _, tt := range tests {
		if got := len(SplitItems(tt.text)); got != tt.want {
			t.Errorf("SplitItems(%q): expected %d items, got %d", tt.text, tt.want, got)
		}
	}
}
