package records

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mboersen/revisor/internal/model"
)

func TestSaveLoad_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.json")

	sub := 2
	f := &File{
		Title: "Anatomie en fysiologie",
		Paragraphs: []*model.Paragraph{
			{ID: "p1", Chapter: 1, Number: 1, Role: model.RoleIntro, Original: "intro:", Rewritten: "intro:"},
			{ID: "p2", Chapter: 1, Number: 1, SubNumber: &sub, Role: model.RoleBullet, Original: "een\ntwee", Rewritten: "aap\nnoot"},
		},
		Reports: []*model.RunReport{{
			StartedAt:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			FinalScore:  90,
			Termination: model.StopConverged,
		}},
	}

	if err := Save(path, f); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Title != f.Title {
		t.Errorf("expected title %q, got %q", f.Title, got.Title)
	}
	if len(got.Paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(got.Paragraphs))
	}
	if got.Paragraphs[1].SubNumber == nil || *got.Paragraphs[1].SubNumber != 2 {
		t.Error("sub_number lost in roundtrip")
	}
	if got.Paragraphs[1].Rewritten != "aap\nnoot" {
		t.Errorf("item separator lost in roundtrip: %q", got.Paragraphs[1].Rewritten)
	}
	if len(got.Reports) != 1 || got.Reports[0].Termination != model.StopConverged {
		t.Errorf("run report lost in roundtrip: %+v", got.Reports)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`{"paragraphs": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); err == nil {
		t.Error("expected error for a record set without paragraphs")
	}
}

func TestSave_LeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.json")

	f := &File{Paragraphs: []*model.Paragraph{
		{ID: "p1", Chapter: 1, Number: 1, Role: model.RoleBody, Original: "a"},
	}}
	if err := Save(path, f); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "book.json" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}
