package records

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mboersen/revisor/internal/model"
)

// File is the on-disk record set: the paragraphs plus the appended run
// history. An external extraction step produces it; a layout-insertion step
// consumes it after revision.
type File struct {
	Title      string             `json:"title,omitempty"`
	Paragraphs []*model.Paragraph `json:"paragraphs"`
	Reports    []*model.RunReport `json:"reports,omitempty"`
}

// Load reads and decodes a record set.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	if len(f.Paragraphs) == 0 {
		return nil, fmt.Errorf("records %s: no paragraphs", path)
	}
	return &f, nil
}

// Save writes the record set atomically: encode to a temp file in the
// target directory, then rename over the destination. A crash mid-write
// never leaves a truncated record set behind.
func Save(path string, f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".records-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close records: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace records: %w", err)
	}
	return nil
}
