package store

import (
	"fmt"
	"sort"

	"github.com/mboersen/revisor/internal/model"
)

// Store is the in-memory paragraph collection, indexed by id and by section
// key. Mutation goes through Apply so the original text stays immutable and
// patches are gated.
type Store struct {
	order []string // Paragraph ids in source order
	byID  map[string]*model.Paragraph
}

// New builds a store from a record set. Duplicate ids and unknown style
// roles are rejected up front so later stages can trust the index.
func New(paragraphs []*model.Paragraph) (*Store, error) {
	s := &Store{
		order: make([]string, 0, len(paragraphs)),
		byID:  make(map[string]*model.Paragraph, len(paragraphs)),
	}
	for _, p := range paragraphs {
		if p.ID == "" {
			return nil, fmt.Errorf("paragraph without id (chapter %d, number %d)", p.Chapter, p.Number)
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate paragraph id: %s", p.ID)
		}
		if !p.Role.Valid() {
			return nil, fmt.Errorf("paragraph %s: unknown style role %q", p.ID, p.Role)
		}
		s.byID[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	return s, nil
}

// Get returns the paragraph with the given id, or nil.
func (s *Store) Get(id string) *model.Paragraph {
	return s.byID[id]
}

// Len returns the number of paragraphs.
func (s *Store) Len() int {
	return len(s.order)
}

// All returns the paragraphs in source order.
func (s *Store) All() []*model.Paragraph {
	out := make([]*model.Paragraph, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Apply applies a patch to the live rewritten text. It refuses patches for
// unknown ids and patches carrying the forbidden control character; the
// original text is never touched.
func (s *Store) Apply(patch model.Patch) error {
	p := s.byID[patch.ParagraphID]
	if p == nil {
		return fmt.Errorf("patch targets unknown paragraph %s", patch.ParagraphID)
	}
	for _, r := range patch.Rewritten {
		if r == model.ForbiddenRune {
			return fmt.Errorf("patch for %s contains the paragraph-break character", patch.ParagraphID)
		}
	}
	p.Rewritten = patch.Rewritten
	return nil
}

// SetRewritten replaces the rewritten text without patch gating. Reserved
// for checkpoint restoration, which replays text that already passed the
// gate once.
func (s *Store) SetRewritten(id, text string) error {
	p := s.byID[id]
	if p == nil {
		return fmt.Errorf("unknown paragraph %s", id)
	}
	p.Rewritten = text
	return nil
}

// CopyChapter returns a deep copy of one chapter's paragraphs as a new
// store. Chapter workers revise copies so their mutations never alias.
func (s *Store) CopyChapter(chapter int) *Store {
	out := &Store{byID: make(map[string]*model.Paragraph)}
	for _, id := range s.order {
		p := s.byID[id]
		if p.Chapter != chapter {
			continue
		}
		cp := *p
		if p.SubNumber != nil {
			sub := *p.SubNumber
			cp.SubNumber = &sub
		}
		out.byID[cp.ID] = &cp
		out.order = append(out.order, cp.ID)
	}
	return out
}

// Merge folds another store's paragraphs into this one, keyed by paragraph
// id. Chapter workers each revise their own copy; the merge is what makes
// their interleaving harmless.
func (s *Store) Merge(other *Store) {
	for _, id := range other.order {
		if mine, ok := s.byID[id]; ok {
			mine.Rewritten = other.byID[id].Rewritten
		}
	}
}

// Chapters returns the distinct chapter numbers in ascending order.
func (s *Store) Chapters() []int {
	seen := make(map[int]bool)
	var out []int
	for _, id := range s.order {
		ch := s.byID[id].Chapter
		if !seen[ch] {
			seen[ch] = true
			out = append(out, ch)
		}
	}
	sort.Ints(out)
	return out
}
