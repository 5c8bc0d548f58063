package model

import "fmt"

// Paragraph is the unit of revision. Original is the immutable source text;
// Rewritten is the working draft that the writer, repair, and fixer stages
// mutate.
type Paragraph struct {
	ID        string    `json:"id"`                  // Stable unique id
	Chapter   int       `json:"chapter"`             // Chapter number
	Number    int       `json:"number"`              // Paragraph number within the chapter
	SubNumber *int      `json:"sub_number,omitempty"` // Subparagraph number (nil for top-level)
	Role      StyleRole `json:"role"`                // Layout style classification
	Original  string    `json:"original"`            // Source text, never mutated
	Rewritten string    `json:"rewritten"`           // Current draft
}

// Layout contract constants shared by the lint rules, the fixer, and the
// patch gate. The values come from the IDML toolchain that produces and
// consumes the record sets.
const (
	// ForbiddenRune is the paragraph-break character. The layout consumer
	// treats it as a frame split, so it must never enter a rewritten text.
	ForbiddenRune = '\r'

	// ItemSeparator separates the items of a bullet-role paragraph
	// (a forced line break in the source document).
	ItemSeparator = "\n"

	// ListTerminator ends a paragraph that introduces a list.
	ListTerminator = ":"
)

// StyleRole classifies the layout role of a paragraph and drives which
// lint rules apply to it.
type StyleRole string

const (
	RoleBody    StyleRole = "body"    // Running body text
	RoleBullet  StyleRole = "bullet"  // List paragraph, items separated by forced line breaks
	RoleHeading StyleRole = "heading" // Section or subsection heading
	RoleIntro   StyleRole = "intro"   // Chapter opener / lead paragraph
	RoleCaption StyleRole = "caption" // Figure or table caption
)

// Valid reports whether the role is one of the known style roles.
func (r StyleRole) Valid() bool {
	switch r {
	case RoleBody, RoleBullet, RoleHeading, RoleIntro, RoleCaption:
		return true
	}
	return false
}

// SectionKey groups paragraphs that must be revised with shared context:
// an intro line and the list it introduces belong to one section.
// It is derived from the hierarchy fields, never stored.
type SectionKey struct {
	Chapter   int
	Number    int
	SubNumber int // -1 when the subparagraph is absent
}

// KeyOf derives the section key for a paragraph.
func KeyOf(p *Paragraph) SectionKey {
	sub := -1
	if p.SubNumber != nil {
		sub = *p.SubNumber
	}
	return SectionKey{Chapter: p.Chapter, Number: p.Number, SubNumber: sub}
}

func (k SectionKey) String() string {
	if k.SubNumber < 0 {
		return fmt.Sprintf("%d.%d", k.Chapter, k.Number)
	}
	return fmt.Sprintf("%d.%d.%d", k.Chapter, k.Number, k.SubNumber)
}

// Section is an ordered group of paragraphs sharing one section key.
type Section struct {
	Key        SectionKey
	Paragraphs []*Paragraph
}

// WordCount returns the accumulated word count of the original texts,
// used by the sampling budget.
func (s *Section) WordCount() int {
	n := 0
	for _, p := range s.Paragraphs {
		n += countWords(p.Original)
	}
	return n
}

// Paragraph returns the member with the given id, or nil.
func (s *Section) Paragraph(id string) *Paragraph {
	for _, p := range s.Paragraphs {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func countWords(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				n++
			}
			inWord = true
		}
	}
	return n
}
