package store

import "github.com/mboersen/revisor/internal/model"

// Scope restricts grouping to one hierarchy branch and/or an approximate
// word budget. The zero value means everything.
type Scope struct {
	Chapter     int // 0 = all chapters
	BudgetWords int // 0 = unlimited; greedy whole-section sampling otherwise
}

// Sections partitions the store into revision units sharing a section key,
// preserving source order within and across sections.
//
// Sampling accepts whole sections in original order until the accumulated
// original-text word count meets the budget. A section is never truncated:
// cutting a list away from its intro would starve the checker of the
// context the rules depend on.
func (s *Store) Sections(scope Scope) []*model.Section {
	var ordered []*model.Section
	index := make(map[model.SectionKey]*model.Section)

	for _, id := range s.order {
		p := s.byID[id]
		if scope.Chapter != 0 && p.Chapter != scope.Chapter {
			continue
		}
		key := model.KeyOf(p)
		sec, ok := index[key]
		if !ok {
			sec = &model.Section{Key: key}
			index[key] = sec
			ordered = append(ordered, sec)
		}
		sec.Paragraphs = append(sec.Paragraphs, p)
	}

	if scope.BudgetWords <= 0 {
		return ordered
	}

	var sampled []*model.Section
	words := 0
	for _, sec := range ordered {
		sampled = append(sampled, sec)
		words += sec.WordCount()
		if words >= scope.BudgetWords {
			break
		}
	}
	return sampled
}
