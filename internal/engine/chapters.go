package engine

import (
	"context"

	"github.com/mboersen/revisor/internal/llm"
	"github.com/mboersen/revisor/internal/model"
	"github.com/mboersen/revisor/internal/store"
)

// ChapterReviser runs one orchestrator per chapter over a private copy of
// that chapter's paragraphs. Copies keep concurrent chapters from aliasing;
// the caller merges the returned stores back by paragraph id.
type ChapterReviser struct {
	cfg    *model.Config
	st     *store.Store
	client *llm.Client
}

// NewChapterReviser creates a reviser over the full record set.
func NewChapterReviser(cfg *model.Config, st *store.Store, client *llm.Client) *ChapterReviser {
	return &ChapterReviser{cfg: cfg, st: st, client: client}
}

// ReviseChapter revises one chapter and returns its mutated copy plus the
// chapter's run report.
func (r *ChapterReviser) ReviseChapter(ctx context.Context, chapter int) (*store.Store, *model.RunReport, error) {
	cfg := *r.cfg
	cfg.Revise.Chapter = chapter

	sub := r.st.CopyChapter(chapter)
	report, err := New(&cfg, sub, r.client).Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sub, report, nil
}
