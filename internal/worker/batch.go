package worker

import (
	"context"
	"sort"

	"github.com/mboersen/revisor/internal/model"
	"github.com/mboersen/revisor/internal/store"
)

// Reviser revises one chapter and returns the mutated paragraph copy plus
// the run report for that chapter.
type Reviser interface {
	ReviseChapter(ctx context.Context, chapter int) (*store.Store, *model.RunReport, error)
}

// ChapterJob revises a single chapter.
type ChapterJob struct {
	Chapter int
	Reviser Reviser
}

// Execute runs the chapter revision.
func (j *ChapterJob) Execute(ctx context.Context) Result {
	st, report, err := j.Reviser.ReviseChapter(ctx, j.Chapter)
	return &ChapterResult{
		Chapter: j.Chapter,
		Store:   st,
		Report:  report,
		Error:   err,
	}
}

// ChapterResult is the outcome of one chapter revision.
type ChapterResult struct {
	Chapter int
	Store   *store.Store
	Report  *model.RunReport
	Error   error
}

// GetError returns the error from the chapter result.
func (r *ChapterResult) GetError() error {
	return r.Error
}

// BatchRunner revises multiple chapters concurrently.
type BatchRunner struct {
	reviser     Reviser
	concurrency int
}

// NewBatchRunner creates a batch runner with the given concurrency.
func NewBatchRunner(reviser Reviser, concurrency int) *BatchRunner {
	return &BatchRunner{
		reviser:     reviser,
		concurrency: concurrency,
	}
}

// ReviseChapters revises the given chapters concurrently and returns the
// results ordered by chapter number, so merging back into the full record
// set is deterministic regardless of scheduling.
func (b *BatchRunner) ReviseChapters(ctx context.Context, chapters []int) []*ChapterResult {
	if len(chapters) == 0 {
		return []*ChapterResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, ch := range chapters {
		pool.Submit(&ChapterJob{Chapter: ch, Reviser: b.reviser})
	}

	results := pool.Wait()
	close(done)

	out := make([]*ChapterResult, 0, len(results))
	for _, result := range results {
		out = append(out, result.(*ChapterResult))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chapter < out[j].Chapter })
	return out
}
