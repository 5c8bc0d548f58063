package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/mboersen/revisor/internal/model"
	"github.com/mboersen/revisor/internal/store"
)

// fakeReviser records which chapters it saw and fails the configured ones.
type fakeReviser struct {
	calls       int32
	failChapter int
}

func (r *fakeReviser) ReviseChapter(ctx context.Context, chapter int) (*store.Store, *model.RunReport, error) {
	atomic.AddInt32(&r.calls, 1)
	if chapter == r.failChapter {
		return nil, nil, fmt.Errorf("chapter %d broke", chapter)
	}
	st, err := store.New([]*model.Paragraph{{
		ID:      fmt.Sprintf("p%d", chapter),
		Chapter: chapter, Number: 1, Role: model.RoleBody,
		Original: "tekst", Rewritten: fmt.Sprintf("herzien %d", chapter),
	}})
	if err != nil {
		return nil, nil, err
	}
	return st, &model.RunReport{Chapter: chapter, Termination: model.StopConverged}, nil
}

func TestBatchRunner_ResultsOrderedByChapter(t *testing.T) {
	reviser := &fakeReviser{}
	runner := NewBatchRunner(reviser, 4)

	chapters := []int{5, 1, 3, 2, 4}
	results := runner.ReviseChapters(context.Background(), chapters)

	if len(results) != len(chapters) {
		t.Fatalf("expected %d results, got %d", len(chapters), len(results))
	}
	for i, res := range results {
		if res.Chapter != i+1 {
			t.Errorf("result %d: expected chapter %d, got %d", i, i+1, res.Chapter)
		}
		if res.Error != nil {
			t.Errorf("chapter %d: unexpected error: %v", res.Chapter, res.Error)
		}
		if res.Report == nil || res.Report.Chapter != res.Chapter {
			t.Errorf("chapter %d: report missing or mislabeled", res.Chapter)
		}
	}
	if got := atomic.LoadInt32(&reviser.calls); got != int32(len(chapters)) {
		t.Errorf("expected %d reviser calls, got %d", len(chapters), got)
	}
}

func TestBatchRunner_FailedChapterDoesNotPoisonOthers(t *testing.T) {
	reviser := &fakeReviser{failChapter: 2}
	runner := NewBatchRunner(reviser, 2)

	results := runner.ReviseChapters(context.Background(), []int{1, 2, 3})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	failures := 0
	for _, res := range results {
		if res.GetError() != nil {
			failures++
			if res.Chapter != 2 {
				t.Errorf("unexpected failure on chapter %d", res.Chapter)
			}
		} else if res.Store == nil {
			t.Errorf("chapter %d: missing revised store", res.Chapter)
		}
	}
	if failures != 1 {
		t.Errorf("expected exactly 1 failure, got %d", failures)
	}
}

func TestBatchRunner_EmptyChapterList(t *testing.T) {
	runner := NewBatchRunner(&fakeReviser{}, 2)
	results := runner.ReviseChapters(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
