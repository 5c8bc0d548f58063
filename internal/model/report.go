package model

import "time"

// RunReport is the append-only log of a revision run. It feeds both the
// termination decision and post-hoc auditing, and always reflects the last
// successfully validated state.
type RunReport struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Chapter    int             `json:"chapter,omitempty"` // 0 = all chapters
	Iterations []IterationStat `json:"iterations"`

	FinalScore     int        `json:"final_score"`     // Minimum section score at DONE
	LintErrors     int        `json:"lint_errors"`     // Deterministic errors at DONE
	Termination    StopReason `json:"termination"`     // Why the loop exited
	Restorations   int        `json:"restorations"`    // Paragraphs reverted to a checkpoint
	SectionsTotal  int        `json:"sections_total"`
	SectionsFailed int        `json:"sections_failed"` // Sections below target at DONE
}

// IterationStat is one loop pass worth of statistics.
type IterationStat struct {
	Iteration    int `json:"iteration"`
	LintErrors   int `json:"lint_errors"`
	Criticals    int `json:"criticals"` // Accepted critical issues across all sections
	MinScore     int `json:"min_score"`
	MeanScore    int `json:"mean_score"`
	FlaggedCount int `json:"flagged_count"` // Sections with at least one accepted issue
	PatchedCount int `json:"patched_count"` // Paragraphs patched by repair
}

// StopReason names the exit taken by the orchestrator.
type StopReason string

const (
	StopConverged     StopReason = "converged"      // Lint clean and quality bar met
	StopEarlyScore    StopReason = "early_score"    // Early-stop threshold reached, lint clean
	StopNoImprovement StopReason = "no_improvement" // Minimum score flat for the patience window
	StopBudget        StopReason = "budget"         // Iteration budget exhausted
)

// Append records one iteration. Kept as a method so every write path stays
// append-only.
func (r *RunReport) Append(stat IterationStat) {
	r.Iterations = append(r.Iterations, stat)
}

// LastMinScores returns the minimum scores of the most recent n iterations,
// oldest first. Used by the no-improvement exit.
func (r *RunReport) LastMinScores(n int) []int {
	if n > len(r.Iterations) {
		n = len(r.Iterations)
	}
	out := make([]int, 0, n)
	for _, it := range r.Iterations[len(r.Iterations)-n:] {
		out = append(out, it.MinScore)
	}
	return out
}
