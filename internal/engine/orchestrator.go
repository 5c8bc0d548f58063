package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mboersen/revisor/internal/fix"
	"github.com/mboersen/revisor/internal/lint"
	"github.com/mboersen/revisor/internal/llm"
	"github.com/mboersen/revisor/internal/model"
	"github.com/mboersen/revisor/internal/stage"
	"github.com/mboersen/revisor/internal/store"
)

// Orchestrator drives one scope (a chapter, or the whole book) through the
// revision state machine:
//
//	INIT → WRITE → (VALIDATE → CHECK → CHECKPOINT → REPAIR)* → POST_CHECK → DONE
//
// The writer fills gaps once; the loop then alternates deterministic
// normalization/validation with model critique and repair until a stop
// condition holds or the iteration budget runs out.
type Orchestrator struct {
	cfg      *model.Config
	st       *store.Store
	linter   *lint.Linter
	fixer    *fix.Fixer
	writer   *stage.Writer
	checker  *stage.Checker
	repairer *stage.Repairer
}

// New wires an orchestrator from the runtime configuration. The client
// carries retry, rate limiting, and caching for all three stages.
func New(cfg *model.Config, st *store.Store, client *llm.Client) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		st:       st,
		linter:   lint.New(cfg.Lint),
		fixer:    fix.New(),
		writer:   stage.NewWriter(client, cfg.Revise.RewriteAll),
		checker:  stage.NewChecker(client, cfg.Scoring),
		repairer: stage.NewRepairer(client),
	}
}

// Run executes the full revision for the configured scope and returns the
// run report. The paragraph store is mutated in place; original text is
// never touched.
func (o *Orchestrator) Run(ctx context.Context) (*model.RunReport, error) {
	scope := store.Scope{Chapter: o.cfg.Revise.Chapter, BudgetWords: o.cfg.Revise.BudgetWords}
	sections := o.st.Sections(scope)

	report := &model.RunReport{
		StartedAt: time.Now().UTC(),
		Chapter:   o.cfg.Revise.Chapter,
	}
	if len(sections) == 0 {
		report.Termination = model.StopConverged
		report.FinalScore = 100
		report.FinishedAt = time.Now().UTC()
		return report, nil
	}

	checkpoints := NewController()

	// WRITE: one pass that drafts missing rewrites.
	for _, sec := range sections {
		patches, err := o.writer.Run(ctx, sec)
		if err != nil {
			return nil, fmt.Errorf("write pass, section %s: %w", sec.Key, err)
		}
		o.applyPatches(patches)
	}

	var reason model.StopReason
	maxIter := o.cfg.Revise.MaxIterations
	if maxIter <= 0 {
		maxIter = 1
	}

	for iteration := 1; iteration <= maxIter; iteration++ {
		stat, flagged, err := o.validateAndCheck(ctx, iteration, sections, checkpoints)
		if err != nil {
			return nil, err
		}

		reason = o.stopReason(report, stat)
		if reason != "" {
			report.Append(stat)
			break
		}

		// REPAIR: patch flagged sections. A failing section halts its own
		// scope but must not corrupt sections already checkpointed.
		for _, sec := range sections {
			issues := flagged[sec.Key]
			if len(issues) == 0 {
				continue
			}
			patches, err := o.repairer.Run(ctx, sec, issues)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: repair failed for section %s: %v\n", sec.Key, err)
				continue
			}
			stat.PatchedCount += o.applyPatches(patches)
		}
		report.Append(stat)
	}

	// POST_CHECK: when the budget ran out mid-loop, re-validate the final
	// mutated state so the report reflects reality, not a stale snapshot.
	if reason == "" {
		reason = model.StopBudget
		stat, _, err := o.validateAndCheck(ctx, maxIter+1, sections, checkpoints)
		if err != nil {
			return nil, err
		}
		report.Append(stat)
		report.LintErrors = stat.LintErrors
	}

	// DONE: revert anything that regressed since its best checkpoint.
	report.Restorations = checkpoints.Restore(o.st, sections)
	report.Termination = reason
	report.FinalScore = checkpoints.MinScore(sections)
	report.SectionsTotal = len(sections)
	for _, sec := range sections {
		if best := checkpoints.Best(sec.Key); best != nil && best.Score < o.cfg.Revise.TargetScore {
			report.SectionsFailed++
		}
	}
	if last := len(report.Iterations); last > 0 {
		report.LintErrors = report.Iterations[last-1].LintErrors
	}
	report.FinishedAt = time.Now().UTC()
	return report, nil
}

// validateAndCheck is one VALIDATE → CHECK → CHECKPOINT step: normalize,
// lint, critique every section, feed the checkpoint controller, and build
// the iteration stat plus the per-section issue lists for repair.
func (o *Orchestrator) validateAndCheck(ctx context.Context, iteration int, sections []*model.Section, checkpoints *Controller) (model.IterationStat, map[model.SectionKey][]model.Issue, error) {
	o.fixer.All(sections)
	violations := o.linter.CheckAll(sections)

	flagged := make(map[model.SectionKey][]model.Issue)

	// Deterministic findings are trusted as-is and routed into repair
	// alongside the model critique.
	byParagraph := make(map[string][]model.Issue)
	for _, v := range violations {
		byParagraph[v.ParagraphID] = append(byParagraph[v.ParagraphID], lintIssue(v))
	}

	stat := model.IterationStat{Iteration: iteration, LintErrors: len(violations), MinScore: 100}
	scoreSum := 0

	for _, sec := range sections {
		critique, err := o.checker.Run(ctx, sec)
		if err != nil {
			return stat, nil, fmt.Errorf("check pass, section %s: %w", sec.Key, err)
		}

		issues := critique.Issues
		secLint := 0
		for _, p := range sec.Paragraphs {
			issues = append(issues, byParagraph[p.ID]...)
			secLint += len(byParagraph[p.ID])
		}
		if len(issues) > 0 {
			flagged[sec.Key] = issues
			stat.FlaggedCount++
		}

		checkpoints.Observe(sec, critique, secLint)
		stat.Criticals += critique.CriticalCount()
		scoreSum += critique.Score
		if critique.Score < stat.MinScore {
			stat.MinScore = critique.Score
		}
	}
	stat.MeanScore = scoreSum / len(sections)

	o.logf("✓ Iteration %d: %d lint errors, min score %d, %d flagged sections\n",
		iteration, stat.LintErrors, stat.MinScore, stat.FlaggedCount)
	return stat, flagged, nil
}

// stopReason evaluates the loop exits after a CHECK step. Empty means keep
// iterating.
func (o *Orchestrator) stopReason(report *model.RunReport, stat model.IterationStat) model.StopReason {
	rc := o.cfg.Revise

	if stat.LintErrors == 0 {
		if stat.MinScore >= rc.EarlyStopScore {
			return model.StopEarlyScore
		}
		converged := stat.MinScore >= rc.TargetScore
		if rc.Strict {
			converged = stat.Criticals == 0
		}
		if converged {
			return model.StopConverged
		}
	}

	// No improvement across the patience window.
	if rc.Patience > 0 {
		recent := append(report.LastMinScores(rc.Patience), stat.MinScore)
		if len(recent) > rc.Patience {
			improved := false
			for i := 1; i < len(recent); i++ {
				if recent[i] > recent[0] {
					improved = true
					break
				}
			}
			if !improved {
				return model.StopNoImprovement
			}
		}
	}
	return ""
}

// lintIssue converts a deterministic violation into a repair-stage issue.
// Deterministic findings carry no quote; they are not model claims and
// bypass the grounding filter.
func lintIssue(v lint.Violation) model.Issue {
	category := model.CategoryStructure
	if v.Rule == lint.RuleListParity {
		category = model.CategoryListParity
	}
	return model.Issue{
		ID:          "lint:" + string(v.Rule),
		Severity:    model.SeverityCritical,
		ParagraphID: v.ParagraphID,
		Category:    category,
		Message:     v.Message,
	}
}

func (o *Orchestrator) applyPatches(patches []model.Patch) int {
	applied := 0
	for _, patch := range patches {
		if err := o.st.Apply(patch); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: patch rejected: %v\n", err)
			continue
		}
		applied++
	}
	return applied
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
