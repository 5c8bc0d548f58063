package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mboersen/revisor/internal/engine"
	"github.com/mboersen/revisor/internal/llm"
	"github.com/mboersen/revisor/internal/model"
	"github.com/mboersen/revisor/internal/records"
	"github.com/mboersen/revisor/internal/store"
	"github.com/mboersen/revisor/internal/worker"
	"github.com/spf13/cobra"
)

var (
	outPath     string
	chapter     int
	budgetWords int
	iterations  int
	targetScore int
	earlyStop   int
	patience    int
	strict      bool
	rewriteAll  bool
	runTimeout  time.Duration
	noCache     bool
	cacheDir    string
	workers     int

	writeProvider  string
	writeModel     string
	checkProvider  string
	checkModel     string
	repairProvider string
	repairModel    string
)

// reviseCmd represents the revise command
var reviseCmd = &cobra.Command{
	Use:   "revise <records.json>",
	Short: "Revise a paragraph record set toward the quality bar",
	Long: `Revise loads a paragraph record set, drafts missing rewrites, then
iterates: normalize and lint deterministically, let the model critique
each section, checkpoint improvements, and repair flagged sections.
The loop exits on convergence, an early-stop score, a flat patience
window, or the iteration budget; after the budget a final re-check runs
so the report reflects the real final state.

Example:
  revisor revise book.json
  revisor revise book.json --chapter 3 --iterations 6 --target 90
  revisor revise book.json --out revised.json --strict --rewrite-all
  revisor revise book.json --check-provider anthropic --check-model claude-sonnet-4-5`,
	Args: cobra.ExactArgs(1),
	RunE: runRevise,
}

func init() {
	rootCmd.AddCommand(reviseCmd)

	// Output flags
	reviseCmd.Flags().StringVar(&outPath, "out", "", "output path (default: overwrite the input)")

	// Scope flags
	reviseCmd.Flags().IntVar(&chapter, "chapter", 0, "revise a single chapter (0 = all)")
	reviseCmd.Flags().IntVar(&budgetWords, "budget-words", 0, "approximate word budget, whole sections (0 = unlimited)")

	// Loop flags
	reviseCmd.Flags().IntVar(&iterations, "iterations", 4, "iteration budget")
	reviseCmd.Flags().IntVar(&targetScore, "target", 85, "minimum section score for convergence")
	reviseCmd.Flags().IntVar(&earlyStop, "early-stop", 95, "score that ends the run early when lint is clean")
	reviseCmd.Flags().IntVar(&patience, "patience", 2, "non-improving iterations before giving up")
	reviseCmd.Flags().BoolVar(&strict, "strict", false, "require zero critical issues instead of the score target")
	reviseCmd.Flags().BoolVar(&rewriteAll, "rewrite-all", false, "redraft every paragraph, not just gaps")
	reviseCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout")

	// Cache and concurrency flags
	reviseCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache")
	reviseCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist cached responses under this directory")
	reviseCmd.Flags().IntVar(&workers, "workers", 2, "concurrent chapter workers (when revising all chapters)")

	// LLM flags
	reviseCmd.Flags().StringVar(&writeProvider, "provider", "openai", "provider for the writer stage (openai, anthropic, ollama)")
	reviseCmd.Flags().StringVar(&writeModel, "model", "gpt-4o-mini", "model for the writer stage")
	reviseCmd.Flags().StringVar(&checkProvider, "check-provider", "", "provider for the checker stage (default: writer's)")
	reviseCmd.Flags().StringVar(&checkModel, "check-model", "", "model for the checker stage (default: writer's)")
	reviseCmd.Flags().StringVar(&repairProvider, "repair-provider", "", "provider for the repair stage (default: writer's)")
	reviseCmd.Flags().StringVar(&repairModel, "repair-model", "", "model for the repair stage (default: writer's)")
}

func runRevise(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	cfg := model.DefaultConfig()
	cfg.Revise.MaxIterations = iterations
	cfg.Revise.TargetScore = targetScore
	cfg.Revise.EarlyStopScore = earlyStop
	cfg.Revise.Patience = patience
	cfg.Revise.Strict = strict
	cfg.Revise.RewriteAll = rewriteAll
	cfg.Revise.Chapter = chapter
	cfg.Revise.BudgetWords = budgetWords
	cfg.Cache.Enabled = !noCache
	cfg.Cache.Dir = cacheDir
	cfg.Workers.Chapters = workers
	cfg.Output.Verbose = verbose

	cfg.LLM.Write = model.StageLLM{Provider: writeProvider, Model: writeModel}
	cfg.LLM.Check = model.StageLLM{Provider: checkProvider, Model: checkModel}
	cfg.LLM.Repair = model.StageLLM{Provider: repairProvider, Model: repairModel}

	if err := resolveCredentials(cfg); err != nil {
		return err
	}

	f, err := records.Load(path)
	if err != nil {
		return err
	}
	st, err := store.New(f.Paragraphs)
	if err != nil {
		return fmt.Errorf("invalid record set: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Records: %s (%d paragraphs, %d chapters)\n", path, st.Len(), len(st.Chapters()))
		fmt.Fprintf(os.Stderr, "Cache: %v\n", !noCache)
		fmt.Fprintln(os.Stderr)
	}

	client := llm.NewClient(cfg.LLM, llm.NewCache(cfg.Cache))

	reports, err := revise(ctx, cfg, st, client)
	if err != nil {
		return fmt.Errorf("revise failed: %w", err)
	}
	f.Reports = append(f.Reports, reports...)

	for _, report := range reports {
		scope := "all chapters"
		if report.Chapter != 0 {
			scope = fmt.Sprintf("chapter %d", report.Chapter)
		}
		fmt.Fprintf(os.Stderr, "✓ %s: %d iterations, final score %d/100, %s (%d restored)\n",
			scope, len(report.Iterations), report.FinalScore, report.Termination, report.Restorations)
	}

	dest := outPath
	if dest == "" {
		dest = path
	}
	if err := records.Save(dest, f); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", dest)
	}
	return nil
}

// revise runs either one scoped pass or one worker per chapter. Chapter
// workers revise private copies; the merge back is keyed by paragraph id.
func revise(ctx context.Context, cfg *model.Config, st *store.Store, client *llm.Client) ([]*model.RunReport, error) {
	if cfg.Revise.Chapter != 0 || cfg.Workers.Chapters <= 1 {
		report, err := engine.New(cfg, st, client).Run(ctx)
		if err != nil {
			return nil, err
		}
		return []*model.RunReport{report}, nil
	}

	reviser := engine.NewChapterReviser(cfg, st, client)
	runner := worker.NewBatchRunner(reviser, cfg.Workers.Chapters)
	results := runner.ReviseChapters(ctx, st.Chapters())

	var reports []*model.RunReport
	var failed int
	for _, res := range results {
		if res.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ chapter %d: %v\n", res.Chapter, res.Error)
			continue
		}
		st.Merge(res.Store)
		reports = append(reports, res.Report)
	}
	if failed == len(results) {
		return nil, fmt.Errorf("all %d chapters failed", failed)
	}
	return reports, nil
}

// resolveCredentials pulls API keys from the environment for every provider
// any stage uses. Nothing below the CLI reads the environment.
func resolveCredentials(cfg *model.Config) error {
	cfg.LLM.APIKeys = make(map[string]string)
	for _, stage := range []string{"write", "check", "repair"} {
		switch llm.CanonicalProvider(cfg.LLM.StageFor(stage).Provider) {
		case "openai":
			key := os.Getenv("OPENAI_API_KEY")
			if key == "" {
				return fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
			cfg.LLM.APIKeys["openai"] = key
		case "anthropic":
			key := os.Getenv("ANTHROPIC_API_KEY")
			if key == "" {
				return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
			cfg.LLM.APIKeys["anthropic"] = key
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}
	return nil
}
