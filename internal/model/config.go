package model

import "time"

// Config is the complete runtime configuration, assembled once at the CLI
// edge and passed into the orchestrator. Nothing below the CLI reads the
// environment or viper directly.
type Config struct {
	Revise  ReviseConfig  `yaml:"revise" json:"revise"`
	Scoring ScoringConfig `yaml:"scoring" json:"scoring"`
	Lint    LintConfig    `yaml:"lint" json:"lint"`
	LLM     LLMConfig     `yaml:"llm" json:"llm"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Workers WorkerConfig  `yaml:"workers" json:"workers"`
	Output  OutputConfig  `yaml:"output" json:"output"`
}

// ReviseConfig controls the iteration loop.
type ReviseConfig struct {
	MaxIterations  int  `yaml:"max_iterations" json:"max_iterations"`   // Loop budget before POST_CHECK
	TargetScore    int  `yaml:"target_score" json:"target_score"`       // Minimum section score for convergence
	EarlyStopScore int  `yaml:"early_stop_score" json:"early_stop_score"` // Exit early when min score reaches this with zero lint errors
	Patience       int  `yaml:"patience" json:"patience"`               // Consecutive non-improving iterations before giving up
	Strict         bool `yaml:"strict" json:"strict"`                   // Require zero criticals instead of the score target
	RewriteAll     bool `yaml:"rewrite_all" json:"rewrite_all"`         // Writer pass covers every paragraph, not just gaps

	Chapter     int `yaml:"chapter" json:"chapter"`           // Scope filter, 0 = all chapters
	BudgetWords int `yaml:"budget_words" json:"budget_words"` // Approximate sampling budget, 0 = unlimited
}

// ScoringConfig holds the deterministic score weights. Only the [0,100]
// clamp and monotonicity are contractual; the weights are policy.
type ScoringConfig struct {
	CriticalPenalty int `yaml:"critical_penalty" json:"critical_penalty"`
	WarningPenalty  int `yaml:"warning_penalty" json:"warning_penalty"`
}

// LintConfig controls the optional stricter lint rules.
type LintConfig struct {
	StrictBullets   bool `yaml:"strict_bullets" json:"strict_bullets"`     // Enforce the bullet-quality rule
	BulletWordLimit int  `yaml:"bullet_word_limit" json:"bullet_word_limit"` // Word ceiling per list item
}

// LLMConfig selects provider and model per stage. Check and Repair fall
// back to Write when left empty.
type LLMConfig struct {
	Write  StageLLM `yaml:"write" json:"write"`
	Check  StageLLM `yaml:"check" json:"check"`
	Repair StageLLM `yaml:"repair" json:"repair"`

	APIKeys    map[string]string `yaml:"-" json:"-"` // Provider → key, from environment at the CLI edge, never serialized
	BaseURL    string        `yaml:"base_url" json:"base_url,omitempty"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxTokens  int           `yaml:"max_tokens" json:"max_tokens"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	RatePerSec float64       `yaml:"rate_per_sec" json:"rate_per_sec"` // Per-provider request rate
	RateBurst  int           `yaml:"rate_burst" json:"rate_burst"`
}

// StageLLM is one stage's provider+model choice.
type StageLLM struct {
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
}

// CacheConfig controls the LLM response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Dir     string        `yaml:"dir" json:"dir"` // Empty = memory only
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// WorkerConfig bounds chapter-level parallelism.
type WorkerConfig struct {
	Chapters int `yaml:"chapters" json:"chapters"` // Concurrent chapter slots
}

// OutputConfig controls operator-facing output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults. The CLI overlays config file,
// environment, and flags on top of this.
func DefaultConfig() *Config {
	return &Config{
		Revise: ReviseConfig{
			MaxIterations:  4,
			TargetScore:    85,
			EarlyStopScore: 95,
			Patience:       2,
		},
		Scoring: ScoringConfig{
			CriticalPenalty: 30,
			WarningPenalty:  5,
		},
		Lint: LintConfig{
			StrictBullets:   false,
			BulletWordLimit: 12,
		},
		LLM: LLMConfig{
			Write:      StageLLM{Provider: "openai", Model: "gpt-4o-mini"},
			Timeout:    2 * time.Minute,
			MaxTokens:  4000,
			MaxRetries: 4,
			RatePerSec: 2,
			RateBurst:  4,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Workers: WorkerConfig{
			Chapters: 2,
		},
	}
}

// StageFor returns the provider+model for a stage, falling back to the
// write stage when the stage-specific choice is empty.
func (c LLMConfig) StageFor(stage string) StageLLM {
	var s StageLLM
	switch stage {
	case "check":
		s = c.Check
	case "repair":
		s = c.Repair
	default:
		s = c.Write
	}
	if s.Provider == "" {
		s.Provider = c.Write.Provider
	}
	if s.Model == "" {
		s.Model = c.Write.Model
	}
	return s
}
