package llm

import (
	"context"
	"strings"
	"time"

	"github.com/mboersen/revisor/internal/model"
)

// Provider defines the interface for text-generation providers.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a system instruction plus role-tagged messages and
	// returns the raw response text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Role tags a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains the input for one generation call.
type CompletionRequest struct {
	// System is the system instruction
	System string

	// Messages is the conversation, oldest first
	Messages []Message

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling (0 = provider default handling)
	Temperature float32
}

// CompletionResponse contains the raw model output.
type CompletionResponse struct {
	// Text is the raw response text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int
}

// ConfigForStage builds a provider config for one pipeline stage from the
// runtime configuration.
func ConfigForStage(cfg model.LLMConfig, stage string) Config {
	sel := cfg.StageFor(stage)
	return Config{
		Provider:  sel.Provider,
		Model:     sel.Model,
		APIKey:    cfg.APIKeys[CanonicalProvider(sel.Provider)],
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}

// CanonicalProvider normalizes provider aliases, so credentials and rate
// limiters keyed by provider never split across spellings.
func CanonicalProvider(name string) string {
	name = strings.ToLower(name)
	if name == "claude" {
		name = "anthropic"
	}
	return name
}
