package llm

import (
	"context"
	"testing"
	"time"

	"github.com/mboersen/revisor/internal/cache"
	"github.com/mboersen/revisor/internal/model"
)

// scriptedProvider replays canned responses and counts calls.
type scriptedProvider struct {
	name      string
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *scriptedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return &CompletionResponse{Text: p.responses[i], Model: req.Model}, nil
}

func testLLMConfig() model.LLMConfig {
	return model.LLMConfig{
		Write:      model.StageLLM{Provider: "openai", Model: "test-model"},
		MaxRetries: 4,
		RatePerSec: 1000,
		RateBurst:  1000,
	}
}

func TestClient_CompleteStage(t *testing.T) {
	prov := &scriptedProvider{name: "openai", responses: []string{"antwoord"}}
	client := NewClient(testLLMConfig(), nil).WithProvider("openai", prov)

	got, err := client.CompleteStage(context.Background(), "write", CompletionRequest{
		System:   "systeem",
		Messages: []Message{{Role: RoleUser, Content: "vraag"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "antwoord" {
		t.Errorf("expected antwoord, got %q", got)
	}
}

func TestClient_RetriesTransientErrors(t *testing.T) {
	prov := &scriptedProvider{
		name:      "openai",
		responses: []string{"", "", "derde keer goed"},
		errs:      []error{&HTTPError{Status: 503}, &HTTPError{Status: 429}, nil},
	}
	client := NewClient(testLLMConfig(), nil).WithProvider("openai", prov)

	got, err := client.CompleteStage(context.Background(), "check", CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "vraag"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "derde keer goed" {
		t.Errorf("expected the third response, got %q", got)
	}
	if prov.calls != 3 {
		t.Errorf("expected 3 provider calls, got %d", prov.calls)
	}
}

func TestClient_FatalErrorNotRetried(t *testing.T) {
	prov := &scriptedProvider{
		name: "openai",
		errs: []error{&HTTPError{Status: 401}},
	}
	client := NewClient(testLLMConfig(), nil).WithProvider("openai", prov)

	_, err := client.CompleteStage(context.Background(), "write", CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "vraag"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if prov.calls != 1 {
		t.Errorf("auth failure must not be retried, got %d calls", prov.calls)
	}
}

func TestClient_CacheHitSkipsProvider(t *testing.T) {
	prov := &scriptedProvider{name: "openai", responses: []string{"gecached"}}
	client := NewClient(testLLMConfig(), cache.NewMemoryCache(time.Minute, time.Minute)).
		WithProvider("openai", prov)

	req := CompletionRequest{
		System:   "systeem",
		Messages: []Message{{Role: RoleUser, Content: "zelfde vraag"}},
	}

	for i := 0; i < 2; i++ {
		got, err := client.CompleteStage(context.Background(), "write", req)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if got != "gecached" {
			t.Errorf("call %d: expected cached answer, got %q", i, got)
		}
	}
	if prov.calls != 1 {
		t.Errorf("expected 1 provider call with a warm cache, got %d", prov.calls)
	}

	// A different prompt misses.
	req.Messages[0].Content = "andere vraag"
	if _, err := client.CompleteStage(context.Background(), "write", req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prov.calls != 2 {
		t.Errorf("expected a cache miss for a changed prompt, got %d calls", prov.calls)
	}
}

func TestClient_StageFallsBackToWriteConfig(t *testing.T) {
	cfg := testLLMConfig()
	// No check-stage override configured.
	sel := cfg.StageFor("check")
	if sel.Provider != "openai" || sel.Model != "test-model" {
		t.Errorf("expected fallback to the write stage, got %+v", sel)
	}

	cfg.Check = model.StageLLM{Provider: "anthropic", Model: "claude-sonnet-4-5"}
	sel = cfg.StageFor("check")
	if sel.Provider != "anthropic" || sel.Model != "claude-sonnet-4-5" {
		t.Errorf("expected the check override, got %+v", sel)
	}
}

func TestCanonicalProvider(t *testing.T) {
	if got := CanonicalProvider("Claude"); got != "anthropic" {
		t.Errorf("expected anthropic, got %q", got)
	}
	if got := CanonicalProvider("OpenAI"); got != "openai" {
		t.Errorf("expected openai, got %q", got)
	}
}
