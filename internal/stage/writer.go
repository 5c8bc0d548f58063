package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/mboersen/revisor/internal/llm"
	"github.com/mboersen/revisor/internal/model"
)

// Writer drafts rewritten text for paragraphs that have none yet, or whose
// draft is still identical to the source. It runs once per revision, before
// the iteration loop.
type Writer struct {
	client     *llm.Client
	rewriteAll bool
}

// NewWriter creates the writer stage.
func NewWriter(client *llm.Client, rewriteAll bool) *Writer {
	return &Writer{client: client, rewriteAll: rewriteAll}
}

// NeedsWrite reports whether a paragraph still needs a first draft.
func (w *Writer) NeedsWrite(p *model.Paragraph) bool {
	if w.rewriteAll {
		return true
	}
	return p.Rewritten == "" || p.Rewritten == p.Original
}

type patchEnvelope struct {
	Patches []model.Patch `json:"patches"`
}

// Run requests drafts for the needed subset of one section. It never emits
// a patch for an id outside the requested set, and drops patches carrying
// the forbidden control character.
func (w *Writer) Run(ctx context.Context, sec *model.Section) ([]model.Patch, error) {
	var ids []string
	for _, p := range sec.Paragraphs {
		if w.NeedsWrite(p) {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	prompt := BuildWriterPrompt(sec, ids)
	env, err := completeJSON[patchEnvelope](ctx, w.client, "write", sec.Key, prompt)
	if err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}

	var out []model.Patch
	for _, patch := range env.Patches {
		if !requested[patch.ParagraphID] {
			continue
		}
		if strings.ContainsRune(patch.Rewritten, model.ForbiddenRune) {
			continue
		}
		if strings.TrimSpace(patch.Rewritten) == "" {
			continue
		}
		out = append(out, patch)
	}
	return out, nil
}

// completeJSON runs one stage call and decodes the salvaged JSON answer.
// A malformed answer gets one stricter in-band follow-up before the stage
// invocation fails, naming the stage and section.
func completeJSON[T any](ctx context.Context, client *llm.Client, stageName string, key model.SectionKey, prompt string) (T, error) {
	var out T

	req := llm.CompletionRequest{
		System:      systemPreamble,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: 0.3,
	}
	text, err := client.CompleteStage(ctx, stageName, req)
	if err != nil {
		return out, err
	}
	if llm.Unmarshal(text, &out) == nil {
		return out, nil
	}

	// In-band retry: keep the malformed answer in the conversation and
	// demand strict JSON.
	req.Messages = append(req.Messages,
		llm.Message{Role: llm.RoleAssistant, Content: text},
		llm.Message{Role: llm.RoleUser, Content: strictFollowUp},
	)
	text, err = client.CompleteStage(ctx, stageName, req)
	if err != nil {
		return out, err
	}
	if err := llm.Unmarshal(text, &out); err != nil {
		return out, fmt.Errorf("%s stage, section %s: unusable model response: %w", stageName, key, err)
	}
	return out, nil
}
