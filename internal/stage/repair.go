package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/mboersen/revisor/internal/lint"
	"github.com/mboersen/revisor/internal/llm"
	"github.com/mboersen/revisor/internal/model"
)

// listRepairAttempts bounds the re-requests for the item-count sub-routine.
const listRepairAttempts = 3

// Repairer asks the model for minimal patches resolving an accepted issue
// list. The highest-frequency defect, lost list parity, has a dedicated
// sub-routine that re-requests exactly the broken paragraph with an
// explicit required item count and rejects wrong-count answers.
type Repairer struct {
	client *llm.Client
}

// NewRepairer creates the repair stage.
func NewRepairer(client *llm.Client) *Repairer {
	return &Repairer{client: client}
}

// Run produces patches for one section. Parity issues go through the
// dedicated sub-routine; everything else goes through one minimal-patch
// request.
func (r *Repairer) Run(ctx context.Context, sec *model.Section, issues []model.Issue) ([]model.Patch, error) {
	if len(issues) == 0 {
		return nil, nil
	}

	var out []model.Patch
	var general []model.Issue
	parityDone := make(map[string]bool)

	for _, is := range issues {
		if is.Category == model.CategoryListParity && is.ParagraphID != "" {
			if parityDone[is.ParagraphID] {
				continue
			}
			parityDone[is.ParagraphID] = true
			p := sec.Paragraph(is.ParagraphID)
			if p == nil {
				continue
			}
			patch, err := r.repairList(ctx, sec.Key, p)
			if err != nil {
				return nil, err
			}
			out = append(out, patch)
			continue
		}
		general = append(general, is)
	}

	if len(general) > 0 {
		patches, err := r.repairGeneral(ctx, sec, general)
		if err != nil {
			return nil, err
		}
		out = append(out, patches...)
	}
	return out, nil
}

func (r *Repairer) repairGeneral(ctx context.Context, sec *model.Section, issues []model.Issue) ([]model.Patch, error) {
	prompt := BuildRepairPrompt(sec, issues)
	env, err := completeJSON[patchEnvelope](ctx, r.client, "repair", sec.Key, prompt)
	if err != nil {
		return nil, err
	}

	var out []model.Patch
	for _, patch := range env.Patches {
		if sec.Paragraph(patch.ParagraphID) == nil {
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

// repairList re-requests one list paragraph until the item count matches
// the original exactly, up to listRepairAttempts times.
func (r *Repairer) repairList(ctx context.Context, key model.SectionKey, p *model.Paragraph) (model.Patch, error) {
	required := len(lint.SplitItems(p.Original))

	var lastErr error
	for attempt := 0; attempt < listRepairAttempts; attempt++ {
		prompt := BuildListRepairPrompt(p, required)
		patch, err := completeJSON[model.Patch](ctx, r.client, "repair", key, prompt)
		if err != nil {
			return model.Patch{}, err
		}
		if patch.ParagraphID != p.ID {
			lastErr = fmt.Errorf("answer targets %q, want %q", patch.ParagraphID, p.ID)
			continue
		}
		if strings.ContainsRune(patch.Rewritten, model.ForbiddenRune) {
			lastErr = fmt.Errorf("answer contains the paragraph-break character")
			continue
		}
		if got := len(lint.SplitItems(patch.Rewritten)); got != required {
			lastErr = fmt.Errorf("answer has %d items, want %d", got, required)
			continue
		}
		return patch, nil
	}
	return model.Patch{}, fmt.Errorf("repair stage, section %s, paragraph %s: item parity not restored after %d attempts: %w",
		key, p.ID, listRepairAttempts, lastErr)
}
