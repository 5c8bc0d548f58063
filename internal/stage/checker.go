package stage

import (
	"context"
	"strings"

	"github.com/mboersen/revisor/internal/lint"
	"github.com/mboersen/revisor/internal/llm"
	"github.com/mboersen/revisor/internal/model"
)

// Checker asks the model to critique a section and turns the free-form
// answer into a deterministic critique. The emitted score is never trusted:
// it is recomputed from the issues that survive the evidence-grounding
// filter, which is the core anti-hallucination defense of the pipeline.
type Checker struct {
	client  *llm.Client
	weights model.ScoringConfig
}

// NewChecker creates the checker stage.
func NewChecker(client *llm.Client, weights model.ScoringConfig) *Checker {
	return &Checker{client: client, weights: weights}
}

type rawCritique struct {
	Score  int        `json:"score"`
	Issues []rawIssue `json:"issues"`
}

type rawIssue struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	ParagraphID string `json:"paragraph_id"`
	Category    string `json:"category"`
	Message     string `json:"message"`
	Evidence    string `json:"evidence"`
}

// Run critiques one section and returns the accepted critique.
func (c *Checker) Run(ctx context.Context, sec *model.Section) (model.Critique, error) {
	prompt := BuildCheckerPrompt(sec)
	raw, err := completeJSON[rawCritique](ctx, c.client, "check", sec.Key, prompt)
	if err != nil {
		return model.Critique{}, err
	}

	issues := c.filterIssues(sec, raw.Issues)
	return model.Critique{
		Score:  model.ComputeScore(issues, c.weights),
		Issues: issues,
	}, nil
}

// filterIssues validates every field of every returned issue against the
// allowed value set before use. Ungrounded issues are dropped silently:
// a false positive would steer repair at text that is not broken, which is
// worse than missing a real issue.
func (c *Checker) filterIssues(sec *model.Section, raw []rawIssue) []model.Issue {
	var out []model.Issue
	for _, ri := range raw {
		severity := model.IssueSeverity(strings.ToLower(strings.TrimSpace(ri.Severity)))
		if !severity.Valid() {
			continue
		}

		var target *model.Paragraph
		if ri.ParagraphID != "" {
			target = sec.Paragraph(ri.ParagraphID)
			if target == nil {
				// Unknown id: the model invented a paragraph.
				continue
			}
		}

		category := model.IssueCategory(strings.ToLower(strings.TrimSpace(ri.Category)))

		if !evidenceGrounded(sec, target, category, ri.Evidence) {
			continue
		}

		if category == model.CategoryListParity && !parityClaimHolds(sec, target) {
			// The model claimed an item-count mismatch that the text
			// does not show.
			continue
		}

		out = append(out, model.Issue{
			ID:          ri.ID,
			Severity:    severity,
			ParagraphID: ri.ParagraphID,
			Category:    category,
			Message:     ri.Message,
			Evidence:    ri.Evidence,
		})
	}
	return out
}

// evidenceGrounded verifies the literal-quote contract. Evidence must be a
// non-empty substring of the cited paragraph's rewritten text; quoting only
// the original is allowed solely for meaning-lost issues, where the missing
// content by definition is not in the rewrite.
func evidenceGrounded(sec *model.Section, target *model.Paragraph, category model.IssueCategory, evidence string) bool {
	evidence = strings.TrimSpace(evidence)
	if evidence == "" {
		return false
	}

	paragraphs := sec.Paragraphs
	if target != nil {
		paragraphs = []*model.Paragraph{target}
	}

	for _, p := range paragraphs {
		if strings.Contains(p.Rewritten, evidence) {
			return true
		}
		if category == model.CategoryMeaningLost && strings.Contains(p.Original, evidence) {
			return true
		}
	}
	return false
}

// parityClaimHolds independently re-verifies an item-count claim against
// the paragraph text.
func parityClaimHolds(sec *model.Section, target *model.Paragraph) bool {
	paragraphs := sec.Paragraphs
	if target != nil {
		paragraphs = []*model.Paragraph{target}
	}
	for _, p := range paragraphs {
		if p.Role != model.RoleBullet {
			continue
		}
		orig := lint.SplitItems(p.Original)
		if len(orig) < 2 || p.Rewritten == "" {
			continue
		}
		if len(lint.SplitItems(p.Rewritten)) != len(orig) {
			return true
		}
	}
	return false
}
