package model

// Issue is a single critique finding returned by the checker stage.
// Evidence is mandatory: it must be a literal substring of the paragraph
// text it refers to, and issues that fail that check are dropped before
// they can influence scoring or repair.
type Issue struct {
	ID          string        `json:"id"`                     // Checker-assigned id, unique within a section pass
	Severity    IssueSeverity `json:"severity"`               // critical or warning
	ParagraphID string        `json:"paragraph_id,omitempty"` // Target paragraph, empty for section-level issues
	Category    IssueCategory `json:"category,omitempty"`     // Defect classification
	Message     string        `json:"message"`                // Human-readable description
	Evidence    string        `json:"evidence"`               // Literal quote from the cited text
}

// IssueSeverity is the two-level severity scale used by the deterministic
// score formula.
type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical"
	SeverityWarning  IssueSeverity = "warning"
)

// Valid reports whether the severity is one of the enumerated levels.
// Anything else coming back from a model is rejected, not coerced.
func (s IssueSeverity) Valid() bool {
	return s == SeverityCritical || s == SeverityWarning
}

// IssueCategory classifies the defect an issue reports.
type IssueCategory string

const (
	CategoryMeaningLost  IssueCategory = "meaning_lost"  // Rewrite dropped content present in the original
	CategoryListParity   IssueCategory = "list_parity"   // Item count mismatch in a list paragraph
	CategoryPhrasing     IssueCategory = "phrasing"      // Awkward or malformed phrasing
	CategoryTerminology  IssueCategory = "terminology"   // House terminology violated
	CategoryStructure    IssueCategory = "structure"     // Markers, terminators, layout contract
	CategoryFactualDrift IssueCategory = "factual_drift" // Rewrite asserts something the original does not
)

// Patch is a replacement text for one paragraph, produced by the writer and
// repair stages. It is applied only if the target id exists in the store and
// the text is free of the forbidden control character.
type Patch struct {
	ParagraphID string `json:"paragraph_id"`
	Rewritten   string `json:"rewritten"`
}

// Critique is the checker stage's accepted output for one section: the
// deterministically recomputed score plus the issues that survived the
// evidence-grounding filter.
type Critique struct {
	Score  int     `json:"score"`
	Issues []Issue `json:"issues"`
}

// ComputeScore derives the deterministic section score from an accepted
// issue list: start at 100, subtract the configured penalty per issue,
// clamp to [0,100]. Zero issues always yields 100; the emitted model score
// is never trusted.
func ComputeScore(issues []Issue, w ScoringConfig) int {
	score := 100
	for _, is := range issues {
		switch is.Severity {
		case SeverityCritical:
			score -= w.CriticalPenalty
		case SeverityWarning:
			score -= w.WarningPenalty
		}
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// CriticalCount returns the number of critical issues.
func (c Critique) CriticalCount() int {
	n := 0
	for _, is := range c.Issues {
		if is.Severity == SeverityCritical {
			n++
		}
	}
	return n
}
