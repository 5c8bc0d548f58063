package lint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mboersen/revisor/internal/model"
)

const (
	// doublingWindow is the token distance within which a repeated content
	// word counts as a copy-paste defect.
	doublingWindow = 8

	// staccatoWordMax and staccatoRunMin define the anti-staccato rule:
	// staccatoRunMin or more consecutive sentences of at most
	// staccatoWordMax words each.
	staccatoWordMax = 4
	staccatoRunMin  = 3
)

var (
	sentenceEndRE = regexp.MustCompile(`[.!?](\s|$)`)
	sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)
	tokenRE       = regexp.MustCompile(`[\p{L}\p{N}-]+`)

	// namingRE matches the Dutch naming constructions; two of them in one
	// sentence is the "we call X the Y that we call Z" defect.
	namingRE = regexp.MustCompile(`(?i)\bnoem(?:en|t)?\b|\bheet\b|\bheten\b|\bwordt\s+genoemd\b`)

	// coordinators join the legitimate "noun-or-adjective-noun" pattern
	// ("rode bloedcellen en witte bloedcellen").
	coordinators = map[string]bool{"en": true, "of": true}
)

// stopwords are trivial Dutch function words excluded from the doubling
// check.
var stopwords = map[string]bool{
	"de": true, "het": true, "een": true, "en": true, "of": true,
	"in": true, "op": true, "van": true, "voor": true, "bij": true,
	"aan": true, "met": true, "naar": true, "door": true, "om": true,
	"is": true, "zijn": true, "was": true, "wordt": true, "worden": true,
	"dat": true, "die": true, "dit": true, "deze": true, "er": true,
	"te": true, "als": true, "ook": true, "niet": true, "dan": true,
	"maar": true, "je": true, "ze": true, "we": true, "u": true,
	"zoals": true, "hun": true, "hier": true, "daar": true,
}

// checkWordDoubling flags a sentence that repeats the same non-trivial
// content word within a short token window, with a carve-out for the
// coordination pattern where the repetition is deliberate.
func (l *Linter) checkWordDoubling(p *model.Paragraph) []Violation {
	var out []Violation
	for _, sentence := range splitSentences(p.Rewritten) {
		tokens := tokenize(sentence)
		for i, tok := range tokens {
			if stopwords[tok] || len(tok) < 4 {
				continue
			}
			for j := i + 1; j < len(tokens) && j-i <= doublingWindow; j++ {
				if tokens[j] != tok {
					continue
				}
				if isCoordination(tokens[i+1 : j]) {
					continue
				}
				out = append(out, Violation{
					ParagraphID: p.ID,
					Rule:        RuleWordDoubling,
					Message:     fmt.Sprintf("word %q repeated within %d tokens", tok, j-i),
				})
			}
		}
	}
	return out
}

// isCoordination reports whether the tokens between two occurrences form a
// coordination like "en witte" / "grote of", which makes the repetition
// legitimate.
func isCoordination(between []string) bool {
	if len(between) == 0 || len(between) > 2 {
		return false
	}
	for _, t := range between {
		if coordinators[t] {
			return true
		}
	}
	return false
}

// checkStaccato flags three or more consecutive ultra-short sentences in
// running text. Lists are exempt; short lines are their nature.
func (l *Linter) checkStaccato(p *model.Paragraph) []Violation {
	run := 0
	for _, sentence := range splitSentences(p.Rewritten) {
		if n := wordCount(sentence); n > 0 && n <= staccatoWordMax {
			run++
			if run == staccatoRunMin {
				return []Violation{{
					ParagraphID: p.ID,
					Rule:        RuleStaccato,
					Message:     fmt.Sprintf("%d consecutive sentences of %d words or fewer", staccatoRunMin, staccatoWordMax),
				}}
			}
		} else {
			run = 0
		}
	}
	return nil
}

// checkDoubleNaming flags the redundant double-naming pattern: two naming
// constructions inside a single sentence.
func (l *Linter) checkDoubleNaming(p *model.Paragraph) []Violation {
	for _, sentence := range splitSentences(p.Rewritten) {
		if len(namingRE.FindAllStringIndex(sentence, -1)) >= 2 {
			return []Violation{{
				ParagraphID: p.ID,
				Rule:        RuleDoubleNaming,
				Message:     "sentence names the same thing twice",
			}}
		}
	}
	return nil
}

func splitSentences(text string) []string {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}
	parts := sentenceSplit.Split(t, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func tokenize(sentence string) []string {
	raw := tokenRE.FindAllString(sentence, -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		out = append(out, strings.ToLower(t))
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func countSentenceEnds(s string) int {
	return len(sentenceEndRE.FindAllString(s, -1))
}
