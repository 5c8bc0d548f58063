package fix

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// termPair is one house-terminology substitution. Plural forms get their
// own pair so number is preserved; capitalization is preserved by
// replaceCased.
type termPair struct {
	re          *regexp.Regexp
	replacement string
}

// House terminology for the care-education titles: client words become
// "zorgvrager", nurse words become "zorgprofessional". Plurals before
// singulars so the longer match wins.
var termPairs = []termPair{
	{regexp.MustCompile(`(?i)\bcliënten\b`), "zorgvragers"},
	{regexp.MustCompile(`(?i)\bclienten\b`), "zorgvragers"},
	{regexp.MustCompile(`(?i)\bclients\b`), "zorgvragers"},
	{regexp.MustCompile(`(?i)\bcliënt\b`), "zorgvrager"},
	{regexp.MustCompile(`(?i)\bclient\b`), "zorgvrager"},
	{regexp.MustCompile(`(?i)\bverpleegkundigen\b`), "zorgprofessionals"},
	{regexp.MustCompile(`(?i)\bverpleegkundige\b`), "zorgprofessional"},
}

// ReplaceTerms applies the house-terminology table, keeping the original
// capitalization of each hit.
func ReplaceTerms(text string) string {
	for _, pair := range termPairs {
		text = pair.re.ReplaceAllStringFunc(text, func(match string) string {
			return replaceCased(match, pair.replacement)
		})
	}
	return text
}

// replaceCased copies the leading-capital of the matched word onto the
// replacement.
func replaceCased(match, replacement string) string {
	first, _ := utf8.DecodeRuneInString(match)
	if unicode.IsUpper(first) {
		r, size := utf8.DecodeRuneInString(replacement)
		return string(unicode.ToUpper(r)) + replacement[size:]
	}
	return replacement
}
