package probe

import "strings"

// TextVerdict is how a classifier reads answer text that carried no capability.
type TextVerdict int

const (
	// VerdictBlank: empty or whitespace-only text.
	VerdictBlank TextVerdict = iota
	// VerdictRefused: the model said it cannot use the capability.
	VerdictRefused
	// VerdictIgnored: the model answered without using the capability.
	VerdictIgnored
)

func (v TextVerdict) String() string {
	switch v {
	case VerdictBlank:
		return "blank"
	case VerdictRefused:
		return "refused"
	default:
		return "ignored"
	}
}

// Classifier interprets response text and error detail.
type Classifier interface {
	ClassifyText(text string) TextVerdict
	// ErrorImpliesUnsupported reports whether an error message names the
	// capability as unsupported. Informational only.
	ErrorImpliesUnsupported(detail string) bool
}

// PhraseClassifier matches case-insensitive substrings.
type PhraseClassifier struct {
	refusals []string
	keywords []string
}

// NewPhraseClassifier lowercases and keeps the non-blank phrases.
func NewPhraseClassifier(refusalPhrases, errorKeywords []string) *PhraseClassifier {
	return &PhraseClassifier{refusals: normalize(refusalPhrases), keywords: normalize(errorKeywords)}
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *PhraseClassifier) ClassifyText(text string) TextVerdict {
	if strings.TrimSpace(text) == "" {
		return VerdictBlank
	}
	if containsAny(strings.ToLower(text), c.refusals) {
		return VerdictRefused
	}
	return VerdictIgnored
}

func (c *PhraseClassifier) ErrorImpliesUnsupported(detail string) bool {
	return containsAny(strings.ToLower(detail), c.keywords)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
