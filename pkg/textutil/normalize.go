package textutil

import (
	"strings"
	"unicode"
)

// Normalizer cleans model output so only text in the target script is shown
type Normalizer interface {
	Normalize(text string) string
}

type normalizer struct {
	script *unicode.RangeTable
}

type identity struct{}

// NewNormalizer func - Creates a normalizer for the given unicode script name (e.g. "Cyrillic").
// The second result is false when the name is unknown and Cyrillic was used instead.
func NewNormalizer(scriptName string) (Normalizer, bool) {
	script, ok := unicode.Scripts[scriptName]
	if !ok {
		return &normalizer{script: unicode.Cyrillic}, false
	}
	return &normalizer{script: script}, true
}

// NewIdentity func - Creates a normalizer that returns text unchanged
func NewIdentity() Normalizer {
	return identity{}
}

func (identity) Normalize(text string) string {
	return text
}

// Normalize strips any preface before the first target-script letter, then keeps only
// sentences that start with an uppercase target-script letter
func (n *normalizer) Normalize(text string) string {
	return n.FilterSentences(n.StripPreface(text))
}

// StripPreface drops everything before the first rune of the target script.
// Text without such a rune is returned unchanged.
func (n *normalizer) StripPreface(text string) string {
	idx := strings.IndexFunc(text, func(r rune) bool {
		return unicode.Is(n.script, r)
	})
	if idx < 0 {
		return text
	}
	return text[idx:]
}

// FilterSentences keeps the sentences whose first non-space rune is an uppercase
// target-script letter and joins them with single spaces. When no sentence
// survives the trimmed input is returned instead of an empty string.
func (n *normalizer) FilterSentences(text string) string {
	kept := make([]string, 0)
	for _, sentence := range SplitSentences(text) {
		first := []rune(sentence)[0]
		if unicode.IsUpper(first) && unicode.Is(n.script, first) {
			kept = append(kept, sentence)
		}
	}
	if len(kept) == 0 {
		return strings.TrimSpace(text)
	}
	return strings.Join(kept, " ")
}

// SplitSentences splits text after runs of '.', '!' or '?' that are followed by
// whitespace or the end of text. Terminal punctuation stays attached to its
// sentence; surrounding whitespace is dropped and blank sentences are skipped.
func SplitSentences(text string) []string {
	runes := []rune(text)
	sentences := make([]string, 0)
	start := 0

	emit := func(end int) {
		sentence := strings.TrimSpace(string(runes[start:end]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		// Consume the whole punctuation run, e.g. "?!" or "..."
		end := i + 1
		for end < len(runes) && isTerminal(runes[end]) {
			end++
		}
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			i = end - 1
			continue
		}
		emit(end)
		start = end
		i = end - 1
	}
	if start < len(runes) {
		emit(len(runes))
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
