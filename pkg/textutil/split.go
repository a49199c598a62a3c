package textutil

import (
	"strings"
	"unicode"
	"unicode/utf16"
)

// SplitText cuts text into chunks of at most limit runes for platforms with a
// message size cap. Text that fits is returned as a single, unchanged chunk.
//
// Each cut prefers the last newline inside the window, then the last space, and
// falls back to a hard cut at the window end when the boundary would land before
// the window midpoint. Trailing whitespace is trimmed from every chunk and chunks
// that end up empty are dropped.
func SplitText(text string, limit int) []string {
	return splitText(text, limit, runeWidth)
}

// SplitTextUTF16 works like SplitText but measures the limit in UTF-16 code units,
// the unit chat platforms count message length in. Characters outside the Basic
// Multilingual Plane, such as most emoji, count twice.
func SplitTextUTF16(text string, limit int) []string {
	return splitText(text, limit, utf16Width)
}

// UTF16Len returns the length of text in UTF-16 code units
func UTF16Len(text string) int {
	return measure([]rune(text), utf16Width)
}

func runeWidth(rune) int {
	return 1
}

func utf16Width(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	// Invalid runes are sent as U+FFFD
	return 1
}

func measure(runes []rune, width func(rune) int) int {
	total := 0
	for _, r := range runes {
		total += width(r)
	}
	return total
}

func splitText(text string, limit int, width func(rune) int) []string {
	if limit <= 0 || measure([]rune(text), width) <= limit {
		return []string{text}
	}

	segments := splitSegments(text, limit, width)
	chunks := make([]string, 0, len(segments))
	for _, segment := range segments {
		chunk := strings.TrimRightFunc(segment, unicode.IsSpace)
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// splitSegments returns the raw windows splitText trims. Their concatenation
// always equals text.
func splitSegments(text string, limit int, width func(rune) int) []string {
	runes := []rune(text)
	segments := make([]string, 0, len(runes)/limit+1)

	for cursor := 0; cursor < len(runes); {
		end, used := cursor, 0
		for end < len(runes) && used+width(runes[end]) <= limit {
			used += width(runes[end])
			end++
		}
		// A single character wider than the limit still goes out alone
		if end == cursor {
			end++
		}
		if end >= len(runes) {
			segments = append(segments, string(runes[cursor:]))
			break
		}

		cut := cutPoint(runes[cursor:end], limit, width)
		segments = append(segments, string(runes[cursor:cursor+cut]))
		cursor += cut
	}
	return segments
}

// cutPoint returns the length in runes of the next segment within window. The
// boundary character stays at the end of the segment it closes.
func cutPoint(window []rune, limit int, width func(rune) int) int {
	boundary := lastIndexRune(window, '\n')
	if boundary < 0 {
		boundary = lastIndexRune(window, ' ')
	}
	if boundary < 0 {
		return len(window)
	}
	cut := boundary + 1
	if measure(window[:cut], width) < limit/2 {
		return len(window)
	}
	return cut
}

func lastIndexRune(runes []rune, target rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
