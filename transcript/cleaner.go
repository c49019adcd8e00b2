package transcript

import (
	"regexp"
	"strings"
)

const (
	minPhraseLen = 3
	maxPhraseLen = 15
)

var (
	fillerRun      = regexp.MustCompile(`(?i)\b(uh|um|ah|er)\b(\s+(uh|um|ah|er)\b)+`)
	fillerAfterDot = regexp.MustCompile(`(?i)\.\s*(uh|um|ah|er)\b\s*,?\s*`)
	fillerAtStart  = regexp.MustCompile(`(?i)^(uh|um|ah|er)\b\s*,?\s*`)
	multiSpace     = regexp.MustCompile(`\s+`)
	spaceBeforePun = regexp.MustCompile(`\s+([.,!?])`)
	punBeforeChar  = regexp.MustCompile(`([.,!?])([A-Za-z])`)
)

// Clean removes the repetition noise that YouTube auto-captions introduce.
// Overlapping caption cues make phrases appear two or three times in a row,
// so this is deliberately lossy: an intentional repeated phrase is collapsed
// just the same. Applying Clean to already cleaned text is a no-op.
func Clean(text string) string {
	if text == "" {
		return text
	}

	text = dedupePhrases(text)
	text = collapseStutter(text)
	text = reduceFillers(text)
	text = normalizeWhitespace(text)

	return text
}

// dedupePhrases drops consecutive duplicate word blocks. At every position it
// tries block lengths from minPhraseLen up to maxPhraseLen and skips past all
// consecutive repetitions of the first block that matches.
func dedupePhrases(text string) string {
	words := strings.Fields(text)
	if len(words) < 2*minPhraseLen {
		return text
	}

	result := make([]string, 0, len(words))
	i := 0
	for i < len(words) {
		found := false
		maxLen := (len(words) - i) / 2
		if maxLen > maxPhraseLen {
			maxLen = maxPhraseLen
		}
		for size := minPhraseLen; size <= maxLen; size++ {
			if !equalBlocks(words, i, i+size, size) {
				continue
			}
			pos := i + size
			for pos+size <= len(words) && equalBlocks(words, i, pos, size) {
				pos += size
			}
			result = append(result, words[i:i+size]...)
			i = pos
			found = true
			break
		}
		if !found {
			result = append(result, words[i])
			i++
		}
	}

	return strings.Join(result, " ")
}

func equalBlocks(words []string, a, b, size int) bool {
	if b+size > len(words) {
		return false
	}
	for k := 0; k < size; k++ {
		if words[a+k] != words[b+k] {
			return false
		}
	}
	return true
}

// collapseStutter reduces immediately repeated words to a single instance,
// case-insensitively: "he he he said" becomes "he said". A word carrying
// punctuation ends the run, so "end. End" is left alone.
func collapseStutter(text string) string {
	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	result := make([]string, 0, len(words))
	i := 0
	for i < len(words) {
		j := i
		for j+1 < len(words) && bareWord(words[j]) && strings.EqualFold(words[j], wordCore(words[j+1])) {
			j++
		}
		if j == i {
			result = append(result, words[i])
		} else {
			// keep the first word of the run, but carry over any
			// punctuation stuck to the last one
			result = append(result, words[i]+words[j][len(wordCore(words[j])):])
		}
		i = j + 1
	}

	return strings.Join(result, " ")
}

func wordCore(w string) string {
	return strings.TrimRight(w, ".,!?;:")
}

func bareWord(w string) bool {
	return w == wordCore(w)
}

func reduceFillers(text string) string {
	text = fillerRun.ReplaceAllString(text, "$1")
	text = fillerAfterDot.ReplaceAllString(text, ". ")
	text = fillerAtStart.ReplaceAllString(text, "")

	return text
}

func normalizeWhitespace(text string) string {
	text = multiSpace.ReplaceAllString(text, " ")
	text = spaceBeforePun.ReplaceAllString(text, "$1")
	text = punBeforeChar.ReplaceAllString(text, "$1 $2")

	return strings.TrimSpace(text)
}
