package parser

import (
	"fmt"
	"math"
	"unicode"
)

// WordsPerMinute is the reading speed behind ReadingTime.
const WordsPerMinute = 200

// CountWords counts whitespace-separated words. Each CJK ideograph or kana
// counts as a word of its own.
func CountWords(text string) int {
	words := 0
	inWord := false
	for _, r := range text {
		switch {
		case isCJK(r):
			words++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				words++
				inWord = true
			}
		}
	}
	return words
}

// ReadingTime renders the estimated reading time of text, e.g. "5 min read".
func ReadingTime(text string) string {
	minutes := float64(CountWords(text)) / WordsPerMinute
	// Rounded to two decimals first so 201 words still reads as one minute.
	minutes = math.Round(minutes*100) / 100
	return fmt.Sprintf("%d min read", int(math.Ceil(minutes)))
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
