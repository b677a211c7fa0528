package types

import "strings"

// WordCount counts whitespace-separated tokens. Runs of whitespace and
// leading/trailing whitespace never produce empty tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// JoinedWordCount counts the words of the given texts joined by spaces.
func JoinedWordCount(texts ...string) int {
	n := 0
	for _, t := range texts {
		n += WordCount(t)
	}
	return n
}
