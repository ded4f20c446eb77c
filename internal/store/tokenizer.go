package store

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into index terms: lowercase, punctuation and
// symbols stripped, split on whitespace, stop words dropped.
type Tokenizer struct {
	stopWords map[string]struct{}
}

// NewTokenizer creates a tokenizer that drops the given stop words.
// A nil or empty list keeps every token.
func NewTokenizer(stopWords []string) *Tokenizer {
	return &Tokenizer{stopWords: BuildStopWordMap(stopWords)}
}

// Tokenize returns the terms of text in order, duplicates included.
func (t *Tokenizer) Tokenize(text string) []string {
	return FilterStopWords(SplitWords(text), t.stopWords)
}

// SplitWords lowercases text, removes punctuation and symbol runes and
// splits the remainder on whitespace. Empty tokens are never returned.
// "Don't" becomes "dont" and "$25.00" becomes "2500".
func SplitWords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)
	return strings.Fields(cleaned)
}

// FilterStopWords removes stop words from a token list.
func FilterStopWords(tokens []string, stopWords map[string]struct{}) []string {
	if len(stopWords) == 0 {
		return tokens
	}
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := stopWords[token]; !isStop {
			result = append(result, token)
		}
	}
	return result
}

// BuildStopWordMap converts a slice of stop words to a map for efficient lookup.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}

// StopWordList resolves a configured stop word list name.
// Known names are "english" and "none".
func StopWordList(name string) ([]string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StopWordsEnglish:
		return EnglishStopWords, true
	case StopWordsNone:
		return nil, true
	}
	return nil, false
}
