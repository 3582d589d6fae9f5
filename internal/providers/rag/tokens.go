package rag

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

// approxCharsPerToken is used when the BPE tables cannot be loaded.
const approxCharsPerToken = 4

func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding("cl100k_base")
	})
	return tk, tkErr
}

// CountTokens counts cl100k_base tokens, or estimates them from the rune count.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	enc, err := getTokenizer()
	if err != nil {
		return (utf8.RuneCountInString(text) + approxCharsPerToken - 1) / approxCharsPerToken
	}
	return len(enc.Encode(text, nil, nil))
}

// TruncateTokens cuts text to at most maxTokens tokens. The second result
// reports whether anything was cut.
func TruncateTokens(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 || text == "" {
		return text, false
	}

	enc, err := getTokenizer()
	if err != nil {
		runes := []rune(text)
		limit := maxTokens * approxCharsPerToken
		if len(runes) <= limit {
			return text, false
		}
		return string(runes[:limit]), true
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, false
	}
	return enc.Decode(tokens[:maxTokens]), true
}
