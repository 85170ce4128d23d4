package text

import (
	"strings"
)

// DefaultMaxTokens is the token ceiling applied when none is configured.
const DefaultMaxTokens = 500

type Chunk struct {
	Index  int
	Text   string
	Tokens int
}

// Chunker packs sentences greedily into chunks that stay under a token ceiling.
type Chunker struct {
	maxTokens int
	tok       Tokenizer
}

func NewChunker(maxTokens int, tok Tokenizer) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if tok == nil {
		tok = EstimateTokenizer{}
	}
	return &Chunker{maxTokens: maxTokens, tok: tok}
}

// Split never truncates: a sentence that alone exceeds the ceiling becomes
// its own oversized chunk.
func (c *Chunker) Split(text string) []Chunk {
	var chunks []Chunk
	seal := func(buf string) {
		trimmed := strings.TrimSpace(buf)
		if trimmed == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Text:   trimmed,
			Tokens: c.tok.Count(trimmed),
		})
	}

	buf := ""
	for _, frag := range SplitSentences(text) {
		candidate := buf + frag
		if buf == "" || c.tok.Count(strings.TrimSpace(candidate)) < c.maxTokens {
			buf = candidate
			continue
		}
		seal(buf)
		buf = frag
	}
	seal(buf)

	return chunks
}

// SplitSentences cuts after every period that is followed by whitespace or
// ends the input, so "$1.000.000" and "Art.5" stay whole. Each fragment keeps
// its period and leading whitespace; blank fragments are dropped.
func SplitSentences(text string) []string {
	var frags []string
	add := func(s string) {
		if strings.TrimSpace(s) != "" {
			frags = append(frags, s)
		}
	}

	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '.' {
			continue
		}
		next := i + 1
		if next < len(text) && !isSpace(text[next]) {
			continue
		}
		add(text[start:next])
		start = next
	}
	add(text[start:])

	return frags
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
