package text

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens the way the completion model does.
type Tokenizer interface {
	Count(s string) int
}

// DefaultEncoding is the encoding used by the gpt-3.5/ada-002 family.
const DefaultEncoding = "cl100k_base"

type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the BPE ranks for encoding. The first call may
// download them; set TIKTOKEN_CACHE_DIR to keep a local copy.
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encoding, err)
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

func (t *TiktokenTokenizer) Count(s string) int {
	return len(t.enc.Encode(s, nil, nil))
}

// EstimateTokenizer approximates 4 characters per token.
type EstimateTokenizer struct{}

func (EstimateTokenizer) Count(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + 3) / 4
}
