// Package tokenizer provides the reference tokenizer used for chunking and
// token budgeting. It must match the tokenizer of the embedding model, or
// chunk bounds are computed on mismatched units.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding pairs with the text-embedding-ada-002 family.
const DefaultEncoding = "cl100k_base"

// Tiktoken wraps a tiktoken BPE encoding behind the domain Tokenizer interface.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// New loads the named encoding. Encodings are cached by the underlying
// library, so constructing multiple instances is cheap after the first.
func New(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Encode converts text to a token sequence.
func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode converts a token sequence back to text.
func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Count returns the number of tokens in text.
func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
