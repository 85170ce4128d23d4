// Package retrieval answers a question against the most recently uploaded
// document: select, extract, chunk, embed, rank, complete.
package retrieval

import (
	"context"
	"errors"
)

var (
	ErrNoDocumentAvailable = errors.New("no document available")
	ErrEmptyDocument       = errors.New("document has no readable text")
	ErrEmptyQuestion       = errors.New("question is empty")
	ErrEmbeddingService    = errors.New("embedding service error")
	ErrCompletionService   = errors.New("completion service error")
	ErrDegenerateVector    = errors.New("degenerate vector")
	ErrDimensionMismatch   = errors.New("vector dimensions differ")
)

// Vector is an embedding.
type Vector []float64

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
}

type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
