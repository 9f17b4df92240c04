package domain

import (
	"context"
	"time"
)

// Document is a single source file after text extraction.
type Document struct {
	DisplayName string
	Path        string
	Content     string
	Tags        map[string]string
}

// Chunk is a token-bounded slice of a document used for embedding and upsert.
type Chunk struct {
	DocumentName string
	ID           string
	Index        int
	Text         string
	TokenCount   int
	Tags         map[string]string
	Vector       []float64
}

// Match is a query-time result returned by the vector index,
// ranked by the index itself. Higher score means more relevant.
type Match struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]any
}

// Record is the unit written to the vector index.
type Record struct {
	ID       string
	Vector   []float64
	Metadata map[string]any
}

// Report summarizes one ingestion run.
type Report struct {
	Processed     int
	Skipped       int
	Failed        int
	ChunksWritten int
	ChunksSkipped int
	FailedBatches int
}

// SessionEntry is one question/answer exchange in the interactive session.
type SessionEntry struct {
	Time     time.Time
	Question string
	Tone     string
	Answer   string
	Feedback string
}

// Tokenizer encodes text into model tokens and back. The same tokenizer
// must be used for chunking and for budget accounting at query time.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

// Extractor pulls plain text out of a source document file.
type Extractor interface {
	Extract(path string) (string, error)
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Model() string
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Completer sends an assembled prompt to a chat model and returns its answer.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Chunker splits normalized text into token-bounded chunk strings.
type Chunker interface {
	Chunk(text string) ([]string, error)
}

// VectorStore persists vectors with metadata and supports similarity search.
// Upsert overwrites existing records with the same ID.
type VectorStore interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float64, topK int, filter map[string]any) ([]Match, error)
}
