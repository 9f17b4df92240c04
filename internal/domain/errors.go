package domain

import (
	"errors"
	"fmt"
)

// ErrConfig marks invalid configuration (bad chunking parameters, unknown
// tone). It is raised before any network call is made.
var ErrConfig = errors.New("invalid configuration")

// ErrNoText is returned when a document yields no usable text after
// extraction and cleanup. Callers skip the document and continue.
var ErrNoText = errors.New("no extractable text")

// ExtractionError wraps a failure to read or extract a source file.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingError wraps a failure calling the embedding service.
// Per-chunk embedding failures are not retried; the chunk is skipped.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding: %v", e.Err) }

func (e *EmbeddingError) Unwrap() error { return e.Err }

// UpsertError wraps an index write failure after retries are exhausted.
type UpsertError struct {
	Batch int
	Err   error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("upsert batch of %d: %v", e.Batch, e.Err)
}

func (e *UpsertError) Unwrap() error { return e.Err }
