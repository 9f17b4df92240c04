// Package retrieval fetches the chunks most relevant to a question and trims
// them to a prompt-sized context.
package retrieval

import (
	"context"

	"pdfrag/internal/domain"
)

// Retriever embeds a question with the same model used at ingestion and
// queries the vector index. It only reads from the index, never writes.
type Retriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
	tok      domain.Tokenizer
	topK     int
	localCap int
	budget   int
}

// Config bounds what a retrieval returns. LocalCap, when lower than TopK,
// trims the match list after ranking; Budget caps the total context tokens.
// Zero values mean no local cap and no budget.
type Config struct {
	TopK     int
	LocalCap int
	Budget   int
}

// New builds a Retriever.
func New(embedder domain.Embedder, store domain.VectorStore, tok domain.Tokenizer, cfg Config) *Retriever {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		tok:      tok,
		topK:     topK,
		localCap: cfg.LocalCap,
		budget:   cfg.Budget,
	}
}

// Retrieve returns matches for the question, pre-ranked by the index and in
// index order. The optional filter restricts matches by tag metadata. The
// result is truncated, never re-sorted: ranking is the index's job.
func (r *Retriever) Retrieve(ctx context.Context, question string, filter map[string]any) ([]domain.Match, error) {
	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, &domain.EmbeddingError{Err: err}
	}
	matches, err := r.store.Query(ctx, vector, r.topK, filter)
	if err != nil {
		return nil, err
	}
	if r.localCap > 0 && len(matches) > r.localCap {
		matches = matches[:r.localCap]
	}
	return r.underBudget(matches), nil
}

// TagFilter builds the index filter for restricting matches to tag values:
// a single value matches by equality, several by set membership.
func TagFilter(key string, values ...string) map[string]any {
	if key == "" || len(values) == 0 {
		return nil
	}
	if len(values) == 1 {
		return map[string]any{key: values[0]}
	}
	in := make([]any, len(values))
	for i, v := range values {
		in[i] = v
	}
	return map[string]any{key: map[string]any{"$in": in}}
}

// underBudget keeps leading matches whose texts fit the token budget. The
// most relevant material survives because matches arrive ranked.
func (r *Retriever) underBudget(matches []domain.Match) []domain.Match {
	if r.budget <= 0 {
		return matches
	}
	used := 0
	for i, m := range matches {
		used += r.tok.Count(m.Text)
		if used > r.budget {
			return matches[:i]
		}
	}
	return matches
}
