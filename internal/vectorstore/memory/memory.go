// Package memory is an in-memory vector store used for local runs and tests.
package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"pdfrag/internal/domain"
)

// Store keeps records in memory and searches them with brute-force cosine
// similarity. Upsert overwrites by ID, matching the external index contract.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.Record
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{records: make(map[string]domain.Record)}
}

// Upsert inserts or overwrites records keyed by ID.
func (s *Store) Upsert(ctx context.Context, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			return errors.New("record without id")
		}
		s.records[r.ID] = r
	}
	return nil
}

// Query returns the topK records by cosine similarity, optionally restricted
// by a metadata filter. Filter values match on equality; a value of the form
// {"$in": [...]} matches any listed element, mirroring the subset of the
// index filter syntax the pipeline uses.
func (s *Store) Query(ctx context.Context, vector []float64, topK int, filter map[string]any) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	var matches []domain.Match
	for _, r := range s.records {
		if !matchesFilter(r.Metadata, filter) {
			continue
		}
		m := domain.Match{
			ID:       r.ID,
			Score:    cosine(r.Vector, vector),
			Metadata: r.Metadata,
		}
		if text, ok := r.Metadata["text"].(string); ok {
			m.Text = text
		}
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the stored record for id, if present.
func (s *Store) Get(id string) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	return r, ok
}

func matchesFilter(metadata map[string]any, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok {
			return false
		}
		switch w := want.(type) {
		case map[string]any:
			in, ok := w["$in"].([]any)
			if !ok {
				return false
			}
			found := false
			for _, candidate := range in {
				if candidate == got {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if got != want {
				return false
			}
		}
	}
	return true
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
