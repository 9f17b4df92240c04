// Package pinecone is a minimal REST client to a Pinecone index.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"pdfrag/internal/domain"
)

// Store talks to one Pinecone index over its data-plane REST API.
// Upsert is insert-or-overwrite keyed by record ID, which is what makes
// re-ingestion idempotent.
type Store struct {
	host      string
	apiKey    string
	namespace string
	client    *http.Client
}

// Config configures the Pinecone client. Host is the index's data-plane URL.
type Config struct {
	Host      string
	APIKeyEnv string
	Namespace string
	Timeout   time.Duration
}

// NewStore creates a Pinecone index client.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		return nil, errors.New("pinecone host required")
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "PINECONE_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		host:      cfg.Host,
		apiKey:    key,
		namespace: cfg.Namespace,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Upsert writes records to the index, overwriting any with the same ID.
func (s *Store) Upsert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([]map[string]any, len(records))
	for i, r := range records {
		vectors[i] = map[string]any{
			"id":       r.ID,
			"values":   r.Vector,
			"metadata": r.Metadata,
		}
	}
	body := map[string]any{"vectors": vectors}
	if s.namespace != "" {
		body["namespace"] = s.namespace
	}
	return s.postJSON(ctx, fmt.Sprintf("%s/vectors/upsert", s.host), body, nil)
}

// Query returns the topK nearest records, ranked by the index. The optional
// filter is passed through untouched; filter syntax belongs to the service.
func (s *Store) Query(ctx context.Context, vector []float64, topK int, filter map[string]any) ([]domain.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	if len(filter) > 0 {
		body["filter"] = filter
	}
	if s.namespace != "" {
		body["namespace"] = s.namespace
	}
	var resp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/query", s.host), body, &resp); err != nil {
		return nil, err
	}
	matches := make([]domain.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		match := domain.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
		if text, ok := m.Metadata["text"].(string); ok {
			match.Text = text
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("pinecone POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
