// Package ingest drives the document pipeline: extract, normalize, chunk,
// embed, and batch-upload to the vector index.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pdfrag/internal/domain"
	"pdfrag/internal/normalize"
	"pdfrag/internal/retry"
	"pdfrag/internal/tagger"
)

// Orchestrator processes every source document in a directory, one document
// at a time. Failures are contained at the smallest unit: a bad chunk skips
// the chunk, a failed batch fails the document, and only configuration
// errors abort before any work starts.
type Orchestrator struct {
	extractor domain.Extractor
	chunker   domain.Chunker
	tok       domain.Tokenizer
	embedder  domain.Embedder
	store     domain.VectorStore
	catalog   *tagger.Catalog
	policy    retry.Policy
	batchSize int
	maxTokens int
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// Config tunes batching and pacing. Pace is the deliberate delay between
// batch uploads and between documents; zero disables it, which tests rely on.
type Config struct {
	BatchSize int
	MaxTokens int
	Pace      time.Duration
	Retry     retry.Policy
}

// New assembles an Orchestrator from its collaborators.
func New(
	extractor domain.Extractor,
	chunker domain.Chunker,
	tok domain.Tokenizer,
	embedder domain.Embedder,
	store domain.VectorStore,
	catalog *tagger.Catalog,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 25
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Default()
	}
	var limiter *rate.Limiter
	if cfg.Pace > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Pace), 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		extractor: extractor,
		chunker:   chunker,
		tok:       tok,
		embedder:  embedder,
		store:     store,
		catalog:   catalog,
		policy:    cfg.Retry,
		batchSize: cfg.BatchSize,
		maxTokens: cfg.MaxTokens,
		limiter:   limiter,
		logger:    logger,
	}
}

// Ingest processes every PDF in dir. Extra tags, when given, are merged into
// each document's tag set. Re-running over the same directory reprocesses
// everything from scratch; chunk identifiers are deterministic and upsert
// overwrites, so repeated runs converge instead of duplicating.
func (o *Orchestrator) Ingest(ctx context.Context, dir string, extraTags map[string]string) (domain.Report, error) {
	var report domain.Report
	entries, err := os.ReadDir(dir)
	if err != nil {
		return report, fmt.Errorf("read source directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		path := filepath.Join(dir, entry.Name())
		if err := o.processDocument(ctx, path, name, extraTags, &report); err != nil {
			return report, err
		}
		if err := o.pace(ctx); err != nil {
			return report, err
		}
	}
	o.logger.Info("ingestion run finished",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("chunks_written", report.ChunksWritten),
		zap.Int("chunks_skipped", report.ChunksSkipped))
	return report, nil
}

func (o *Orchestrator) processDocument(ctx context.Context, path, name string, extraTags map[string]string, report *domain.Report) error {
	log := o.logger.With(zap.String("document", name))
	log.Info("processing document")

	raw, err := o.extractor.Extract(path)
	if err != nil {
		log.Warn("extraction failed, skipping document", zap.Error(err))
		report.Skipped++
		return nil
	}
	text := normalize.Normalize(raw)
	if text == "" {
		log.Warn("no usable text after cleanup, skipping document")
		report.Skipped++
		return nil
	}

	tags := o.catalog.TagsFor(name)
	for k, v := range extraTags {
		tags[k] = v
	}

	chunks, err := o.chunker.Chunk(text)
	if err != nil {
		log.Error("chunking failed", zap.Error(err))
		report.Failed++
		return nil
	}

	batch := make([]domain.Record, 0, o.batchSize)
	docFailed := false
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := o.uploadBatch(ctx, batch); err != nil {
			log.Error("batch upload failed after retries",
				zap.Int("batch_size", len(batch)), zap.Error(err))
			report.FailedBatches++
			docFailed = true
		} else {
			report.ChunksWritten += len(batch)
		}
		batch = batch[:0]
	}

	for i, chunk := range chunks {
		count := o.tok.Count(chunk)
		if count > o.maxTokens {
			// The chunker guarantees the bound; this is the pipeline's
			// own check before anything goes over the wire.
			log.Warn("oversized chunk skipped", zap.Int("chunk", i), zap.Int("tokens", count))
			report.ChunksSkipped++
			continue
		}
		vector, err := o.embedder.Embed(ctx, chunk)
		if err != nil {
			// Embedding failures are not retried here; the chunk is
			// dropped and the rest of the document continues.
			log.Warn("embedding failed, skipping chunk", zap.Int("chunk", i), zap.Error(err))
			report.ChunksSkipped++
			continue
		}
		batch = append(batch, domain.Record{
			ID:       tagger.ChunkID(name, i),
			Vector:   vector,
			Metadata: chunkMetadata(name, i, chunk, count, tags),
		})
		if len(batch) >= o.batchSize {
			flush()
			if err := o.pace(ctx); err != nil {
				// The document is mid-flight; count it before surfacing
				// the cancellation so the report stays accurate.
				report.Failed++
				return err
			}
		}
	}
	flush()

	if docFailed {
		report.Failed++
		return nil
	}
	report.Processed++
	return nil
}

func (o *Orchestrator) uploadBatch(ctx context.Context, batch []domain.Record) error {
	records := make([]domain.Record, len(batch))
	copy(records, batch)
	err := o.policy.Do(ctx, func(ctx context.Context) error {
		return o.store.Upsert(ctx, records)
	})
	if err != nil {
		return &domain.UpsertError{Batch: len(records), Err: err}
	}
	return nil
}

func (o *Orchestrator) pace(ctx context.Context) error {
	if o.limiter == nil {
		return nil
	}
	return o.limiter.Wait(ctx)
}

// chunkMetadata flattens everything the index stores alongside a vector.
// The index only accepts primitive scalar values.
func chunkMetadata(name string, index int, text string, tokens int, tags map[string]string) map[string]any {
	meta := make(map[string]any, len(tags)+5)
	for k, v := range tags {
		meta[k] = v
	}
	meta["source_file"] = name
	meta["chunk_index"] = index
	meta["text"] = text
	meta["token_count"] = tokens
	meta["ingested_at"] = time.Now().UTC().Format(time.RFC3339)
	return meta
}
