package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bodhibot/bodhibot-go/internal/corpus"
	"github.com/bodhibot/bodhibot-go/internal/models"
)

// PassageStore persists scripture passages into the vector index.
// *db.Client satisfies this.
type PassageStore interface {
	UpsertPassage(ctx context.Context, id string, p models.ScripturePassage) error
	CountPassages(ctx context.Context) (int, error)
}

// BatchEmbedder embeds several texts in one call. *llm.Embedder satisfies
// this.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestService chunks scripture files, embeds the chunks, and upserts them
// into the passage index. Re-ingesting a source overwrites its passages in
// place, so ingestion is idempotent.
type IngestService struct {
	store    PassageStore
	embedder BatchEmbedder
}

func NewIngestService(store PassageStore, embedder BatchEmbedder) *IngestService {
	return &IngestService{store: store, embedder: embedder}
}

// IngestOptions tunes a corpus run.
type IngestOptions struct {
	// Concurrency sets the number of parallel source workers (default 4).
	Concurrency int
	// BatchSize sets how many chunks go into one embedding call (default 16).
	BatchSize int
}

// IngestResult summarizes a corpus run.
type IngestResult struct {
	SourcesProcessed int
	PassagesIndexed  int
	Errors           []string
}

// IngestSources runs the full pipeline for every source in the manifest.
// Sources are processed by a worker pool; a failing source is reported in
// the result and does not abort the others.
func (s *IngestService) IngestSources(ctx context.Context, baseDir string, sources []corpus.Source, chunkCfg corpus.ChunkConfig, opts IngestOptions) (*IngestResult, error) {
	if len(sources) == 0 {
		return &IngestResult{}, nil
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 16
	}

	slog.Info("starting corpus ingestion", "sources", len(sources), "workers", concurrency)

	var (
		sourcesProcessed atomic.Int32
		passagesIndexed  atomic.Int32
		errorsMu         sync.Mutex
		errs             []string
	)

	workChan := make(chan corpus.Source, len(sources))
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for src := range workChan {
				if ctx.Err() != nil {
					return
				}

				processed := sourcesProcessed.Add(1)
				slog.Info("ingesting source", "worker", workerID, "source", src.Title, "progress", fmt.Sprintf("%d/%d", processed, len(sources)))

				n, err := s.ingestSource(ctx, baseDir, src, chunkCfg, batchSize)
				if err != nil {
					errorsMu.Lock()
					errs = append(errs, fmt.Sprintf("%s: %v", src.CanonicalID, err))
					errorsMu.Unlock()
					continue
				}
				passagesIndexed.Add(int32(n))
			}
		}(i)
	}

	for _, src := range sources {
		workChan <- src
	}
	close(workChan)
	wg.Wait()

	slog.Info("corpus ingestion complete", "passages", passagesIndexed.Load(), "errors", len(errs))

	return &IngestResult{
		SourcesProcessed: int(sourcesProcessed.Load()),
		PassagesIndexed:  int(passagesIndexed.Load()),
		Errors:           errs,
	}, nil
}

func (s *IngestService) ingestSource(ctx context.Context, baseDir string, src corpus.Source, chunkCfg corpus.ChunkConfig, batchSize int) (int, error) {
	passages, err := corpus.BuildPassages(baseDir, src, chunkCfg)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for offset := 0; offset < len(passages); offset += batchSize {
		end := offset + batchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[offset:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}
		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("embedding batch at %d: %w", offset, err)
		}
		if len(embeddings) != len(batch) {
			return indexed, fmt.Errorf("embedding batch at %d: got %d vectors for %d texts", offset, len(embeddings), len(batch))
		}

		for i, p := range batch {
			p.Embedding = embeddings[i]
			if err := s.store.UpsertPassage(ctx, passageRecordID(p.CanonicalRef), p); err != nil {
				return indexed, fmt.Errorf("upserting %s: %w", p.CanonicalRef, err)
			}
			indexed++
		}
	}
	return indexed, nil
}

// passageRecordID derives a stable record ID from a canonical reference so
// re-ingestion overwrites rather than duplicates.
func passageRecordID(canonicalRef string) string {
	return strings.NewReplacer(".", "_", ":", "_", "#", "_", "/", "_").Replace(canonicalRef)
}

// CountIndexed reports how many passages the index currently holds.
func (s *IngestService) CountIndexed(ctx context.Context) (int, error) {
	return s.store.CountPassages(ctx)
}
