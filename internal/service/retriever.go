package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bodhibot/bodhibot-go/internal/config"
	"github.com/bodhibot/bodhibot-go/internal/db"
	"github.com/bodhibot/bodhibot-go/internal/metrics"
	"github.com/bodhibot/bodhibot-go/internal/models"
)

// QueryEmbedder turns query text into a vector. *llm.Embedder satisfies this.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PassageIndex answers nearest-neighbor queries over the scripture corpus.
// *db.Client satisfies this.
type PassageIndex interface {
	QueryNearestPassages(ctx context.Context, embedding []float32, n int) ([]db.PassageHit, error)
}

// Retriever produces ranked scripture excerpts for a query. It over-scans
// the index, deduplicates by source scripture, and trims each excerpt to a
// display-safe length.
type Retriever struct {
	embedder QueryEmbedder
	index    PassageIndex
	metrics  *metrics.Collector

	topK            int
	scanFactor      int
	maxScan         int
	similarityDelta float64
	maxExcerptChars int
}

func NewRetriever(embedder QueryEmbedder, index PassageIndex, collector *metrics.Collector, cfg config.Config) *Retriever {
	return &Retriever{
		embedder:        embedder,
		index:           index,
		metrics:         collector,
		topK:            cfg.TopK,
		scanFactor:      cfg.ScanFactor,
		maxScan:         cfg.MaxScan,
		similarityDelta: cfg.SimilarityDelta,
		maxExcerptChars: cfg.MaxExcerptChars,
	}
}

// Retrieve returns up to topK candidates ordered by descending similarity
// (scores within the similarity delta count as tied, with distinct sources
// first), ranks starting at 1. A sparse or empty index yields fewer (or
// zero) candidates; only embedding or index failures return
// ErrRetrievalUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.RetrievalCandidate, error) {
	start := time.Now()

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrRetrievalUnavailable, err)
	}
	if r.metrics != nil {
		r.metrics.RecordTiming(metrics.OpEmbedding, time.Since(start))
	}

	// Over-scan so source deduplication still has enough distinct
	// scriptures to choose from.
	scanN := r.topK * r.scanFactor
	if scanN > r.maxScan {
		scanN = r.maxScan
	}

	searchStart := time.Now()
	hits, err := r.index.QueryNearestPassages(ctx, embedding, scanN)
	if err != nil {
		return nil, fmt.Errorf("%w: index query: %v", ErrRetrievalUnavailable, err)
	}
	if r.metrics != nil {
		r.metrics.RecordTiming(metrics.OpIndexSearch, time.Since(searchStart))
	}

	selected := selectCandidates(hits, r.topK, r.similarityDelta)

	out := make([]models.RetrievalCandidate, 0, len(selected))
	for i, h := range selected {
		out = append(out, models.RetrievalCandidate{
			PassageID:    h.ID,
			SourceTitle:  h.SourceTitle,
			CanonicalRef: h.CanonicalRef,
			Text:         truncateExcerpt(h.Text, r.maxExcerptChars),
			Score:        h.Score,
			Rank:         i + 1,
		})
	}

	slog.Debug("retrieval complete", "scanned", len(hits), "selected", len(out), "duration", time.Since(start))
	return out, nil
}

func hitSourceKey(h db.PassageHit) string {
	if i := strings.IndexAny(h.CanonicalRef, ".:#/"); i > 0 {
		return h.CanonicalRef[:i]
	}
	return h.CanonicalRef
}

// selectCandidates picks up to topK hits, keeping only the highest-scoring
// passage per source scripture. Additional passages from an already-chosen
// source backfill the result only when there are fewer distinct sources than
// topK. In the final ordering a backfilled passage outranks a distinct-source
// pick only when its score lead exceeds delta; within delta the distinct
// source keeps its slot.
func selectCandidates(hits []db.PassageHit, topK int, delta float64) []db.PassageHit {
	if topK <= 0 || len(hits) == 0 {
		return nil
	}

	sorted := make([]db.PassageHit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	var fresh, dupes []db.PassageHit
	used := make(map[string]bool)
	for _, h := range sorted {
		key := hitSourceKey(h)
		if used[key] {
			dupes = append(dupes, h)
			continue
		}
		used[key] = true
		fresh = append(fresh, h)
	}
	if len(fresh) > topK {
		fresh = fresh[:topK]
		dupes = nil
	} else if need := topK - len(fresh); need < len(dupes) {
		dupes = dupes[:need]
	}

	out := make([]db.PassageHit, 0, len(fresh)+len(dupes))
	for len(fresh) > 0 || len(dupes) > 0 {
		switch {
		case len(fresh) == 0:
			out = append(out, dupes[0])
			dupes = dupes[1:]
		case len(dupes) == 0 || dupes[0].Score-fresh[0].Score <= delta:
			out = append(out, fresh[0])
			fresh = fresh[1:]
		default:
			out = append(out, dupes[0])
			dupes = dupes[1:]
		}
	}
	return out
}

// Boundary runes for excerpt trimming. Sentence enders are preferred over
// clause separators.
const (
	sentenceBoundaries = "。！？；!?;"
	clauseBoundaries   = "，、,"
)

// truncateExcerpt trims text to at most maxRunes runes, cutting after the
// sentence or clause boundary nearest the limit. Rune-based so CJK text is
// never split mid-character.
func truncateExcerpt(text string, maxRunes int) string {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return strings.TrimSpace(text)
	}

	prefix := runes[:maxRunes]
	cut := lastBoundary(prefix, sentenceBoundaries)
	if cut == -1 {
		cut = lastBoundary(prefix, clauseBoundaries)
	}
	if cut >= 0 {
		return strings.TrimSpace(string(prefix[:cut+1]))
	}
	return strings.TrimSpace(string(prefix))
}

func lastBoundary(runes []rune, boundaries string) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if strings.ContainsRune(boundaries, runes[i]) {
			return i
		}
	}
	return -1
}
