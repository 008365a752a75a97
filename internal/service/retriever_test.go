package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodhibot/bodhibot-go/internal/config"
	"github.com/bodhibot/bodhibot-go/internal/db"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	hits   []db.PassageHit
	err    error
	askedN int
}

func (f *fakeIndex) QueryNearestPassages(_ context.Context, _ []float32, n int) ([]db.PassageHit, error) {
	f.askedN = n
	if f.err != nil {
		return nil, f.err
	}
	if n < len(f.hits) {
		return f.hits[:n], nil
	}
	return f.hits, nil
}

func retrievalConfig() config.Config {
	return config.Config{
		TopK:            3,
		ScanFactor:      5,
		MaxScan:         50,
		SimilarityDelta: 0.02,
		MaxExcerptChars: 150,
	}
}

func hit(id, ref string, score float64) db.PassageHit {
	return db.PassageHit{ID: id, SourceTitle: "title-" + ref, CanonicalRef: ref, Text: "凡所有相，皆是虛妄。", Score: score}
}

func TestRetrieveRankedDistinctSources(t *testing.T) {
	index := &fakeIndex{hits: []db.PassageHit{
		hit("a", "T0235.0001", 0.95),
		hit("b", "T0262.0007", 0.90),
		hit("c", "T0945.0003", 0.85),
		hit("d", "T2008.0002", 0.80),
	}}
	r := NewRetriever(&fakeEmbedder{}, index, nil, retrievalConfig())

	got, err := r.Retrieve(context.Background(), "什麼是空性？")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 15, index.askedN) // topK * scanFactor
	for i, c := range got {
		assert.Equal(t, i+1, c.Rank)
		if i > 0 {
			assert.LessOrEqual(t, c.Score, got[i-1].Score, "scores must be non-increasing")
		}
	}
	assert.Equal(t, "T0235.0001", got[0].CanonicalRef)
}

func TestRetrieveScanCappedAtMaxScan(t *testing.T) {
	cfg := retrievalConfig()
	cfg.TopK = 20
	index := &fakeIndex{}
	r := NewRetriever(&fakeEmbedder{}, index, nil, cfg)

	_, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 50, index.askedN)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeIndex{}, nil, retrievalConfig())

	got, err := r.Retrieve(context.Background(), "什麼是空性？")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveUnavailable(t *testing.T) {
	t.Run("embedder down", func(t *testing.T) {
		r := NewRetriever(&fakeEmbedder{err: errors.New("connection refused")}, &fakeIndex{}, nil, retrievalConfig())
		_, err := r.Retrieve(context.Background(), "q")
		assert.ErrorIs(t, err, ErrRetrievalUnavailable)
	})
	t.Run("index down", func(t *testing.T) {
		r := NewRetriever(&fakeEmbedder{}, &fakeIndex{err: errors.New("websocket closed")}, nil, retrievalConfig())
		_, err := r.Retrieve(context.Background(), "q")
		assert.ErrorIs(t, err, ErrRetrievalUnavailable)
	})
}

func TestSelectCandidates(t *testing.T) {
	tests := []struct {
		name    string
		hits    []db.PassageHit
		topK    int
		delta   float64
		wantIDs []string
	}{
		{
			name: "dedupe keeps best per source",
			hits: []db.PassageHit{
				hit("a", "T0235.0001", 0.95),
				hit("b", "T0235.0002", 0.94),
				hit("c", "T0262.0001", 0.90),
				hit("d", "T0945.0001", 0.85),
			},
			topK:    3,
			delta:   0.02,
			wantIDs: []string{"a", "c", "d"},
		},
		{
			name: "fresh source wins even when a duplicate scores higher",
			hits: []db.PassageHit{
				hit("a", "T0235.0001", 0.95),
				hit("b", "T0235.0002", 0.90),
				hit("c", "T0262.0001", 0.50),
			},
			topK:    2,
			delta:   0.02,
			wantIDs: []string{"a", "c"},
		},
		{
			name: "backfilled duplicate outranks fresh beyond delta",
			hits: []db.PassageHit{
				hit("a", "T0235.0001", 0.95),
				hit("b", "T0235.0002", 0.94),
				hit("c", "T0262.0001", 0.90),
			},
			topK:    3,
			delta:   0.02,
			wantIDs: []string{"a", "b", "c"},
		},
		{
			name: "backfilled duplicate within delta stays behind fresh",
			hits: []db.PassageHit{
				hit("a", "T0235.0001", 0.95),
				hit("b", "T0235.0002", 0.91),
				hit("c", "T0262.0001", 0.90),
			},
			topK:    3,
			delta:   0.02,
			wantIDs: []string{"a", "c", "b"},
		},
		{
			name: "duplicates fill when sources run out",
			hits: []db.PassageHit{
				hit("a", "T0235.0001", 0.95),
				hit("b", "T0235.0002", 0.94),
				hit("c", "T0235.0003", 0.93),
			},
			topK:    3,
			delta:   0.02,
			wantIDs: []string{"a", "b", "c"},
		},
		{
			name:    "fewer hits than topK",
			hits:    []db.PassageHit{hit("a", "T0235.0001", 0.95)},
			topK:    3,
			delta:   0.02,
			wantIDs: []string{"a"},
		},
		{
			name:    "empty input",
			hits:    nil,
			topK:    3,
			delta:   0.02,
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectCandidates(tt.hits, tt.topK, tt.delta)
			ids := make([]string, 0, len(got))
			for _, h := range got {
				ids = append(ids, h.ID)
			}
			if len(tt.wantIDs) == 0 {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tt.wantIDs, ids)
			}
		})
	}
}

func TestTruncateExcerpt(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxRunes int
		want     string
	}{
		{"short text untouched", "諸行無常。", 150, "諸行無常。"},
		{"cut at last sentence boundary within limit", "諸行無常。是生滅法。生滅滅已，寂滅為樂。", 10, "諸行無常。是生滅法。"},
		{"cut at clause boundary when no sentence end", "生滅滅已，寂滅為樂", 8, "生滅滅已，"},
		{"hard cut when no boundary at all", "阿耨多羅三藐三菩提", 5, "阿耨多羅三"},
		{"trailing whitespace trimmed", "諸行無常。 ", 150, "諸行無常。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateExcerpt(tt.text, tt.maxRunes)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), tt.maxRunes)
			assert.True(t, strings.ToValidUTF8(got, "") == got, "must stay valid UTF-8")
		})
	}
}
