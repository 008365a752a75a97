package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bodhibot/bodhibot-go/internal/models"
)

// PassageHit is one nearest-neighbor match with its cosine similarity.
type PassageHit struct {
	ID           string  `json:"pid"`
	SourceTitle  string  `json:"source_title"`
	CanonicalRef string  `json:"canonical_ref"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
}

// hnswEF is the HNSW search expansion factor. Larger values trade query
// time for recall.
const hnswEF = 40

// QueryNearestPassages returns up to n passages ranked by cosine similarity
// to the query embedding. An empty index yields an empty slice.
func (c *Client) QueryNearestPassages(ctx context.Context, embedding []float32, n int) ([]PassageHit, error) {
	if n <= 0 {
		return []PassageHit{}, nil
	}

	sql := fmt.Sprintf(`
		SELECT
			record::id(id) AS pid,
			source_title,
			canonical_ref,
			text,
			vector::similarity::cosine(embedding, $emb) AS score
		FROM passage
		WHERE embedding <|%d,%d|> $emb
		ORDER BY score DESC
	`, n, hnswEF)

	results, err := surrealdb.Query[[]PassageHit](ctx, c.db, sql, map[string]any{
		"emb": embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("nearest passages: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []PassageHit{}, nil
	}
	return (*results)[0].Result, nil
}

// UpsertPassage creates or replaces a passage by ID.
func (c *Client) UpsertPassage(ctx context.Context, id string, p models.ScripturePassage) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("passage", $id) CONTENT {
			source_title: $source_title,
			canonical_ref: $canonical_ref,
			text: $text,
			embedding: $embedding
		}
	`, map[string]any{
		"id":            id,
		"source_title":  p.SourceTitle,
		"canonical_ref": p.CanonicalRef,
		"text":          p.Text,
		"embedding":     p.Embedding,
	})
	if err != nil {
		return fmt.Errorf("upsert passage: %w", wrapQueryError(err))
	}
	return nil
}

// CountPassages returns the number of passages in the index.
func (c *Client) CountPassages(ctx context.Context) (int, error) {
	type countRow struct {
		Count int `json:"count"`
	}

	results, err := surrealdb.Query[[]countRow](ctx, c.db, `
		SELECT count() AS count FROM passage GROUP ALL
	`, nil)
	if err != nil {
		return 0, fmt.Errorf("count passages: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}
