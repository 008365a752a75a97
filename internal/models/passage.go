package models

import (
	"fmt"
	"strings"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ScripturePassage is one corpus entry. Loaded at index build time,
// read-only during serving.
type ScripturePassage struct {
	ID           surrealmodels.RecordID `json:"id"`
	SourceTitle  string                 `json:"source_title"`
	CanonicalRef string                 `json:"canonical_ref"`
	Text         string                 `json:"text"`
	Embedding    []float32              `json:"embedding,omitempty"`
}

// RetrievalCandidate is an ephemeral scored passage produced per query.
type RetrievalCandidate struct {
	PassageID    string  `json:"passage_id"`
	SourceTitle  string  `json:"source_title"`
	CanonicalRef string  `json:"canonical_ref"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	Rank         int     `json:"rank"`
}

// SourceKey returns the canonical-reference prefix identifying the scripture
// a candidate comes from (e.g. "T0235" for "T0235.0012"). Candidates sharing
// a source key are deduplicated during ranking.
func (c RetrievalCandidate) SourceKey() string {
	if i := strings.IndexAny(c.CanonicalRef, ".:#/"); i > 0 {
		return c.CanonicalRef[:i]
	}
	return c.CanonicalRef
}

// RecordIDString safely extracts the string ID from a SurrealDB RecordID.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}
