package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bodhibot/bodhibot-go/internal/models"
)

// utteranceRecord is the stored form of a history entry. Timestamps are
// RFC3339 strings so the flexible array survives CBOR round-trips unchanged.
type utteranceRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	Timestamp string `json:"ts"`
}

type profileRecord struct {
	UserID       string            `json:"user_id"`
	History      []utteranceRecord `json:"history"`
	LastLevel    *string           `json:"last_level,omitempty"`
	LastType     *string           `json:"last_type,omitempty"`
	LastStrategy *string           `json:"last_strategy,omitempty"`
	Updated      time.Time         `json:"updated"`
	Expires      time.Time         `json:"expires"`
}

// GetContext loads the ConversationContext for a user. Returns an empty
// context (not an error) when no record exists or the record has expired.
func (c *Client) GetContext(ctx context.Context, userID string) (models.ConversationContext, error) {
	results, err := surrealdb.Query[[]profileRecord](ctx, c.db, `
		SELECT * FROM profile WHERE user_id = $user AND expires > time::now()
	`, map[string]any{"user": userID})
	if err != nil {
		return models.ConversationContext{}, fmt.Errorf("get context: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return models.NewConversationContext(userID), nil
	}

	rec := (*results)[0].Result[0]
	cc := models.ConversationContext{
		UserID:    userID,
		UpdatedAt: rec.Updated,
	}
	if rec.LastLevel != nil {
		cc.LastLevel = models.CognitiveLevel(*rec.LastLevel)
	}
	if rec.LastType != nil {
		cc.LastType = models.QuestionType(*rec.LastType)
	}
	if rec.LastStrategy != nil {
		cc.LastStrategy = models.Strategy(*rec.LastStrategy)
	}
	for _, u := range rec.History {
		ts, tsErr := time.Parse(time.RFC3339Nano, u.Timestamp)
		if tsErr != nil {
			ts = rec.Updated
		}
		cc.History = append(cc.History, models.Utterance{
			ID:        u.ID,
			UserID:    u.UserID,
			Text:      u.Text,
			Timestamp: ts,
		})
	}
	return cc, nil
}

// PutContext writes the ConversationContext for a user, replacing any
// existing record. ttl controls when the record becomes invisible to reads.
func (c *Client) PutContext(ctx context.Context, cc models.ConversationContext, ttl time.Duration) error {
	history := make([]utteranceRecord, 0, len(cc.History))
	for _, u := range cc.History {
		history = append(history, utteranceRecord{
			ID:        u.ID,
			UserID:    u.UserID,
			Text:      u.Text,
			Timestamp: u.Timestamp.Format(time.RFC3339Nano),
		})
	}

	vars := map[string]any{
		"id":       cc.UserID,
		"user":     cc.UserID,
		"history":  history,
		"expires":  time.Now().Add(ttl),
		"level":    nil,
		"qtype":    nil,
		"strategy": nil,
	}
	if cc.LastLevel != "" {
		vars["level"] = string(cc.LastLevel)
	}
	if cc.LastType != "" {
		vars["qtype"] = string(cc.LastType)
	}
	if cc.LastStrategy != "" {
		vars["strategy"] = string(cc.LastStrategy)
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("profile", $id) CONTENT {
			user_id: $user,
			history: $history,
			last_level: $level,
			last_type: $qtype,
			last_strategy: $strategy,
			updated: time::now(),
			expires: $expires
		}
	`, vars)
	if err != nil {
		return fmt.Errorf("put context: %w", wrapQueryError(err))
	}
	return nil
}

// DeleteContext removes a user's stored context. Deleting a missing record
// is not an error.
func (c *Client) DeleteContext(ctx context.Context, userID string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE profile WHERE user_id = $user
	`, map[string]any{"user": userID})
	if err != nil {
		return fmt.Errorf("delete context: %w", wrapQueryError(err))
	}
	return nil
}
