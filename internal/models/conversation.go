package models

import (
	"time"
)

// Utterance is one incoming user message. Immutable once created.
type Utterance struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationContext is the per-user state the orchestrator reads at the
// start of a turn and writes back once at the end. History is bounded FIFO:
// appending beyond the cap evicts the oldest entry.
type ConversationContext struct {
	UserID       string         `json:"user_id"`
	History      []Utterance    `json:"history"`
	LastLevel    CognitiveLevel `json:"last_level,omitempty"`
	LastType     QuestionType   `json:"last_type,omitempty"`
	LastStrategy Strategy       `json:"last_strategy,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewConversationContext returns an empty context for a user.
func NewConversationContext(userID string) ConversationContext {
	return ConversationContext{UserID: userID}
}

// Append returns a copy of the context with the utterance added,
// evicting the oldest entries so the history never exceeds cap.
// A cap <= 0 keeps no history at all.
func (c ConversationContext) Append(u Utterance, cap int) ConversationContext {
	next := c
	history := make([]Utterance, len(c.History), len(c.History)+1)
	copy(history, c.History)
	history = append(history, u)
	if cap <= 0 {
		history = nil
	} else if len(history) > cap {
		history = history[len(history)-cap:]
	}
	next.History = history
	return next
}

// RecentTexts returns the history texts, most recent last.
func (c ConversationContext) RecentTexts() []string {
	texts := make([]string, 0, len(c.History))
	for _, u := range c.History {
		texts = append(texts, u.Text)
	}
	return texts
}

// QuickReplyOption is one follow-up suggestion offered after a turn.
type QuickReplyOption struct {
	Label    string `json:"label"`
	Text     string `json:"text"`
	Category string `json:"category"`
}
