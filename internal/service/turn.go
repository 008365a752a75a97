package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bodhibot/bodhibot-go/internal/config"
	"github.com/bodhibot/bodhibot-go/internal/metrics"
	"github.com/bodhibot/bodhibot-go/internal/models"
)

// TurnState names a stage of the per-turn pipeline. States advance strictly
// forward; a turn never revisits an earlier stage.
type TurnState string

const (
	StateIdle              TurnState = "idle"
	StateClassifying       TurnState = "classifying"
	StateStrategySelecting TurnState = "strategy_selecting"
	StateRetrieving        TurnState = "retrieving"
	StateSuggesting        TurnState = "suggesting"
	StateComposed          TurnState = "composed"
)

// ContextStore persists per-user conversation contexts. *db.Client
// satisfies this.
type ContextStore interface {
	GetContext(ctx context.Context, userID string) (models.ConversationContext, error)
	PutContext(ctx context.Context, cc models.ConversationContext, ttl time.Duration) error
	DeleteContext(ctx context.Context, userID string) error
}

// ExcerptRetriever fetches ranked scripture excerpts for a query.
// *Retriever satisfies this.
type ExcerptRetriever interface {
	Retrieve(ctx context.Context, query string) ([]models.RetrievalCandidate, error)
}

// TurnResult is everything a response composer downstream needs: labels,
// strategy, supporting excerpts and follow-up suggestions. Degraded marks a
// turn whose retrieval failed; Excerpts is empty in that case.
type TurnResult struct {
	Utterance    models.Utterance            `json:"utterance"`
	Level        models.CognitiveLevel       `json:"level"`
	Type         models.QuestionType         `json:"type"`
	Strategy     models.Strategy             `json:"strategy"`
	Excerpts     []models.RetrievalCandidate `json:"excerpts"`
	QuickReplies []models.QuickReplyOption   `json:"quick_replies"`
	State        TurnState                   `json:"state"`
	Degraded     bool                        `json:"degraded"`
}

// Orchestrator drives one utterance through classification, strategy
// selection, retrieval and suggestion, and is the only writer of
// conversation contexts. Turns for the same user serialize on a per-user
// lock; unrelated users never contend.
type Orchestrator struct {
	classifier *Classifier
	retriever  ExcerptRetriever
	suggester  *Suggester
	store      ContextStore
	metrics    *metrics.Collector
	locks      *userLocks

	historyLimit int
	contextTTL   time.Duration
}

func NewOrchestrator(classifier *Classifier, retriever ExcerptRetriever, suggester *Suggester, store ContextStore, collector *metrics.Collector, cfg config.Config) (*Orchestrator, error) {
	if err := ValidateStrategyTable(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		classifier:   classifier,
		retriever:    retriever,
		suggester:    suggester,
		store:        store,
		metrics:      collector,
		locks:        newUserLocks(),
		historyLimit: cfg.HistoryLimit,
		contextTTL:   cfg.ContextTTL,
	}, nil
}

// Turn processes one utterance end to end. Retrieval failure degrades the
// turn (empty excerpts, Degraded set) instead of failing it; context-store
// failures and strategy-table gaps abort the turn with no context written.
// A context canceled before the final commit also leaves the stored
// conversation untouched.
func (o *Orchestrator) Turn(ctx context.Context, userID, text string) (TurnResult, error) {
	return o.TurnObserved(ctx, userID, text, nil)
}

// TurnObserved is Turn with a stage callback, invoked as the pipeline
// enters each state. Used by streaming transports to report progress;
// observe may be nil.
func (o *Orchestrator) TurnObserved(ctx context.Context, userID, text string, observe func(TurnState)) (TurnResult, error) {
	enter := func(s TurnState) {
		if observe != nil {
			observe(s)
		}
	}
	text = strings.TrimSpace(text)
	if userID == "" {
		return TurnResult{}, fmt.Errorf("user ID is required")
	}
	if text == "" {
		return TurnResult{}, fmt.Errorf("utterance text is empty")
	}

	start := time.Now()
	u := models.Utterance{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}

	// Held for the whole turn, LLM and embedding calls included. The lock
	// is keyed by user, so only that user's own next turn waits; turns for
	// other users proceed in parallel.
	unlock := o.locks.lock(userID)
	defer unlock()

	cc, err := o.store.GetContext(ctx, userID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("%w: loading context for %s: %v", ErrContextStore, userID, err)
	}

	enter(StateClassifying)
	classifyStart := time.Now()
	level, qtype := o.classifier.Classify(ctx, text, cc.RecentTexts())
	o.metrics.RecordTiming(metrics.OpClassify, time.Since(classifyStart))

	enter(StateStrategySelecting)
	strategy, err := SelectStrategy(level, qtype)
	if err != nil {
		return TurnResult{}, err
	}

	enter(StateRetrieving)
	degraded := false
	excerpts, err := o.retriever.Retrieve(ctx, text)
	if err != nil {
		slog.Warn("retrieval failed, composing without excerpts", "user", userID, "error", err)
		o.metrics.RecordDegradedTurn()
		degraded = true
		excerpts = nil
	}

	enter(StateSuggesting)
	suggestStart := time.Now()
	recent := append(cc.RecentTexts(), text)
	quickReplies := o.suggester.Contextual(recent)
	o.metrics.RecordTiming(metrics.OpSuggest, time.Since(suggestStart))

	// Nothing has been written yet; a canceled caller gets no context
	// mutation.
	if err := ctx.Err(); err != nil {
		return TurnResult{}, err
	}

	next := cc.Append(u, o.historyLimit)
	next.LastLevel = level
	next.LastType = qtype
	next.LastStrategy = strategy
	next.UpdatedAt = time.Now().UTC()
	if err := o.store.PutContext(ctx, next, o.contextTTL); err != nil {
		return TurnResult{}, fmt.Errorf("%w: committing context for %s: %v", ErrContextStore, userID, err)
	}

	enter(StateComposed)
	o.metrics.RecordTiming(metrics.OpTurn, time.Since(start))
	slog.Info("turn composed",
		"user", userID,
		"state", StateComposed,
		"level", level,
		"type", qtype,
		"strategy", strategy,
		"excerpts", len(excerpts),
		"degraded", degraded,
		"duration", time.Since(start))

	return TurnResult{
		Utterance:    u,
		Level:        level,
		Type:         qtype,
		Strategy:     strategy,
		Excerpts:     excerpts,
		QuickReplies: quickReplies,
		State:        StateComposed,
		Degraded:     degraded,
	}, nil
}

// Reset discards a user's stored conversation context. Resetting a user
// with no context is a no-op.
func (o *Orchestrator) Reset(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}
	unlock := o.locks.lock(userID)
	defer unlock()

	if err := o.store.DeleteContext(ctx, userID); err != nil {
		return fmt.Errorf("%w: deleting context for %s: %v", ErrContextStore, userID, err)
	}
	return nil
}

// Context returns a user's stored conversation context without mutating it.
func (o *Orchestrator) Context(ctx context.Context, userID string) (models.ConversationContext, error) {
	cc, err := o.store.GetContext(ctx, userID)
	if err != nil {
		return models.ConversationContext{}, fmt.Errorf("%w: loading context for %s: %v", ErrContextStore, userID, err)
	}
	return cc, nil
}
