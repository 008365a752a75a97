package service

import "errors"

var (
	// ErrRetrievalUnavailable reports that the vector index could not be
	// reached or the query embedding could not be produced. Callers degrade
	// to a retrieval-free turn rather than failing outright.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrContextStore reports a conversation-profile read or write failure.
	// Unlike retrieval errors this is not survivable: a turn that cannot
	// load or commit its context would corrupt the history.
	ErrContextStore = errors.New("context store failure")

	// ErrStrategyTableGap reports a (level, type) pair with no strategy
	// mapping. The table is exhaustive by construction, so this only fires
	// when a new label is added without updating the table.
	ErrStrategyTableGap = errors.New("strategy table gap")
)
