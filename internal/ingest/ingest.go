package ingest

import (
	"time"

	"cardvault/internal/card"
)

// Run records one pipeline invocation for later inspection.
type Run struct {
	ID           string
	Mode         string // SEARCH, SEARCH_COLLECT, BULK
	Query        string
	Status       string // RUNNING, COMPLETED, FAILED
	CardsFetched int
	CardsStored  int
	StartedAt    time.Time
	FinishedAt   *time.Time
	Error        string
}

const (
	ModeSearch        = "SEARCH"
	ModeSearchCollect = "SEARCH_COLLECT"
	ModeBulk          = "BULK"

	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// QueryResult is one entry of a multi-query fan-out, in the caller's input
// order. Exactly one of Cards/Err is meaningful.
type QueryResult struct {
	Query string
	Cards []card.Card
	Err   error
}
