package ingest

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"cardvault/internal/card"
	"cardvault/internal/scryfall"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of rows committed per transaction during
// bulk imports.
const DefaultBatchSize = 500

type Config struct {
	BatchSize int
}

// Fetcher is the slice of the Scryfall client the pipeline needs.
type Fetcher interface {
	ForEachPage(ctx context.Context, query string, fn func(*scryfall.SearchPage) error) error
	FetchAllPages(ctx context.Context, query string) ([]*scryfall.SearchPage, error)
	BulkCatalog(ctx context.Context) (*scryfall.BulkEntry, error)
	DownloadBulk(ctx context.Context, uri string) ([]json.RawMessage, error)
}

// Service wires the paginated fetcher, the normalizer and the card store into
// the ingestion pipeline. One Service (and one underlying rate limiter) is
// shared by every concurrent query.
type Service struct {
	client Fetcher
	cards  card.Repository
	runs   Repository
	cfg    Config
}

func NewService(client Fetcher, cards card.Repository, runs Repository, cfg Config) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Service{client: client, cards: cards, runs: runs, cfg: cfg}
}

// beginRun opens a run record; finishRun finalizes it with the outcome.
func (s *Service) beginRun(ctx context.Context, mode, query string) *Run {
	run := &Run{Mode: mode, Query: query, Status: StatusRunning, StartedAt: time.Now()}
	id, err := s.runs.CreateRun(ctx, run)
	if err != nil {
		log.Printf("ingest: create run: %v", err)
		return run
	}
	run.ID = id
	return run
}

func (s *Service) finishRun(ctx context.Context, run *Run, err error) {
	now := time.Now()
	run.FinishedAt = &now
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = StatusCompleted
	}
	if run.ID == "" {
		return
	}
	if updateErr := s.runs.UpdateRun(ctx, run); updateErr != nil {
		log.Printf("ingest: update run %s: %v", run.ID, updateErr)
	}
}

// FetchAndStore walks a query's result pages and upserts each page as it
// arrives. Pages persisted before a transport or storage failure stay
// committed; the count of stored cards is returned either way.
func (s *Service) FetchAndStore(ctx context.Context, query string) (stored int, err error) {
	run := s.beginRun(ctx, ModeSearch, query)
	defer func() { s.finishRun(ctx, run, err) }()

	page := 0
	err = s.client.ForEachPage(ctx, query, func(p *scryfall.SearchPage) error {
		page++
		cards := card.NormalizePage(p.Data)
		run.CardsFetched += len(cards)

		n, upsertErr := s.cards.UpsertBatch(ctx, cards)
		stored += n
		run.CardsStored = stored
		if upsertErr != nil {
			return upsertErr
		}
		log.Printf("ingest: query %q page %d: stored %d (total %d of %d)",
			query, page, n, stored, p.TotalCards)
		return nil
	})
	return stored, err
}

// FetchAllThenStore accumulates every page of a query in memory before
// writing anything. A fetch failure therefore stores nothing; once fetching
// succeeds the cards are committed in fixed-size batches.
func (s *Service) FetchAllThenStore(ctx context.Context, query string) (stored int, err error) {
	run := s.beginRun(ctx, ModeSearchCollect, query)
	defer func() { s.finishRun(ctx, run, err) }()

	pages, err := s.client.FetchAllPages(ctx, query)
	if err != nil {
		return 0, err
	}

	var cards []card.Card
	for _, p := range pages {
		cards = append(cards, card.NormalizePage(p.Data)...)
	}
	run.CardsFetched = len(cards)

	stored, err = s.storeChunked(ctx, run, cards)
	return stored, err
}

// ImportBulk downloads the full default-cards snapshot and imports it in
// batches, reporting cumulative progress. Batches committed before a failure
// remain in place.
func (s *Service) ImportBulk(ctx context.Context) (stored int, err error) {
	run := s.beginRun(ctx, ModeBulk, "")
	defer func() { s.finishRun(ctx, run, err) }()

	entry, err := s.client.BulkCatalog(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("ingest: bulk data updated %s, downloading %s", entry.UpdatedAt, entry.DownloadURI)

	records, err := s.client.DownloadBulk(ctx, entry.DownloadURI)
	if err != nil {
		return 0, err
	}
	run.CardsFetched = len(records)
	log.Printf("ingest: downloaded %d cards", len(records))

	cards := card.NormalizePage(records)
	stored, err = s.storeChunked(ctx, run, cards)
	return stored, err
}

func (s *Service) storeChunked(ctx context.Context, run *Run, cards []card.Card) (int, error) {
	stored := 0
	for start := 0; start < len(cards); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(cards))
		n, err := s.cards.UpsertBatch(ctx, cards[start:end])
		stored += n
		run.CardsStored = stored
		if err != nil {
			return stored, err
		}
		log.Printf("ingest: stored %d/%d cards", stored, len(cards))
	}
	return stored, nil
}

// FetchMany fetches several queries concurrently under the shared rate
// limiter. Every query is validated up front; invalid ones never reach the
// network and report their validation error in the original input position.
// Results come back in input order regardless of completion order.
func (s *Service) FetchMany(ctx context.Context, queries []string) []QueryResult {
	results := make([]QueryResult, len(queries))
	valErrs := scryfall.ValidateAll(queries)

	var g errgroup.Group
	for i, query := range queries {
		results[i].Query = query
		if valErrs[i] != nil {
			results[i].Err = valErrs[i]
			continue
		}

		g.Go(func() error {
			pages, err := s.client.FetchAllPages(ctx, query)
			if err != nil {
				results[i].Err = err
				return nil
			}
			var cards []card.Card
			for _, p := range pages {
				cards = append(cards, card.NormalizePage(p.Data)...)
			}
			results[i].Cards = cards
			return nil
		})
	}
	_ = g.Wait()
	return results
}
