package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cardvault/internal/card"
	"cardvault/internal/scryfall"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned pages per query, optionally failing after the
// pages it has, mirroring a transport error mid-walk.
type fakeFetcher struct {
	pages       map[string][]*scryfall.SearchPage
	pageErr     map[string]error
	bulkEntry   *scryfall.BulkEntry
	bulkErr     error
	records     []json.RawMessage
	downloadErr error
}

func (f *fakeFetcher) ForEachPage(ctx context.Context, query string, fn func(*scryfall.SearchPage) error) error {
	if err := scryfall.Validate(query); err != nil {
		return err
	}
	for _, p := range f.pages[query] {
		if err := fn(p); err != nil {
			return err
		}
	}
	return f.pageErr[query]
}

func (f *fakeFetcher) FetchAllPages(ctx context.Context, query string) ([]*scryfall.SearchPage, error) {
	var pages []*scryfall.SearchPage
	err := f.ForEachPage(ctx, query, func(p *scryfall.SearchPage) error {
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func (f *fakeFetcher) BulkCatalog(ctx context.Context) (*scryfall.BulkEntry, error) {
	return f.bulkEntry, f.bulkErr
}

func (f *fakeFetcher) DownloadBulk(ctx context.Context, uri string) ([]json.RawMessage, error) {
	return f.records, f.downloadErr
}

type mockCardRepo struct {
	mock.Mock
}

func (m *mockCardRepo) Upsert(ctx context.Context, c *card.Card) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCardRepo) UpsertBatch(ctx context.Context, cards []card.Card) (int, error) {
	args := m.Called(ctx, cards)
	return args.Int(0), args.Error(1)
}

func (m *mockCardRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockCardRepo) GetByID(ctx context.Context, id string) (*card.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card.Card), args.Error(1)
}

func (m *mockCardRepo) SearchByName(ctx context.Context, name string, limit int) ([]card.Card, error) {
	args := m.Called(ctx, name, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]card.Card), args.Error(1)
}

func (m *mockCardRepo) List(ctx context.Context, f card.Filter) ([]card.Card, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]card.Card), args.Int(1), args.Error(2)
}

type mockRunRepo struct {
	mock.Mock
}

func (m *mockRunRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	args := m.Called(ctx, run)
	return args.String(0), args.Error(1)
}

func (m *mockRunRepo) UpdateRun(ctx context.Context, run *Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func rawCards(ids ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, json.RawMessage(`{"id":"`+id+`","name":"Card `+id+`"}`))
	}
	return out
}

func batchOfLen(n int) any {
	return mock.MatchedBy(func(cards []card.Card) bool { return len(cards) == n })
}

func expectRun(m *mockRunRepo, id, finalStatus string) {
	m.On("CreateRun", mock.Anything, mock.Anything).Return(id, nil)
	m.On("UpdateRun", mock.Anything, mock.MatchedBy(func(run *Run) bool {
		return run.Status == finalStatus && run.FinishedAt != nil
	})).Return(nil)
}

func TestService_FetchAndStore(t *testing.T) {
	ctx := context.Background()

	t.Run("stores each page as it arrives", func(t *testing.T) {
		fetcher := &fakeFetcher{pages: map[string][]*scryfall.SearchPage{
			"type:creature": {
				{TotalCards: 3, HasMore: true, Data: rawCards("a", "b")},
				{TotalCards: 3, Data: rawCards("c")},
			},
		}}
		cards := new(mockCardRepo)
		runs := new(mockRunRepo)
		expectRun(runs, "run-1", StatusCompleted)

		cards.On("UpsertBatch", ctx, batchOfLen(2)).Return(2, nil).Once()
		cards.On("UpsertBatch", ctx, batchOfLen(1)).Return(1, nil).Once()

		s := NewService(fetcher, cards, runs, Config{})
		stored, err := s.FetchAndStore(ctx, "type:creature")

		require.NoError(t, err)
		assert.Equal(t, 3, stored)
		cards.AssertExpectations(t)
		runs.AssertExpectations(t)
	})

	t.Run("transport error preserves already persisted pages", func(t *testing.T) {
		transportErr := errors.New("connection reset")
		fetcher := &fakeFetcher{
			pages:   map[string][]*scryfall.SearchPage{"c:red": {{Data: rawCards("a", "b")}}},
			pageErr: map[string]error{"c:red": transportErr},
		}
		cards := new(mockCardRepo)
		runs := new(mockRunRepo)
		expectRun(runs, "run-2", StatusFailed)

		cards.On("UpsertBatch", ctx, batchOfLen(2)).Return(2, nil).Once()

		s := NewService(fetcher, cards, runs, Config{})
		stored, err := s.FetchAndStore(ctx, "c:red")

		assert.ErrorIs(t, err, transportErr)
		assert.Equal(t, 2, stored, "pages stored before the failure stay committed")
		runs.AssertExpectations(t)
	})

	t.Run("storage error aborts the walk", func(t *testing.T) {
		storageErr := errors.New("constraint violation")
		fetcher := &fakeFetcher{pages: map[string][]*scryfall.SearchPage{
			"t:goblin": {
				{HasMore: true, Data: rawCards("a")},
				{Data: rawCards("b")},
			},
		}}
		cards := new(mockCardRepo)
		runs := new(mockRunRepo)
		expectRun(runs, "run-3", StatusFailed)

		cards.On("UpsertBatch", ctx, mock.Anything).Return(1, nil).Once()
		cards.On("UpsertBatch", ctx, mock.Anything).Return(0, storageErr).Once()

		s := NewService(fetcher, cards, runs, Config{})
		stored, err := s.FetchAndStore(ctx, "t:goblin")

		assert.ErrorIs(t, err, storageErr)
		assert.Equal(t, 1, stored)
	})

	t.Run("invalid query never touches storage", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		cards := new(mockCardRepo)
		runs := new(mockRunRepo)
		expectRun(runs, "run-4", StatusFailed)

		s := NewService(fetcher, cards, runs, Config{})
		_, err := s.FetchAndStore(ctx, "(broken")

		var qe *scryfall.QueryError
		require.True(t, errors.As(err, &qe))
		cards.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
	})
}

func TestService_FetchAllThenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("stores in fixed-size batches after the full fetch", func(t *testing.T) {
		fetcher := &fakeFetcher{pages: map[string][]*scryfall.SearchPage{
			"set:lea": {
				{HasMore: true, Data: rawCards("a", "b", "c")},
				{Data: rawCards("d", "e")},
			},
		}}
		cards := new(mockCardRepo)
		runs := new(mockRunRepo)
		expectRun(runs, "run-5", StatusCompleted)

		cards.On("UpsertBatch", ctx, batchOfLen(2)).Return(2, nil).Twice()
		cards.On("UpsertBatch", ctx, batchOfLen(1)).Return(1, nil).Once()

		s := NewService(fetcher, cards, runs, Config{BatchSize: 2})
		stored, err := s.FetchAllThenStore(ctx, "set:lea")

		require.NoError(t, err)
		assert.Equal(t, 5, stored)
		cards.AssertExpectations(t)
	})

	t.Run("fetch failure stores nothing", func(t *testing.T) {
		fetcher := &fakeFetcher{
			pages:   map[string][]*scryfall.SearchPage{"set:lea": {{HasMore: true, Data: rawCards("a")}}},
			pageErr: map[string]error{"set:lea": errors.New("timeout")},
		}
		cards := new(mockCardRepo)
		runs := new(mockRunRepo)
		expectRun(runs, "run-6", StatusFailed)

		s := NewService(fetcher, cards, runs, Config{})
		stored, err := s.FetchAllThenStore(ctx, "set:lea")

		assert.Error(t, err)
		assert.Zero(t, stored)
		cards.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
	})
}

func TestService_ImportBulk(t *testing.T) {
	ctx := context.Background()

	t.Run("downloads and stores in chunks", func(t *testing.T) {
		fetcher := &fakeFetcher{
			bulkEntry: &scryfall.BulkEntry{Type: "default_cards", DownloadURI: "https://cdn.example/d.json"},
			records:   rawCards("a", "b", "c", "d", "e"),
		}
		cards := new(mockCardRepo)
		runs := new(mockRunRepo)
		expectRun(runs, "run-7", StatusCompleted)

		cards.On("UpsertBatch", ctx, batchOfLen(2)).Return(2, nil).Twice()
		cards.On("UpsertBatch", ctx, batchOfLen(1)).Return(1, nil).Once()

		s := NewService(fetcher, cards, runs, Config{BatchSize: 2})
		stored, err := s.ImportBulk(ctx)

		require.NoError(t, err)
		assert.Equal(t, 5, stored)
		cards.AssertExpectations(t)
	})

	t.Run("committed chunks survive a later storage failure", func(t *testing.T) {
		storageErr := errors.New("connection lost")
		fetcher := &fakeFetcher{
			bulkEntry: &scryfall.BulkEntry{Type: "default_cards", DownloadURI: "https://cdn.example/d.json"},
			records:   rawCards("a", "b", "c", "d"),
		}
		cards := new(mockCardRepo)
		runs := new(mockRunRepo)
		expectRun(runs, "run-8", StatusFailed)

		cards.On("UpsertBatch", ctx, mock.Anything).Return(2, nil).Once()
		cards.On("UpsertBatch", ctx, mock.Anything).Return(0, storageErr).Once()

		s := NewService(fetcher, cards, runs, Config{BatchSize: 2})
		stored, err := s.ImportBulk(ctx)

		assert.ErrorIs(t, err, storageErr)
		assert.Equal(t, 2, stored, "count reflects rows already committed")
	})

	t.Run("catalog failure stores nothing", func(t *testing.T) {
		fetcher := &fakeFetcher{bulkErr: errors.New("service unavailable")}
		cards := new(mockCardRepo)
		runs := new(mockRunRepo)
		expectRun(runs, "run-9", StatusFailed)

		s := NewService(fetcher, cards, runs, Config{})
		stored, err := s.ImportBulk(ctx)

		assert.Error(t, err)
		assert.Zero(t, stored)
		cards.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
	})
}

func TestService_FetchMany(t *testing.T) {
	ctx := context.Background()
	transportErr := errors.New("boom")

	fetcher := &fakeFetcher{
		pages: map[string][]*scryfall.SearchPage{
			"type:creature": {{Data: rawCards("a", "b")}},
		},
		pageErr: map[string]error{"c:red": transportErr},
	}
	cards := new(mockCardRepo)
	runs := new(mockRunRepo)

	s := NewService(fetcher, cards, runs, Config{})
	results := s.FetchMany(ctx, []string{"type:creature", "", "c:red"})

	require.Len(t, results, 3)

	assert.Equal(t, "type:creature", results[0].Query)
	require.NoError(t, results[0].Err)
	assert.Len(t, results[0].Cards, 2)

	var qe *scryfall.QueryError
	require.True(t, errors.As(results[1].Err, &qe), "invalid query reports its validation error in place")
	assert.Equal(t, scryfall.EmptyQuery, qe.Code)

	assert.Equal(t, "c:red", results[2].Query)
	assert.ErrorIs(t, results[2].Err, transportErr)
}
