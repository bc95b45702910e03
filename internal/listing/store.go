package listing

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/gamedeck/internal/domain"
)

// Status is the load state of a paged list
type Status int

const (
	StatusIdle Status = iota
	StatusLoadingFirst
	StatusLoadingMore
	StatusRefreshing
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoadingFirst:
		return "loading-first"
	case StatusLoadingMore:
		return "loading-more"
	case StatusRefreshing:
		return "refreshing"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Loading reports whether a request is in flight
func (s Status) Loading() bool {
	return s == StatusLoadingFirst || s == StatusLoadingMore || s == StatusRefreshing
}

// State is an immutable snapshot of a paged list
type State struct {
	Filter      domain.Filter
	Items       []domain.Item // unique by id, page-arrival order
	CurrentPage int
	LastPage    int
	Status      Status
	Err         error // cause of StatusError
}

// HasMore reports whether LoadNextPage would request another page
func (s State) HasMore() bool {
	return s.CurrentPage < s.LastPage
}

// Store accumulates the pages of one remote collection.
//
// A page-1 load replaces the items wholesale; later pages append only items
// whose id is not yet present. A newer LoadFirstPage or Refresh supersedes any
// request still in flight: every first-page load bumps a generation counter and
// a response is applied only if the generation it was issued under is current.
type Store struct {
	fetcher domain.PageFetcher
	logger  *slog.Logger

	notifyMu sync.Mutex // Serializes transitions so subscribers see them in order

	mu         sync.Mutex // Protects the fields below; never held across a fetch
	filter     domain.Filter
	items      *domain.ItemSet
	current    int
	last       int
	status     Status
	err        error
	failedNext bool // last failure was a LoadNextPage
	generation uint64

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// New creates an idle, empty list store
func New(fetcher domain.PageFetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		fetcher: fetcher,
		logger:  logger,
		items:   domain.NewItemSet(),
		current: 1,
		last:    1,
		subs:    make(map[int]func(State)),
	}
}

// State returns a snapshot of the list
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	return State{
		Filter:      s.filter,
		Items:       s.items.Items(),
		CurrentPage: s.current,
		LastPage:    s.last,
		Status:      s.status,
		Err:         s.err,
	}
}

// Subscribe registers fn to receive a snapshot after every state transition.
// fn runs on the goroutine that caused the transition and must not call the
// store's load methods synchronously. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(state State) {
	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// transition applies mutate under the state lock and notifies subscribers.
// mutate returns false to leave the state untouched and skip notification.
func (s *Store) transition(mutate func() bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !mutate() {
		s.mu.Unlock()
		return false
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// LoadFirstPage resets the list to filter and fetches page 1.
// Returns the fetch error when it is applied to the state.
func (s *Store) LoadFirstPage(ctx context.Context, filter domain.Filter) error {
	return s.loadFirst(ctx, filter, StatusLoadingFirst)
}

// Refresh reloads page 1 of the active filter
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()
	return s.loadFirst(ctx, filter, StatusRefreshing)
}

func (s *Store) loadFirst(ctx context.Context, filter domain.Filter, status Status) error {
	var gen uint64
	s.transition(func() bool {
		s.generation++
		gen = s.generation
		s.filter = filter
		s.items = domain.NewItemSet()
		s.current = 1
		s.last = 1
		s.status = status
		s.err = nil
		s.failedNext = false
		return true
	})

	s.logger.Debug("loading first page", "filter", filter.String(), "status", status.String(), "generation", gen)
	page, err := s.fetcher.FetchPage(ctx, filter, 1)

	applied := s.transition(func() bool {
		if gen != s.generation {
			return false
		}
		if err != nil {
			s.status = StatusError
			s.err = err
			return true
		}
		s.items = domain.NewItemSet(page.Items...)
		s.current = 1
		s.last = lastPage(page, 1)
		s.status = StatusIdle
		return true
	})

	if !applied {
		s.logger.Debug("discarding superseded response", "filter", filter.String(), "generation", gen)
		return nil
	}
	if err != nil {
		s.logger.Warn("failed to load first page", "filter", filter.String(), "error", err)
		return err
	}
	return nil
}

// LoadNextPage appends the next page. It does nothing while a load is in
// flight or once the last page has been reached.
func (s *Store) LoadNextPage(ctx context.Context) error {
	var (
		gen    uint64
		filter domain.Filter
		next   int
	)
	started := s.transition(func() bool {
		if s.status.Loading() || s.current >= s.last {
			return false
		}
		gen = s.generation
		filter = s.filter
		next = s.current + 1
		s.status = StatusLoadingMore
		s.err = nil
		return true
	})
	if !started {
		return nil
	}

	s.logger.Debug("loading next page", "filter", filter.String(), "page", next, "generation", gen)
	page, err := s.fetcher.FetchPage(ctx, filter, next)

	var added int
	applied := s.transition(func() bool {
		if gen != s.generation {
			return false
		}
		if err != nil {
			s.status = StatusError
			s.err = err
			s.failedNext = true
			return true
		}
		for _, it := range page.Items {
			if s.items.Add(it) {
				added++
			}
		}
		s.current = next
		s.last = lastPage(page, next)
		s.status = StatusIdle
		s.failedNext = false
		return true
	})

	if !applied {
		s.logger.Debug("discarding superseded response", "filter", filter.String(), "page", next, "generation", gen)
		return nil
	}
	if err != nil {
		s.logger.Warn("failed to load next page", "filter", filter.String(), "page", next, "error", err)
		return err
	}
	s.logger.Debug("appended page", "filter", filter.String(), "page", next, "added", added, "duplicates", len(page.Items)-added)
	return nil
}

// Reset empties the list and drops any request in flight
func (s *Store) Reset(filter domain.Filter) {
	s.transition(func() bool {
		s.generation++
		s.filter = filter
		s.items = domain.NewItemSet()
		s.current = 1
		s.last = 1
		s.status = StatusIdle
		s.err = nil
		s.failedNext = false
		return true
	})
}

// Retry repeats the request that failed: the next page when an append
// failed, otherwise page 1.
func (s *Store) Retry(ctx context.Context) error {
	s.mu.Lock()
	failedNext := s.status == StatusError && s.failedNext
	s.mu.Unlock()

	if failedNext {
		return s.LoadNextPage(ctx)
	}
	return s.Refresh(ctx)
}

// lastPage takes the response's last page, never below the page just loaded
// so an empty or short response stops pagination.
func lastPage(page domain.Page, requested int) int {
	if page.LastPage < requested {
		return requested
	}
	return page.LastPage
}
