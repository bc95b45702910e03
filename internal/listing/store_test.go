package listing

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/mmcdole/gamedeck/internal/domain"
)

type pageKey struct {
	filter string
	page   int
}

type fetchResult struct {
	page domain.Page
	err  error
}

// fakeFetcher serves canned pages. A gate for a filter blocks its fetches
// until the gate is closed; started receives the filter of each fetch.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[pageKey]fetchResult
	gates   map[string]chan struct{}
	started chan string
	calls   []pageKey
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		results: make(map[pageKey]fetchResult),
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 16),
	}
}

func (f *fakeFetcher) set(filter domain.Filter, page int, ids []int, last int) {
	items := make([]domain.Item, len(ids))
	for i, id := range ids {
		items[i] = domain.Item{ID: domain.ItemID(fmt.Sprint(id)), Title: fmt.Sprintf("game %d", id)}
	}
	f.mu.Lock()
	f.results[pageKey{filter.String(), page}] = fetchResult{page: domain.Page{Items: items, CurrentPage: page, LastPage: last}}
	f.mu.Unlock()
}

func (f *fakeFetcher) fail(filter domain.Filter, page int, err error) {
	f.mu.Lock()
	f.results[pageKey{filter.String(), page}] = fetchResult{err: err}
	f.mu.Unlock()
}

func (f *fakeFetcher) gate(filter domain.Filter) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[filter.String()] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeFetcher) FetchPage(ctx context.Context, filter domain.Filter, page int) (domain.Page, error) {
	key := pageKey{filter.String(), page}
	f.mu.Lock()
	f.calls = append(f.calls, key)
	gate := f.gates[key.filter]
	res, ok := f.results[key]
	f.mu.Unlock()

	f.started <- key.filter
	if gate != nil {
		<-gate
	}
	if !ok {
		// Unknown pages behave like a malformed body
		return domain.Page{Items: []domain.Item{}, CurrentPage: page, LastPage: page}, nil
	}
	return res.page, res.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func stateIDs(s State) []domain.ItemID {
	out := make([]domain.ItemID, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.ID
	}
	return out
}

func assertNoDuplicates(t *testing.T, s State) {
	t.Helper()
	seen := make(map[domain.ItemID]bool)
	for _, it := range s.Items {
		if seen[it.ID] {
			t.Fatalf("duplicate id %s in %v", it.ID, stateIDs(s))
		}
		seen[it.ID] = true
	}
}

func TestNewStoreIsIdle(t *testing.T) {
	s := New(newFakeFetcher(), nil)
	st := s.State()
	if st.Status != StatusIdle || len(st.Items) != 0 || st.CurrentPage != 1 || st.LastPage != 1 {
		t.Fatalf("unexpected initial state %+v", st)
	}
}

func TestLoadFirstThenNextDeduplicates(t *testing.T) {
	f := newFakeFetcher()
	all := domain.AllGames()
	f.set(all, 1, []int{1, 2}, 2)
	f.set(all, 2, []int{2, 3}, 2)

	s := New(f, nil)
	ctx := context.Background()
	if err := s.LoadFirstPage(ctx, all); err != nil {
		t.Fatalf("first page: %v", err)
	}
	if err := s.LoadNextPage(ctx); err != nil {
		t.Fatalf("next page: %v", err)
	}

	st := s.State()
	want := []domain.ItemID{"1", "2", "3"}
	if !reflect.DeepEqual(stateIDs(st), want) {
		t.Fatalf("expected %v, got %v", want, stateIDs(st))
	}
	if st.CurrentPage != 2 || st.LastPage != 2 || st.Status != StatusIdle {
		t.Fatalf("unexpected pagination state %+v", st)
	}
	if st.Items[1].Title != "game 2" {
		t.Fatalf("expected first occurrence of id 2 to be kept, got %q", st.Items[1].Title)
	}
}

func TestDedupAcrossManyOverlappingPages(t *testing.T) {
	f := newFakeFetcher()
	all := domain.AllGames()
	f.set(all, 1, []int{1, 2, 3, 3}, 5)
	f.set(all, 2, []int{3, 4, 1}, 5)
	f.set(all, 3, []int{4, 4, 5}, 5)
	f.set(all, 4, []int{}, 5)
	f.set(all, 5, []int{5, 6, 2}, 5)

	s := New(f, nil)
	ctx := context.Background()
	_ = s.LoadFirstPage(ctx, all)
	assertNoDuplicates(t, s.State())
	for i := 0; i < 6; i++ {
		_ = s.LoadNextPage(ctx)
		assertNoDuplicates(t, s.State())
	}

	want := []domain.ItemID{"1", "2", "3", "4", "5", "6"}
	if !reflect.DeepEqual(stateIDs(s.State()), want) {
		t.Fatalf("expected %v, got %v", want, stateIDs(s.State()))
	}
}

func TestRefreshReplacesItems(t *testing.T) {
	f := newFakeFetcher()
	all := domain.AllGames()
	f.set(all, 1, []int{1, 2}, 3)
	f.set(all, 2, []int{3, 4}, 3)

	s := New(f, nil)
	ctx := context.Background()
	_ = s.LoadFirstPage(ctx, all)
	_ = s.LoadNextPage(ctx)

	f.set(all, 1, []int{9, 1}, 3)
	var statuses []Status
	unsub := s.Subscribe(func(st State) { statuses = append(statuses, st.Status) })
	defer unsub()

	if err := s.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	st := s.State()
	if !reflect.DeepEqual(stateIDs(st), []domain.ItemID{"9", "1"}) {
		t.Fatalf("expected page 1 content only, got %v", stateIDs(st))
	}
	if st.CurrentPage != 1 {
		t.Fatalf("expected current page 1, got %d", st.CurrentPage)
	}
	if !reflect.DeepEqual(statuses, []Status{StatusRefreshing, StatusIdle}) {
		t.Fatalf("expected refreshing then idle, got %v", statuses)
	}
}

func TestLoadFirstPageChangesFilter(t *testing.T) {
	f := newFakeFetcher()
	f.set(domain.AllGames(), 1, []int{1, 2}, 1)
	f.set(domain.ByCategory("4"), 1, []int{7}, 1)

	s := New(f, nil)
	ctx := context.Background()
	_ = s.LoadFirstPage(ctx, domain.AllGames())
	_ = s.LoadFirstPage(ctx, domain.ByCategory("4"))

	st := s.State()
	if !reflect.DeepEqual(stateIDs(st), []domain.ItemID{"7"}) {
		t.Fatalf("expected category items, got %v", stateIDs(st))
	}
	if st.Filter != domain.ByCategory("4") {
		t.Fatalf("expected active filter to change, got %s", st.Filter)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	f := newFakeFetcher()
	slow := domain.BySearch("slow")
	fast := domain.BySearch("fast")
	f.set(slow, 1, []int{1, 2}, 3)
	f.set(fast, 1, []int{8}, 1)
	release := f.gate(slow)

	s := New(f, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.LoadFirstPage(ctx, slow) }()
	if got := <-f.started; got != slow.String() {
		t.Fatalf("expected slow fetch to start, got %s", got)
	}

	if err := s.LoadFirstPage(ctx, fast); err != nil {
		t.Fatalf("fast load: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("expected superseded load to return nil, got %v", err)
	}

	st := s.State()
	if !reflect.DeepEqual(stateIDs(st), []domain.ItemID{"8"}) {
		t.Fatalf("expected only the newer response, got %v", stateIDs(st))
	}
	if st.Filter != fast || st.LastPage != 1 || st.Status != StatusIdle {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestStaleNextPageIsDiscarded(t *testing.T) {
	f := newFakeFetcher()
	all := domain.AllGames()
	other := domain.ByCategory("2")
	f.set(all, 1, []int{1}, 2)
	f.set(all, 2, []int{2}, 2)
	f.set(other, 1, []int{5}, 1)

	s := New(f, nil)
	ctx := context.Background()
	_ = s.LoadFirstPage(ctx, all)
	<-f.started

	release := f.gate(all)
	done := make(chan error, 1)
	go func() { done <- s.LoadNextPage(ctx) }()
	<-f.started

	_ = s.LoadFirstPage(ctx, other)
	close(release)
	<-done

	st := s.State()
	if !reflect.DeepEqual(stateIDs(st), []domain.ItemID{"5"}) {
		t.Fatalf("expected appended page to be dropped, got %v", stateIDs(st))
	}
	if st.CurrentPage != 1 {
		t.Fatalf("expected current page 1, got %d", st.CurrentPage)
	}
}

func TestLoadNextPageIsNoOpWhileLoading(t *testing.T) {
	f := newFakeFetcher()
	all := domain.AllGames()
	f.set(all, 1, []int{1}, 3)
	release := f.gate(all)

	s := New(f, nil)
	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- s.LoadFirstPage(ctx, all) }()
	<-f.started

	if err := s.LoadNextPage(ctx); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if f.callCount() != 1 {
		t.Fatalf("expected no extra fetch while loading, got %d calls", f.callCount())
	}
	if s.State().Status != StatusLoadingFirst {
		t.Fatalf("expected status to stay loading-first, got %s", s.State().Status)
	}

	close(release)
	<-done
}

func TestPaginationTerminates(t *testing.T) {
	f := newFakeFetcher()
	all := domain.AllGames()
	f.set(all, 1, []int{1}, 2)
	f.set(all, 2, []int{2}, 2)

	s := New(f, nil)
	ctx := context.Background()
	_ = s.LoadFirstPage(ctx, all)
	_ = s.LoadNextPage(ctx)
	calls := f.callCount()
	before := s.State()

	notified := false
	unsub := s.Subscribe(func(State) { notified = true })
	defer unsub()

	_ = s.LoadNextPage(ctx)
	if f.callCount() != calls {
		t.Fatalf("expected no fetch past the last page")
	}
	if notified {
		t.Fatalf("expected no state change past the last page")
	}
	if !reflect.DeepEqual(before, s.State()) {
		t.Fatalf("expected state unchanged, got %+v", s.State())
	}
}

func TestMalformedFirstPageStopsPagination(t *testing.T) {
	f := newFakeFetcher() // no pages configured: every fetch returns the malformed normalization

	s := New(f, nil)
	ctx := context.Background()
	if err := s.LoadFirstPage(ctx, domain.AllGames()); err != nil {
		t.Fatalf("first page: %v", err)
	}

	st := s.State()
	if len(st.Items) != 0 || st.Status != StatusIdle || st.LastPage != 1 {
		t.Fatalf("expected empty idle state with last page 1, got %+v", st)
	}
	_ = s.LoadNextPage(ctx)
	if f.callCount() != 1 {
		t.Fatalf("expected pagination to stop, got %d calls", f.callCount())
	}
}

func TestShortLastPageNeverGoesBackwards(t *testing.T) {
	f := newFakeFetcher()
	all := domain.AllGames()
	f.set(all, 1, []int{1}, 3)
	f.set(all, 2, []int{2}, 1) // server shrank the collection

	s := New(f, nil)
	ctx := context.Background()
	_ = s.LoadFirstPage(ctx, all)
	_ = s.LoadNextPage(ctx)

	st := s.State()
	if st.CurrentPage != 2 || st.LastPage != 2 || st.HasMore() {
		t.Fatalf("expected pagination to end at page 2, got %+v", st)
	}
}

func TestFirstPageFailure(t *testing.T) {
	f := newFakeFetcher()
	all := domain.AllGames()
	netErr := &domain.NetworkError{URL: "http://api.test/games", StatusCode: 502}
	f.fail(all, 1, netErr)

	s := New(f, nil)
	err := s.LoadFirstPage(context.Background(), all)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}

	st := s.State()
	if st.Status != StatusError || len(st.Items) != 0 || !errors.Is(st.Err, domain.ErrNetwork) {
		t.Fatalf("expected error state with no items, got %+v", st)
	}
}

func TestNextPageFailureKeepsPageForRetry(t *testing.T) {
	f := newFakeFetcher()
	all := domain.AllGames()
	f.set(all, 1, []int{1, 2}, 2)
	f.fail(all, 2, &domain.NetworkError{URL: "u"})

	s := New(f, nil)
	ctx := context.Background()
	_ = s.LoadFirstPage(ctx, all)
	if err := s.LoadNextPage(ctx); err == nil {
		t.Fatalf("expected error")
	}

	st := s.State()
	if st.Status != StatusError || st.CurrentPage != 1 {
		t.Fatalf("expected error with current page unchanged, got %+v", st)
	}
	if !reflect.DeepEqual(stateIDs(st), []domain.ItemID{"1", "2"}) {
		t.Fatalf("expected loaded items to be kept, got %v", stateIDs(st))
	}

	f.set(all, 2, []int{2, 3}, 2)
	if err := s.Retry(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	st = s.State()
	if !reflect.DeepEqual(stateIDs(st), []domain.ItemID{"1", "2", "3"}) || st.CurrentPage != 2 {
		t.Fatalf("expected retry to append page 2, got %v page %d", stateIDs(st), st.CurrentPage)
	}
	last := f.calls[len(f.calls)-1]
	if last.page != 2 {
		t.Fatalf("expected retry to request page 2, got %d", last.page)
	}
}

func TestRetryAfterFirstPageFailureReloads(t *testing.T) {
	f := newFakeFetcher()
	cat := domain.ByCategory("3")
	f.fail(cat, 1, &domain.NetworkError{URL: "u"})

	s := New(f, nil)
	ctx := context.Background()
	_ = s.LoadFirstPage(ctx, cat)

	f.set(cat, 1, []int{4}, 1)
	if err := s.Retry(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	st := s.State()
	if st.Status != StatusIdle || st.Filter != cat || !reflect.DeepEqual(stateIDs(st), []domain.ItemID{"4"}) {
		t.Fatalf("unexpected state after retry %+v", st)
	}
}

func TestResetClearsAndSupersedes(t *testing.T) {
	f := newFakeFetcher()
	q := domain.BySearch("cars")
	f.set(q, 1, []int{1, 2}, 1)
	release := f.gate(q)

	s := New(f, nil)
	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- s.LoadFirstPage(ctx, q) }()
	<-f.started

	s.Reset(domain.BySearch("ca"))
	close(release)
	<-done

	st := s.State()
	if len(st.Items) != 0 || st.Status != StatusIdle || st.Filter != domain.BySearch("ca") {
		t.Fatalf("expected empty idle list after reset, got %+v", st)
	}
}

func TestSubscribeSeesTransitionsInOrder(t *testing.T) {
	f := newFakeFetcher()
	all := domain.AllGames()
	f.set(all, 1, []int{1}, 2)
	f.set(all, 2, []int{2}, 2)

	s := New(f, nil)
	var seen []string
	unsub := s.Subscribe(func(st State) {
		seen = append(seen, fmt.Sprintf("%s:%d", st.Status, len(st.Items)))
	})

	ctx := context.Background()
	_ = s.LoadFirstPage(ctx, all)
	_ = s.LoadNextPage(ctx)
	unsub()
	_ = s.Refresh(ctx)

	want := []string{"loading-first:0", "idle:1", "loading-more:1", "idle:2"}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
}

func TestStateSnapshotIsImmutable(t *testing.T) {
	f := newFakeFetcher()
	f.set(domain.AllGames(), 1, []int{1}, 1)

	s := New(f, nil)
	_ = s.LoadFirstPage(context.Background(), domain.AllGames())

	st := s.State()
	st.Items[0].Title = "changed"
	if s.State().Items[0].Title != "game 1" {
		t.Fatalf("expected snapshot mutation not to leak")
	}
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusIdle:         "idle",
		StatusLoadingFirst: "loading-first",
		StatusLoadingMore:  "loading-more",
		StatusRefreshing:   "refreshing",
		StatusError:        "error",
	}
	for status, want := range tests {
		if status.String() != want {
			t.Fatalf("expected %s, got %s", want, status.String())
		}
	}
}
