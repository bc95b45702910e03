package favorites

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/gamedeck/internal/domain"
)

const (
	// StorageKey is the single key holding the favorites payload
	StorageKey = "favorites"

	payloadVersion = 1
)

// Backend is the durable key-value namespace owned by the favorites store
// (store.Namespace in production)
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// payload is the persisted form. Version 0 is the bare JSON array written by
// earlier releases; it is read as-is and rewritten as version 1.
type payload struct {
	Version int           `json:"version"`
	Items   []domain.Item `json:"items"`
}

// Store is the durable, insertion-ordered set of favorited items.
// Every mutation is persisted before it becomes visible; a failed write
// leaves the in-memory set untouched.
type Store struct {
	backend Backend
	logger  *slog.Logger

	writeMu sync.Mutex // Serializes mutations including the persistence write

	mu          sync.RWMutex // Protects set and initialized
	set         *domain.ItemSet
	initialized bool

	subMu  sync.Mutex
	subs   map[int]func([]domain.Item)
	nextID int
}

// New creates a favorites store over backend. Call Initialize before use.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		logger:  logger,
		set:     domain.NewItemSet(),
		subs:    make(map[int]func([]domain.Item)),
	}
}

// Initialize loads the persisted set. Missing or unreadable data yields an
// empty set; the problem is logged and never returned.
func (s *Store) Initialize() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	set := s.load()

	s.mu.Lock()
	s.set = set
	s.initialized = true
	s.mu.Unlock()

	s.logger.Info("loaded favorites", "count", set.Len())
	s.notify(set.Items())
}

func (s *Store) load() *domain.ItemSet {
	data, err := s.backend.Get(StorageKey)
	if err != nil {
		s.logger.Error("failed to read favorites, starting empty", "error", &domain.StorageError{Op: "read", Err: err})
		return domain.NewItemSet()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.NewItemSet()
	}

	items, version, err := decode(data)
	if err != nil {
		s.logger.Error("failed to decode favorites, starting empty", "error", err)
		return domain.NewItemSet()
	}
	if version > payloadVersion {
		s.logger.Warn("favorites written by a newer version", "version", version)
	}

	set := domain.NewItemSet()
	for _, it := range items {
		if it.ID.IsZero() {
			s.logger.Warn("dropping stored favorite without id", "title", it.Title)
			continue
		}
		set.Add(it)
	}
	return set
}

func decode(data []byte) ([]domain.Item, int, error) {
	data = bytes.TrimSpace(data)
	if data[0] == '[' {
		var items []domain.Item
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, 0, err
		}
		return items, 0, nil
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, 0, err
	}
	return p.Items, p.Version, nil
}

func encode(items []domain.Item) ([]byte, error) {
	if items == nil {
		items = []domain.Item{}
	}
	return json.Marshal(payload{Version: payloadVersion, Items: items})
}

// ensureInitialized loads persisted state on first use so a mutation never
// overwrites favorites it has not seen. Caller holds writeMu.
func (s *Store) ensureInitialized() {
	s.mu.RLock()
	ok := s.initialized
	s.mu.RUnlock()
	if ok {
		return
	}

	set := s.load()
	s.mu.Lock()
	s.set = set
	s.initialized = true
	s.mu.Unlock()
}

// Add inserts item unless an entry with its id exists.
// Returns whether an insertion occurred.
func (s *Store) Add(item domain.Item) (bool, error) {
	if item.ID.IsZero() {
		return false, errors.New("cannot favorite an item without an id")
	}
	return s.mutate(func(next *domain.ItemSet) bool {
		return next.Add(item)
	}, "add", item.ID)
}

// Remove deletes the entry with id. Returns whether a deletion occurred.
func (s *Store) Remove(id domain.ItemID) (bool, error) {
	return s.mutate(func(next *domain.ItemSet) bool {
		return next.Remove(id)
	}, "remove", id)
}

// Toggle adds item when absent and removes it when present.
// Returns whether the item is a favorite afterwards.
func (s *Store) Toggle(item domain.Item) (bool, error) {
	if item.ID.IsZero() {
		return false, errors.New("cannot favorite an item without an id")
	}

	// Decided under writeMu so overlapping toggles alternate
	var on bool
	_, err := s.mutate(func(next *domain.ItemSet) bool {
		if next.Contains(item.ID) {
			on = false
			return next.Remove(item.ID)
		}
		on = true
		return next.Add(item)
	}, "toggle", item.ID)
	if err != nil {
		return !on, err
	}
	return on, nil
}

// Clear removes every favorite and deletes the stored payload.
// Returns the number of favorites removed.
func (s *Store) Clear() (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.ensureInitialized()

	s.mu.RLock()
	n := s.set.Len()
	s.mu.RUnlock()

	if err := s.backend.Delete(StorageKey); err != nil {
		serr := &domain.StorageError{Op: "delete", Err: err}
		s.logger.Error("failed to clear favorites", "error", serr)
		return 0, fmt.Errorf("failed to clear favorites: %w", serr)
	}

	s.mu.Lock()
	s.set = domain.NewItemSet()
	s.mu.Unlock()

	s.logger.Info("cleared favorites", "count", n)
	s.notify([]domain.Item{})
	return n, nil
}

// mutate applies change to a copy of the set, persists the copy and only
// then swaps it in.
func (s *Store) mutate(change func(next *domain.ItemSet) bool, op string, id domain.ItemID) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.ensureInitialized()

	s.mu.RLock()
	next := s.set.Clone()
	s.mu.RUnlock()

	if !change(next) {
		return false, nil
	}

	items := next.Items()
	data, err := encode(items)
	if err != nil {
		return false, &domain.StorageError{Op: "encode", Err: err}
	}
	if err := s.backend.Put(StorageKey, data); err != nil {
		serr := &domain.StorageError{Op: "write", Err: err}
		s.logger.Error("failed to persist favorites", "op", op, "id", id, "error", serr)
		return false, fmt.Errorf("failed to %s favorite %s: %w", op, id, serr)
	}

	s.mu.Lock()
	s.set = next
	s.mu.Unlock()

	s.logger.Debug("favorites updated", "op", op, "id", id, "count", len(items))
	s.notify(items)
	return true, nil
}

// Contains reports whether id is a favorite
func (s *Store) Contains(id domain.ItemID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Contains(id)
}

// List returns the favorites, oldest first
func (s *Store) List() []domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Items()
}

// Len returns the number of favorites
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Len()
}

// Subscribe registers fn to receive the list after every change.
// The returned func unsubscribes.
func (s *Store) Subscribe(fn func([]domain.Item)) func() {
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

func (s *Store) notify(items []domain.Item) {
	s.subMu.Lock()
	subs := make([]func([]domain.Item), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		cp := make([]domain.Item, len(items))
		copy(cp, items)
		fn(cp)
	}
}
