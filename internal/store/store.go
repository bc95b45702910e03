package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gamedeck/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	BucketFavorites  = []byte("favorites")
	BucketCategories = []byte("categories")
)

var allBuckets = [][]byte{BucketFavorites, BucketCategories}

// cacheBuckets hold data refetched from the catalog; favorites are user data
var cacheBuckets = [][]byte{BucketCategories}

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("store is closed")

// DB is the local key-value store backed by BoltDB.
// Values are raw bytes; callers own their encoding.
type DB struct {
	db     *bolt.DB
	logger *slog.Logger

	mu     sync.RWMutex // Protects memory cache and closed
	cache  map[string][]byte
	closed bool
}

// Open opens (or creates) the database file at path.
// An empty path opens a memory-only store with no persistence.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path == "" {
		logger.Info("opening memory-only store")
		return &DB{cache: make(map[string][]byte), logger: logger}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("opened store", "path", path)
	return &DB{db: db, cache: make(map[string][]byte), logger: logger}, nil
}

func (s *DB) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func cacheKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

// get returns a copy of the stored value, or nil when the key is absent
func (s *DB) get(bucket []byte, key string) ([]byte, error) {
	ck := cacheKey(bucket, key)

	// Check memory cache first
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	if data, ok := s.cache[ck]; ok {
		s.mu.RUnlock()
		return append([]byte(nil), data...), nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[ck] = data
	s.mu.Unlock()

	return append([]byte(nil), data...), nil
}

// put writes through to BoltDB and only then updates the memory cache,
// so a failed write never becomes visible to readers.
func (s *DB) put(bucket []byte, key string, value []byte) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	data := append([]byte(nil), value...)

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucket)
			if b == nil {
				return fmt.Errorf("bucket %q missing", bucket)
			}
			return b.Put([]byte(key), data)
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.cache[cacheKey(bucket, key)] = data
	s.mu.Unlock()
	return nil
}

func (s *DB) delete(bucket []byte, key string) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucket)
			if b == nil {
				return nil
			}
			return b.Delete([]byte(key))
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	delete(s.cache, cacheKey(bucket, key))
	s.mu.Unlock()
	return nil
}

// InvalidateCaches wipes the cached catalog data. Favorites are kept.
func (s *DB) InvalidateCaches() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	for k := range s.cache {
		for _, bucket := range cacheBuckets {
			if strings.HasPrefix(k, cacheKey(bucket, "")) {
				delete(s.cache, k)
			}
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range cacheBuckets {
			if tx.Bucket(bucket) != nil {
				if err := tx.DeleteBucket(bucket); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Namespaces ===

// Namespace scopes reads and writes to a single bucket.
// A component that owns a bucket receives its Namespace and nothing else.
type Namespace struct {
	db     *DB
	bucket []byte
}

// Namespace returns a handle on bucket
func (s *DB) Namespace(bucket []byte) *Namespace {
	return &Namespace{db: s, bucket: bucket}
}

// Get returns the value for key, or nil when absent
func (n *Namespace) Get(key string) ([]byte, error) {
	return n.db.get(n.bucket, key)
}

// Put stores value under key
func (n *Namespace) Put(key string, value []byte) error {
	return n.db.put(n.bucket, key, value)
}

// Delete removes key
func (n *Namespace) Delete(key string) error {
	return n.db.delete(n.bucket, key)
}

// === Categories ===

// CategoryCache stores the category list of one catalog source.
// It implements domain.CategoryCache.
type CategoryCache struct {
	db  *DB
	key string
}

// CategoryCache returns the cache for the catalog at apiURL/source
func (s *DB) CategoryCache(apiURL, source string) *CategoryCache {
	return &CategoryCache{db: s, key: "list:" + hashSource(apiURL, source)}
}

func hashSource(apiURL, source string) string {
	normalized := strings.TrimRight(strings.ToLower(apiURL), "/") + "|" + strings.ToLower(source)
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (c *CategoryCache) GetCategories() ([]domain.Item, bool) {
	data, err := c.db.get(BucketCategories, c.key)
	if err != nil {
		c.db.logger.Warn("failed to read cached categories", "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var cats []domain.Item
	if err := json.Unmarshal(data, &cats); err != nil {
		c.db.logger.Warn("discarding unreadable cached categories", "error", err)
		return nil, false
	}
	return cats, true
}

func (c *CategoryCache) SaveCategories(categories []domain.Item) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.db.put(BucketCategories, c.key, data)
}
