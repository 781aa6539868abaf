package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/optstats/internal/model"
	"github.com/wonny/optstats/pkg/logger"
)

// Cache fronts the expensive calculators with a session-scoped result
// cache. Keys are content-addressed (hash of the canonical trade
// serialization plus the config blob) so identical uploads hit without
// any host-framework session identity. Eviction is TTL plus a max-entry
// sweep; singleflight guarantees at most one computation in flight per
// key, and values are only stored after a computation completes, so an
// in-flight reader can never observe a partial result.
// ⭐ SSOT: 결과 캐싱은 이 구조체에서만
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry

	ttl        time.Duration
	maxEntries int

	group  singleflight.Group
	logger *logger.Logger
}

type entry struct {
	value    interface{}
	storedAt time.Time
}

// NewCache creates a cache. maxEntries <= 0 disables the size bound.
func NewCache(ttl time.Duration, maxEntries int, log *logger.Logger) *Cache {
	return &Cache{
		entries:    make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		logger:     log,
	}
}

// Key builds the content-addressed cache key for a portfolio, its
// optional daily log, and an arbitrary JSON-serializable config value.
// Identical content yields identical keys regardless of upload identity.
func Key(portfolio *model.Portfolio, log *model.DailyLog, config interface{}) (string, error) {
	h := sha256.New()

	enc := json.NewEncoder(h)
	if err := enc.Encode(portfolio.Trades()); err != nil {
		return "", fmt.Errorf("hash trades: %w", err)
	}
	if err := enc.Encode(log.Entries()); err != nil {
		return "", fmt.Errorf("hash daily log: %w", err)
	}
	if err := enc.Encode(config); err != nil {
		return "", fmt.Errorf("hash config: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// GetOrCompute returns the cached value for key, or runs compute and
// stores its result. Concurrent callers for the same key share a single
// computation; each caller still receives an independently computed (or
// shared immutable) result value.
func (c *Cache) GetOrCompute(key string, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// Double-check: a previous flight may have stored it between
		// our miss and the flight starting.
		if v, ok := c.get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.put(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}

	if shared && c.logger != nil {
		c.logger.WithField("key", key[:12]).Debug("Computation shared between concurrent callers")
	}
	return v, nil
}

func (c *Cache) get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Since(e.storedAt) > c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{value: value, storedAt: time.Now()}
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictLocked()
	}
}

// evictLocked drops expired entries first, then the oldest entries until
// the size bound holds. Removal only ever touches the map — a value
// already handed to a reader stays valid, it just stops being findable.
func (c *Cache) evictLocked() {
	now := time.Now()
	if c.ttl > 0 {
		for k, e := range c.entries {
			if now.Sub(e.storedAt) > c.ttl {
				delete(c.entries, k)
			}
		}
	}

	for c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey = k
				oldest = e.storedAt
			}
		}
		delete(c.entries, oldestKey)
	}
}

// Len returns the live entry count.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
