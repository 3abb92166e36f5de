package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/skilldocs/grader/internal/logger"
	"github.com/skilldocs/grader/pkg/grading"
	"go.uber.org/zap"
)

type cacheEntry struct {
	result   grading.Result
	cachedAt time.Time
}

// ResultCache memoizes grading results keyed by problem, source text, and
// equality mode. Learner code is allowed to be nondeterministic, so entries
// expire on a TTL rather than living forever.
type ResultCache interface {
	Get(problemID, source, equalityMode string) (grading.Result, bool)
	Put(problemID, source, equalityMode string, result grading.Result)
	CleanExpired()
}

type resultCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	maxEntries int
	ttl        time.Duration
	logger     *zap.SugaredLogger
}

func NewResultCache(maxEntries int, ttl time.Duration) ResultCache {
	return &resultCache{
		entries:    make(map[string]cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		logger:     logger.NewNamedLogger("cache"),
	}
}

func (c *resultCache) Get(problemID, source, equalityMode string) (grading.Result, bool) {
	key := generateKey(problemID, source, equalityMode)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return grading.Result{}, false
	}

	if time.Since(entry.cachedAt) > c.ttl {
		c.logger.Debugf("Cache expired for problem %s", problemID)
		delete(c.entries, key)
		return grading.Result{}, false
	}

	c.logger.Debugf("Cache hit for problem %s", problemID)
	return entry.result, true
}

func (c *resultCache) Put(problemID, source, equalityMode string, result grading.Result) {
	if c.maxEntries == 0 {
		return
	}

	key := generateKey(problemID, source, equalityMode)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.maxEntries {
			c.evictOldestEntry()
		}
	}

	c.entries[key] = cacheEntry{result: result, cachedAt: time.Now()}
}

func (c *resultCache) CleanExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range c.entries {
		if now.Sub(entry.cachedAt) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Infof("Cleaned %d expired cache entries", removed)
	}
}

// evictOldestEntry drops the least recently stored entry. Called with the
// lock held.
func (c *resultCache) evictOldestEntry() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for key, entry := range c.entries {
		if first || entry.cachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.cachedAt
			first = false
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.logger.Debugf("Evicted oldest cache entry")
	}
}

func generateKey(problemID, source, equalityMode string) string {
	data := fmt.Sprintf("%s\x00%s\x00%s", problemID, equalityMode, source)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
