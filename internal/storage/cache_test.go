package storage_test

import (
	"fmt"
	"testing"
	"time"

	. "github.com/skilldocs/grader/internal/storage"
	"github.com/skilldocs/grader/pkg/grading"
)

func resultWithCount(n int) grading.Result {
	return grading.Result{StatusCode: grading.Success, PassedCount: n, TotalCount: n}
}

func TestResultCache_PutAndGet(t *testing.T) {
	c := NewResultCache(10, time.Minute)

	if _, found := c.Get("p1", "src", "json"); found {
		t.Fatalf("empty cache must miss")
	}

	c.Put("p1", "src", "json", resultWithCount(3))

	got, found := c.Get("p1", "src", "json")
	if !found {
		t.Fatalf("expected a cache hit")
	}
	if got.PassedCount != 3 {
		t.Fatalf("expected cached result, got %+v", got)
	}

	// Different source, problem, or mode must miss.
	if _, found := c.Get("p1", "other", "json"); found {
		t.Fatalf("different source must miss")
	}
	if _, found := c.Get("p2", "src", "json"); found {
		t.Fatalf("different problem must miss")
	}
	if _, found := c.Get("p1", "src", "strict"); found {
		t.Fatalf("different equality mode must miss")
	}
}

func TestResultCache_TTLExpiry(t *testing.T) {
	c := NewResultCache(10, 10*time.Millisecond)

	c.Put("p1", "src", "json", resultWithCount(1))
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("p1", "src", "json"); found {
		t.Fatalf("expired entry must miss")
	}
}

func TestResultCache_EvictsWhenFull(t *testing.T) {
	c := NewResultCache(3, time.Minute)

	for i := 0; i < 4; i++ {
		c.Put("p1", fmt.Sprintf("src-%d", i), "json", resultWithCount(i))
		time.Sleep(2 * time.Millisecond)
	}

	hits := 0
	for i := 0; i < 4; i++ {
		if _, found := c.Get("p1", fmt.Sprintf("src-%d", i), "json"); found {
			hits++
		}
	}
	if hits != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", hits)
	}
	if _, found := c.Get("p1", "src-0", "json"); found {
		t.Fatalf("oldest entry must be the one evicted")
	}
}

func TestResultCache_ZeroMaxEntriesDisablesCaching(t *testing.T) {
	c := NewResultCache(0, time.Minute)

	c.Put("p1", "src", "json", resultWithCount(1))
	if _, found := c.Get("p1", "src", "json"); found {
		t.Fatalf("a zero-size cache must never store")
	}
}

func TestResultCache_CleanExpired(t *testing.T) {
	c := NewResultCache(10, 10*time.Millisecond)

	c.Put("p1", "a", "json", resultWithCount(1))
	c.Put("p1", "b", "json", resultWithCount(2))
	time.Sleep(30 * time.Millisecond)
	c.Put("p1", "c", "json", resultWithCount(3))

	c.CleanExpired()

	if _, found := c.Get("p1", "c", "json"); !found {
		t.Fatalf("fresh entry must survive cleaning")
	}
	if _, found := c.Get("p1", "a", "json"); found {
		t.Fatalf("expired entries must be removed")
	}
}
