package cache

import (
	"sync"
	"time"
)

// Temperature is the access-frequency bucket a key falls into, driving its
// adaptive TTL (spec.md §4.5.3).
type Temperature int

const (
	Cold Temperature = iota
	Warm
	Hot
)

// AccessCounter tracks a bounded LRU of per-key access counts, used to
// classify a key's temperature. Bounded size prevents unbounded growth
// under a large/varied keyspace.
type AccessCounter struct {
	mu       sync.Mutex
	counts   map[string]int
	order    []string // least-recently-touched first
	capacity int
}

func NewAccessCounter(capacity int) *AccessCounter {
	if capacity <= 0 {
		capacity = 10000
	}
	return &AccessCounter{
		counts:   make(map[string]int, capacity),
		capacity: capacity,
	}
}

// Hit records an access to key and returns its updated count.
func (a *AccessCounter) Hit(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.counts[key]; !ok && len(a.counts) >= a.capacity {
		a.evictOldest()
	}
	a.counts[key]++
	a.touch(key)
	return a.counts[key]
}

func (a *AccessCounter) touch(key string) {
	for i, k := range a.order {
		if k == key {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	a.order = append(a.order, key)
}

func (a *AccessCounter) evictOldest() {
	if len(a.order) == 0 {
		return
	}
	oldest := a.order[0]
	a.order = a.order[1:]
	delete(a.counts, oldest)
}

// Temperature classifies key by its current access count: cold (<5),
// warm (5-19), hot (>=20) (spec.md §4.5.3's bucket boundaries).
func (a *AccessCounter) Temperature(key string) Temperature {
	a.mu.Lock()
	count := a.counts[key]
	a.mu.Unlock()

	switch {
	case count >= 20:
		return Hot
	case count >= 5:
		return Warm
	default:
		return Cold
	}
}

// TTLFor maps a temperature to its adaptive TTL: 60s cold, 300s warm,
// 1800s hot (spec.md §4.5.3).
func TTLFor(t Temperature) time.Duration {
	switch t {
	case Hot:
		return 30 * time.Minute
	case Warm:
		return 5 * time.Minute
	default:
		return 60 * time.Second
	}
}
