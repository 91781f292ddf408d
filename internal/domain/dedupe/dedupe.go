// Package dedupe tracks event identities so the same race delivered twice
// (for example the same codex under two result directories) is loaded once.
package dedupe

import (
	"context"
	"strings"
	"sync"
)

// Deduper records seen event keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already seen and records it if not.
	SeenAndRecord(ctx context.Context, key string) bool
	// Unrecord forgets key, so a later delivery of it is accepted again.
	Unrecord(ctx context.Context, key string)
	Size() int
}

// Key builds the identity of one event: its date and codex. Codex comparison
// ignores case and surrounding space.
func Key(date, codex string) string {
	return date + "|" + strings.ToLower(strings.TrimSpace(codex))
}

// inMemoryDeduper keeps keys in a map. In bounded mode the oldest key is
// evicted once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	maxSize int
}

// NewInMemoryDeduper creates a deduper. It is unbounded unless WithMaxSize
// sets a positive limit.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = struct{}{}
	if d.maxSize > 0 {
		d.order = append(d.order, key)
	}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; !ok {
		return
	}
	delete(d.seen, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// evictOldest drops the earliest recorded key. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldest() {
	if len(d.order) == 0 {
		return
	}
	delete(d.seen, d.order[0])
	d.order = d.order[1:]
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
