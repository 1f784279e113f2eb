package utils

import (
	"context"
	"errors"
	"sync"
)

// ErrStale marks a lookup result that was overtaken by a newer request for the same key.
var ErrStale = errors.New("superseded by a newer request")

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// LatestTracker issues monotonically increasing sequence numbers per key and
// cancels the previous in-flight lookup whenever a new one begins.
type LatestTracker struct {
	mu   sync.Mutex
	next uint64
	keys map[string]inflight
}

func NewLatestTracker() *LatestTracker {
	return &LatestTracker{keys: make(map[string]inflight)}
}

// Begin registers a new lookup for key. The returned context is cancelled
// when a newer lookup for the same key begins; done must always be called.
func (t *LatestTracker) Begin(parent context.Context, key string) (ctx context.Context, seq uint64, done func()) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	t.next++
	seq = t.next
	if prev, ok := t.keys[key]; ok {
		prev.cancel()
	}
	t.keys[key] = inflight{seq: seq, cancel: cancel}
	t.mu.Unlock()

	done = func() {
		cancel()
		t.mu.Lock()
		if cur, ok := t.keys[key]; ok && cur.seq == seq {
			delete(t.keys, key)
		}
		t.mu.Unlock()
	}
	return ctx, seq, done
}

// IsLatest reports whether seq is still the newest lookup issued for key.
func (t *LatestTracker) IsLatest(key string, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.keys[key]
	return ok && cur.seq == seq
}

// Apply runs fn only if seq is still the latest lookup for key, holding the
// tracker lock so a newer lookup cannot start in between.
func (t *LatestTracker) Apply(key string, seq uint64, fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.keys[key]
	if !ok || cur.seq != seq {
		return ErrStale
	}
	return fn()
}
