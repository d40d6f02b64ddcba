package server

import (
	"sync"
	"time"

	"github.com/lazypower/entropyd/internal/decay"
)

// liveValue is one live decaying value plus the bookkeeping the API needs.
// The original content stays here (not in the ledger) so reads can report
// how many positions have corrupted so far.
type liveValue struct {
	str      *decay.String
	original []rune
	created  time.Time
	closed   bool
}

// registry owns the live values created through the API. decay values are
// single-owner and not thread-safe, so every access goes through the
// registry mutex — chi handlers run concurrently.
type registry struct {
	mu     sync.Mutex
	values map[string]*liveValue
}

func newRegistry() *registry {
	return &registry{values: make(map[string]*liveValue)}
}

func (r *registry) add(id string, lv *liveValue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[id] = lv
}

// snapshot reads a value's current state. ok is false for unknown ids;
// closed values return ok with closed=true and no content.
func (r *registry) snapshot(id string) (value string, bound bool, elapsedSec, corrupted int, closed, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lv, found := r.values[id]
	if !found {
		return "", false, 0, 0, false, false
	}
	if lv.closed {
		return "", false, 0, 0, true, true
	}

	value = lv.str.Value()
	bound = lv.str.IsBoundToResource()
	elapsedSec = int(time.Since(lv.created) / time.Second)
	corrupted = countCorrupted(lv.original, []rune(value))
	return value, bound, elapsedSec, corrupted, false, true
}

// close finalizes a value. Idempotent; ok is false only for unknown ids.
func (r *registry) close(id string) (ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lv, found := r.values[id]
	if !found {
		return false
	}
	if !lv.closed {
		lv.str.Close()
		lv.closed = true
		lv.original = nil
	}
	return true
}

// closeAll finalizes every live value. Used at server shutdown so device
// handles are released deterministically rather than by the GC safety net.
func (r *registry) closeAll() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var closed []string
	for id, lv := range r.values {
		if lv.closed {
			continue
		}
		lv.str.Close()
		lv.closed = true
		lv.original = nil
		closed = append(closed, id)
	}
	return closed
}

// countCorrupted counts positions where current differs from the original.
// Length drift (possible in device mode after lossy decoding) counts each
// missing or extra position as corrupted.
func countCorrupted(original, current []rune) int {
	n := len(original)
	if len(current) < n {
		n = len(current)
	}

	corrupted := 0
	for i := 0; i < n; i++ {
		if original[i] != current[i] {
			corrupted++
		}
	}
	if len(original) > n {
		corrupted += len(original) - n
	}
	if len(current) > n {
		corrupted += len(current) - n
	}
	return corrupted
}
