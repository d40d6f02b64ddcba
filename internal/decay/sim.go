package decay

import (
	"hash/fnv"
	"math/rand/v2"
	"time"
)

// Sim is the simulation backend: a fixed-length character sequence that
// corrupts cumulatively as wall time passes. After N elapsed seconds, N
// corruption events (capped at the content length) have been applied.
//
// Corruption is stable: the draws that reach a given elapsed second are a
// pure function of the seed and that second, so the same content pinned to
// the same start instant replays the identical trajectory. This property is
// what the determinism tests rely on — the generator is reseeded from
// seed XOR target on every advancing read, never carried between reads.
//
// Sim is single-owner and not safe for concurrent use.
type Sim struct {
	original []rune
	current  []rune
	start    time.Time
	seed     uint64
	applied  int
	closed   bool

	now func() time.Time
}

// NewSim creates a simulation over content, starting its decay clock now.
func NewSim(content string) *Sim {
	return newSimAt(content, time.Now(), time.Now)
}

// newSimAt pins the start instant and clock source. Tests use this to
// replay trajectories without sleeping.
func newSimAt(content string, start time.Time, now func() time.Time) *Sim {
	original := []rune(content)
	return &Sim{
		original: original,
		current:  append([]rune(nil), original...),
		start:    start,
		seed:     simSeed(content, start),
		now:      now,
	}
}

// simSeed derives the corruption seed from the content and the start
// instant, so distinct instances decay along distinct trajectories.
func simSeed(content string, start time.Time) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64() ^ uint64(start.UnixMicro())
}

// Read returns the current (possibly corrupted) value, materializing any
// corruption owed since the last read. Reads within the same elapsed second
// return the same string. After Close, Read always returns "".
func (s *Sim) Read() string {
	if s.closed {
		return ""
	}
	length := len(s.original)
	if length == 0 {
		return ""
	}

	target := int(s.now().Sub(s.start) / time.Second)
	if target > length {
		target = length
	}

	// Apply only the delta since the last read.
	if delta := target - s.applied; delta > 0 {
		rng := rand.New(rand.NewPCG(s.seed^uint64(target), 0))
		for range delta {
			idx := rng.IntN(length)
			// Printable ASCII, 33..126 inclusive.
			s.current[idx] = rune(33 + rng.IntN(94))
		}
		s.applied = target
	}

	return string(s.current)
}

// Close discards the content. Terminal and idempotent.
func (s *Sim) Close() {
	s.closed = true
	s.current = nil
	s.original = nil
}
