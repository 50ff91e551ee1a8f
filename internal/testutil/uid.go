package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// SequenceUIDs generates deterministic UIDs for tests.
//
// The n-th call to NewUID returns a UUID whose last eight bytes hold n, so
// the first UID is 00000000-0000-0000-0000-000000000001. The same test run
// twice yields byte-identical traits, which golden comparisons rely on.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceUIDs struct {
	mu  sync.Mutex
	seq uint64
}

// NewSequenceUIDs creates a generator starting at 0.
func NewSequenceUIDs() *SequenceUIDs {
	return &SequenceUIDs{}
}

// NewUID returns the next UID in the sequence.
//
// Implements trait.UIDGenerator.
func (g *SequenceUIDs) NewUID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return UID(g.seq)
}

// Current returns the number of UIDs generated so far.
func (g *SequenceUIDs) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. After Reset, the next UID is UID(1).
func (g *SequenceUIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// UID returns the n-th UID of a sequence.
func UID(n uint64) uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[8:], n)
	return u
}
