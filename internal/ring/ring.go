// Package ring implements the outbound claim/commit buffer described in
// SPEC_FULL.md §4.2: a bounded, length-prefixed MPSC ring of byte frames.
// Producers (protocol encoders) claim a region, write payload bytes
// directly into it, then commit or abort; a single drainer goroutine
// writes committed frames to the socket in claim order.
//
// This is the teacher's LMAX Disruptor (internal/disruptor in the
// example pack) adapted from an inbound *request* ring carrying
// *orders.Order pointers into an outbound *byte frame* ring: the
// cache-line-padded slot layout, the CAS-based sequence claim, and the
// atomic-store publish barrier are kept verbatim in spirit; slot payload
// and the abort path (the teacher's ring never aborts a claim) are new.
package ring

import (
	"errors"
	"runtime"
	"sync/atomic"
)

// ErrFull is returned by TryClaim when no contiguous region is available
// and the caller should apply backpressure.
var ErrFull = errors.New("ring: buffer full")

// ErrFrameTooLarge is returned when a claim is requested larger than a
// slot's capacity.
var ErrFrameTooLarge = errors.New("ring: requested frame exceeds slot capacity")

const (
	slotFree      uint32 = 0
	slotClaimed   uint32 = 1
	slotCommitted uint32 = 2
	slotAborted   uint32 = 3
)

// slot is one pre-allocated frame buffer. Padded to a cache line (64
// bytes) to avoid false sharing between producers touching adjacent
// slots, matching the teacher's RingBufferSlot padding comment.
type slot struct {
	seq    uint64
	state  uint32
	length int
	buf    []byte
	_      [28]byte
}

// Config configures a Ring.
type Config struct {
	// Slots is the number of frame slots; must be a power of 2.
	Slots uint64
	// SlotCapacity is the maximum payload length a single frame may
	// carry. A frame's length is kept in its slot's length field; no
	// length prefix is written into the slot buffer.
	SlotCapacity int
}

// DefaultConfig mirrors the teacher's DefaultConfig: 8192 slots, and a
// slot capacity generous enough for the largest FIX/SBE message this
// simulator emits.
func DefaultConfig() Config {
	return Config{Slots: 8192, SlotCapacity: 4096}
}

// Ring is a bounded, multi-producer, single-consumer ring of
// length-prefixed outbound frames.
type Ring struct {
	indexMask      uint64
	slots          []slot
	cursor         uint64 // highest claimed sequence (CAS)
	gatingSequence uint64 // highest sequence released back by the drainer
	slotCapacity   int
}

// New constructs a Ring per cfg. Panics if Slots is not a power of 2, to
// match the teacher's fail-fast construction-time validation.
func New(cfg Config) *Ring {
	if cfg.Slots == 0 || cfg.Slots&(cfg.Slots-1) != 0 {
		panic("ring: Slots must be a power of 2")
	}
	r := &Ring{
		indexMask:    cfg.Slots - 1,
		slots:        make([]slot, cfg.Slots),
		slotCapacity: cfg.SlotCapacity,
	}
	for i := range r.slots {
		r.slots[i].buf = make([]byte, cfg.SlotCapacity)
	}
	return r
}

// Claim is a handle to a claimed-but-not-yet-committed region, returned
// by TryClaim. Buf is sized exactly to the requested length; writers
// encode directly into it.
type Claim struct {
	seq   uint64
	index uint64
	Buf   []byte
}

// TryClaim atomically reserves a region able to hold n payload bytes. It
// is wait-free: on contention it spins briefly (matching the teacher's
// Sequencer.Next bound) and returns ErrFull rather than blocking
// indefinitely.
func (r *Ring) TryClaim(n int) (Claim, error) {
	if n > r.slotCapacity {
		return Claim{}, ErrFrameTooLarge
	}

	const maxSpins = 10000
	for spins := 0; spins < maxSpins; spins++ {
		current := atomic.LoadUint64(&r.cursor)
		next := current + 1

		gating := atomic.LoadUint64(&r.gatingSequence)
		available := gating + uint64(len(r.slots))
		if next > available {
			runtime.Gosched()
			continue
		}

		if atomic.CompareAndSwapUint64(&r.cursor, current, next) {
			idx := next & r.indexMask
			s := &r.slots[idx]
			s.length = n
			atomic.StoreUint32(&s.state, slotClaimed)
			return Claim{seq: next, index: idx, Buf: s.buf[:n]}, nil
		}
	}
	return Claim{}, ErrFull
}

// Trim shrinks a claimed region to n bytes (n <= the originally claimed
// length), for encoders that claim a generous upper bound and then
// discover the exact encoded length once the message is fully written
// (e.g. a FIX encoder, whose final length depends on variable-length
// application fields).
func (r *Ring) Trim(c *Claim, n int) {
	s := &r.slots[c.index]
	s.length = n
	c.Buf = c.Buf[:n]
}

// Commit publishes a claimed region to the drainer in claim order. Must
// be called at most once per Claim.
func (r *Ring) Commit(c Claim) {
	s := &r.slots[c.index]
	atomic.StoreUint32(&s.state, slotCommitted)
	atomic.StoreUint64(&s.seq, c.seq)
}

// Abort rolls back a claim without publishing it; the drainer will skip
// this frame entirely (it is never written to the socket) but the
// sequence slot is still released in order.
func (r *Ring) Abort(c Claim) {
	s := &r.slots[c.index]
	atomic.StoreUint32(&s.state, slotAborted)
	atomic.StoreUint64(&s.seq, c.seq)
}
