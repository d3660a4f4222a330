// Package wire implements the fixed-capacity byte region described in
// SPEC_FULL.md §4.1: a linear cursor pair (position, limit) for socket I/O
// plus absolute-index typed accessors over the same bytes. Modeled after a
// Java NIO ByteBuffer; there is no teacher analogue in this pack (the
// teacher repo moves Go structs over HTTP/JSON and never touches raw wire
// bytes), so this package follows spec §4.1 directly in the idiom of the
// teacher's small, heavily-commented value types.
//
// A Buffer is not safe for concurrent use; exactly one goroutine may touch
// a given Buffer at a time, mirroring the single-threaded-per-session
// discipline required by SPEC_FULL.md §5.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned by absolute accessors when the requested
// region falls outside [0, capacity).
var ErrOutOfBounds = errors.New("wire: index out of bounds")

// Buffer is a fixed-capacity byte region with relative (position/limit)
// and absolute (index) access to the identical underlying bytes.
type Buffer struct {
	data     []byte
	position int
	limit    int
	mark     int
}

// New allocates a Buffer with the given capacity, limit initialized to
// capacity and position to zero (ready for writing).
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity), limit: capacity, mark: -1}
}

// Wrap constructs a Buffer directly over an existing slice without
// copying; limit is set to len(b).
func Wrap(b []byte) *Buffer {
	return &Buffer{data: b, limit: len(b), mark: -1}
}

func (b *Buffer) Capacity() int  { return len(b.data) }
func (b *Buffer) Position() int  { return b.position }
func (b *Buffer) Limit() int     { return b.limit }
func (b *Buffer) Remaining() int { return b.limit - b.position }
func (b *Buffer) HasRemaining() bool { return b.position < b.limit }

// Bytes returns the full backing slice (capacity length), for callers that
// need direct access, e.g. socket reads/writes.
func (b *Buffer) Bytes() []byte { return b.data }

// SetPosition moves the cursor; panics-free bounds check returns an error
// instead, per the spec's "explicit result returns" re-architecture note.
func (b *Buffer) SetPosition(p int) error {
	if p < 0 || p > b.limit {
		return fmt.Errorf("wire: position %d out of [0,%d]: %w", p, b.limit, ErrOutOfBounds)
	}
	b.position = p
	if b.mark > b.position {
		b.mark = -1
	}
	return nil
}

// SetLimit moves the limit; clamps position down if it now exceeds limit.
func (b *Buffer) SetLimit(l int) error {
	if l < 0 || l > len(b.data) {
		return fmt.Errorf("wire: limit %d out of [0,%d]: %w", l, len(b.data), ErrOutOfBounds)
	}
	b.limit = l
	if b.position > l {
		b.position = l
	}
	if b.mark > l {
		b.mark = -1
	}
	return nil
}

// Flip prepares the buffer to be read after writing: limit <- position,
// position <- 0.
func (b *Buffer) Flip() {
	b.limit = b.position
	b.position = 0
	b.mark = -1
}

// Clear resets position to 0 and limit to capacity, discarding the mark.
// Does not erase the underlying bytes.
func (b *Buffer) Clear() {
	b.position = 0
	b.limit = len(b.data)
	b.mark = -1
}

// Rewind resets position to 0, keeping the limit; used to re-read data
// just written/read.
func (b *Buffer) Rewind() {
	b.position = 0
	b.mark = -1
}

// Mark records the current position for a later Reset.
func (b *Buffer) Mark() { b.mark = b.position }

// Reset restores position to the previously marked value. A no-op if no
// mark has been set.
func (b *Buffer) Reset() error {
	if b.mark < 0 {
		return errors.New("wire: reset without a prior mark")
	}
	b.position = b.mark
	return nil
}

// Compact copies [position, limit) to the start of the buffer, sets
// position to the copied length and limit to capacity, discarding the
// mark. Used when draining a partially-consumed read buffer before the
// next socket read.
func (b *Buffer) Compact() {
	n := copy(b.data, b.data[b.position:b.limit])
	b.position = n
	b.limit = len(b.data)
	b.mark = -1
}

// --- relative put/get, advancing position ---

func (b *Buffer) ensureRel(n int) error {
	if b.position+n > b.limit {
		return fmt.Errorf("wire: relative access of %d bytes at position %d exceeds limit %d: %w", n, b.position, b.limit, ErrOutOfBounds)
	}
	return nil
}

// PutBytes writes p at the current position and advances it by len(p).
func (b *Buffer) PutBytes(p []byte) error {
	if err := b.ensureRel(len(p)); err != nil {
		return err
	}
	copy(b.data[b.position:], p)
	b.position += len(p)
	return nil
}

// GetBytes reads n bytes at the current position, advancing it, and
// returns a sub-slice aliasing the buffer (zero-copy).
func (b *Buffer) GetBytes(n int) ([]byte, error) {
	if err := b.ensureRel(n); err != nil {
		return nil, err
	}
	out := b.data[b.position : b.position+n]
	b.position += n
	return out, nil
}

func (b *Buffer) PutUint8(v uint8) error {
	if err := b.ensureRel(1); err != nil {
		return err
	}
	b.data[b.position] = v
	b.position++
	return nil
}

func (b *Buffer) GetUint8() (uint8, error) {
	if err := b.ensureRel(1); err != nil {
		return 0, err
	}
	v := b.data[b.position]
	b.position++
	return v, nil
}

func (b *Buffer) PutUint16BE(v uint16) error {
	if err := b.ensureRel(2); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b.data[b.position:], v)
	b.position += 2
	return nil
}

func (b *Buffer) GetUint16BE() (uint16, error) {
	if err := b.ensureRel(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(b.data[b.position:])
	b.position += 2
	return v, nil
}

func (b *Buffer) PutUint16LE(v uint16) error {
	if err := b.ensureRel(2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b.data[b.position:], v)
	b.position += 2
	return nil
}

func (b *Buffer) GetUint16LE() (uint16, error) {
	if err := b.ensureRel(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(b.data[b.position:])
	b.position += 2
	return v, nil
}

func (b *Buffer) PutUint32BE(v uint32) error {
	if err := b.ensureRel(4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(b.data[b.position:], v)
	b.position += 4
	return nil
}

func (b *Buffer) GetUint32BE() (uint32, error) {
	if err := b.ensureRel(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(b.data[b.position:])
	b.position += 4
	return v, nil
}

func (b *Buffer) PutUint32LE(v uint32) error {
	if err := b.ensureRel(4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.data[b.position:], v)
	b.position += 4
	return nil
}

func (b *Buffer) GetUint32LE() (uint32, error) {
	if err := b.ensureRel(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(b.data[b.position:])
	b.position += 4
	return v, nil
}

func (b *Buffer) PutUint64BE(v uint64) error {
	if err := b.ensureRel(8); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(b.data[b.position:], v)
	b.position += 8
	return nil
}

func (b *Buffer) GetUint64BE() (uint64, error) {
	if err := b.ensureRel(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(b.data[b.position:])
	b.position += 8
	return v, nil
}

func (b *Buffer) PutUint64LE(v uint64) error {
	if err := b.ensureRel(8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b.data[b.position:], v)
	b.position += 8
	return nil
}

func (b *Buffer) GetUint64LE() (uint64, error) {
	if err := b.ensureRel(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(b.data[b.position:])
	b.position += 8
	return v, nil
}

func (b *Buffer) PutInt64BE(v int64) error { return b.PutUint64BE(uint64(v)) }
func (b *Buffer) GetInt64BE() (int64, error) {
	v, err := b.GetUint64BE()
	return int64(v), err
}
func (b *Buffer) PutInt64LE(v int64) error { return b.PutUint64LE(uint64(v)) }
func (b *Buffer) GetInt64LE() (int64, error) {
	v, err := b.GetUint64LE()
	return int64(v), err
}

// --- absolute accessors: bounds-checked, never touch position ---

func (b *Buffer) ensureAbs(at, n int) error {
	if at < 0 || at+n > len(b.data) {
		return fmt.Errorf("wire: absolute access of %d bytes at %d exceeds capacity %d: %w", n, at, len(b.data), ErrOutOfBounds)
	}
	return nil
}

func (b *Buffer) GetUint8At(at int) (uint8, error) {
	if err := b.ensureAbs(at, 1); err != nil {
		return 0, err
	}
	return b.data[at], nil
}

func (b *Buffer) PutUint8At(at int, v uint8) error {
	if err := b.ensureAbs(at, 1); err != nil {
		return err
	}
	b.data[at] = v
	return nil
}

func (b *Buffer) GetUint16LEAt(at int) (uint16, error) {
	if err := b.ensureAbs(at, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b.data[at:]), nil
}

func (b *Buffer) PutUint16LEAt(at int, v uint16) error {
	if err := b.ensureAbs(at, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b.data[at:], v)
	return nil
}

func (b *Buffer) GetUint32BEAt(at int) (uint32, error) {
	if err := b.ensureAbs(at, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b.data[at:]), nil
}

func (b *Buffer) PutUint32BEAt(at int, v uint32) error {
	if err := b.ensureAbs(at, 4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(b.data[at:], v)
	return nil
}

func (b *Buffer) GetUint64BEAt(at int) (uint64, error) {
	if err := b.ensureAbs(at, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b.data[at:]), nil
}

func (b *Buffer) PutUint64BEAt(at int, v uint64) error {
	if err := b.ensureAbs(at, 8); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(b.data[at:], v)
	return nil
}

// GetASCIIAt returns the n-byte ASCII substring starting at at, aliasing
// the buffer. Never touches position.
func (b *Buffer) GetASCIIAt(at, n int) (string, error) {
	if err := b.ensureAbs(at, n); err != nil {
		return "", err
	}
	return string(b.data[at : at+n]), nil
}

// PutASCIIAt writes s left-justified, space-padded (or truncated) into the
// n-byte field starting at at. Used for fixed-width OUCH/Pillar text
// fields.
func (b *Buffer) PutASCIIAt(at, n int, s string) error {
	if err := b.ensureAbs(at, n); err != nil {
		return err
	}
	copy(b.data[at:at+n], s)
	for i := len(s); i < n; i++ {
		b.data[at+i] = ' '
	}
	return nil
}
