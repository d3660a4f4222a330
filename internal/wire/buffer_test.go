package wire

import "testing"

func TestFlipAndRelativeAccess(t *testing.T) {
	b := New(16)
	if err := b.PutUint32BE(42); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := b.PutUint16BE(7); err != nil {
		t.Fatalf("put: %v", err)
	}
	b.Flip()
	if b.Remaining() != 6 {
		t.Fatalf("remaining = %d, want 6", b.Remaining())
	}
	v, err := b.GetUint32BE()
	if err != nil || v != 42 {
		t.Fatalf("got %d, %v, want 42", v, err)
	}
	s, err := b.GetUint16BE()
	if err != nil || s != 7 {
		t.Fatalf("got %d, %v, want 7", s, err)
	}
}

func TestAbsoluteAccessorsDoNotMovePosition(t *testing.T) {
	b := New(16)
	b.PutUint32BE(1)
	pos := b.Position()
	if err := b.PutUint8At(10, 0xAB); err != nil {
		t.Fatalf("putAt: %v", err)
	}
	if b.Position() != pos {
		t.Fatalf("absolute put moved position: %d != %d", b.Position(), pos)
	}
	v, err := b.GetUint8At(10)
	if err != nil || v != 0xAB {
		t.Fatalf("got %v, %v", v, err)
	}
	if b.Position() != pos {
		t.Fatalf("absolute get moved position")
	}
}

func TestOutOfBoundsErrors(t *testing.T) {
	b := New(4)
	if err := b.PutUint64BE(1); err == nil {
		t.Fatalf("expected out-of-bounds error")
	}
	if _, err := b.GetUint8At(100); err == nil {
		t.Fatalf("expected out-of-bounds error")
	}
}

func TestCompactPreservesUnreadTail(t *testing.T) {
	b := New(8)
	b.PutBytes([]byte{1, 2, 3, 4})
	b.Flip()
	b.GetBytes(2) // consume first two
	b.Compact()
	if b.Position() != 2 {
		t.Fatalf("position after compact = %d, want 2", b.Position())
	}
	if b.data[0] != 3 || b.data[1] != 4 {
		t.Fatalf("compact did not preserve tail bytes: %v", b.data[:2])
	}
}

func TestMarkReset(t *testing.T) {
	b := New(8)
	b.PutBytes([]byte{1, 2, 3, 4})
	b.Flip()
	b.GetBytes(1)
	b.Mark()
	b.GetBytes(2)
	if err := b.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if b.Position() != 1 {
		t.Fatalf("position after reset = %d, want 1", b.Position())
	}
}

func TestFixedWidthASCIIField(t *testing.T) {
	b := New(16)
	if err := b.PutASCIIAt(0, 8, "AAPL"); err != nil {
		t.Fatalf("put: %v", err)
	}
	s, err := b.GetASCIIAt(0, 8)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s != "AAPL    " {
		t.Fatalf("got %q", s)
	}
}
