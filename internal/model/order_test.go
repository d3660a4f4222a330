package model

import "testing"

func newTestOrder(original int64) *Order {
	return &Order{
		ID:         1,
		Symbol:     "AAPL",
		Side:       SideBuy,
		Type:       OrderTypeLimit,
		Original:   original,
		LimitPrice: 150_0000,
		State:      StateNew,
	}
}

func TestOrderAcceptFillInvariant(t *testing.T) {
	o := newTestOrder(100)
	if !o.Accept() {
		t.Fatalf("expected Accept to succeed from New")
	}
	if o.Accept() {
		t.Fatalf("expected second Accept to fail from Accepted")
	}

	if !o.Fill(40, 150_0000) {
		t.Fatalf("expected Fill to succeed")
	}
	if o.Filled+o.Leaves() != o.Original {
		t.Fatalf("invariant broken: filled=%d leaves=%d original=%d", o.Filled, o.Leaves(), o.Original)
	}
	if o.State != StatePartiallyFilled {
		t.Fatalf("expected PartiallyFilled, got %s", o.State)
	}

	if !o.Fill(60, 151_0000) {
		t.Fatalf("expected second Fill to succeed")
	}
	if o.Leaves() != 0 || o.State != StateFilled {
		t.Fatalf("expected Filled with zero leaves, got state=%s leaves=%d", o.State, o.Leaves())
	}
	if !o.IsFilled() {
		t.Fatalf("expected IsFilled true")
	}
}

func TestOrderAveragePriceLaw(t *testing.T) {
	o := newTestOrder(100)
	o.Accept()
	o.Fill(30, 100)
	o.Fill(70, 200)

	want := int64((30*100 + 70*200) / 100)
	if o.AvgPrice != want {
		t.Fatalf("avg price = %d, want %d", o.AvgPrice, want)
	}
}

func TestOrderFillRejectsOverLeaves(t *testing.T) {
	o := newTestOrder(10)
	o.Accept()
	if o.Fill(11, 100) {
		t.Fatalf("expected Fill beyond leaves to fail")
	}
}

func TestOrderCancelOfFilledOrderFails(t *testing.T) {
	o := newTestOrder(10)
	o.Accept()
	o.Fill(10, 100)
	if o.Cancel() {
		t.Fatalf("expected Cancel of a fully filled order to return false")
	}
}

func TestOrderCancelActiveSucceeds(t *testing.T) {
	o := newTestOrder(10)
	o.Accept()
	if !o.Cancel() {
		t.Fatalf("expected Cancel of accepted order to succeed")
	}
	if o.State != StateCanceled {
		t.Fatalf("expected Canceled, got %s", o.State)
	}
}

func TestOrderRejectFromNew(t *testing.T) {
	o := newTestOrder(10)
	if !o.Reject() {
		t.Fatalf("expected Reject from New to succeed")
	}
	if o.State != StateRejected {
		t.Fatalf("expected Rejected, got %s", o.State)
	}
}
