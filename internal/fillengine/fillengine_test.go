package fillengine

import (
	"testing"

	"github.com/marketsim/exchange-sim/internal/model"
)

func newAcceptedOrder(symbol string, qty, price int64) *model.Order {
	o := &model.Order{Symbol: symbol, Original: qty, LimitPrice: price, State: model.StateNew}
	o.Accept()
	return o
}

func TestNoMatchingRuleNeverFills(t *testing.T) {
	e := New(1)
	e.Configure([]model.FillRule{{Priority: 1, SymbolPattern: "MSFT", FillProbability: 1, PartialProb: 0}})
	d := e.Evaluate(newAcceptedOrder("AAPL", 100, 1_500_000))
	if d.ShouldFill {
		t.Fatalf("expected no fill, got %+v", d)
	}
}

func TestZeroProbabilityNeverFills(t *testing.T) {
	e := New(1)
	e.Configure([]model.FillRule{{Priority: 1, SymbolPattern: "*", FillProbability: 0, PartialProb: 0}})
	d := e.Evaluate(newAcceptedOrder("AAPL", 100, 1_500_000))
	if d.ShouldFill {
		t.Fatalf("expected no fill, got %+v", d)
	}
}

func TestFullProbabilityAndZeroPartialAlwaysFullFills(t *testing.T) {
	e := New(42)
	e.Configure([]model.FillRule{{Priority: 1, SymbolPattern: "*", FillProbability: 1, PartialProb: 0}})
	for i := 0; i < 20; i++ {
		d := e.Evaluate(newAcceptedOrder("AAPL", 100, 1_500_000))
		if !d.ShouldFill || !d.FullFill || d.Quantity != 100 {
			t.Fatalf("iteration %d: got %+v, want full fill of 100", i, d)
		}
	}
}

func TestFullProbabilityAndFullPartialAlwaysPartialFills(t *testing.T) {
	e := New(7)
	e.Configure([]model.FillRule{{Priority: 1, SymbolPattern: "*", FillProbability: 1, PartialProb: 1}})
	for i := 0; i < 20; i++ {
		d := e.Evaluate(newAcceptedOrder("AAPL", 100, 1_500_000))
		if !d.ShouldFill {
			t.Fatalf("iteration %d: expected a fill", i)
		}
		if d.Quantity != 50 {
			t.Fatalf("iteration %d: partial qty = %d, want 50 (max(1, leaves/2) of 100)", i, d.Quantity)
		}
		if d.FullFill {
			t.Fatalf("iteration %d: partial fill reported FullFill", i)
		}
	}
}

func TestPriorityOrderFirstMatchWins(t *testing.T) {
	e := New(3)
	e.Configure([]model.FillRule{
		{Priority: 1, SymbolPattern: "AAPL", FillProbability: 0, PartialProb: 0},
		{Priority: 5, SymbolPattern: "AAPL", FillProbability: 1, PartialProb: 0},
	})
	d := e.Evaluate(newAcceptedOrder("AAPL", 50, 1_000_000))
	if !d.ShouldFill || d.Quantity != 50 {
		t.Fatalf("expected the higher-priority rule (full fill) to win, got %+v", d)
	}
}

func TestWildcardPrefixMatches(t *testing.T) {
	e := New(9)
	e.Configure([]model.FillRule{{Priority: 1, SymbolPattern: "AA*", FillProbability: 1, PartialProb: 0}})
	d := e.Evaluate(newAcceptedOrder("AAPL", 10, 1_000_000))
	if !d.ShouldFill {
		t.Fatal("expected AA* to match AAPL")
	}
	d2 := e.Evaluate(newAcceptedOrder("MSFT", 10, 1_000_000))
	if d2.ShouldFill {
		t.Fatal("expected AA* not to match MSFT")
	}
}

func TestDeterministicGivenFixedSeed(t *testing.T) {
	rule := []model.FillRule{{Priority: 1, SymbolPattern: "*", FillProbability: 0.5, PartialProb: 0.5}}

	e1 := New(123)
	e1.Configure(rule)
	e2 := New(123)
	e2.Configure(rule)

	for i := 0; i < 10; i++ {
		d1 := e1.Evaluate(newAcceptedOrder("AAPL", 100, 1_500_000))
		d2 := e2.Evaluate(newAcceptedOrder("AAPL", 100, 1_500_000))
		if d1 != d2 {
			t.Fatalf("iteration %d: d1=%+v d2=%+v, want identical given the same seed", i, d1, d2)
		}
	}
}
