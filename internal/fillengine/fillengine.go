// Package fillengine evaluates a newly accepted order against an
// ordered list of probabilistic fill rules, per SPEC_FULL.md §4.7. No
// real crossing book is consulted (§1 Non-goals); a fill is a simulated
// decision the dispatcher then applies via internal/registry.
//
// Grounded on the teacher's risk.Checker (internal_teacher_ref/risk/
// checker.go): an ordered Config of limits evaluated by priority, held
// in a struct alongside mutex-guarded mutable state, exposing a single
// pure-ish decision method. Risk's checks run in declared order and
// return on first failure; this engine's rules run in declared Priority
// order and return on first match, the same "first applicable wins"
// shape generalized from pass/fail to a fill decision.
package fillengine

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/marketsim/exchange-sim/internal/model"
)

// Engine evaluates model.FillRule entries against incoming orders.
// Rules are re-sorted by descending Priority on every Configure call so
// the hot evaluate path never sorts.
type Engine struct {
	mu    sync.RWMutex
	rules []model.FillRule
	rng   *rand.Rand
}

// New constructs an Engine seeded deterministically, per spec §8's
// "fill engine determinism... given a fixed seed" testable property.
func New(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Configure replaces the rule set, sorted by descending Priority (the
// highest-priority rule is evaluated first), matching model.FillRule's
// priority-descending ordering.
func (e *Engine) Configure(rules []model.FillRule) {
	sorted := make([]model.FillRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = sorted
}

// Evaluate finds the first rule whose SymbolPattern matches order's
// symbol and draws from the engine's PRNG to decide a fill outcome. A
// rule with FillProbability 0 never fills; FillProbability 1 always
// fills. When a fill occurs, PartialProb decides partial vs. full; only
// whether a fill (and whether it's partial) happens is probabilistic —
// the quantity itself is the deterministic simulator convention
// max(1, leaves/2), per spec §4.7. No matching rule yields a no-fill
// decision.
func (e *Engine) Evaluate(o *model.Order) model.FillDecision {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, rule := range e.rules {
		if !matchSymbol(rule.SymbolPattern, o.Symbol) {
			continue
		}
		if e.rng.Float64() >= rule.FillProbability {
			return model.FillDecision{}
		}
		leaves := o.Leaves()
		if leaves <= 0 {
			return model.FillDecision{}
		}
		if e.rng.Float64() < rule.PartialProb {
			qty := leaves / 2
			if qty < 1 {
				qty = 1
			}
			return model.FillDecision{ShouldFill: true, Quantity: qty, Price: fillPrice(o), FullFill: qty == leaves}
		}
		return model.FillDecision{ShouldFill: true, Quantity: leaves, Price: fillPrice(o), FullFill: true}
	}
	return model.FillDecision{}
}

// fillPrice is the execution price for a simulated fill: the order's
// limit price for limit orders, or its last average/limit price
// otherwise (market orders have no price protection per model.Order's
// lifecycle, but this simulator still needs a concrete number to report
// on the wire).
func fillPrice(o *model.Order) int64 {
	if o.LimitPrice > 0 {
		return o.LimitPrice
	}
	return o.AvgPrice
}

// matchSymbol reports whether pattern matches symbol, where pattern may
// contain a single trailing '*' wildcard (e.g. "AAPL" or "A*"). Ticker
// symbols never contain '/', so path.Match's slash-aware semantics are
// the wrong tool here; this hand-rolled matcher covers the glob shape
// spec §4.7 actually needs.
func matchSymbol(pattern, symbol string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	if i := indexByte(pattern, '*'); i >= 0 {
		prefix := pattern[:i]
		return len(symbol) >= len(prefix) && symbol[:len(prefix)] == prefix
	}
	return pattern == symbol
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
