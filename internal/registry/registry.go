// Package registry implements the process-wide live-order map described
// in SPEC_FULL.md §4.6: every order is reachable both by its
// exchange-assigned id and by the (session, client order id) pair the
// owning session used to submit it. Grounded on the teacher's
// orderbook.OrderBook id-map (`orders map[uint64]*OrderNode`) for O(1)
// lookup-by-id; the teacher's red-black-tree price-level index has no
// analogue here since this registry never needs best-bid/best-ask
// traversal (§1 Non-goals: no crossing book). Per-order mutation locking
// follows spec §5's "fine-grained locking on the order, or equivalent."
package registry

import (
	"fmt"
	"sync"

	"github.com/marketsim/exchange-sim/internal/model"
)

// node wraps an order with its own mutex so concurrent cancel/fill/
// replace calls against different orders never contend on a registry-
// wide lock.
type node struct {
	mu    sync.Mutex
	order *model.Order
}

func clientKey(sessionID, clientOrderID string) string {
	return sessionID + "\x00" + clientOrderID
}

// Registry is the dual-indexed live-order map. Zero value is not usable;
// construct with New.
type Registry struct {
	mu       sync.RWMutex
	byID     map[uint64]*node
	byClient map[string]*node
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byID:     make(map[uint64]*node),
		byClient: make(map[string]*node),
	}
}

// ErrDuplicateOrder is returned by Add when an order with the same
// exchange id, or the same (session, client order id) pair, already
// exists.
var ErrDuplicateOrder = fmt.Errorf("registry: duplicate order")

// Add inserts o under both indices. Per §4.8's new-order handling, a
// duplicate (by either index) is never acked: the caller should log and
// drop rather than retry.
func (r *Registry) Add(o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := clientKey(o.SessionID, o.ClientOrderID)
	if _, exists := r.byID[o.ID]; exists {
		return ErrDuplicateOrder
	}
	if _, exists := r.byClient[key]; exists {
		return ErrDuplicateOrder
	}
	n := &node{order: o}
	r.byID[o.ID] = n
	r.byClient[key] = n
	return nil
}

// GetByID returns the live order for an exchange id, or nil.
func (r *Registry) GetByID(id uint64) *model.Order {
	r.mu.RLock()
	n, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.order
}

// GetByClientID returns the live order a session originally submitted
// under clientOrderID, or nil.
func (r *Registry) GetByClientID(sessionID, clientOrderID string) *model.Order {
	r.mu.RLock()
	n, ok := r.byClient[clientKey(sessionID, clientOrderID)]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.order
}

// Fill applies a fill to the order identified by exchange id, serialized
// against concurrent mutation of that same order. Returns false if the
// order does not exist or the transition is illegal (see
// model.Order.Fill).
func (r *Registry) Fill(id uint64, qty, price int64) bool {
	n := r.lookupNode(id)
	if n == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.order.Fill(qty, price)
}

// Cancel transitions the order identified by (session, clientOrderID) to
// Canceled. Returns false if not found or not currently active — per
// spec §7, an illegal cancel (e.g. already filled) is silent: the caller
// must not emit an ack when this returns false.
func (r *Registry) Cancel(sessionID, clientOrderID string) (*model.Order, bool) {
	r.mu.RLock()
	n, ok := r.byClient[clientKey(sessionID, clientOrderID)]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.order, n.order.Cancel()
}

// Replace marks the order identified by (session, origClientOrderID) as
// Replaced and adds replacement under its own exchange id and new client
// order id. Returns false (with replacement left un-added) if the
// original cannot be found or is not active.
func (r *Registry) Replace(sessionID, origClientOrderID string, replacement *model.Order) (*model.Order, bool) {
	r.mu.RLock()
	n, ok := r.byClient[clientKey(sessionID, origClientOrderID)]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	n.mu.Lock()
	marked := n.order.MarkReplaced()
	original := n.order
	n.mu.Unlock()
	if !marked {
		return original, false
	}
	if err := r.Add(replacement); err != nil {
		return original, false
	}
	return original, true
}

// Len returns the number of orders currently tracked by exchange id,
// including ones in a terminal state (filled/canceled/rejected/replaced).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// ActiveCount returns the number of orders still live — state in
// {new, accepted, partially-filled} — per spec §4.6's activeCount
// operation. Unlike Len, terminal orders are excluded.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	nodes := make([]*node, 0, len(r.byID))
	for _, n := range r.byID {
		nodes = append(nodes, n)
	}
	r.mu.RUnlock()

	count := 0
	for _, n := range nodes {
		n.mu.Lock()
		switch n.order.State {
		case model.StateNew, model.StateAccepted, model.StatePartiallyFilled:
			count++
		}
		n.mu.Unlock()
	}
	return count
}

func (r *Registry) lookupNode(id uint64) *node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}
