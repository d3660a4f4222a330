// Package dispatch implements the protocol-agnostic order lifecycle
// glue described in SPEC_FULL.md §4.8: new-order, cancel, replace and
// status-request handling shared by every protocol engine. Each
// protocol's session runtime decodes its own wire format into the
// requests below and encodes the returned model.Order/model.FillDecision
// back into its own wire format; Dispatcher itself never touches wire
// bytes.
//
// Grounded on cmd/server/main.go's handleOrder/handleCancel shape
// (validate -> submit -> react to the outcome -> respond), generalized
// from one HTTP handler per action to one dispatcher method per action
// shared across six protocol engines.
package dispatch

import (
	"sync/atomic"

	"github.com/marketsim/exchange-sim/internal/fillengine"
	"github.com/marketsim/exchange-sim/internal/model"
	"github.com/marketsim/exchange-sim/internal/registry"
)

// Dispatcher wires the order registry and fill engine together behind
// the four operations every protocol engine needs.
type Dispatcher struct {
	registry *registry.Registry
	fills    *fillengine.Engine
	nextID   atomic.Uint64
}

// New constructs a Dispatcher over an existing registry and fill
// engine (both process-wide, shared across all protocol sessions).
func New(reg *registry.Registry, fills *fillengine.Engine) *Dispatcher {
	return &Dispatcher{registry: reg, fills: fills}
}

// NewOrderRequest is a protocol-decoded new-order request, already
// translated into the canonical model vocabulary.
type NewOrderRequest struct {
	SessionID     string
	ClientOrderID string
	Protocol      model.Protocol
	Symbol        string
	Side          model.Side
	Type          model.OrderType
	Quantity      int64
	Price         int64
	Timestamp     int64
}

// NewOrderResult is what the protocol engine needs to emit an ack and,
// if the fill engine fired, a fill report.
type NewOrderResult struct {
	Order    *model.Order
	Decision model.FillDecision
	Accepted bool // false means "duplicate client order id: drop silently, never ack"
}

// NewOrder allocates an exchange id, constructs and registers the
// order, accepts it, and evaluates the fill engine — per §4.8's "On new
// order" bullet. A duplicate (by exchange id or by (session,
// clientOrderID)) is dropped: Accepted is false and the caller must not
// emit any response.
func (d *Dispatcher) NewOrder(req NewOrderRequest) NewOrderResult {
	o := &model.Order{
		ID:            d.nextID.Add(1),
		ClientOrderID: req.ClientOrderID,
		SessionID:     req.SessionID,
		Protocol:      req.Protocol,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Original:      req.Quantity,
		LimitPrice:    req.Price,
		Timestamp:     req.Timestamp,
		State:         model.StateNew,
	}

	if err := d.registry.Add(o); err != nil {
		return NewOrderResult{Accepted: false}
	}
	o.Accept()

	decision := d.fills.Evaluate(o)
	if decision.ShouldFill {
		d.registry.Fill(o.ID, decision.Quantity, decision.Price)
	}
	return NewOrderResult{Order: o, Decision: decision, Accepted: true}
}

// Cancel looks up an order by (session, clientOrderID) and cancels it
// if active. Per §4.8's "On cancel": a miss is logged and dropped by
// the caller (ok=false, Order=nil); an illegal transition (already
// filled, etc.) is also ok=false but returns the order so the caller
// can decide whether to emit a protocol-specific CancelReject.
func (d *Dispatcher) Cancel(sessionID, clientOrderID string) (*model.Order, bool) {
	return d.registry.Cancel(sessionID, clientOrderID)
}

// ReplaceRequest is a protocol-decoded cancel/replace request.
type ReplaceRequest struct {
	SessionID         string
	OrigClientOrderID string
	NewClientOrderID  string
	Quantity          int64
	Price             int64
}

// ReplaceResult carries both the now-replaced original and the new
// order the caller should register fills/acks against.
type ReplaceResult struct {
	Original    *model.Order
	Replacement *model.Order
	Decision    model.FillDecision
	Accepted    bool
}

// Replace implements §4.8's "On replace": look up the original by
// client id, allocate a new exchange id for the replacement, mark the
// original Replaced, register the replacement, then evaluate the fill
// engine against it. Accepted is false if the original cannot be found
// or is not currently active.
func (d *Dispatcher) Replace(req ReplaceRequest) ReplaceResult {
	original := d.registry.GetByClientID(req.SessionID, req.OrigClientOrderID)
	if original == nil {
		return ReplaceResult{Accepted: false}
	}

	replacement := &model.Order{
		ID:            d.nextID.Add(1),
		ClientOrderID: req.NewClientOrderID,
		SessionID:     req.SessionID,
		Protocol:      original.Protocol,
		Symbol:        original.Symbol,
		Side:          original.Side,
		Type:          original.Type,
		Original:      req.Quantity,
		LimitPrice:    req.Price,
		Timestamp:     original.Timestamp,
		State:         model.StateNew,
	}

	origAfter, ok := d.registry.Replace(req.SessionID, req.OrigClientOrderID, replacement)
	if !ok {
		return ReplaceResult{Original: origAfter, Accepted: false}
	}
	replacement.Accept()

	decision := d.fills.Evaluate(replacement)
	if decision.ShouldFill {
		d.registry.Fill(replacement.ID, decision.Quantity, decision.Price)
	}
	return ReplaceResult{Original: origAfter, Replacement: replacement, Decision: decision, Accepted: true}
}

// Status looks up an order by (session, clientOrderID) for a status
// request, per §4.8's "On status request" bullet: no fill transition,
// just the current cumulative/leaves snapshot.
func (d *Dispatcher) Status(sessionID, clientOrderID string) *model.Order {
	return d.registry.GetByClientID(sessionID, clientOrderID)
}
