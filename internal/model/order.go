// Package model defines the canonical data types shared by every protocol
// engine: orders, sessions, fill rules/decisions and journal entries.
//
// Prices are fixed-point int64 in the protocol's native scale (the codec
// layer converts to/from each wire format's scale factor); timestamps are
// nanoseconds since Unix epoch.
package model

import "fmt"

// Side is the trading side of an order, generalized beyond buy/sell to the
// short-sale variants the FIX and Pillar wires distinguish.
type Side int

const (
	SideBuy Side = iota
	SideSell
	SideSellShort
	SideSellShortExempt
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	case SideSellShort:
		return "SELL_SHORT"
	case SideSellShortExempt:
		return "SELL_SHORT_EXEMPT"
	default:
		return "UNKNOWN"
	}
}

// OrderType is the order's execution semantics.
type OrderType int

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeStop
	OrderTypeStopLimit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeStop:
		return "STOP"
	case OrderTypeStopLimit:
		return "STOP_LIMIT"
	default:
		return "UNKNOWN"
	}
}

// State is the order's position in the lifecycle graph described in
// SPEC_FULL.md §3: new -> accepted -> (partially-filled)* -> {filled,
// canceled, replaced}, or new -> rejected.
type State int

const (
	StateNew State = iota
	StateAccepted
	StatePartiallyFilled
	StateFilled
	StateCanceled
	StateRejected
	StateReplaced
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateAccepted:
		return "ACCEPTED"
	case StatePartiallyFilled:
		return "PARTIALLY_FILLED"
	case StateFilled:
		return "FILLED"
	case StateCanceled:
		return "CANCELED"
	case StateRejected:
		return "REJECTED"
	case StateReplaced:
		return "REPLACED"
	default:
		return "UNKNOWN"
	}
}

// Protocol tags the wire family an order arrived on; the dispatcher uses it
// to pick the matching response encoder.
type Protocol int

const (
	ProtocolFIX Protocol = iota
	ProtocolOUCH42
	ProtocolOUCH50
	ProtocolILink3
	ProtocolOptiq
	ProtocolPillar
)

func (p Protocol) String() string {
	switch p {
	case ProtocolFIX:
		return "FIX"
	case ProtocolOUCH42:
		return "OUCH4.2"
	case ProtocolOUCH50:
		return "OUCH5.0"
	case ProtocolILink3:
		return "ILINK3"
	case ProtocolOptiq:
		return "OPTIQ"
	case ProtocolPillar:
		return "PILLAR"
	default:
		return "UNKNOWN"
	}
}

// Order is the canonical record, per SPEC_FULL.md §3. Mutation is confined
// to the methods below; callers outside internal/registry must not assign
// to its fields directly once it has been added to a registry.
type Order struct {
	ID            uint64
	ClientOrderID string
	SessionID     string
	Protocol      Protocol
	Symbol        string
	Side          Side
	Type          OrderType
	Original      int64
	Filled        int64
	AvgPrice      int64
	LimitPrice    int64
	Timestamp     int64
	State         State

	sumPriceQty int64 // running sum of qty*price, for the share-weighted average
}

// Leaves returns the unfilled quantity: Original - Filled.
func (o *Order) Leaves() int64 {
	return o.Original - o.Filled
}

// IsFilled reports whether the order invariant state==filled holds.
func (o *Order) IsFilled() bool {
	return o.Leaves() == 0 && o.Original > 0 && o.State == StateFilled
}

// IsActive reports whether the order can still receive fills or a cancel.
func (o *Order) IsActive() bool {
	return o.State == StateAccepted || o.State == StatePartiallyFilled
}

// Accept transitions New -> Accepted. Returns false if not currently New.
func (o *Order) Accept() bool {
	if o.State != StateNew {
		return false
	}
	o.State = StateAccepted
	return true
}

// Reject transitions New -> Rejected. Returns false if not currently New.
func (o *Order) Reject() bool {
	if o.State != StateNew {
		return false
	}
	o.State = StateRejected
	return true
}

// Fill applies an execution of qty shares at price, updating the
// share-weighted average price, and transitions to PartiallyFilled or
// Filled. Returns false if the order is not active or qty exceeds leaves.
func (o *Order) Fill(qty, price int64) bool {
	if !o.IsActive() || qty <= 0 || qty > o.Leaves() {
		return false
	}
	o.sumPriceQty += qty * price
	o.Filled += qty
	o.AvgPrice = o.sumPriceQty / o.Filled
	if o.Leaves() == 0 {
		o.State = StateFilled
	} else {
		o.State = StatePartiallyFilled
	}
	return true
}

// Cancel transitions an active order to Canceled. Returns false if the
// order is not currently active (e.g. already filled).
func (o *Order) Cancel() bool {
	if !o.IsActive() {
		return false
	}
	o.State = StateCanceled
	return true
}

// MarkReplaced transitions an active order to Replaced, used by the
// dispatcher before registering the replacement order under a new id.
func (o *Order) MarkReplaced() bool {
	if !o.IsActive() {
		return false
	}
	o.State = StateReplaced
	return true
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{id:%d clOrdID:%s sess:%s %s %s %s %d/%d@%d state:%s}",
		o.ID, o.ClientOrderID, o.SessionID, o.Side, o.Symbol, o.Type, o.Filled, o.Original, o.LimitPrice, o.State)
}
