// Package pillar implements a simulator-grade codec for NYSE Pillar's
// order-entry gateway: SBE-style fixed header (internal/sbe) + fixed
// block, dispatched on a message-class byte, per SPEC_FULL.md §4.3/§6.
// Prices are 8-byte integers scaled by 10^8. No teacher analogue exists
// for an SBE binary protocol in this pack; the layout follows spec §6's
// wire table directly, in the same shape as internal/ilink3 and
// internal/optiq.
package pillar

import (
	"github.com/marketsim/exchange-sim/internal/sbe"
	"github.com/marketsim/exchange-sim/internal/wire"
)

// Message classes, per §6.
const (
	ClassOrderEntry   = 1
	ClassOrderCancel  = 2
	ClassOrderReplace = 3
	ClassOrderAck     = 4
)

// Side, per §6: 1=buy, 2=sell.
const (
	SideBuy  = 1
	SideSell = 2
)

// Order status byte values, per §6.
const (
	StatusNew         = 0
	StatusPartialFill = 1
	StatusFilled      = 2
	StatusCanceled    = 4
	StatusRejected    = 8
)

// PriceScale is Pillar's fixed-point price scale, per §6.
const PriceScale = 100_000_000

const schemaID = 3
const schemaVersion = 1

func header(class uint16, blockLength uint16) sbe.Header {
	return sbe.Header{BlockLength: blockLength, TemplateID: class, SchemaID: schemaID, Version: schemaVersion}
}

const (
	orderIDLen = 20
	symbolLen  = 11
)

// OrderEntry is Pillar's inbound new-order message.
type OrderEntry struct {
	OrderID  string
	Symbol   string
	Side     byte
	Quantity uint32
	Price    int64
	OrdType  byte
}

const orderEntryBlockLen = orderIDLen + symbolLen + 1 + 4 + 8 + 1

func EncodeOrderEntry(buf *wire.Buffer, o *OrderEntry) (int, error) {
	start := buf.Position()
	if err := header(ClassOrderEntry, orderEntryBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(o.OrderID, orderIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(o.Symbol, symbolLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(o.Side); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(o.Quantity); err != nil {
		return 0, err
	}
	if err := buf.PutInt64BE(o.Price); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(o.OrdType); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func DecodeOrderEntry(buf *wire.Buffer) (*OrderEntry, error) {
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	o := &OrderEntry{}
	id, err := buf.GetBytes(orderIDLen)
	if err != nil {
		return nil, err
	}
	o.OrderID = trimRight(id)
	sym, err := buf.GetBytes(symbolLen)
	if err != nil {
		return nil, err
	}
	o.Symbol = trimRight(sym)
	if o.Side, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	if o.Quantity, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if o.Price, err = buf.GetInt64BE(); err != nil {
		return nil, err
	}
	if o.OrdType, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	return o, nil
}

// OrderCancel is Pillar's inbound cancel request.
type OrderCancel struct {
	OrderID string
}

const orderCancelBlockLen = orderIDLen

func EncodeOrderCancel(buf *wire.Buffer, c *OrderCancel) (int, error) {
	start := buf.Position()
	if err := header(ClassOrderCancel, orderCancelBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(c.OrderID, orderIDLen)); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func DecodeOrderCancel(buf *wire.Buffer) (*OrderCancel, error) {
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	c := &OrderCancel{}
	id, err := buf.GetBytes(orderIDLen)
	if err != nil {
		return nil, err
	}
	c.OrderID = trimRight(id)
	return c, nil
}

// OrderReplace is Pillar's inbound cancel/replace request.
type OrderReplace struct {
	OrigOrderID string
	OrderID     string
	Quantity    uint32
	Price       int64
}

const orderReplaceBlockLen = orderIDLen + orderIDLen + 4 + 8

func EncodeOrderReplace(buf *wire.Buffer, r *OrderReplace) (int, error) {
	start := buf.Position()
	if err := header(ClassOrderReplace, orderReplaceBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.OrigOrderID, orderIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.OrderID, orderIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(r.Quantity); err != nil {
		return 0, err
	}
	if err := buf.PutInt64BE(r.Price); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func DecodeOrderReplace(buf *wire.Buffer) (*OrderReplace, error) {
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	r := &OrderReplace{}
	origID, err := buf.GetBytes(orderIDLen)
	if err != nil {
		return nil, err
	}
	r.OrigOrderID = trimRight(origID)
	newID, err := buf.GetBytes(orderIDLen)
	if err != nil {
		return nil, err
	}
	r.OrderID = trimRight(newID)
	if r.Quantity, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if r.Price, err = buf.GetInt64BE(); err != nil {
		return nil, err
	}
	return r, nil
}

// OrderAck is Pillar's outbound ack/fill/cancel/reject report.
type OrderAck struct {
	OrderID   string
	Status    byte
	LeavesQty uint32
	CumQty    uint32
	LastQty   uint32
	LastPrice int64
	Timestamp uint64
}

const orderAckBlockLen = orderIDLen + 1 + 4 + 4 + 4 + 8 + 8

func EncodeOrderAck(buf *wire.Buffer, a *OrderAck) (int, error) {
	start := buf.Position()
	if err := header(ClassOrderAck, orderAckBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(a.OrderID, orderIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(a.Status); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(a.LeavesQty); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(a.CumQty); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(a.LastQty); err != nil {
		return 0, err
	}
	if err := buf.PutInt64BE(a.LastPrice); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(a.Timestamp); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func DecodeOrderAck(buf *wire.Buffer) (*OrderAck, error) {
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	a := &OrderAck{}
	id, err := buf.GetBytes(orderIDLen)
	if err != nil {
		return nil, err
	}
	a.OrderID = trimRight(id)
	if a.Status, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	if a.LeavesQty, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if a.CumQty, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if a.LastQty, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if a.LastPrice, err = buf.GetInt64BE(); err != nil {
		return nil, err
	}
	if a.Timestamp, err = buf.GetUint64BE(); err != nil {
		return nil, err
	}
	return a, nil
}

func padRight(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

func trimRight(b []byte) string {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return string(b[:i])
}
