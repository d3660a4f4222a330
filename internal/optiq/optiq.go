// Package optiq implements a simulator-grade codec for Euronext Optiq's
// order-entry gateway (OEG): an SBE-style fixed header (internal/sbe)
// followed by a fixed block, dispatched on a message-class byte per
// SPEC_FULL.md §4.3/§6. There is no teacher analogue for an SBE binary
// protocol in this pack, so the layout follows spec §6's wire table
// directly, in the same shape as internal/ilink3.
package optiq

import (
	"github.com/marketsim/exchange-sim/internal/sbe"
	"github.com/marketsim/exchange-sim/internal/wire"
)

// Message classes, per §6 ("a message-class field for Optiq/Pillar").
const (
	ClassNewOrder        = 1
	ClassCancelOrder     = 2
	ClassReplaceOrder    = 3
	ClassExecutionReport = 4
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

// PriceScale is this simulator's chosen fixed-point scale for Optiq
// prices (spec §6 states the scale for OUCH and iLink 3/Pillar
// explicitly but leaves Optiq's unstated; ×10^4 is used here for
// consistency with OUCH's scale since both are cash-equity venues).
const PriceScale = 10000

const schemaID = 2
const schemaVersion = 1

func header(class uint16, blockLength uint16) sbe.Header {
	return sbe.Header{BlockLength: blockLength, TemplateID: class, SchemaID: schemaID, Version: schemaVersion}
}

const (
	clOrdIDLen = 20
	symbolLen  = 12
)

// NewOrder is Optiq's inbound order-entry message.
type NewOrder struct {
	ClOrdID  string
	Symbol   string
	Side     byte
	Quantity uint32
	Price    int64
	OrdType  byte
}

const newOrderBlockLen = clOrdIDLen + symbolLen + 1 + 4 + 8 + 1

func EncodeNewOrder(buf *wire.Buffer, o *NewOrder) (int, error) {
	start := buf.Position()
	if err := header(ClassNewOrder, newOrderBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(o.ClOrdID, clOrdIDLen)); err != nil {
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

func DecodeNewOrder(buf *wire.Buffer) (*NewOrder, error) {
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	o := &NewOrder{}
	clOrdID, err := buf.GetBytes(clOrdIDLen)
	if err != nil {
		return nil, err
	}
	o.ClOrdID = trimRight(clOrdID)
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

// CancelOrder is Optiq's inbound cancel request.
type CancelOrder struct {
	ClOrdID string
}

const cancelOrderBlockLen = clOrdIDLen

func EncodeCancelOrder(buf *wire.Buffer, c *CancelOrder) (int, error) {
	start := buf.Position()
	if err := header(ClassCancelOrder, cancelOrderBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(c.ClOrdID, clOrdIDLen)); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func DecodeCancelOrder(buf *wire.Buffer) (*CancelOrder, error) {
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	c := &CancelOrder{}
	clOrdID, err := buf.GetBytes(clOrdIDLen)
	if err != nil {
		return nil, err
	}
	c.ClOrdID = trimRight(clOrdID)
	return c, nil
}

// ReplaceOrder is Optiq's inbound cancel/replace request.
type ReplaceOrder struct {
	OrigClOrdID string
	ClOrdID     string
	Quantity    uint32
	Price       int64
}

const replaceOrderBlockLen = clOrdIDLen + clOrdIDLen + 4 + 8

func EncodeReplaceOrder(buf *wire.Buffer, r *ReplaceOrder) (int, error) {
	start := buf.Position()
	if err := header(ClassReplaceOrder, replaceOrderBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.OrigClOrdID, clOrdIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.ClOrdID, clOrdIDLen)); err != nil {
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

func DecodeReplaceOrder(buf *wire.Buffer) (*ReplaceOrder, error) {
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	r := &ReplaceOrder{}
	origID, err := buf.GetBytes(clOrdIDLen)
	if err != nil {
		return nil, err
	}
	r.OrigClOrdID = trimRight(origID)
	newID, err := buf.GetBytes(clOrdIDLen)
	if err != nil {
		return nil, err
	}
	r.ClOrdID = trimRight(newID)
	if r.Quantity, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if r.Price, err = buf.GetInt64BE(); err != nil {
		return nil, err
	}
	return r, nil
}

// ExecutionReport is Optiq's outbound ack/fill/cancel/reject report.
type ExecutionReport struct {
	ClOrdID   string
	Status    byte
	LeavesQty uint32
	CumQty    uint32
	LastQty   uint32
	LastPrice int64
	Timestamp uint64 // Unix epoch nanoseconds, per §6
}

const executionReportBlockLen = clOrdIDLen + 1 + 4 + 4 + 4 + 8 + 8

func EncodeExecutionReport(buf *wire.Buffer, r *ExecutionReport) (int, error) {
	start := buf.Position()
	if err := header(ClassExecutionReport, executionReportBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.ClOrdID, clOrdIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(r.Status); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(r.LeavesQty); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(r.CumQty); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(r.LastQty); err != nil {
		return 0, err
	}
	if err := buf.PutInt64BE(r.LastPrice); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(r.Timestamp); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func DecodeExecutionReport(buf *wire.Buffer) (*ExecutionReport, error) {
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	r := &ExecutionReport{}
	clOrdID, err := buf.GetBytes(clOrdIDLen)
	if err != nil {
		return nil, err
	}
	r.ClOrdID = trimRight(clOrdID)
	if r.Status, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	if r.LeavesQty, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if r.CumQty, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if r.LastQty, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if r.LastPrice, err = buf.GetInt64BE(); err != nil {
		return nil, err
	}
	if r.Timestamp, err = buf.GetUint64BE(); err != nil {
		return nil, err
	}
	return r, nil
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
