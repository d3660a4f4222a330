// Package ouch implements the NASDAQ OUCH 4.2 (fixed-length) and OUCH 5.0
// (variable-length, appendage-tagged) binary codecs described in
// SPEC_FULL.md §4.3/§6. There is no teacher analogue for a binary
// exchange protocol in this pack; message field layout mirrors the
// teacher's small flat value types (orders.Fill, orders.Trade in
// internal/orders/types.go) in spirit — plain structs, no inheritance,
// one constructor-ish decode function per wire message.
package ouch

import "github.com/marketsim/exchange-sim/internal/wire"

// Message type bytes (both 4.2 and 5.0 share these where applicable).
const (
	MsgEnterOrder  = 'O'
	MsgAccepted    = 'A'
	MsgExecuted    = 'E'
	MsgCanceled    = 'C'
	MsgRejected    = 'J'
	MsgReplace     = 'U' // inbound replace request (5.0) / outbound replaced ack
	MsgCancelOrder = 'X'
	MsgRestated    = 'R' // 5.0 only
	MsgSystemEvent = 'S'
)

// Side byte values.
const (
	SideBuy  = 'B'
	SideSell = 'S'
)

// Fixed byte widths for OUCH 4.2, per SPEC_FULL.md §6.
const (
	tokenLen42 = 14
	symbolLen  = 8
	firmLen    = 4
	tifLen     = 4
)

// EnterOrder42 is the inbound 'O' message (49 bytes total).
type EnterOrder42 struct {
	Token    string
	Side     byte
	Shares   uint32
	Symbol   string
	Price    uint32 // scaled x10^4
	TIF      string
	Firm     string
	Display  byte
	Capacity byte
	MinQty   uint32
	ISO      byte
	CrossType byte
}

// DecodeEnterOrder42 parses a 49-byte Enter Order message. buf[0] must
// already be MsgEnterOrder; decoding starts at offset 1.
func DecodeEnterOrder42(buf *wire.Buffer) (*EnterOrder42, error) {
	e := &EnterOrder42{}
	var err error
	if e.Token, err = buf.GetASCIIAt(1, tokenLen42); err != nil {
		return nil, err
	}
	sideB, err := buf.GetUint8At(15)
	if err != nil {
		return nil, err
	}
	e.Side = sideB
	shares, err := buf.GetUint32BEAt(16)
	if err != nil {
		return nil, err
	}
	e.Shares = shares
	if e.Symbol, err = buf.GetASCIIAt(20, symbolLen); err != nil {
		return nil, err
	}
	price, err := buf.GetUint32BEAt(28)
	if err != nil {
		return nil, err
	}
	e.Price = price
	if e.TIF, err = buf.GetASCIIAt(32, tifLen); err != nil {
		return nil, err
	}
	if e.Firm, err = buf.GetASCIIAt(36, firmLen); err != nil {
		return nil, err
	}
	display, err := buf.GetUint8At(40)
	if err != nil {
		return nil, err
	}
	e.Display = display
	capacity, err := buf.GetUint8At(41)
	if err != nil {
		return nil, err
	}
	e.Capacity = capacity
	minQty, err := buf.GetUint32BEAt(42)
	if err != nil {
		return nil, err
	}
	e.MinQty = minQty
	iso, err := buf.GetUint8At(46)
	if err != nil {
		return nil, err
	}
	e.ISO = iso
	crossType, err := buf.GetUint8At(47)
	if err != nil {
		return nil, err
	}
	e.CrossType = crossType
	return e, nil
}

// EnterOrder42Len is the fixed wire length of an Enter Order message.
const EnterOrder42Len = 49

// Accepted42 is the outbound 'A' message (65 bytes total).
type Accepted42 struct {
	TimestampNanos uint64
	Token          string
	Side           byte
	Shares         uint32
	Symbol         string
	Price          uint32
	TIF            string
	Firm           string
	Display        byte
	OrderRefNum    uint64
	Capacity       byte
	ISO            byte
	MinQty         uint32
	CrossType      byte
	OrderState     byte // 'L' = live
}

// AcceptedLen is the fixed wire length of an Accepted message.
const AcceptedLen = 65

// EncodeAccepted42 writes an Accepted message into buf starting at
// position 0, returning the number of bytes written (always
// AcceptedLen).
func EncodeAccepted42(buf *wire.Buffer, a *Accepted42) (int, error) {
	if err := buf.PutUint8(MsgAccepted); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(a.TimestampNanos); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(a.Token, tokenLen42)); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(a.Side); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(a.Shares); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(a.Symbol, symbolLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(a.Price); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(a.TIF, tifLen)); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(a.Firm, firmLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(a.Display); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(a.OrderRefNum); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(a.Capacity); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(a.ISO); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(a.MinQty); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(a.CrossType); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(a.OrderState); err != nil {
		return 0, err
	}
	return buf.Position(), nil
}

// Executed42 is the outbound 'E' message (40 bytes total).
type Executed42 struct {
	TimestampNanos uint64
	Token          string
	Shares         uint32
	Price          uint32
	MatchNumber    uint64
	LiquidityFlag  byte
}

const ExecutedLen = 40

func EncodeExecuted42(buf *wire.Buffer, e *Executed42) (int, error) {
	if err := buf.PutUint8(MsgExecuted); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(e.TimestampNanos); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(e.Token, tokenLen42)); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(e.Shares); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(e.Price); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(e.MatchNumber); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(e.LiquidityFlag); err != nil {
		return 0, err
	}
	return buf.Position(), nil
}

// Canceled42 is the outbound 'C' message (28 bytes total).
type Canceled42 struct {
	TimestampNanos  uint64
	Token           string
	DecrementShares uint32
	Reason          byte
}

const CanceledLen = 28

func EncodeCanceled42(buf *wire.Buffer, c *Canceled42) (int, error) {
	if err := buf.PutUint8(MsgCanceled); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(c.TimestampNanos); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(c.Token, tokenLen42)); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(c.DecrementShares); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(c.Reason); err != nil {
		return 0, err
	}
	return buf.Position(), nil
}

// Rejected42 is the outbound 'J' message (24 bytes total).
type Rejected42 struct {
	TimestampNanos uint64
	Token          string
	ReasonCode     byte
}

const RejectedLen = 24

func EncodeRejected42(buf *wire.Buffer, r *Rejected42) (int, error) {
	if err := buf.PutUint8(MsgRejected); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(r.TimestampNanos); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.Token, tokenLen42)); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(r.ReasonCode); err != nil {
		return 0, err
	}
	return buf.Position(), nil
}

// padRight returns s truncated or space-padded to exactly n bytes.
func padRight(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	for i := len(s); i < n; i++ {
		b[i] = ' '
	}
	return b
}
