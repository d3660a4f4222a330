package ouch

import "github.com/marketsim/exchange-sim/internal/wire"

// CancelOrder42 is the inbound 'X' message: token (14) + shares (4) = 19
// bytes total including the message type byte. A Shares of 0 requests a
// full cancel.
type CancelOrder42 struct {
	Token  string
	Shares uint32
}

const CancelOrder42Len = 19

func DecodeCancelOrder42(buf *wire.Buffer) (*CancelOrder42, error) {
	c := &CancelOrder42{}
	var err error
	if c.Token, err = buf.GetASCIIAt(1, tokenLen42); err != nil {
		return nil, err
	}
	if c.Shares, err = buf.GetUint32BEAt(15); err != nil {
		return nil, err
	}
	return c, nil
}

// Replaced42 is the outbound 'U' message (79 bytes total): it mirrors an
// Accepted response but carries both the new and the replaced order's
// tokens, per SPEC_FULL.md §9's resolution of the OUCH 5.0 replace
// open question (applied uniformly to 4.2 here too).
type Replaced42 struct {
	TimestampNanos       uint64
	ReplacementToken     string
	PreviousToken        string
	Side                 byte
	Shares               uint32
	Symbol               string
	Price                uint32
	TIF                  string
	Firm                 string
	Display              byte
	OrderRefNum          uint64
	Capacity             byte
	ISO                  byte
	MinQty               uint32
	CrossType            byte
	OrderState           byte
}

const ReplacedLen = 79

func EncodeReplaced42(buf *wire.Buffer, r *Replaced42) (int, error) {
	if err := buf.PutUint8(MsgReplace); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(r.TimestampNanos); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.ReplacementToken, tokenLen42)); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.PreviousToken, tokenLen42)); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(r.Side); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(r.Shares); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.Symbol, symbolLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(r.Price); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.TIF, tifLen)); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.Firm, firmLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(r.Display); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(r.OrderRefNum); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(r.Capacity); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(r.ISO); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(r.MinQty); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(r.CrossType); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(r.OrderState); err != nil {
		return 0, err
	}
	return buf.Position(), nil
}

// SystemEvent is the outbound 'S' message (10 bytes total), shared by
// 4.2 and 5.0.
type SystemEvent struct {
	TimestampNanos uint64
	EventCode      byte
}

const SystemEventLen = 10

func EncodeSystemEvent(buf *wire.Buffer, s *SystemEvent) (int, error) {
	if err := buf.PutUint8(MsgSystemEvent); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(s.TimestampNanos); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(s.EventCode); err != nil {
		return 0, err
	}
	return buf.Position(), nil
}
