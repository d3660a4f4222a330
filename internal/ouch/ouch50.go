package ouch

import (
	"fmt"

	"github.com/marketsim/exchange-sim/internal/wire"
)

// OUCH 5.0 appendage tags, per SPEC_FULL.md §6.
const (
	AppendagePeg        = 1
	AppendageReserve    = 2
	AppendageDiscretion = 3
)

// Appendage is one tagged variable-length block: [tag:1][length:2 BE][data].
type Appendage struct {
	Tag  byte
	Data []byte
}

// fixedBlockLen50 is the length of Enter Order 5.0's fixed block,
// including the leading message type byte but excluding the trailing
// appendage count byte and any appendages.
const fixedBlockLen50 = 38

// EnterOrder50 is the inbound 'O' message for OUCH 5.0: a 4-byte
// UserRefNum replaces the 14-char token used by 4.2, and the fixed
// block is followed by zero or more tagged appendages.
type EnterOrder50 struct {
	UserRefNum uint32
	Side       byte
	Shares     uint32
	Symbol     string
	Price      uint32
	TIF        string
	Firm       string
	Display    byte
	Capacity   byte
	MinQty     uint32
	ISO        byte
	CrossType  byte
	Appendages []Appendage
}

// DecodeEnterOrder50 parses region as a relative read starting at
// position 0 (region[0] must be MsgEnterOrder).
func DecodeEnterOrder50(region []byte) (*EnterOrder50, error) {
	buf := wire.Wrap(region)
	e := &EnterOrder50{}

	msgType, err := buf.GetUint8()
	if err != nil {
		return nil, err
	}
	if msgType != MsgEnterOrder {
		return nil, fmt.Errorf("ouch: expected Enter Order type %q, got %q", MsgEnterOrder, msgType)
	}
	if e.UserRefNum, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if e.Side, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	if e.Shares, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	symBytes, err := buf.GetBytes(symbolLen)
	if err != nil {
		return nil, err
	}
	e.Symbol = string(symBytes)
	if e.Price, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	tifBytes, err := buf.GetBytes(tifLen)
	if err != nil {
		return nil, err
	}
	e.TIF = string(tifBytes)
	firmBytes, err := buf.GetBytes(firmLen)
	if err != nil {
		return nil, err
	}
	e.Firm = string(firmBytes)
	if e.Display, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	if e.Capacity, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	if e.MinQty, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if e.ISO, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	if e.CrossType, err = buf.GetUint8(); err != nil {
		return nil, err
	}

	count, err := buf.GetUint8()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(count); i++ {
		tag, err := buf.GetUint8()
		if err != nil {
			return nil, err
		}
		length, err := buf.GetUint16BE()
		if err != nil {
			return nil, err
		}
		data, err := buf.GetBytes(int(length))
		if err != nil {
			return nil, err
		}
		e.Appendages = append(e.Appendages, Appendage{Tag: tag, Data: data})
	}
	return e, nil
}

// EncodeEnterOrder50 writes e into buf (relative, starting at the
// buffer's current position) and returns the number of bytes written.
func EncodeEnterOrder50(buf *wire.Buffer, e *EnterOrder50) (int, error) {
	start := buf.Position()
	if err := buf.PutUint8(MsgEnterOrder); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(e.UserRefNum); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(e.Side); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(e.Shares); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(e.Symbol, symbolLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(e.Price); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(e.TIF, tifLen)); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(e.Firm, firmLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(e.Display); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(e.Capacity); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(e.MinQty); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(e.ISO); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(e.CrossType); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(uint8(len(e.Appendages))); err != nil {
		return 0, err
	}
	for _, a := range e.Appendages {
		if err := buf.PutUint8(a.Tag); err != nil {
			return 0, err
		}
		if err := buf.PutUint16BE(uint16(len(a.Data))); err != nil {
			return 0, err
		}
		if err := buf.PutBytes(a.Data); err != nil {
			return 0, err
		}
	}
	return buf.Position() - start, nil
}

// CancelOrder50 is the inbound 'X' message: UserRefNum (4) + Quantity
// (4). A Quantity of 0 requests a full cancel, per the concrete scenario
// in SPEC_FULL.md §8.
type CancelOrder50 struct {
	UserRefNum uint32
	Quantity   uint32
}

func DecodeCancelOrder50(region []byte) (*CancelOrder50, error) {
	buf := wire.Wrap(region)
	msgType, err := buf.GetUint8()
	if err != nil {
		return nil, err
	}
	if msgType != MsgCancelOrder {
		return nil, fmt.Errorf("ouch: expected Cancel Order type %q, got %q", MsgCancelOrder, msgType)
	}
	c := &CancelOrder50{}
	if c.UserRefNum, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	if c.Quantity, err = buf.GetUint32BE(); err != nil {
		return nil, err
	}
	return c, nil
}

func EncodeCancelOrder50(buf *wire.Buffer, c *CancelOrder50) (int, error) {
	start := buf.Position()
	if err := buf.PutUint8(MsgCancelOrder); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(c.UserRefNum); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(c.Quantity); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

// Accepted50 / Canceled50 mirror the 4.2 responses but key off
// UserRefNum instead of a token.
type Accepted50 struct {
	TimestampNanos uint64
	UserRefNum     uint32
	Side           byte
	Shares         uint32
	Symbol         string
	Price          uint32
	TIF            string
	Firm           string
	Display        byte
	OrderState     byte
}

func EncodeAccepted50(buf *wire.Buffer, a *Accepted50) (int, error) {
	start := buf.Position()
	if err := buf.PutUint8(MsgAccepted); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(a.TimestampNanos); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(a.UserRefNum); err != nil {
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
	if err := buf.PutUint8(a.OrderState); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

type Canceled50 struct {
	TimestampNanos  uint64
	UserRefNum      uint32
	DecrementShares uint32
	Reason          byte
}

func EncodeCanceled50(buf *wire.Buffer, c *Canceled50) (int, error) {
	start := buf.Position()
	if err := buf.PutUint8(MsgCanceled); err != nil {
		return 0, err
	}
	if err := buf.PutUint64BE(c.TimestampNanos); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(c.UserRefNum); err != nil {
		return 0, err
	}
	if err := buf.PutUint32BE(c.DecrementShares); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(c.Reason); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}
