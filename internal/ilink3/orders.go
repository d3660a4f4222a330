package ilink3

import (
	"github.com/marketsim/exchange-sim/internal/sbe"
	"github.com/marketsim/exchange-sim/internal/wire"
)

// clOrdIDLen / symbolLen are the fixed text field widths this
// simulator's iLink 3 order-entry templates use.
const (
	clOrdIDLen = 20
	symbolLen  = 8
)

// NewOrderSingle is template 514: a new order submission. Price is
// PRICE9 (signed, scaled by 10^9).
type NewOrderSingle struct {
	SeqNum   uint64
	ClOrdID  string
	Symbol   string
	Side     byte // 1=buy, 2=sell, matching Optiq/Pillar's byte convention
	Quantity uint32
	Price    int64
	OrdType  byte
}

const newOrderSingleBlockLen = 8 + clOrdIDLen + symbolLen + 1 + 4 + 8 + 1

func EncodeNewOrderSingle(buf *wire.Buffer, o *NewOrderSingle) (int, error) {
	start := buf.Position()
	totalLen := 2 + sbe.HeaderLen + newOrderSingleBlockLen
	if err := buf.PutUint16LE(uint16(totalLen)); err != nil {
		return 0, err
	}
	if err := header(TemplateNewOrderSingle, newOrderSingleBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutUint64LE(o.SeqNum); err != nil {
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
	if err := buf.PutUint32LE(o.Quantity); err != nil {
		return 0, err
	}
	if err := buf.PutInt64LE(o.Price); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(o.OrdType); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func DecodeNewOrderSingle(buf *wire.Buffer) (*NewOrderSingle, error) {
	if _, err := buf.GetUint16LE(); err != nil { // message length, unused here
		return nil, err
	}
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	o := &NewOrderSingle{}
	var err error
	if o.SeqNum, err = buf.GetUint64LE(); err != nil {
		return nil, err
	}
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
	if o.Quantity, err = buf.GetUint32LE(); err != nil {
		return nil, err
	}
	if o.Price, err = buf.GetInt64LE(); err != nil {
		return nil, err
	}
	if o.OrdType, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	return o, nil
}

// ExecutionReportNew is template 532+: the acknowledgement/fill report.
type ExecutionReportNew struct {
	SeqNum    uint64
	ClOrdID   string
	ExecType  byte // mirrors FIX ExecType values for a consistent dispatcher contract
	OrdStatus byte
	LeavesQty uint32
	CumQty    uint32
	AvgPrice  int64
	LastQty   uint32
	LastPrice int64
}

const executionReportNewBlockLen = 8 + clOrdIDLen + 1 + 1 + 4 + 4 + 8 + 4 + 8

func EncodeExecutionReportNew(buf *wire.Buffer, r *ExecutionReportNew) (int, error) {
	start := buf.Position()
	totalLen := 2 + sbe.HeaderLen + executionReportNewBlockLen
	if err := buf.PutUint16LE(uint16(totalLen)); err != nil {
		return 0, err
	}
	if err := header(TemplateExecutionReportNew, executionReportNewBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutUint64LE(r.SeqNum); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(r.ClOrdID, clOrdIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(r.ExecType); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(r.OrdStatus); err != nil {
		return 0, err
	}
	if err := buf.PutUint32LE(r.LeavesQty); err != nil {
		return 0, err
	}
	if err := buf.PutUint32LE(r.CumQty); err != nil {
		return 0, err
	}
	if err := buf.PutInt64LE(r.AvgPrice); err != nil {
		return 0, err
	}
	if err := buf.PutUint32LE(r.LastQty); err != nil {
		return 0, err
	}
	if err := buf.PutInt64LE(r.LastPrice); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func DecodeExecutionReportNew(buf *wire.Buffer) (*ExecutionReportNew, error) {
	if _, err := buf.GetUint16LE(); err != nil {
		return nil, err
	}
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	r := &ExecutionReportNew{}
	var err error
	if r.SeqNum, err = buf.GetUint64LE(); err != nil {
		return nil, err
	}
	clOrdID, err := buf.GetBytes(clOrdIDLen)
	if err != nil {
		return nil, err
	}
	r.ClOrdID = trimRight(clOrdID)
	if r.ExecType, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	if r.OrdStatus, err = buf.GetUint8(); err != nil {
		return nil, err
	}
	if r.LeavesQty, err = buf.GetUint32LE(); err != nil {
		return nil, err
	}
	if r.CumQty, err = buf.GetUint32LE(); err != nil {
		return nil, err
	}
	if r.AvgPrice, err = buf.GetInt64LE(); err != nil {
		return nil, err
	}
	if r.LastQty, err = buf.GetUint32LE(); err != nil {
		return nil, err
	}
	if r.LastPrice, err = buf.GetInt64LE(); err != nil {
		return nil, err
	}
	return r, nil
}

// OrderCancelReplaceRequest is template 515: a replace of an existing
// order's quantity and/or price, identified by the original ClOrdID.
type OrderCancelReplaceRequest struct {
	SeqNum      uint64
	OrigClOrdID string
	ClOrdID     string
	Quantity    uint32
	Price       int64
}

const orderCancelReplaceReqBlockLen = 8 + clOrdIDLen + clOrdIDLen + 4 + 8

func EncodeOrderCancelReplaceRequest(buf *wire.Buffer, o *OrderCancelReplaceRequest) (int, error) {
	start := buf.Position()
	totalLen := 2 + sbe.HeaderLen + orderCancelReplaceReqBlockLen
	if err := buf.PutUint16LE(uint16(totalLen)); err != nil {
		return 0, err
	}
	if err := header(TemplateOrderCancelReplaceReq, orderCancelReplaceReqBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutUint64LE(o.SeqNum); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(o.OrigClOrdID, clOrdIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(o.ClOrdID, clOrdIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutUint32LE(o.Quantity); err != nil {
		return 0, err
	}
	if err := buf.PutInt64LE(o.Price); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func DecodeOrderCancelReplaceRequest(buf *wire.Buffer) (*OrderCancelReplaceRequest, error) {
	if _, err := buf.GetUint16LE(); err != nil {
		return nil, err
	}
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	o := &OrderCancelReplaceRequest{}
	var err error
	if o.SeqNum, err = buf.GetUint64LE(); err != nil {
		return nil, err
	}
	origID, err := buf.GetBytes(clOrdIDLen)
	if err != nil {
		return nil, err
	}
	o.OrigClOrdID = trimRight(origID)
	newID, err := buf.GetBytes(clOrdIDLen)
	if err != nil {
		return nil, err
	}
	o.ClOrdID = trimRight(newID)
	if o.Quantity, err = buf.GetUint32LE(); err != nil {
		return nil, err
	}
	if o.Price, err = buf.GetInt64LE(); err != nil {
		return nil, err
	}
	return o, nil
}
