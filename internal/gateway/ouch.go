package gateway

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/marketsim/exchange-sim/internal/config"
	"github.com/marketsim/exchange-sim/internal/dispatch"
	"github.com/marketsim/exchange-sim/internal/logging"
	"github.com/marketsim/exchange-sim/internal/model"
	"github.com/marketsim/exchange-sim/internal/ouch"
	"github.com/marketsim/exchange-sim/internal/ring"
	"github.com/marketsim/exchange-sim/internal/wire"
)

// ouchRejectDuplicate is this simulator's reason code for "duplicate
// client order id", since NASDAQ's published reason code table isn't
// otherwise exercised by SPEC_FULL.md's scenarios.
const ouchRejectDuplicate = 1

func ouchSide(b byte) model.Side {
	if b == ouch.SideSell {
		return model.SideSell
	}
	return model.SideBuy
}

// frameBuffer accumulates partial socket reads and yields complete
// frames once enough bytes have arrived, per probe. probe returns the
// length of the frame starting at buf[0] once it can tell, or 0 if more
// bytes are needed; it may also signal unrecoverable garbage by
// returning a negative length, in which case the framer drops one byte
// and resyncs.
type frameBuffer struct {
	buf []byte
}

func (f *frameBuffer) feed(b []byte) {
	f.buf = append(f.buf, b...)
}

func (f *frameBuffer) next(probe func(buf []byte) int) ([]byte, bool) {
	if len(f.buf) == 0 {
		return nil, false
	}
	n := probe(f.buf)
	if n < 0 {
		f.buf = f.buf[1:]
		return nil, false
	}
	if n == 0 || len(f.buf) < n {
		return nil, false
	}
	frame := make([]byte, n)
	copy(frame, f.buf[:n])
	f.buf = f.buf[n:]
	return frame, true
}

func probeOUCH42(buf []byte) int {
	switch buf[0] {
	case ouch.MsgEnterOrder:
		return ouch.EnterOrder42Len
	case ouch.MsgCancelOrder:
		return ouch.CancelOrder42Len
	default:
		return -1
	}
}

// handleOUCH42 decodes inbound Enter Order / Cancel Order frames and
// emits Accepted/Executed/Canceled responses; a duplicate order token is
// logged and dropped with no response. OUCH has no
// handshake (§4.4), so the session is live the instant the TCP
// connection is accepted.
func (g *Gateway) handleOUCH42(ctx context.Context, conn net.Conn, lc config.ListenerConfig) {
	remote := conn.RemoteAddr().String()
	log := logging.ForSession(g.log, "OUCH4.2", remote)

	r := ring.New(ring.DefaultConfig())
	drainer := ring.NewDrainer(r, conn, log)
	drainer.Start()
	defer drainer.Shutdown()

	var framer frameBuffer
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := conn.Read(buf)
		if n > 0 {
			framer.feed(buf[:n])
			for {
				frame, ok := framer.next(probeOUCH42)
				if !ok {
					break
				}
				g.handleOUCH42Frame(r, remote, log, frame)
			}
		}
		if err != nil {
			return
		}
	}
}

func (g *Gateway) handleOUCH42Frame(r *ring.Ring, sessionID string, log hclog.Logger, frame []byte) {
	wb := wire.Wrap(frame)
	switch frame[0] {
	case ouch.MsgEnterOrder:
		eo, err := ouch.DecodeEnterOrder42(wb)
		if err != nil {
			log.Warn("ouch42 decode EnterOrder failed", "error", err)
			return
		}
		res := g.dispatcher.NewOrder(dispatch.NewOrderRequest{
			SessionID:     sessionID,
			ClientOrderID: eo.Token,
			Protocol:      model.ProtocolOUCH42,
			Symbol:        strings.TrimSpace(eo.Symbol),
			Side:          ouchSide(eo.Side),
			Type:          model.OrderTypeLimit,
			Quantity:      int64(eo.Shares),
			Price:         int64(eo.Price),
			Timestamp:     time.Now().UnixNano(),
		})
		if !res.Accepted {
			log.Warn("ouch42 duplicate order token, dropping", "token", eo.Token)
			return
		}
		g.sendOUCH42Accepted(r, log, eo, res.Order)
		if res.Decision.ShouldFill {
			g.sendOUCH42Executed(r, log, eo.Token, res.Order, res.Decision)
		}
	case ouch.MsgCancelOrder:
		co, err := ouch.DecodeCancelOrder42(wb)
		if err != nil {
			log.Warn("ouch42 decode CancelOrder failed", "error", err)
			return
		}
		o, ok := g.dispatcher.Cancel(sessionID, co.Token)
		if !ok {
			return
		}
		g.sendOUCH42Canceled(r, log, co.Token, o.Leaves(), 0)
	}
}

func (g *Gateway) sendOUCH42Accepted(r *ring.Ring, log hclog.Logger, eo *ouch.EnterOrder42, o *model.Order) {
	claim, err := r.TryClaim(ouch.AcceptedLen)
	if err != nil {
		log.Error("ouch42 ring claim (accepted) failed", "error", err)
		return
	}
	wb := wire.Wrap(claim.Buf)
	if _, err := ouch.EncodeAccepted42(wb, &ouch.Accepted42{
		TimestampNanos: uint64(time.Now().UnixNano()),
		Token:          eo.Token,
		Side:           eo.Side,
		Shares:         eo.Shares,
		Symbol:         eo.Symbol,
		Price:          eo.Price,
		TIF:            eo.TIF,
		Firm:           eo.Firm,
		Display:        eo.Display,
		OrderRefNum:    o.ID,
		Capacity:       eo.Capacity,
		ISO:            eo.ISO,
		MinQty:         eo.MinQty,
		CrossType:      eo.CrossType,
		OrderState:     'L',
	}); err != nil {
		r.Abort(claim)
		log.Error("ouch42 encode Accepted failed", "error", err)
		return
	}
	r.Commit(claim)
}

func (g *Gateway) sendOUCH42Executed(r *ring.Ring, log hclog.Logger, token string, o *model.Order, d model.FillDecision) {
	claim, err := r.TryClaim(ouch.ExecutedLen)
	if err != nil {
		log.Error("ouch42 ring claim (executed) failed", "error", err)
		return
	}
	wb := wire.Wrap(claim.Buf)
	if _, err := ouch.EncodeExecuted42(wb, &ouch.Executed42{
		TimestampNanos: uint64(time.Now().UnixNano()),
		Token:          token,
		Shares:         uint32(d.Quantity),
		Price:          uint32(d.Price),
		MatchNumber:    o.ID,
		LiquidityFlag:  'A',
	}); err != nil {
		r.Abort(claim)
		log.Error("ouch42 encode Executed failed", "error", err)
		return
	}
	r.Commit(claim)
}

func (g *Gateway) sendOUCH42Canceled(r *ring.Ring, log hclog.Logger, token string, decrement int64, reason byte) {
	claim, err := r.TryClaim(ouch.CanceledLen)
	if err != nil {
		log.Error("ouch42 ring claim (canceled) failed", "error", err)
		return
	}
	wb := wire.Wrap(claim.Buf)
	if _, err := ouch.EncodeCanceled42(wb, &ouch.Canceled42{
		TimestampNanos:  uint64(time.Now().UnixNano()),
		Token:           token,
		DecrementShares: uint32(decrement),
		Reason:          reason,
	}); err != nil {
		r.Abort(claim)
		log.Error("ouch42 encode Canceled failed", "error", err)
		return
	}
	r.Commit(claim)
}

func (g *Gateway) sendOUCH42Rejected(r *ring.Ring, log hclog.Logger, token string, reason byte) {
	claim, err := r.TryClaim(ouch.RejectedLen)
	if err != nil {
		log.Error("ouch42 ring claim (rejected) failed", "error", err)
		return
	}
	wb := wire.Wrap(claim.Buf)
	if _, err := ouch.EncodeRejected42(wb, &ouch.Rejected42{
		TimestampNanos: uint64(time.Now().UnixNano()),
		Token:          token,
		ReasonCode:     reason,
	}); err != nil {
		r.Abort(claim)
		log.Error("ouch42 encode Rejected failed", "error", err)
		return
	}
	r.Commit(claim)
}

// probeOUCH50 determines the length of a 5.0 frame, which unlike 4.2
// varies with its appendage count.
func probeOUCH50(buf []byte) int {
	switch buf[0] {
	case ouch.MsgEnterOrder:
		const fixedThroughCount = 39 // 38-byte fixed block + 1-byte appendage count
		if len(buf) < fixedThroughCount {
			return 0
		}
		count := int(buf[38])
		pos := fixedThroughCount
		for i := 0; i < count; i++ {
			if len(buf) < pos+3 {
				return 0
			}
			appLen := int(buf[pos+1])<<8 | int(buf[pos+2])
			pos += 3 + appLen
		}
		if len(buf) < pos {
			return 0
		}
		return pos
	case ouch.MsgCancelOrder:
		return 9 // type(1) + UserRefNum(4) + Quantity(4)
	default:
		return -1
	}
}

// handleOUCH50 mirrors handleOUCH42 over the variable-length, UserRefNum-
// keyed 5.0 wire format.
func (g *Gateway) handleOUCH50(ctx context.Context, conn net.Conn, lc config.ListenerConfig) {
	remote := conn.RemoteAddr().String()
	log := logging.ForSession(g.log, "OUCH5.0", remote)

	r := ring.New(ring.DefaultConfig())
	drainer := ring.NewDrainer(r, conn, log)
	drainer.Start()
	defer drainer.Shutdown()

	var framer frameBuffer
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := conn.Read(buf)
		if n > 0 {
			framer.feed(buf[:n])
			for {
				frame, ok := framer.next(probeOUCH50)
				if !ok {
					break
				}
				g.handleOUCH50Frame(r, remote, log, frame)
			}
		}
		if err != nil {
			return
		}
	}
}

func (g *Gateway) handleOUCH50Frame(r *ring.Ring, sessionID string, log hclog.Logger, frame []byte) {
	switch frame[0] {
	case ouch.MsgEnterOrder:
		eo, err := ouch.DecodeEnterOrder50(frame)
		if err != nil {
			log.Warn("ouch50 decode EnterOrder failed", "error", err)
			return
		}
		clOrdID := strconv.FormatUint(uint64(eo.UserRefNum), 10)
		res := g.dispatcher.NewOrder(dispatch.NewOrderRequest{
			SessionID:     sessionID,
			ClientOrderID: clOrdID,
			Protocol:      model.ProtocolOUCH50,
			Symbol:        strings.TrimSpace(eo.Symbol),
			Side:          ouchSide(eo.Side),
			Type:          model.OrderTypeLimit,
			Quantity:      int64(eo.Shares),
			Price:         int64(eo.Price),
			Timestamp:     time.Now().UnixNano(),
		})
		if !res.Accepted {
			log.Warn("ouch50 duplicate UserRefNum, dropping", "user_ref_num", eo.UserRefNum)
			return
		}
		g.sendOUCH50Accepted(r, log, eo, res.Order)
		if res.Decision.ShouldFill {
			g.sendOUCH50Executed(r, log, eo.UserRefNum, res.Decision)
		}
	case ouch.MsgCancelOrder:
		co, err := ouch.DecodeCancelOrder50(frame)
		if err != nil {
			log.Warn("ouch50 decode CancelOrder failed", "error", err)
			return
		}
		clOrdID := strconv.FormatUint(uint64(co.UserRefNum), 10)
		o, ok := g.dispatcher.Cancel(sessionID, clOrdID)
		if !ok {
			return
		}
		g.sendOUCH50Canceled(r, log, co.UserRefNum, o.Leaves(), 0)
	}
}

func (g *Gateway) sendOUCH50Accepted(r *ring.Ring, log hclog.Logger, eo *ouch.EnterOrder50, o *model.Order) {
	blockLen := 1 + 8 + 4 + 1 + 4 + ouchSymbolLen50 + 4 + ouchTIFLen50 + ouchFirmLen50 + 1 + 1
	claim, err := r.TryClaim(blockLen)
	if err != nil {
		log.Error("ouch50 ring claim (accepted) failed", "error", err)
		return
	}
	wb := wire.Wrap(claim.Buf)
	n, err := ouch.EncodeAccepted50(wb, &ouch.Accepted50{
		TimestampNanos: uint64(time.Now().UnixNano()),
		UserRefNum:     eo.UserRefNum,
		Side:           eo.Side,
		Shares:         eo.Shares,
		Symbol:         eo.Symbol,
		Price:          eo.Price,
		TIF:            eo.TIF,
		Firm:           eo.Firm,
		Display:        eo.Display,
		OrderState:     'L',
	})
	if err != nil {
		r.Abort(claim)
		log.Error("ouch50 encode Accepted failed", "error", err)
		return
	}
	r.Trim(&claim, n)
	r.Commit(claim)
}

func (g *Gateway) sendOUCH50Executed(r *ring.Ring, log hclog.Logger, userRefNum uint32, d model.FillDecision) {
	claim, err := r.TryClaim(ouch.ExecutedLen)
	if err != nil {
		log.Error("ouch50 ring claim (executed) failed", "error", err)
		return
	}
	wb := wire.Wrap(claim.Buf)
	if _, err := ouch.EncodeExecuted42(wb, &ouch.Executed42{
		TimestampNanos: uint64(time.Now().UnixNano()),
		Token:          fmt.Sprintf("%d", userRefNum),
		Shares:         uint32(d.Quantity),
		Price:          uint32(d.Price),
		MatchNumber:    uint64(userRefNum),
		LiquidityFlag:  'A',
	}); err != nil {
		r.Abort(claim)
		log.Error("ouch50 encode Executed failed", "error", err)
		return
	}
	r.Commit(claim)
}

func (g *Gateway) sendOUCH50Canceled(r *ring.Ring, log hclog.Logger, userRefNum uint32, decrement int64, reason byte) {
	claim, err := r.TryClaim(17)
	if err != nil {
		log.Error("ouch50 ring claim (canceled) failed", "error", err)
		return
	}
	wb := wire.Wrap(claim.Buf)
	if _, err := ouch.EncodeCanceled50(wb, &ouch.Canceled50{
		TimestampNanos:  uint64(time.Now().UnixNano()),
		UserRefNum:      userRefNum,
		DecrementShares: uint32(decrement),
		Reason:          reason,
	}); err != nil {
		r.Abort(claim)
		log.Error("ouch50 encode Canceled failed", "error", err)
		return
	}
	r.Commit(claim)
}

const (
	ouchSymbolLen50 = 8
	ouchTIFLen50    = 4
	ouchFirmLen50   = 4
)
