package gateway

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/marketsim/exchange-sim/internal/config"
	"github.com/marketsim/exchange-sim/internal/dispatch"
	"github.com/marketsim/exchange-sim/internal/ilink3"
	"github.com/marketsim/exchange-sim/internal/logging"
	"github.com/marketsim/exchange-sim/internal/model"
	"github.com/marketsim/exchange-sim/internal/ring"
	"github.com/marketsim/exchange-sim/internal/wire"
)

const ilink3ClaimSize = 512

// ilink3Conn tracks the small amount of per-connection state the
// handshake and order-entry loop both need: the negotiated UUID and a
// monotonic outbound sequence counter, mirroring FIXSession's outSeq in
// spirit but without resend/gap-fill (§4.4: "iLink3's Negotiate/
// Establish exchange is already fully codec-complete... a thin session
// wrapper only needs to track the resulting state transitions").
type ilink3Conn struct {
	id     uuid.UUID
	outSeq uint64
}

// probeILink3 reads the 2-byte little-endian length prefix every iLink3
// message carries and reports the total frame length once enough bytes
// have arrived.
func probeILink3(buf []byte) int {
	if len(buf) < 2 {
		return 0
	}
	total := int(buf[0]) | int(buf[1])<<8
	if total <= 0 {
		return -1
	}
	if len(buf) < total {
		return 0
	}
	return total
}

// peekILink3Template reads the templateId field of the SBE header that
// follows the 2-byte length prefix, without consuming the frame.
func peekILink3Template(frame []byte) (uint16, error) {
	wb := wire.Wrap(frame)
	return wb.GetUint16LEAt(2 + 2) // skip length prefix(2) + header.blockLength(2)
}

// handleILink3 drives the Negotiate -> NegotiationResponse -> Establish
// -> EstablishmentAck handshake described in SPEC_FULL.md §4.4, then
// switches to order-entry framing for the rest of the connection's
// life, per §8's handshake scenario.
func (g *Gateway) handleILink3(ctx context.Context, conn net.Conn, lc config.ListenerConfig) {
	remote := conn.RemoteAddr().String()
	log := logging.ForSession(g.log, "ILINK3", remote)

	r := ring.New(ring.DefaultConfig())
	drainer := ring.NewDrainer(r, conn, log)
	drainer.Start()
	defer drainer.Shutdown()

	var framer frameBuffer
	buf := make([]byte, 4096)
	readFrame := func() ([]byte, bool) {
		for {
			if frame, ok := framer.next(probeILink3); ok {
				return frame, true
			}
			n, err := conn.Read(buf)
			if n > 0 {
				framer.feed(buf[:n])
				continue
			}
			if err != nil {
				return nil, false
			}
		}
	}

	sess, ok := g.ilink3Handshake(r, log, readFrame)
	if !ok {
		return
	}
	log.Info("ilink3 session established", "uuid", sess.id)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		frame, ok := readFrame()
		if !ok {
			return
		}
		g.handleILink3OrderFrame(r, sess, remote, log, frame)
	}
}

// ilink3Handshake services one Negotiate and one Establish in sequence;
// any other message, or a read failure, aborts the connection.
func (g *Gateway) ilink3Handshake(r *ring.Ring, log hclog.Logger, readFrame func() ([]byte, bool)) (*ilink3Conn, bool) {
	negFrame, ok := readFrame()
	if !ok {
		return nil, false
	}
	tmpl, err := peekILink3Template(negFrame)
	if err != nil || tmpl != ilink3.TemplateNegotiate {
		log.Warn("ilink3 expected Negotiate first", "template", tmpl, "error", err)
		return nil, false
	}
	neg, err := ilink3.DecodeNegotiate(wire.Wrap(negFrame))
	if err != nil {
		log.Warn("ilink3 decode Negotiate failed", "error", err)
		return nil, false
	}

	claim, err := r.TryClaim(ilink3ClaimSize)
	if err != nil {
		log.Error("ilink3 ring claim (negotiation response) failed", "error", err)
		return nil, false
	}
	wb := wire.Wrap(claim.Buf)
	n, err := ilink3.EncodeNegotiationResponse(wb, &ilink3.NegotiationResponse{UUID: neg.UUID})
	if err != nil {
		r.Abort(claim)
		log.Error("ilink3 encode NegotiationResponse failed", "error", err)
		return nil, false
	}
	r.Trim(&claim, n)
	r.Commit(claim)

	estFrame, ok := readFrame()
	if !ok {
		return nil, false
	}
	tmpl, err = peekILink3Template(estFrame)
	if err != nil || tmpl != ilink3.TemplateEstablish {
		log.Warn("ilink3 expected Establish second", "template", tmpl, "error", err)
		return nil, false
	}
	est, err := ilink3.DecodeEstablish(wire.Wrap(estFrame))
	if err != nil {
		log.Warn("ilink3 decode Establish failed", "error", err)
		return nil, false
	}

	claim, err = r.TryClaim(ilink3ClaimSize)
	if err != nil {
		log.Error("ilink3 ring claim (establishment ack) failed", "error", err)
		return nil, false
	}
	wb = wire.Wrap(claim.Buf)
	n, err = ilink3.EncodeEstablishmentAck(wb, &ilink3.EstablishmentAck{
		UUID:              est.UUID,
		LastIncomingSeqNo: est.NextSeqNo - 1,
		LastOutgoingSeqNo: 0,
	})
	if err != nil {
		r.Abort(claim)
		log.Error("ilink3 encode EstablishmentAck failed", "error", err)
		return nil, false
	}
	r.Trim(&claim, n)
	r.Commit(claim)

	return &ilink3Conn{id: est.UUID}, true
}

func (g *Gateway) handleILink3OrderFrame(r *ring.Ring, sess *ilink3Conn, sessionID string, log hclog.Logger, frame []byte) {
	tmpl, err := peekILink3Template(frame)
	if err != nil {
		log.Warn("ilink3 unreadable frame header", "error", err)
		return
	}
	switch tmpl {
	case ilink3.TemplateNewOrderSingle:
		o, err := ilink3.DecodeNewOrderSingle(wire.Wrap(frame))
		if err != nil {
			log.Warn("ilink3 decode NewOrderSingle failed", "error", err)
			return
		}
		res := g.dispatcher.NewOrder(dispatch.NewOrderRequest{
			SessionID:     sessionID,
			ClientOrderID: o.ClOrdID,
			Protocol:      model.ProtocolILink3,
			Symbol:        o.Symbol,
			Side:          ilink3Side(o.Side),
			Type:          ilink3OrdType(o.OrdType),
			Quantity:      int64(o.Quantity),
			Price:         o.Price,
			Timestamp:     time.Now().UnixNano(),
		})
		if !res.Accepted {
			return
		}
		g.sendILink3ExecReport(r, sess, log, res.Order, fixExecTypeNew, fixOrdStatusNew, 0, 0)
		if res.Decision.ShouldFill {
			execType, ordStatus := fixExecTypePartialFill, fixOrdStatusPartiallyFilled
			if res.Decision.FullFill {
				execType, ordStatus = fixExecTypeFill, fixOrdStatusFilled
			}
			g.sendILink3ExecReport(r, sess, log, res.Order, execType, ordStatus, res.Decision.Quantity, res.Decision.Price)
		}
	case ilink3.TemplateOrderCancelReplaceReq:
		req, err := ilink3.DecodeOrderCancelReplaceRequest(wire.Wrap(frame))
		if err != nil {
			log.Warn("ilink3 decode OrderCancelReplaceRequest failed", "error", err)
			return
		}
		res := g.dispatcher.Replace(dispatch.ReplaceRequest{
			SessionID:         sessionID,
			OrigClientOrderID: req.OrigClOrdID,
			NewClientOrderID:  req.ClOrdID,
			Quantity:          int64(req.Quantity),
			Price:             req.Price,
		})
		if !res.Accepted {
			return
		}
		g.sendILink3ExecReport(r, sess, log, res.Replacement, fixExecTypeReplace, fixOrdStatusNew, 0, 0)
		if res.Decision.ShouldFill {
			execType, ordStatus := fixExecTypePartialFill, fixOrdStatusPartiallyFilled
			if res.Decision.FullFill {
				execType, ordStatus = fixExecTypeFill, fixOrdStatusFilled
			}
			g.sendILink3ExecReport(r, sess, log, res.Replacement, execType, ordStatus, res.Decision.Quantity, res.Decision.Price)
		}
	default:
		log.Warn("ilink3 unexpected template after establishment", "template", tmpl)
	}
}

func (g *Gateway) sendILink3ExecReport(r *ring.Ring, sess *ilink3Conn, log hclog.Logger, o *model.Order, execType, ordStatus byte, lastQty, lastPx int64) {
	sess.outSeq++
	claim, err := r.TryClaim(ilink3ClaimSize)
	if err != nil {
		log.Error("ilink3 ring claim (exec report) failed", "error", err)
		return
	}
	wb := wire.Wrap(claim.Buf)
	n, err := ilink3.EncodeExecutionReportNew(wb, &ilink3.ExecutionReportNew{
		SeqNum:    sess.outSeq,
		ClOrdID:   o.ClientOrderID,
		ExecType:  execType,
		OrdStatus: ordStatus,
		LeavesQty: uint32(o.Leaves()),
		CumQty:    uint32(o.Filled),
		AvgPrice:  o.AvgPrice,
		LastQty:   uint32(lastQty),
		LastPrice: lastPx,
	})
	if err != nil {
		r.Abort(claim)
		log.Error("ilink3 encode ExecutionReportNew failed", "error", err)
		return
	}
	r.Trim(&claim, n)
	r.Commit(claim)
}

func ilink3Side(b byte) model.Side {
	if b == 2 {
		return model.SideSell
	}
	return model.SideBuy
}

func ilink3OrdType(b byte) model.OrderType {
	if b == 1 {
		return model.OrderTypeMarket
	}
	return model.OrderTypeLimit
}

// fixExecType*/fixOrdStatus* byte values mirror internal/fix's tag
// values exactly (ilink3.ExecutionReportNew's doc comment: "mirrors FIX
// ExecType values for a consistent dispatcher contract"), expressed
// here as bytes since iLink3's wire has no ASCII tag=value encoding.
const (
	fixExecTypeNew         = '0'
	fixExecTypeFill        = '2'
	fixExecTypePartialFill = '1'
	fixExecTypeReplace     = '5'

	fixOrdStatusNew             = '0'
	fixOrdStatusPartiallyFilled = '1'
	fixOrdStatusFilled          = '2'
)
