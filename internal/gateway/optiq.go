package gateway

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/marketsim/exchange-sim/internal/config"
	"github.com/marketsim/exchange-sim/internal/dispatch"
	"github.com/marketsim/exchange-sim/internal/logging"
	"github.com/marketsim/exchange-sim/internal/model"
	"github.com/marketsim/exchange-sim/internal/optiq"
	"github.com/marketsim/exchange-sim/internal/ring"
	"github.com/marketsim/exchange-sim/internal/sbe"
	"github.com/marketsim/exchange-sim/internal/wire"
)

// probeSBE determines a frame's total length from the embedded
// blockLength header field shared by every message class in the
// Optiq/Pillar SBE-style codecs (internal/sbe.Header.BlockLength),
// since unlike iLink3 these wires carry no separate 2-byte length
// prefix.
func probeSBE(buf []byte) int {
	if len(buf) < 4 {
		return 0
	}
	blockLen := int(buf[0]) | int(buf[1])<<8
	total := sbe.HeaderLen + blockLen
	if len(buf) < total {
		return 0
	}
	return total
}

func optiqSide(b byte) model.Side {
	if b == optiq.SideSell {
		return model.SideSell
	}
	return model.SideBuy
}

// handleOptiq decodes Euronext Optiq order-entry frames. Optiq has no
// handshake (§4.4), so order entry starts immediately.
func (g *Gateway) handleOptiq(ctx context.Context, conn net.Conn, lc config.ListenerConfig) {
	remote := conn.RemoteAddr().String()
	log := logging.ForSession(g.log, "OPTIQ", remote)

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
				frame, ok := framer.next(probeSBE)
				if !ok {
					break
				}
				g.handleOptiqFrame(r, remote, log, frame)
			}
		}
		if err != nil {
			return
		}
	}
}

func (g *Gateway) handleOptiqFrame(r *ring.Ring, sessionID string, log hclog.Logger, frame []byte) {
	class, err := sbe.PeekTemplateID(wire.Wrap(frame))
	if err != nil {
		log.Warn("optiq unreadable frame header", "error", err)
		return
	}
	switch class {
	case optiq.ClassNewOrder:
		o, err := optiq.DecodeNewOrder(wire.Wrap(frame))
		if err != nil {
			log.Warn("optiq decode NewOrder failed", "error", err)
			return
		}
		res := g.dispatcher.NewOrder(dispatch.NewOrderRequest{
			SessionID:     sessionID,
			ClientOrderID: o.ClOrdID,
			Protocol:      model.ProtocolOptiq,
			Symbol:        strings.TrimSpace(o.Symbol),
			Side:          optiqSide(o.Side),
			Type:          ilink3OrdType(o.OrdType),
			Quantity:      int64(o.Quantity),
			Price:         o.Price,
			Timestamp:     time.Now().UnixNano(),
		})
		if !res.Accepted {
			return
		}
		g.sendOptiqExecReport(r, log, res.Order, optiq.StatusNew, 0, 0)
		if res.Decision.ShouldFill {
			status := optiq.StatusPartialFill
			if res.Decision.FullFill {
				status = optiq.StatusFilled
			}
			g.sendOptiqExecReport(r, log, res.Order, status, res.Decision.Quantity, res.Decision.Price)
		}
	case optiq.ClassCancelOrder:
		c, err := optiq.DecodeCancelOrder(wire.Wrap(frame))
		if err != nil {
			log.Warn("optiq decode CancelOrder failed", "error", err)
			return
		}
		o, ok := g.dispatcher.Cancel(sessionID, c.ClOrdID)
		if !ok {
			return
		}
		g.sendOptiqExecReport(r, log, o, optiq.StatusCanceled, 0, 0)
	case optiq.ClassReplaceOrder:
		req, err := optiq.DecodeReplaceOrder(wire.Wrap(frame))
		if err != nil {
			log.Warn("optiq decode ReplaceOrder failed", "error", err)
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
		g.sendOptiqExecReport(r, log, res.Replacement, optiq.StatusNew, 0, 0)
		if res.Decision.ShouldFill {
			status := optiq.StatusPartialFill
			if res.Decision.FullFill {
				status = optiq.StatusFilled
			}
			g.sendOptiqExecReport(r, log, res.Replacement, status, res.Decision.Quantity, res.Decision.Price)
		}
	default:
		log.Warn("optiq unexpected message class", "class", class)
	}
}

func (g *Gateway) sendOptiqExecReport(r *ring.Ring, log hclog.Logger, o *model.Order, status byte, lastQty, lastPx int64) {
	claim, err := r.TryClaim(128)
	if err != nil {
		log.Error("optiq ring claim (exec report) failed", "error", err)
		return
	}
	wb := wire.Wrap(claim.Buf)
	n, err := optiq.EncodeExecutionReport(wb, &optiq.ExecutionReport{
		ClOrdID:   o.ClientOrderID,
		Status:    status,
		LeavesQty: uint32(o.Leaves()),
		CumQty:    uint32(o.Filled),
		LastQty:   uint32(lastQty),
		LastPrice: lastPx,
		Timestamp: uint64(time.Now().UnixNano()),
	})
	if err != nil {
		r.Abort(claim)
		log.Error("optiq encode ExecutionReport failed", "error", err)
		return
	}
	r.Trim(&claim, n)
	r.Commit(claim)
}
