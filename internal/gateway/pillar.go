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
	"github.com/marketsim/exchange-sim/internal/pillar"
	"github.com/marketsim/exchange-sim/internal/ring"
	"github.com/marketsim/exchange-sim/internal/sbe"
	"github.com/marketsim/exchange-sim/internal/wire"
)

func pillarSide(b byte) model.Side {
	if b == pillar.SideSell {
		return model.SideSell
	}
	return model.SideBuy
}

// handlePillar decodes NYSE Pillar order-entry frames. Pillar has no
// handshake (§4.4), so order entry starts immediately, identical in
// shape to handleOptiq but over pillar's distinct field widths and
// OrderID-keyed (rather than ClOrdID-keyed) messages.
func (g *Gateway) handlePillar(ctx context.Context, conn net.Conn, lc config.ListenerConfig) {
	remote := conn.RemoteAddr().String()
	log := logging.ForSession(g.log, "PILLAR", remote)

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
				g.handlePillarFrame(r, remote, log, frame)
			}
		}
		if err != nil {
			return
		}
	}
}

func (g *Gateway) handlePillarFrame(r *ring.Ring, sessionID string, log hclog.Logger, frame []byte) {
	class, err := sbe.PeekTemplateID(wire.Wrap(frame))
	if err != nil {
		log.Warn("pillar unreadable frame header", "error", err)
		return
	}
	switch class {
	case pillar.ClassOrderEntry:
		o, err := pillar.DecodeOrderEntry(wire.Wrap(frame))
		if err != nil {
			log.Warn("pillar decode OrderEntry failed", "error", err)
			return
		}
		res := g.dispatcher.NewOrder(dispatch.NewOrderRequest{
			SessionID:     sessionID,
			ClientOrderID: o.OrderID,
			Protocol:      model.ProtocolPillar,
			Symbol:        strings.TrimSpace(o.Symbol),
			Side:          pillarSide(o.Side),
			Type:          ilink3OrdType(o.OrdType),
			Quantity:      int64(o.Quantity),
			Price:         o.Price,
			Timestamp:     time.Now().UnixNano(),
		})
		if !res.Accepted {
			return
		}
		g.sendPillarAck(r, log, res.Order, pillar.StatusNew, 0, 0)
		if res.Decision.ShouldFill {
			status := pillar.StatusPartialFill
			if res.Decision.FullFill {
				status = pillar.StatusFilled
			}
			g.sendPillarAck(r, log, res.Order, status, res.Decision.Quantity, res.Decision.Price)
		}
	case pillar.ClassOrderCancel:
		c, err := pillar.DecodeOrderCancel(wire.Wrap(frame))
		if err != nil {
			log.Warn("pillar decode OrderCancel failed", "error", err)
			return
		}
		o, ok := g.dispatcher.Cancel(sessionID, c.OrderID)
		if !ok {
			return
		}
		g.sendPillarAck(r, log, o, pillar.StatusCanceled, 0, 0)
	case pillar.ClassOrderReplace:
		req, err := pillar.DecodeOrderReplace(wire.Wrap(frame))
		if err != nil {
			log.Warn("pillar decode OrderReplace failed", "error", err)
			return
		}
		res := g.dispatcher.Replace(dispatch.ReplaceRequest{
			SessionID:         sessionID,
			OrigClientOrderID: req.OrigOrderID,
			NewClientOrderID:  req.OrderID,
			Quantity:          int64(req.Quantity),
			Price:             req.Price,
		})
		if !res.Accepted {
			return
		}
		g.sendPillarAck(r, log, res.Replacement, pillar.StatusNew, 0, 0)
		if res.Decision.ShouldFill {
			status := pillar.StatusPartialFill
			if res.Decision.FullFill {
				status = pillar.StatusFilled
			}
			g.sendPillarAck(r, log, res.Replacement, status, res.Decision.Quantity, res.Decision.Price)
		}
	default:
		log.Warn("pillar unexpected message class", "class", class)
	}
}

func (g *Gateway) sendPillarAck(r *ring.Ring, log hclog.Logger, o *model.Order, status byte, lastQty, lastPx int64) {
	claim, err := r.TryClaim(128)
	if err != nil {
		log.Error("pillar ring claim (order ack) failed", "error", err)
		return
	}
	wb := wire.Wrap(claim.Buf)
	n, err := pillar.EncodeOrderAck(wb, &pillar.OrderAck{
		OrderID:   o.ClientOrderID,
		Status:    status,
		LeavesQty: uint32(o.Leaves()),
		CumQty:    uint32(o.Filled),
		LastQty:   uint32(lastQty),
		LastPrice: lastPx,
		Timestamp: uint64(time.Now().UnixNano()),
	})
	if err != nil {
		r.Abort(claim)
		log.Error("pillar encode OrderAck failed", "error", err)
		return
	}
	r.Trim(&claim, n)
	r.Commit(claim)
}
