package gateway

import (
	"context"
	"net"

	"github.com/marketsim/exchange-sim/internal/config"
	"github.com/marketsim/exchange-sim/internal/fix"
	"github.com/marketsim/exchange-sim/internal/journal"
	"github.com/marketsim/exchange-sim/internal/logging"
	"github.com/marketsim/exchange-sim/internal/model"
	"github.com/marketsim/exchange-sim/internal/ring"
	"github.com/marketsim/exchange-sim/internal/session"
)

// handleFIX drives one FIX acceptor session end to end: journal open,
// ring + drainer for outbound frames, a session.FIXSession for sequence
// tracking and admin handling, and a read loop that feeds the socket's
// bytes through a fix.Reader and hands fully reassembled messages to
// the session.
func (g *Gateway) handleFIX(ctx context.Context, conn net.Conn, lc config.ListenerConfig) {
	remote := conn.RemoteAddr().String()
	log := logging.ForSession(g.log, "FIX", remote)

	journalPath := g.sessionJournalPath("fix", remote)
	jrnl, err := journal.Open(journal.Config{Path: journalPath, SyncMode: g.cfg.JournalSyncMode})
	if err != nil {
		log.Error("opening session journal failed", "error", err)
		return
	}
	defer jrnl.Close()

	r := ring.New(ring.DefaultConfig())
	drainer := ring.NewDrainer(r, conn, log)
	drainer.Start()
	defer drainer.Shutdown()

	sess := session.NewFIXSession(session.FIXConfig{
		ID:                remote,
		BeginString:       fix.BeginStringFIX42,
		SenderCompID:      lc.SenderCompID,
		TargetCompID:      lc.TargetCompID,
		HeartbeatInterval: g.cfg.HeartbeatInterval,
		Role:              model.RoleAcceptor,
		Ring:              r,
		Journal:           jrnl,
		JournalPathHint:   journalPath,
		Dispatcher:        g.dispatcher,
		Log:               log,
	})

	reader := fix.NewReader()
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			sess.Disconnect(ctx.Err())
			return
		default:
		}

		n, err := conn.Read(buf)
		if n > 0 {
			reader.AddData(buf[:n])
			for {
				msg, decErr := reader.ReadIncomingMessage()
				if decErr != nil {
					log.Warn("dropping unreadable FIX message", "error", decErr)
					break
				}
				if msg == nil {
					break
				}
				if hErr := sess.HandleInbound(msg); hErr != nil {
					log.Warn("session rejected inbound message", "error", hErr)
				}
				if sess.Info().State == model.SessionDisconnected {
					return
				}
			}
		}
		if err != nil {
			sess.Disconnect(err)
			return
		}
	}
}
