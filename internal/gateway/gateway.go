// Package gateway wires every protocol engine described in
// SPEC_FULL.md §4 behind one process: it owns the shared
// internal/registry and internal/fillengine, builds one
// internal/dispatch.Dispatcher over them, and runs one TCP accept loop
// per enabled internal/config.ListenerConfig. Per connection it builds
// the protocol-specific session/handler, an internal/ring.Ring plus
// internal/ring.Drainer for that connection's outbound frames, and (for
// FIX) an internal/journal.Journal.
//
// Grounded on cmd_teacher_ref/server/main.go's Server struct: one
// process composing a shared orderbook/risk/matching stack, started by
// a single Run method and torn down on a context cancellation signal.
// That file ran a single HTTP mux; this Gateway runs six independent
// protocol listeners sharing the same dispatcher underneath.
package gateway

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/marketsim/exchange-sim/internal/config"
	"github.com/marketsim/exchange-sim/internal/dispatch"
	"github.com/marketsim/exchange-sim/internal/fillengine"
	"github.com/marketsim/exchange-sim/internal/model"
	"github.com/marketsim/exchange-sim/internal/registry"
)

// Gateway owns the process-wide order state and every protocol
// listener built on top of it.
type Gateway struct {
	cfg        config.Config
	log        hclog.Logger
	registry   *registry.Registry
	fills      *fillengine.Engine
	dispatcher *dispatch.Dispatcher

	mu        sync.Mutex
	listeners []net.Listener
	wg        sync.WaitGroup
}

// New constructs a Gateway from cfg, configuring the fill engine from
// cfg.FillRules.
func New(cfg config.Config, log hclog.Logger) *Gateway {
	reg := registry.New()
	fills := fillengine.New(cfg.FillSeed)
	fills.Configure(toModelFillRules(cfg.FillRules))
	return &Gateway{
		cfg:        cfg,
		log:        log,
		registry:   reg,
		fills:      fills,
		dispatcher: dispatch.New(reg, fills),
	}
}

func toModelFillRules(rules []config.FillRuleConfig) []model.FillRule {
	out := make([]model.FillRule, len(rules))
	for i, r := range rules {
		out[i] = model.FillRule{
			Priority:        r.Priority,
			SymbolPattern:   r.SymbolPattern,
			FillProbability: r.FillProbability,
			PartialProb:     r.PartialProb,
		}
	}
	return out
}

// protocolHandler is implemented once per wire protocol; handleConn
// blocks until the connection closes or the context is canceled.
type protocolHandler func(ctx context.Context, conn net.Conn, lc config.ListenerConfig)

func (g *Gateway) handlers() map[string]protocolHandler {
	return map[string]protocolHandler{
		"fix":    g.handleFIX,
		"ouch42": g.handleOUCH42,
		"ouch50": g.handleOUCH50,
		"ilink3": g.handleILink3,
		"optiq":  g.handleOptiq,
		"pillar": g.handlePillar,
	}
}

// Run starts every enabled listener and blocks until ctx is canceled,
// at which point every listener is closed and every in-flight
// connection handler has returned.
func (g *Gateway) Run(ctx context.Context) error {
	if err := os.MkdirAll(g.cfg.JournalDir, 0o755); err != nil {
		return fmt.Errorf("gateway: creating journal dir: %w", err)
	}

	handlers := g.handlers()
	started := 0
	for name, lc := range g.cfg.Listeners {
		if !lc.Enabled {
			continue
		}
		handler, ok := handlers[name]
		if !ok {
			g.log.Warn("no handler for configured listener, skipping", "listener", name)
			continue
		}
		ln, err := net.Listen("tcp", lc.Addr)
		if err != nil {
			g.stopAll()
			return fmt.Errorf("gateway: listening on %s (%s): %w", lc.Addr, name, err)
		}
		g.log.Info("listener started", "protocol", name, "addr", lc.Addr)

		g.mu.Lock()
		g.listeners = append(g.listeners, ln)
		g.mu.Unlock()

		started++
		g.wg.Add(1)
		go g.acceptLoop(ctx, name, lc, ln, handler)
	}
	if started == 0 {
		g.log.Warn("no listeners enabled")
	}

	<-ctx.Done()
	g.stopAll()
	g.wg.Wait()
	return nil
}

func (g *Gateway) stopAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ln := range g.listeners {
		_ = ln.Close()
	}
}

func (g *Gateway) acceptLoop(ctx context.Context, name string, lc config.ListenerConfig, ln net.Listener, handler protocolHandler) {
	defer g.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				g.log.Error("accept failed", "protocol", name, "error", err)
				return
			}
		}
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			defer conn.Close()
			g.log.Info("connection accepted", "protocol", name, "remote", conn.RemoteAddr())
			handler(ctx, conn, lc)
			g.log.Info("connection closed", "protocol", name, "remote", conn.RemoteAddr())
		}()
	}
}

// sessionJournalPath derives a per-connection journal file path, safe
// for use as a filename regardless of what the remote address contains.
func (g *Gateway) sessionJournalPath(protocol, remote string) string {
	safe := strings.NewReplacer(":", "_", "/", "_", "[", "", "]", "").Replace(remote)
	return filepath.Join(g.cfg.JournalDir, fmt.Sprintf("%s-%s.journal", protocol, safe))
}
