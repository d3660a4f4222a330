// Package session implements the per-connection protocol state machines
// described in SPEC_FULL.md §4.4: connection/handshake lifecycle, and —
// for FIX, "the hardest case" — sequence number tracking, gap detection,
// resend handling and heartbeats. OUCH has no handshake at all; iLink3's
// Negotiate/Establish exchange is already fully codec-complete in
// internal/ilink3, so its session wrapper only tracks the resulting
// state transitions.
//
// Grounded on the teacher's internal/disruptor/processor.go for the
// single-goroutine-per-session lifecycle discipline (atomic running
// flag, shutdownCh/shutdownDone pair) and internal/events/log.go for the
// mutex-guarded, append-then-flush pattern, now applied to a FIX session
// instead of the teacher's single process-wide event log.
package session

import "github.com/marketsim/exchange-sim/internal/model"

// Listener is the capability interface SPEC_FULL.md §7 calls "the
// session state listener interface": user-visible session lifecycle
// events are surfaced through it rather than forcing every caller to
// poll SessionInfo.State. A nil Listener is valid; callbacks are then
// simply not invoked.
type Listener interface {
	// OnConnect fires once the transport is up, before any handshake.
	OnConnect(info model.SessionInfo)

	// OnEstablished fires once the session reaches model.SessionEstablished
	// (FIX: Logon accepted; iLink3: EstablishmentAck received; OUCH/Optiq/
	// Pillar: immediately, since those protocols have no handshake).
	OnEstablished(info model.SessionInfo)

	// OnDisconnect fires when the session is torn down, with the
	// triggering cause (nil for a clean, requested logout).
	OnDisconnect(info model.SessionInfo, cause error)

	// OnError fires for protocol violations that do not by themselves
	// end the session (e.g. a single rejected message).
	OnError(info model.SessionInfo, err error)
}

// NoopListener implements Listener with no-op methods, for callers that
// don't need lifecycle notifications.
type NoopListener struct{}

func (NoopListener) OnConnect(model.SessionInfo)               {}
func (NoopListener) OnEstablished(model.SessionInfo)           {}
func (NoopListener) OnDisconnect(model.SessionInfo, error)     {}
func (NoopListener) OnError(model.SessionInfo, error)          {}
