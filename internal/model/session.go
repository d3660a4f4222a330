package model

import "time"

// SessionState is the unified per-connection state machine described in
// SPEC_FULL.md §4.4.
type SessionState int

const (
	SessionCreated SessionState = iota
	SessionConnecting
	SessionConnected
	SessionHandshaking
	SessionEstablished
	SessionResending
	SessionTerminating
	SessionDisconnected
)

func (s SessionState) String() string {
	switch s {
	case SessionCreated:
		return "CREATED"
	case SessionConnecting:
		return "CONNECTING"
	case SessionConnected:
		return "CONNECTED"
	case SessionHandshaking:
		return "HANDSHAKING"
	case SessionEstablished:
		return "ESTABLISHED"
	case SessionResending:
		return "RESENDING"
	case SessionTerminating:
		return "TERMINATING"
	case SessionDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Role distinguishes the initiator (client) side of a handshake from the
// acceptor (exchange) side; the simulator always plays acceptor, but the
// reference client in cmd/refclient plays initiator against the same type.
type Role int

const (
	RoleAcceptor Role = iota
	RoleInitiator
)

// SessionInfo is the protocol-agnostic session record the dispatcher and
// journal key off of. Protocol-specific session state (FIX sequence
// numbers, iLink 3 UUIDs) lives alongside this in internal/session.
type SessionInfo struct {
	ID                string
	Protocol          Protocol
	Role              Role
	State             SessionState
	HeartbeatInterval time.Duration
	LastSentAt        time.Time
	LastReceivedAt    time.Time
}

// FillRule is one entry of the ordered, priority-descending rule list the
// fill engine consults. Priority ties break in list order.
type FillRule struct {
	Priority        int
	SymbolPattern   string // "*" or glob or literal
	FillProbability float64
	PartialProb     float64
}

// FillDecision is the fill engine's answer for a just-accepted order.
type FillDecision struct {
	ShouldFill bool
	Quantity   int64
	Price      int64
	FullFill   bool
}

// Direction of a journal entry relative to the exchange.
type Direction byte

const (
	DirectionInbound  Direction = 0
	DirectionOutbound Direction = 1
)

func (d Direction) String() string {
	if d == DirectionInbound {
		return "IN"
	}
	return "OUT"
}

// JournalEntry is one record of the append-only per-stream log (§6).
type JournalEntry struct {
	Timestamp int64
	SeqNum    uint32
	Direction Direction
	Stream    string
	Metadata  []byte
	Raw       []byte
}
