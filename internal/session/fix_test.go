package session

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsim/exchange-sim/internal/dispatch"
	"github.com/marketsim/exchange-sim/internal/fillengine"
	"github.com/marketsim/exchange-sim/internal/fix"
	"github.com/marketsim/exchange-sim/internal/journal"
	"github.com/marketsim/exchange-sim/internal/model"
	"github.com/marketsim/exchange-sim/internal/registry"
	"github.com/marketsim/exchange-sim/internal/ring"
)

// buildInbound encodes a complete FIX message the way a counterparty
// would, for feeding into FIXSession.HandleInbound.
func buildInbound(t *testing.T, seq int64, msgType, senderCompID, targetCompID string, fields map[int]string) *fix.Message {
	t.Helper()
	region := make([]byte, 1024)
	enc, err := fix.Wrap(region, fix.BeginStringFIX42, msgType, senderCompID, targetCompID)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	for tag, val := range fields {
		if err := enc.PutString(tag, val); err != nil {
			t.Fatalf("PutString(%d): %v", tag, err)
		}
	}
	if err := enc.PrepareForSend(uint64(seq), 1_750_000_000_000); err != nil {
		t.Fatalf("PrepareForSend: %v", err)
	}

	r := fix.NewReader()
	r.AddData(enc.Bytes())
	msg, err := r.ReadIncomingMessage()
	if err != nil {
		t.Fatalf("decode built message: %v", err)
	}
	if msg == nil {
		t.Fatalf("expected a decoded message")
	}
	return msg
}

// drainAll starts a Drainer over r, runs body, shuts the drainer down,
// and returns every fully reassembled FIX message it wrote, in order.
func drainAll(t *testing.T, r *ring.Ring, body func()) []*fix.Message {
	t.Helper()
	var buf bytes.Buffer
	d := ring.NewDrainer(r, &buf, nil)
	d.Start()
	body()
	d.Shutdown()

	var out []*fix.Message
	reader := fix.NewReader()
	reader.AddData(buf.Bytes())
	for {
		msg, err := reader.ReadIncomingMessage()
		if err != nil {
			t.Fatalf("reassembling drained output: %v", err)
		}
		if msg == nil {
			break
		}
		out = append(out, msg)
	}
	return out
}

func newTestDispatcher(seed int64, fillProb float64) *dispatch.Dispatcher {
	fe := fillengine.New(seed)
	fe.Configure([]model.FillRule{{Priority: 1, SymbolPattern: "*", FillProbability: fillProb, PartialProb: 0}})
	return dispatch.New(registry.New(), fe)
}

// TestLogonOrderAndFillScenario covers spec §8 scenario 1: FIX logon,
// a new order single, and a full-fill execution report.
func TestLogonOrderAndFillScenario(t *testing.T) {
	r := ring.New(ring.DefaultConfig())
	d := newTestDispatcher(1, 1)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sess := NewFIXSession(FIXConfig{
		ID:                "SESS1",
		BeginString:       fix.BeginStringFIX42,
		SenderCompID:      "EXCHANGE",
		TargetCompID:      "CLIENT",
		HeartbeatInterval: 30 * time.Second,
		Role:              model.RoleAcceptor,
		Ring:              r,
		Dispatcher:        d,
		Now:               func() time.Time { return fixed },
	})

	logon := buildInbound(t, 1, fix.MsgTypeLogon, "CLIENT", "EXCHANGE", map[int]string{
		98:  "0",
		108: "30",
	})
	newOrder := buildInbound(t, 2, fix.MsgTypeNewOrderSingle, "CLIENT", "EXCHANGE", map[int]string{
		11: "C1", 55: "AAPL", 54: fix.SideBuy, 40: fix.OrdTypeLimit, 38: "100", 44: "150.00",
	})

	outbound := drainAll(t, r, func() {
		if err := sess.HandleInbound(logon); err != nil {
			t.Fatalf("logon: %v", err)
		}
		if err := sess.HandleInbound(newOrder); err != nil {
			t.Fatalf("new order: %v", err)
		}
	})

	if sess.Info().State != model.SessionEstablished {
		t.Fatalf("session state = %v, want Established", sess.Info().State)
	}
	if len(outbound) != 3 {
		t.Fatalf("expected 3 outbound messages (logon ack, new exec report, fill exec report), got %d", len(outbound))
	}
	if outbound[0].MsgType() != fix.MsgTypeLogon {
		t.Errorf("first outbound = %s, want Logon", outbound[0].MsgType())
	}
	if outbound[1].MsgType() != fix.MsgTypeExecutionReport {
		t.Fatalf("second outbound = %s, want ExecutionReport", outbound[1].MsgType())
	}
	if v, _ := outbound[1].GetString(fix.TagOrdStatus); v != fix.OrdStatusNew {
		t.Errorf("first exec report OrdStatus = %s, want New", v)
	}
	if outbound[2].MsgType() != fix.MsgTypeExecutionReport {
		t.Fatalf("third outbound = %s, want ExecutionReport", outbound[2].MsgType())
	}
	if v, _ := outbound[2].GetString(fix.TagOrdStatus); v != fix.OrdStatusFilled {
		t.Errorf("second exec report OrdStatus = %s, want Filled", v)
	}
	if v, _ := outbound[2].GetString(fix.TagCumQty); v != "100" {
		t.Errorf("CumQty = %s, want 100", v)
	}
	if v, ok := outbound[2].GetDecimal(fix.TagAvgPx); !ok || v != 150.00 {
		t.Errorf("AvgPx = %v, want 150.00", v)
	}
	if v, _ := outbound[2].GetString(fix.TagAvgPx); v != "150.0000" {
		t.Errorf("AvgPx wire value = %s, want 150.0000", v)
	}
}

// TestCompIDMismatchRejectsAndDisconnects covers spec §8 scenario 6.
func TestCompIDMismatchRejectsAndDisconnects(t *testing.T) {
	r := ring.New(ring.DefaultConfig())
	d := newTestDispatcher(1, 1)

	var disconnectCause error
	disconnected := false
	listener := &recordingListener{onDisconnect: func(info model.SessionInfo, cause error) {
		disconnected = true
		disconnectCause = cause
	}}

	sess := NewFIXSession(FIXConfig{
		ID:           "SESS2",
		BeginString:  fix.BeginStringFIX42,
		SenderCompID: "EXCHANGE",
		TargetCompID: "CLIENT",
		Role:         model.RoleAcceptor,
		Ring:         r,
		Dispatcher:   d,
		Listener:     listener,
	})

	bad := buildInbound(t, 1, fix.MsgTypeLogon, "IMPOSTOR", "EXCHANGE", map[int]string{98: "0", 108: "30"})

	outbound := drainAll(t, r, func() {
		err := sess.HandleInbound(bad)
		require.Error(t, err, "expected CompID mismatch error")
	})

	require.True(t, disconnected, "expected OnDisconnect to fire")
	require.Error(t, disconnectCause, "expected a non-nil disconnect cause")
	assert.Equal(t, model.SessionDisconnected, sess.Info().State)
	require.Len(t, outbound, 1, "expected a single Reject")
	assert.Equal(t, fix.MsgTypeReject, outbound[0].MsgType())

	v, ok := outbound[0].GetString(fix.TagSessionRejectReason)
	require.True(t, ok, "expected SessionRejectReason field to be set")
	assert.Equal(t, fix.SessionRejectReasonCompIDProblem, v)
}

// TestResendAfterCrashReplaysJournal covers spec §8 scenario 3: a
// counterparty's ResendRequest is served from this session's own
// outbound journal, admin messages gap-filled and application messages
// retransmitted verbatim.
func TestResendAfterCrashReplaysJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.journal")
	jrnl, err := journal.Open(journal.Config{Path: path})
	require.NoError(t, err, "journal.Open")
	t.Cleanup(func() { jrnl.Close() })

	r := ring.New(ring.DefaultConfig())
	d := newTestDispatcher(1, 1)

	sess := NewFIXSession(FIXConfig{
		ID:              "SESS3",
		BeginString:     fix.BeginStringFIX42,
		SenderCompID:    "EXCHANGE",
		TargetCompID:    "CLIENT",
		Role:            model.RoleAcceptor,
		Ring:            r,
		Journal:         jrnl,
		JournalPathHint: path,
		Dispatcher:      d,
	})

	logon := buildInbound(t, 1, fix.MsgTypeLogon, "CLIENT", "EXCHANGE", map[int]string{98: "0", 108: "30"})
	order1 := buildInbound(t, 2, fix.MsgTypeNewOrderSingle, "CLIENT", "EXCHANGE", map[int]string{
		11: "C1", 55: "AAPL", 54: fix.SideBuy, 40: fix.OrdTypeLimit, 38: "10", 44: "100",
	})
	order2 := buildInbound(t, 3, fix.MsgTypeNewOrderSingle, "CLIENT", "EXCHANGE", map[int]string{
		11: "C2", 55: "MSFT", 54: fix.SideBuy, 40: fix.OrdTypeLimit, 38: "5", 44: "200",
	})

	// Produces outbound seq 1 (Logon ack, admin), seq 2+3 (new+fill for
	// C1), seq 4+5 (new+fill for C2) -- all journaled.
	_ = drainAll(t, r, func() {
		require.NoError(t, sess.HandleInbound(logon), "logon")
		require.NoError(t, sess.HandleInbound(order1), "order1")
		require.NoError(t, sess.HandleInbound(order2), "order2")
	})

	resendReq := buildInbound(t, 4, fix.MsgTypeResendRequest, "CLIENT", "EXCHANGE", map[int]string{
		7: "2", 16: "0",
	})

	replayed := drainAll(t, r, func() {
		require.NoError(t, sess.HandleInbound(resendReq), "resend request")
	})

	require.Len(t, replayed, 4, "expected 4 replayed application messages (new+fill x2)")
	for _, m := range replayed {
		assert.Equal(t, fix.MsgTypeExecutionReport, m.MsgType(), "replayed message type")
		v, _ := m.GetString(fix.TagPossDupFlag)
		assert.Equal(t, "Y", v, "replayed message PossDupFlag")
	}
	firstClOrdID, _ := replayed[0].GetString(fix.TagClOrdID)
	assert.Equal(t, "C1", firstClOrdID, "first replayed ClOrdID")
}

type recordingListener struct {
	NoopListener
	onDisconnect func(model.SessionInfo, error)
}

func (l *recordingListener) OnDisconnect(info model.SessionInfo, cause error) {
	if l.onDisconnect != nil {
		l.onDisconnect(info, cause)
	}
}
