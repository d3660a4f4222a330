package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/marketsim/exchange-sim/internal/dispatch"
	"github.com/marketsim/exchange-sim/internal/fix"
	"github.com/marketsim/exchange-sim/internal/journal"
	"github.com/marketsim/exchange-sim/internal/model"
	"github.com/marketsim/exchange-sim/internal/ring"
)

// ErrCompIDMismatch is returned (and the session torn down) when an
// inbound message's SenderCompID/TargetCompID don't match the
// configured identities, per spec §8 scenario 6.
var ErrCompIDMismatch = errors.New("session: CompID mismatch")

// ErrSequenceTooLow is returned when an inbound MsgSeqNum is below the
// expected value without PossDupFlag=Y set.
var ErrSequenceTooLow = errors.New("session: MsgSeqNum too low")

// claimSize is the upper bound on a single FIX message's encoded size
// this session will claim from the ring; generous for the handful of
// admin/execution-report fields this simulator writes.
const claimSize = 1024

// FIXConfig configures a FIXSession.
type FIXConfig struct {
	ID                string
	BeginString       string // fix.BeginStringFIX42/FIX44/FIXT11
	SenderCompID      string // our identity, sent as tag 49
	TargetCompID      string // counterparty identity, expected as their tag 49
	HeartbeatInterval time.Duration
	Role              model.Role

	Ring       *ring.Ring
	Journal    *journal.Journal // nil disables journaling (and resend)
	// JournalPathHint is the same path passed to journal.Open when
	// constructing Journal; ReplayRange needs a path, not a handle, since
	// it opens its own independent file descriptor for the replay scan.
	JournalPathHint string
	Dispatcher      *dispatch.Dispatcher
	Listener        Listener
	Log             hclog.Logger

	// Now returns the current time; overridable so tests can drive
	// SendingTime deterministically. Defaults to time.Now.
	Now func() time.Time
}

// FIXSession is the "hardest case" session runtime from SPEC_FULL.md
// §4.4: outbound sequence numbers are assigned monotonically at send
// time, inbound sequence numbers are tracked for gap detection, and a
// counterparty's ResendRequest is served by replaying this session's
// own outbound journal entries.
type FIXSession struct {
	mu sync.Mutex

	cfg  FIXConfig
	info model.SessionInfo

	outSeq uint64 // next outbound MsgSeqNum to assign
	inSeq  int64  // next expected inbound MsgSeqNum

	testReqCounter int
}

// NewFIXSession constructs a session in model.SessionConnecting, with
// both sequence counters starting at 1 per FIX convention.
func NewFIXSession(cfg FIXConfig) *FIXSession {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Listener == nil {
		cfg.Listener = NoopListener{}
	}
	if cfg.Log == nil {
		cfg.Log = hclog.NewNullLogger()
	}
	s := &FIXSession{
		cfg:    cfg,
		outSeq: 1,
		inSeq:  1,
		info: model.SessionInfo{
			ID:                cfg.ID,
			Protocol:          model.ProtocolFIX,
			Role:              cfg.Role,
			State:             model.SessionConnecting,
			HeartbeatInterval: cfg.HeartbeatInterval,
		},
	}
	s.cfg.Listener.OnConnect(s.info)
	return s
}

// Info returns a snapshot of the session's current state.
func (s *FIXSession) Info() model.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

func (s *FIXSession) setState(st model.SessionState) {
	s.info.State = st
}

func isAffirmative(msg *fix.Message, tag int) bool {
	v, ok := msg.GetString(tag)
	return ok && v == "Y"
}

// HandleInbound processes one fully reassembled FIX message: CompID
// validation, sequence number bookkeeping, then dispatch to the
// matching admin handler or, for application messages, to the order
// dispatcher. Per spec §8 scenario 6, a CompID mismatch sends a
// Reject(SessionRejectReason=CompIDProblem) and disconnects regardless
// of sequence state.
func (s *FIXSession) HandleInbound(msg *fix.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.info.LastReceivedAt = s.cfg.Now()

	if msg.SenderCompID() != s.cfg.TargetCompID || msg.TargetCompID() != s.cfg.SenderCompID {
		s.sendRejectLocked(msg.MsgSeqNum(), fix.SessionRejectReasonCompIDProblem, "CompID mismatch")
		err := fmt.Errorf("%w: got sender=%s target=%s, want sender=%s target=%s",
			ErrCompIDMismatch, msg.SenderCompID(), msg.TargetCompID(), s.cfg.TargetCompID, s.cfg.SenderCompID)
		s.disconnectLocked(err)
		return err
	}

	seq := msg.MsgSeqNum()
	possDup := isAffirmative(msg, fix.TagPossDupFlag)

	switch {
	case seq == s.inSeq:
		s.inSeq++
	case seq > s.inSeq:
		gapFrom := s.inSeq
		s.cfg.Log.Warn("sequence gap detected", "expected", gapFrom, "got", seq)
		s.sendResendRequestLocked(gapFrom, 0)
		s.inSeq = seq + 1
	default:
		if !possDup {
			err := fmt.Errorf("%w: expected %d, got %d", ErrSequenceTooLow, s.inSeq, seq)
			s.disconnectLocked(err)
			return err
		}
		// Duplicate delivery of an already-processed sequence: ignore.
		return nil
	}

	return s.dispatchInboundLocked(msg)
}

func (s *FIXSession) dispatchInboundLocked(msg *fix.Message) error {
	switch msg.MsgType() {
	case fix.MsgTypeLogon:
		return s.handleLogonLocked(msg)
	case fix.MsgTypeHeartbeat:
		return nil
	case fix.MsgTypeTestRequest:
		testReqID, _ := msg.GetString(fix.TagTestReqID)
		return s.sendHeartbeatLocked(testReqID)
	case fix.MsgTypeResendRequest:
		beginSeq, _ := msg.GetInt(fix.TagBeginSeqNo)
		endSeq, _ := msg.GetInt(fix.TagEndSeqNo)
		return s.handleResendRequestLocked(uint32(beginSeq), uint32(endSeq))
	case fix.MsgTypeSequenceReset:
		newSeq, ok := msg.GetInt(fix.TagNewSeqNo)
		if ok {
			s.inSeq = newSeq
		}
		return nil
	case fix.MsgTypeLogout:
		s.disconnectLocked(nil)
		return nil
	default:
		return s.dispatchApplicationLocked(msg)
	}
}

// handleLogonLocked completes the handshake: a ResetSeqNumFlag=Y logon
// resets both sequence counters to 1 before the ack is sent, per FIX's
// standard re-synchronization convention.
func (s *FIXSession) handleLogonLocked(msg *fix.Message) error {
	if isAffirmative(msg, fix.TagResetSeqNumFlag) {
		s.inSeq = 1
		s.outSeq = 1
	}
	heartBtInt := int64(s.cfg.HeartbeatInterval / time.Second)
	if err := s.sendLocked(fix.MsgTypeLogon, func(enc *fix.Encoder) error {
		if err := enc.PutInt(fix.TagEncryptMethod, 0); err != nil {
			return err
		}
		return enc.PutInt(fix.TagHeartBtInt, heartBtInt)
	}); err != nil {
		return err
	}
	s.setState(model.SessionEstablished)
	s.cfg.Listener.OnEstablished(s.info)
	return nil
}

func (s *FIXSession) sendHeartbeatLocked(testReqID string) error {
	return s.sendLocked(fix.MsgTypeHeartbeat, func(enc *fix.Encoder) error {
		if testReqID == "" {
			return nil
		}
		return enc.PutString(fix.TagTestReqID, testReqID)
	})
}

// SendTestRequest emits a TestRequest, used by a session's idle-timeout
// watchdog (driven by cmd/gateway, not this package) to probe a quiet
// counterparty before declaring the connection dead.
func (s *FIXSession) SendTestRequest() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testReqCounter++
	id := fmt.Sprintf("TEST%d", s.testReqCounter)
	return s.sendLocked(fix.MsgTypeTestRequest, func(enc *fix.Encoder) error {
		return enc.PutString(fix.TagTestReqID, id)
	})
}

func (s *FIXSession) sendResendRequestLocked(beginSeq, endSeq int64) error {
	return s.sendLocked(fix.MsgTypeResendRequest, func(enc *fix.Encoder) error {
		if err := enc.PutInt(fix.TagBeginSeqNo, beginSeq); err != nil {
			return err
		}
		return enc.PutInt(fix.TagEndSeqNo, endSeq)
	})
}

func (s *FIXSession) sendRejectLocked(refSeqNum int64, reason, text string) error {
	return s.sendLocked(fix.MsgTypeReject, func(enc *fix.Encoder) error {
		if err := enc.PutInt(fix.TagRefSeqNum, refSeqNum); err != nil {
			return err
		}
		if err := enc.PutString(fix.TagSessionRejectReason, reason); err != nil {
			return err
		}
		return enc.PutString(fix.TagText, text)
	})
}

func (s *FIXSession) sendSequenceResetGapFillLocked(seqNum, newSeqNo int64) error {
	return s.sendAdminRawLocked(seqNum, fix.MsgTypeSequenceReset, func(enc *fix.Encoder) error {
		if err := enc.PutString(fix.TagGapFillFlag, "Y"); err != nil {
			return err
		}
		return enc.PutInt(fix.TagNewSeqNo, newSeqNo)
	})
}

// isAdminMsgType reports whether a journaled message type is a session
// (admin) message rather than an application message, per §4.3's
// admin/application split.
func isAdminMsgType(msgType string) bool {
	switch msgType {
	case fix.MsgTypeHeartbeat, fix.MsgTypeTestRequest, fix.MsgTypeResendRequest,
		fix.MsgTypeReject, fix.MsgTypeSequenceReset, fix.MsgTypeLogout, fix.MsgTypeLogon:
		return true
	default:
		return false
	}
}

// handleResendRequestLocked serves a counterparty's ResendRequest by
// replaying this session's own outbound journal in [beginSeq, endSeq].
// Per §4.4, admin messages are gap-filled (a Logon or Heartbeat from
// three days ago is meaningless to replay) while application messages
// are retransmitted with PossDupFlag=Y so the counterparty can rebuild
// its view of the order stream after a crash. endSeq of 0 means "up to
// the highest sequence number sent so far".
func (s *FIXSession) handleResendRequestLocked(beginSeq, endSeq uint32) error {
	if s.cfg.Journal == nil {
		return fmt.Errorf("session: resend requested but journaling is disabled")
	}
	if endSeq == 0 {
		endSeq = uint32(s.outSeq - 1)
	}

	var gapFillFrom uint32
	haveGap := false
	flushGap := func(throughExclusive uint32) error {
		if !haveGap {
			return nil
		}
		haveGap = false
		return s.sendSequenceResetGapFillLocked(int64(gapFillFrom), int64(throughExclusive))
	}

	err := journal.ReplayRange(s.journalPath(), beginSeq, endSeq, func(e journal.Entry) error {
		if e.Direction != model.DirectionOutbound {
			return nil
		}
		msgType := string(e.Metadata)
		if isAdminMsgType(msgType) {
			if !haveGap {
				haveGap = true
				gapFillFrom = e.SeqNum
			}
			return nil
		}
		if err := flushGap(e.SeqNum); err != nil {
			return err
		}
		return s.resendRawLocked(e.Raw, e.SeqNum)
	})
	if err != nil {
		return err
	}
	return flushGap(endSeq + 1)
}

func (s *FIXSession) journalPath() string {
	// internal/journal.Journal keeps its path unexported; sessions that
	// enable resend are constructed with the same path passed to both
	// journal.Open and FIXConfig.JournalPathHint in internal/gateway's
	// wiring.
	return s.cfg.JournalPathHint
}

// resendHeaderTags are the fields resendRawLocked regenerates itself
// (sequence number, sending time, checksum, ...) rather than copying
// from the journaled original.
var resendHeaderTags = map[int]bool{
	fix.TagBeginString:  true,
	fix.TagBodyLength:   true,
	fix.TagMsgType:      true,
	fix.TagMsgSeqNum:    true,
	fix.TagSenderCompID: true,
	fix.TagTargetCompID: true,
	fix.TagSendingTime:  true,
	fix.TagCheckSum:     true,
}

// resendRawLocked re-emits a previously journaled application message
// under its original MsgSeqNum, with PossDupFlag=Y and OrigSendingTime
// set per §4.4's resend semantics, so the counterparty can tell this is
// a retransmission rather than a new message at a reused sequence
// number. It does not go through sendAdminRawLocked (which would
// journal it again as a fresh entry and, for a live send, advance
// outSeq); a resend is replaying history, not producing it.
func (s *FIXSession) resendRawLocked(raw []byte, seqNum uint32) error {
	rdr := fix.NewReader()
	rdr.AddData(append([]byte(nil), raw...))
	orig, err := rdr.ReadIncomingMessage()
	if err != nil || orig == nil {
		return fmt.Errorf("session: decoding journaled message for resend: %w", err)
	}

	claim, err := s.cfg.Ring.TryClaim(claimSize)
	if err != nil {
		return fmt.Errorf("session: resend claim: %w", err)
	}
	enc, err := fix.Wrap(claim.Buf, s.cfg.BeginString, orig.MsgType(), s.cfg.SenderCompID, s.cfg.TargetCompID)
	if err != nil {
		s.cfg.Ring.Abort(claim)
		return err
	}
	for _, tag := range orig.Tags() {
		if resendHeaderTags[tag] {
			continue
		}
		v, _ := orig.GetString(tag)
		if err := enc.PutString(tag, v); err != nil {
			s.cfg.Ring.Abort(claim)
			return err
		}
	}
	if err := enc.PutString(fix.TagPossDupFlag, "Y"); err != nil {
		s.cfg.Ring.Abort(claim)
		return err
	}
	if err := enc.PutString(fix.TagOrigSendingTime, orig.SendingTime()); err != nil {
		s.cfg.Ring.Abort(claim)
		return err
	}
	if err := enc.PrepareForSend(uint64(seqNum), s.cfg.Now().UnixMilli()); err != nil {
		s.cfg.Ring.Abort(claim)
		return err
	}
	s.cfg.Ring.Trim(&claim, enc.Len())
	s.cfg.Ring.Commit(claim)
	return nil
}

// sendLocked assigns the next outbound MsgSeqNum, encodes msgType via
// build, commits it to the ring, and journals it.
func (s *FIXSession) sendLocked(msgType string, build func(enc *fix.Encoder) error) error {
	return s.sendAdminRawLocked(int64(s.outSeq), msgType, build)
}

// sendAdminRawLocked is sendLocked's shared body, taking an explicit
// seqNum so gap-fill SequenceReset messages (sent in response to a
// ResendRequest, not at the current outSeq cursor) can reuse it.
func (s *FIXSession) sendAdminRawLocked(seqNum int64, msgType string, build func(enc *fix.Encoder) error) error {
	claim, err := s.cfg.Ring.TryClaim(claimSize)
	if err != nil {
		return fmt.Errorf("session: claim: %w", err)
	}
	enc, err := fix.Wrap(claim.Buf, s.cfg.BeginString, msgType, s.cfg.SenderCompID, s.cfg.TargetCompID)
	if err != nil {
		s.cfg.Ring.Abort(claim)
		return err
	}
	if err := build(enc); err != nil {
		s.cfg.Ring.Abort(claim)
		return err
	}
	if err := enc.PrepareForSend(uint64(seqNum), s.cfg.Now().UnixMilli()); err != nil {
		s.cfg.Ring.Abort(claim)
		return err
	}
	s.cfg.Ring.Trim(&claim, enc.Len())
	s.cfg.Ring.Commit(claim)

	if seqNum == int64(s.outSeq) {
		s.outSeq++
	}

	if s.cfg.Journal != nil {
		raw := append([]byte(nil), enc.Bytes()...)
		if err := s.cfg.Journal.Append(journal.Entry{
			Timestamp: s.cfg.Now().UnixNano(),
			SeqNum:    uint32(seqNum),
			Direction: model.DirectionOutbound,
			Metadata:  []byte(msgType),
			Raw:       raw,
		}); err != nil {
			return fmt.Errorf("session: journal append: %w", err)
		}
	}
	s.info.LastSentAt = s.cfg.Now()
	return nil
}

func (s *FIXSession) disconnectLocked(cause error) {
	s.setState(model.SessionDisconnected)
	s.cfg.Listener.OnDisconnect(s.info, cause)
}

// Disconnect tears the session down from the outside (e.g. a transport
// read error), notifying the listener with cause.
func (s *FIXSession) Disconnect(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectLocked(cause)
}

// dispatchApplicationLocked translates NewOrderSingle/OrderCancelRequest/
// OrderCancelReplace/OrderStatusRequest into internal/dispatch calls and
// encodes the resulting ExecutionReport/OrderCancelReject, per spec §8
// scenario 1's end-to-end logon+order+fill flow.
func (s *FIXSession) dispatchApplicationLocked(msg *fix.Message) error {
	if s.cfg.Dispatcher == nil {
		return fmt.Errorf("session: no dispatcher configured for application message %s", msg.MsgType())
	}
	switch msg.MsgType() {
	case fix.MsgTypeNewOrderSingle:
		return s.handleNewOrderSingleLocked(msg)
	case fix.MsgTypeOrderCancelRequest:
		return s.handleCancelLocked(msg)
	case fix.MsgTypeOrderCancelReplace:
		return s.handleReplaceLocked(msg)
	case fix.MsgTypeOrderStatusRequest:
		return s.handleStatusRequestLocked(msg)
	default:
		s.cfg.Listener.OnError(s.info, fmt.Errorf("session: unhandled MsgType %s", msg.MsgType()))
		return nil
	}
}

func sideFromFIX(v string) model.Side {
	switch v {
	case fix.SideSell:
		return model.SideSell
	case fix.SideSellShort:
		return model.SideSellShort
	case fix.SideSellShortExempt:
		return model.SideSellShortExempt
	default:
		return model.SideBuy
	}
}

func sideToFIX(s model.Side) string {
	switch s {
	case model.SideSell:
		return fix.SideSell
	case model.SideSellShort:
		return fix.SideSellShort
	case model.SideSellShortExempt:
		return fix.SideSellShortExempt
	default:
		return fix.SideBuy
	}
}

// priceFromFIX reads tag 44 as a decimal (e.g. "150.75") and converts it
// to model.Order's fixed-point tick scale. A missing Price field (e.g.
// on a market order) decodes to 0.
func priceFromFIX(msg *fix.Message) int64 {
	p, ok := msg.GetDecimal(fix.TagPrice)
	if !ok {
		return 0
	}
	return int64(p*fix.PriceScale + 0.5)
}

// priceToFIX converts a model.Order fixed-point tick price back to the
// float64 FIX's PutDecimal expects.
func priceToFIX(ticks int64) float64 {
	return float64(ticks) / fix.PriceScale
}

func ordTypeFromFIX(v string) model.OrderType {
	switch v {
	case fix.OrdTypeLimit:
		return model.OrderTypeLimit
	case fix.OrdTypeStop:
		return model.OrderTypeStop
	case fix.OrdTypeStopLimit:
		return model.OrderTypeStopLimit
	default:
		return model.OrderTypeMarket
	}
}

func (s *FIXSession) handleNewOrderSingleLocked(msg *fix.Message) error {
	clOrdID, _ := msg.GetString(fix.TagClOrdID)
	symbol, _ := msg.GetString(fix.TagSymbol)
	sideStr, _ := msg.GetString(fix.TagSide)
	typeStr, _ := msg.GetString(fix.TagOrdType)
	qty, _ := msg.GetInt(fix.TagOrderQty)
	price := priceFromFIX(msg)

	res := s.cfg.Dispatcher.NewOrder(dispatch.NewOrderRequest{
		SessionID:     s.cfg.ID,
		ClientOrderID: clOrdID,
		Protocol:      model.ProtocolFIX,
		Symbol:        symbol,
		Side:          sideFromFIX(sideStr),
		Type:          ordTypeFromFIX(typeStr),
		Quantity:      qty,
		Price:         price,
		Timestamp:     s.cfg.Now().UnixNano(),
	})
	if !res.Accepted {
		return nil // duplicate client order id: drop silently, per §4.8
	}
	if err := s.sendExecutionReportLocked(res.Order, fix.ExecTypeNew, fix.OrdStatusNew, 0, 0); err != nil {
		return err
	}
	if res.Decision.ShouldFill {
		execType := fix.ExecTypeFill
		ordStatus := fix.OrdStatusFilled
		if !res.Decision.FullFill {
			execType = fix.ExecTypePartialFill
			ordStatus = fix.OrdStatusPartiallyFilled
		}
		return s.sendExecutionReportLocked(res.Order, execType, ordStatus, res.Decision.Quantity, res.Decision.Price)
	}
	return nil
}

func (s *FIXSession) handleCancelLocked(msg *fix.Message) error {
	clOrdID, _ := msg.GetString(fix.TagClOrdID)
	origClOrdID, _ := msg.GetString(fix.TagOrigClOrdID)
	order, ok := s.cfg.Dispatcher.Cancel(s.cfg.ID, origClOrdID)
	if !ok {
		return s.sendCancelRejectLocked(clOrdID, origClOrdID, "0", "unknown or inactive order")
	}
	return s.sendExecutionReportLocked(order, fix.ExecTypeCanceled, fix.OrdStatusCanceled, 0, 0)
}

func (s *FIXSession) handleReplaceLocked(msg *fix.Message) error {
	clOrdID, _ := msg.GetString(fix.TagClOrdID)
	origClOrdID, _ := msg.GetString(fix.TagOrigClOrdID)
	qty, _ := msg.GetInt(fix.TagOrderQty)
	price := priceFromFIX(msg)

	res := s.cfg.Dispatcher.Replace(dispatch.ReplaceRequest{
		SessionID:         s.cfg.ID,
		OrigClientOrderID: origClOrdID,
		NewClientOrderID:  clOrdID,
		Quantity:          qty,
		Price:             price,
	})
	if !res.Accepted {
		return s.sendCancelRejectLocked(clOrdID, origClOrdID, "0", "unknown or inactive order")
	}
	if err := s.sendExecutionReportLocked(res.Replacement, fix.ExecTypeReplaced, fix.OrdStatusReplaced, 0, 0); err != nil {
		return err
	}
	if res.Decision.ShouldFill {
		execType := fix.ExecTypeFill
		ordStatus := fix.OrdStatusFilled
		if !res.Decision.FullFill {
			execType = fix.ExecTypePartialFill
			ordStatus = fix.OrdStatusPartiallyFilled
		}
		return s.sendExecutionReportLocked(res.Replacement, execType, ordStatus, res.Decision.Quantity, res.Decision.Price)
	}
	return nil
}

func (s *FIXSession) handleStatusRequestLocked(msg *fix.Message) error {
	clOrdID, _ := msg.GetString(fix.TagClOrdID)
	order := s.cfg.Dispatcher.Status(s.cfg.ID, clOrdID)
	if order == nil {
		return s.sendCancelRejectLocked(clOrdID, clOrdID, "1", "unknown order")
	}
	execType := fix.ExecTypeNew
	ordStatus := fix.OrdStatusNew
	switch order.State {
	case model.StatePartiallyFilled:
		execType, ordStatus = fix.ExecTypePartialFill, fix.OrdStatusPartiallyFilled
	case model.StateFilled:
		execType, ordStatus = fix.ExecTypeFill, fix.OrdStatusFilled
	case model.StateCanceled:
		execType, ordStatus = fix.ExecTypeCanceled, fix.OrdStatusCanceled
	case model.StateReplaced:
		execType, ordStatus = fix.ExecTypeReplaced, fix.OrdStatusReplaced
	case model.StateRejected:
		execType, ordStatus = fix.ExecTypeRejected, fix.OrdStatusRejected
	}
	return s.sendExecutionReportLocked(order, execType, ordStatus, 0, 0)
}

func (s *FIXSession) sendExecutionReportLocked(o *model.Order, execType, ordStatus string, lastQty, lastPx int64) error {
	return s.sendLocked(fix.MsgTypeExecutionReport, func(enc *fix.Encoder) error {
		fields := []struct {
			tag int
			val string
		}{
			{fix.TagOrderID, fmt.Sprintf("%d", o.ID)},
			{fix.TagClOrdID, o.ClientOrderID},
			{fix.TagExecID, fmt.Sprintf("%d-%d", o.ID, o.Filled)},
			{fix.TagExecType, execType},
			{fix.TagOrdStatus, ordStatus},
			{fix.TagSymbol, o.Symbol},
			{fix.TagSide, sideToFIX(o.Side)},
		}
		for _, f := range fields {
			if err := enc.PutString(f.tag, f.val); err != nil {
				return err
			}
		}
		ints := []struct {
			tag int
			val int64
		}{
			{fix.TagLeavesQty, o.Leaves()},
			{fix.TagCumQty, o.Filled},
			{fix.TagLastQty, lastQty},
		}
		for _, f := range ints {
			if err := enc.PutInt(f.tag, f.val); err != nil {
				return err
			}
		}
		decimals := []struct {
			tag int
			val int64
		}{
			{fix.TagAvgPx, o.AvgPrice},
			{fix.TagLastPx, lastPx},
		}
		for _, f := range decimals {
			if err := enc.PutDecimal(f.tag, priceToFIX(f.val), fix.PriceDecimals); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *FIXSession) sendCancelRejectLocked(clOrdID, origClOrdID, reason, text string) error {
	return s.sendLocked(fix.MsgTypeOrderCancelReject, func(enc *fix.Encoder) error {
		if err := enc.PutString(fix.TagClOrdID, clOrdID); err != nil {
			return err
		}
		if err := enc.PutString(fix.TagOrigClOrdID, origClOrdID); err != nil {
			return err
		}
		if err := enc.PutString(fix.TagCxlRejReason, reason); err != nil {
			return err
		}
		return enc.PutString(fix.TagText, text)
	})
}
