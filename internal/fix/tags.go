// Package fix implements the tag=value ASCII codec described in
// SPEC_FULL.md §4.3/§6: a streaming, zero-copy reassembler for inbound
// messages and a direct-buffer encoder for outbound ones. Tag and value
// naming follows gurre-prime-fix-md-go/constants/constants.go's
// MsgType*/Tag*/OrdStatus* convention (that repo is reference-only
// grounding, not the teacher, since it wraps quickfixgo rather than
// implementing its own session/codec layer).
package fix

// SOH is the FIX field delimiter.
const SOH = byte(0x01)

// PriceScale is this simulator's fixed-point scale for FIX prices:
// model.Order.LimitPrice/AvgPrice are stored as int64 ticks of 1/10000th of a
// unit of currency, the same scale internal/optiq chose for cash
// equities, converted to/from FIX's native decimal text by
// GetDecimal/PutDecimal at the codec boundary.
const PriceScale = 10000

// PriceDecimals is how many digits after the decimal point PutDecimal
// emits for a PriceScale-scaled value.
const PriceDecimals = 4

// Tag numbers used by this simulator. Named Tag* to mirror the naming
// convention observed in the retrieval pack's FIX constants file.
const (
	TagBeginString    = 8
	TagBodyLength     = 9
	TagMsgType        = 35
	TagSenderCompID   = 49
	TagTargetCompID   = 56
	TagMsgSeqNum      = 34
	TagSendingTime    = 52
	TagCheckSum       = 10
	TagPossDupFlag    = 43
	TagOrigSendingTime = 122
	TagPossResend     = 97
	TagTestReqID      = 112
	TagEncryptMethod  = 98
	TagHeartBtInt     = 108
	TagResetSeqNumFlag = 141
	TagGapFillFlag    = 123
	TagNewSeqNo       = 36
	TagBeginSeqNo     = 7
	TagEndSeqNo       = 16
	TagRefSeqNum      = 45
	TagSessionRejectReason = 373
	TagText           = 58
	TagDefaultApplVerID = 1137
	TagApplVerID      = 1128

	TagClOrdID     = 11
	TagOrigClOrdID = 41
	TagSymbol      = 55
	TagSide        = 54
	TagOrderQty    = 38
	TagOrdType     = 40
	TagPrice       = 44
	TagTimeInForce = 59
	TagExecID      = 17
	TagExecType    = 150
	TagOrdStatus   = 39
	TagLeavesQty   = 151
	TagCumQty      = 14
	TagAvgPx       = 6
	TagLastQty     = 32
	TagLastPx      = 31
	TagOrderID     = 37
	TagCxlRejReason = 102
	TagCxlRejResponseTo = 434
)

// Admin message types (tag 35).
const (
	MsgTypeHeartbeat      = "0"
	MsgTypeTestRequest    = "1"
	MsgTypeResendRequest  = "2"
	MsgTypeReject         = "3"
	MsgTypeSequenceReset  = "4"
	MsgTypeLogout         = "5"
	MsgTypeLogon          = "A"
)

// Application message types (tag 35).
const (
	MsgTypeExecutionReport       = "8"
	MsgTypeOrderCancelReject     = "9"
	MsgTypeNewOrderSingle        = "D"
	MsgTypeOrderCancelRequest    = "F"
	MsgTypeOrderCancelReplace    = "G"
	MsgTypeOrderStatusRequest    = "H"
	MsgTypeBusinessReject        = "j"
)

// Side values (tag 54).
const (
	SideBuy             = "1"
	SideSell            = "2"
	SideSellShort       = "5"
	SideSellShortExempt = "6"
)

// OrdType values (tag 40).
const (
	OrdTypeMarket    = "1"
	OrdTypeLimit     = "2"
	OrdTypeStop      = "3"
	OrdTypeStopLimit = "4"
)

// ExecType / OrdStatus values (tags 150 / 39).
const (
	ExecTypeNew         = "0"
	ExecTypePartialFill = "1"
	ExecTypeFill        = "2"
	ExecTypeCanceled    = "4"
	ExecTypeReplaced    = "5"
	ExecTypeRejected    = "8"

	OrdStatusNew            = "0"
	OrdStatusPartiallyFilled = "1"
	OrdStatusFilled         = "2"
	OrdStatusCanceled       = "4"
	OrdStatusReplaced       = "5"
	OrdStatusRejected       = "8"
)

// SessionRejectReason values (tag 373).
const (
	SessionRejectReasonCompIDProblem = "9"
)

const (
	BeginStringFIX42  = "FIX.4.2"
	BeginStringFIX44  = "FIX.4.4"
	BeginStringFIXT11 = "FIXT.1.1"
)

// FixTimeFormat is the SendingTime wire layout: YYYYMMDD-HH:MM:SS.sss UTC.
const FixTimeFormat = "20060102-15:04:05.000"
