package ilink3

import (
	"testing"

	"github.com/google/uuid"

	"github.com/marketsim/exchange-sim/internal/wire"
)

// TestHandshakeScenario covers SPEC_FULL.md §8 scenario 5: an initiator
// negotiates, establishes, and receives the acceptor's acks in order.
func TestHandshakeScenario(t *testing.T) {
	sessionUUID := uuid.New()

	negBuf := wire.New(256)
	n, err := EncodeNegotiate(negBuf, &Negotiate{
		UUID:             sessionUUID,
		RequestTimestamp: 1000,
		SessionID:        "SESSION1",
		FirmID:           "FIRM1",
		AccessKeyID:      "KEY1",
	})
	if err != nil {
		t.Fatalf("EncodeNegotiate: %v", err)
	}
	negBuf.SetLimit(n)
	negBuf.Rewind()
	tmplID, err := sbePeekAfterLen(negBuf)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if tmplID != TemplateNegotiate {
		t.Fatalf("template = %d, want %d", tmplID, TemplateNegotiate)
	}
	negBuf.Rewind()
	decodedNeg, err := DecodeNegotiate(negBuf)
	if err != nil {
		t.Fatalf("DecodeNegotiate: %v", err)
	}
	if decodedNeg.UUID != sessionUUID || decodedNeg.SessionID != "SESSION1" || decodedNeg.FirmID != "FIRM1" {
		t.Fatalf("decoded negotiate = %+v", decodedNeg)
	}

	respBuf := wire.New(256)
	_, err = EncodeNegotiationResponse(respBuf, &NegotiationResponse{
		UUID:          sessionUUID,
		PreviousUUID:  uuid.Nil,
		PreviousSeqNo: 0,
	})
	if err != nil {
		t.Fatalf("EncodeNegotiationResponse: %v", err)
	}

	estBuf := wire.New(256)
	_, err = EncodeEstablish(estBuf, &Establish{
		UUID:              sessionUUID,
		NextSeqNo:         1,
		KeepAliveInterval: 10000,
	})
	if err != nil {
		t.Fatalf("EncodeEstablish: %v", err)
	}
	estBuf.Rewind()
	decodedEst, err := DecodeEstablish(estBuf)
	if err != nil {
		t.Fatalf("DecodeEstablish: %v", err)
	}
	if decodedEst.UUID != sessionUUID || decodedEst.NextSeqNo != 1 {
		t.Fatalf("decoded establish = %+v", decodedEst)
	}

	ackBuf := wire.New(256)
	n, err = EncodeEstablishmentAck(ackBuf, &EstablishmentAck{
		UUID:              sessionUUID,
		LastIncomingSeqNo: 0,
		LastOutgoingSeqNo: 0,
	})
	if err != nil || n == 0 {
		t.Fatalf("EncodeEstablishmentAck: n=%d err=%v", n, err)
	}
}

func TestNewOrderSingleRoundTrip(t *testing.T) {
	buf := wire.New(128)
	_, err := EncodeNewOrderSingle(buf, &NewOrderSingle{
		SeqNum:   1,
		ClOrdID:  "CL1",
		Symbol:   "ESZ6",
		Side:     1,
		Quantity: 5,
		Price:    4_500_000_000_000, // 4500.000000000 scaled x10^9
		OrdType:  '2',
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf.Rewind()
	decoded, err := DecodeNewOrderSingle(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ClOrdID != "CL1" || decoded.Symbol != "ESZ6" || decoded.Quantity != 5 || decoded.Price != 4_500_000_000_000 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestExecutionReportNewRoundTrip(t *testing.T) {
	buf := wire.New(128)
	_, err := EncodeExecutionReportNew(buf, &ExecutionReportNew{
		SeqNum:    2,
		ClOrdID:   "CL1",
		ExecType:  '0',
		OrdStatus: '0',
		LeavesQty: 5,
		CumQty:    0,
		AvgPrice:  0,
		LastQty:   0,
		LastPrice: 0,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf.Rewind()
	decoded, err := DecodeExecutionReportNew(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ClOrdID != "CL1" || decoded.LeavesQty != 5 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestOrderCancelReplaceRequestRoundTrip(t *testing.T) {
	buf := wire.New(128)
	_, err := EncodeOrderCancelReplaceRequest(buf, &OrderCancelReplaceRequest{
		SeqNum:      3,
		OrigClOrdID: "CL1",
		ClOrdID:     "CL2",
		Quantity:    3,
		Price:       4_501_000_000_000,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf.Rewind()
	decoded, err := DecodeOrderCancelReplaceRequest(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.OrigClOrdID != "CL1" || decoded.ClOrdID != "CL2" || decoded.Quantity != 3 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

// sbePeekAfterLen peeks the templateId of a message that still has its
// 2-byte length prefix at the front, without disturbing buf's position.
func sbePeekAfterLen(buf *wire.Buffer) (uint16, error) {
	return buf.GetUint16LEAt(buf.Position() + 2 + 2)
}
