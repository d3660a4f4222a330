package ouch

import (
	"testing"

	"github.com/marketsim/exchange-sim/internal/wire"
)

func TestEnterOrder42DecodeRoundTrip(t *testing.T) {
	region := make([]byte, EnterOrder42Len)
	buf := wire.Wrap(region)
	buf.PutUint8(MsgEnterOrder)
	buf.PutBytes(padRight("TOK0000000001", tokenLen42))
	buf.PutUint8(SideBuy)
	buf.PutUint32BE(200)
	buf.PutBytes(padRight("AAPL", symbolLen))
	buf.PutUint32BE(1_500_000) // 150.0000 scaled x10^4
	buf.PutBytes(padRight("0", tifLen))
	buf.PutBytes(padRight("FRM1", firmLen))
	buf.PutUint8('Y')
	buf.PutUint8('1')
	buf.PutUint32BE(0)
	buf.PutUint8('N')
	buf.PutUint8('N')

	e, err := DecodeEnterOrder42(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The 13-char token comes back space-padded to the 14-byte field.
	if e.Token != "TOK0000000001 " {
		t.Errorf("token = %q", e.Token)
	}
	if e.Shares != 200 {
		t.Errorf("shares = %d, want 200", e.Shares)
	}
	if e.Price != 1_500_000 {
		t.Errorf("price = %d, want 1500000", e.Price)
	}
}

func TestOUCH42AcceptedThenPartialExecutedScenario(t *testing.T) {
	// Scenario 2 from SPEC_FULL.md §8: Enter shares=200, rule fill=1.0
	// partial=1.0 -> Accepted(shares=200,state=L), Executed(shares=100).
	accBuf := wire.New(AcceptedLen)
	n, err := EncodeAccepted42(accBuf, &Accepted42{
		TimestampNanos: 123,
		Token:          "TOK0000000001",
		Side:           SideBuy,
		Shares:         200,
		Symbol:         "AAPL",
		Price:          1_500_000,
		TIF:            "0",
		Firm:           "FRM1",
		Display:        'Y',
		OrderRefNum:    1,
		Capacity:       '1',
		ISO:            'N',
		MinQty:         0,
		CrossType:      'N',
		OrderState:     'L',
	})
	if err != nil || n != AcceptedLen {
		t.Fatalf("EncodeAccepted42: n=%d err=%v", n, err)
	}

	execBuf := wire.New(ExecutedLen)
	n, err = EncodeExecuted42(execBuf, &Executed42{
		TimestampNanos: 124,
		Token:          "TOK0000000001",
		Shares:         100,
		Price:          1_500_000,
		MatchNumber:    1,
		LiquidityFlag:  'A',
	})
	if err != nil || n != ExecutedLen {
		t.Fatalf("EncodeExecuted42: n=%d err=%v", n, err)
	}

	leaves := int64(200 - 100)
	if leaves != 100 {
		t.Errorf("leaves = %d, want 100", leaves)
	}
}

func TestOUCH50EnterCancelFullScenario(t *testing.T) {
	// Scenario 4: Enter userRefNum=7 shares=50 -> Accepted; Cancel
	// userRefNum=7 quantity=0 (full cancel) -> Canceled decrementShares=50.
	enterBuf := wire.New(64)
	_, err := EncodeEnterOrder50(enterBuf, &EnterOrder50{
		UserRefNum: 7,
		Side:       SideBuy,
		Shares:     50,
		Symbol:     "AAPL",
		Price:      1_500_000,
		TIF:        "0",
		Firm:       "FRM1",
		Display:    'Y',
		Capacity:   '1',
		MinQty:     0,
		ISO:        'N',
		CrossType:  'N',
	})
	if err != nil {
		t.Fatalf("encode enter: %v", err)
	}
	enterBuf.Flip()
	decoded, err := DecodeEnterOrder50(enterBuf.Bytes()[:enterBuf.Limit()])
	if err != nil {
		t.Fatalf("decode enter: %v", err)
	}
	if decoded.UserRefNum != 7 || decoded.Shares != 50 {
		t.Fatalf("decoded = %+v", decoded)
	}

	cancelBuf := wire.New(16)
	EncodeCancelOrder50(cancelBuf, &CancelOrder50{UserRefNum: 7, Quantity: 0})
	cancelBuf.Flip()
	cancelDecoded, err := DecodeCancelOrder50(cancelBuf.Bytes()[:cancelBuf.Limit()])
	if err != nil {
		t.Fatalf("decode cancel: %v", err)
	}
	if cancelDecoded.Quantity != 0 {
		t.Fatalf("expected full cancel (quantity 0), got %d", cancelDecoded.Quantity)
	}

	canceledBuf := wire.New(32)
	n, err := EncodeCanceled50(canceledBuf, &Canceled50{
		TimestampNanos:  1,
		UserRefNum:      7,
		DecrementShares: 50,
		Reason:          'U',
	})
	if err != nil || n == 0 {
		t.Fatalf("encode canceled: n=%d err=%v", n, err)
	}
}

func TestEnterOrder50AppendageRoundTrip(t *testing.T) {
	buf := wire.New(128)
	_, err := EncodeEnterOrder50(buf, &EnterOrder50{
		UserRefNum: 1,
		Side:       SideBuy,
		Shares:     10,
		Symbol:     "MSFT",
		Price:      1000,
		TIF:        "0",
		Firm:       "FRM1",
		Appendages: []Appendage{{Tag: AppendagePeg, Data: []byte{1, 2, 3}}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf.Flip()
	decoded, err := DecodeEnterOrder50(buf.Bytes()[:buf.Limit()])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Appendages) != 1 || decoded.Appendages[0].Tag != AppendagePeg {
		t.Fatalf("appendages = %+v", decoded.Appendages)
	}
}
