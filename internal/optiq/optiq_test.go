package optiq

import (
	"testing"

	"github.com/marketsim/exchange-sim/internal/wire"
)

func TestNewOrderRoundTrip(t *testing.T) {
	buf := wire.New(128)
	_, err := EncodeNewOrder(buf, &NewOrder{
		ClOrdID:  "OPT1",
		Symbol:   "MC.PA",
		Side:     SideBuy,
		Quantity: 100,
		Price:    123_4500,
		OrdType:  '2',
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf.Rewind()
	decoded, err := DecodeNewOrder(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ClOrdID != "OPT1" || decoded.Symbol != "MC.PA" || decoded.Quantity != 100 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestReplaceThenExecutionReportScenario(t *testing.T) {
	repBuf := wire.New(128)
	_, err := EncodeReplaceOrder(repBuf, &ReplaceOrder{
		OrigClOrdID: "OPT1",
		ClOrdID:     "OPT2",
		Quantity:    50,
		Price:       123_5000,
	})
	if err != nil {
		t.Fatalf("encode replace: %v", err)
	}
	repBuf.Rewind()
	decodedRep, err := DecodeReplaceOrder(repBuf)
	if err != nil {
		t.Fatalf("decode replace: %v", err)
	}
	if decodedRep.OrigClOrdID != "OPT1" || decodedRep.ClOrdID != "OPT2" {
		t.Fatalf("decoded replace = %+v", decodedRep)
	}

	// a replace-accepted response is an ordinary accept bound to the new id.
	erBuf := wire.New(128)
	_, err = EncodeExecutionReport(erBuf, &ExecutionReport{
		ClOrdID:   decodedRep.ClOrdID,
		Status:    StatusNew,
		LeavesQty: decodedRep.Quantity,
		CumQty:    0,
		Timestamp: 1000,
	})
	if err != nil {
		t.Fatalf("encode report: %v", err)
	}
	erBuf.Rewind()
	decodedER, err := DecodeExecutionReport(erBuf)
	if err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decodedER.ClOrdID != "OPT2" || decodedER.Status != StatusNew {
		t.Fatalf("decoded report = %+v", decodedER)
	}
}

func TestCancelOrderRoundTrip(t *testing.T) {
	buf := wire.New(64)
	_, err := EncodeCancelOrder(buf, &CancelOrder{ClOrdID: "OPT1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	buf.Rewind()
	decoded, err := DecodeCancelOrder(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ClOrdID != "OPT1" {
		t.Fatalf("decoded = %+v", decoded)
	}
}
