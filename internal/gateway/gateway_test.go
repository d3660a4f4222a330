package gateway

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/marketsim/exchange-sim/internal/config"
	"github.com/marketsim/exchange-sim/internal/ouch"
	"github.com/marketsim/exchange-sim/internal/wire"
)

func testGateway(t *testing.T, fillProb, partialProb float64) *Gateway {
	t.Helper()
	cfg := config.Default()
	cfg.JournalDir = t.TempDir()
	cfg.FillSeed = 1
	cfg.FillRules = []config.FillRuleConfig{{Priority: 1, SymbolPattern: "*", FillProbability: fillProb, PartialProb: partialProb}}
	return New(cfg, hclog.NewNullLogger())
}

// encodeEnterOrder42 builds a 49-byte Enter Order message the way a
// real OUCH 4.2 client would, matching DecodeEnterOrder42's field
// layout exactly (there is no exported encoder for the inbound message
// in internal/ouch since the simulator only ever decodes it).
func encodeEnterOrder42(t *testing.T, token, symbol string, side byte, shares uint32, price uint32) []byte {
	t.Helper()
	buf := wire.New(ouch.EnterOrder42Len)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("encoding EnterOrder42: %v", err)
		}
	}
	must(buf.PutUint8At(0, ouch.MsgEnterOrder))
	must(buf.PutASCIIAt(1, 14, token))
	must(buf.PutUint8At(15, side))
	must(buf.PutUint32BEAt(16, shares))
	must(buf.PutASCIIAt(20, 8, symbol))
	must(buf.PutUint32BEAt(28, price))
	must(buf.PutASCIIAt(32, 4, "0"))
	must(buf.PutASCIIAt(36, 4, "TEST"))
	must(buf.PutUint8At(40, 'Y'))
	must(buf.PutUint8At(41, 'A'))
	must(buf.PutUint32BEAt(42, 0))
	must(buf.PutUint8At(46, 'N'))
	must(buf.PutUint8At(47, 'N'))
	return buf.Bytes()
}

// TestOUCH42PartialFillScenario covers spec §8 scenario 2: an Enter
// Order accepted and then partially filled.
func TestOUCH42PartialFillScenario(t *testing.T) {
	g := testGateway(t, 1, 1) // always fill, always partial
	client, server := net.Pipe()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		g.handleOUCH42(ctx, server, config.ListenerConfig{})
		close(done)
	}()

	frame := encodeEnterOrder42(t, "TOK1", "AAPL", ouch.SideBuy, 100, 15000)
	if _, err := client.Write(frame); err != nil {
		t.Fatalf("write EnterOrder: %v", err)
	}

	accepted := readOUCH42Frame(t, client, ouch.AcceptedLen)
	if accepted[0] != ouch.MsgAccepted {
		t.Fatalf("first response type = %c, want Accepted", accepted[0])
	}

	executed := readOUCH42Frame(t, client, ouch.ExecutedLen)
	if executed[0] != ouch.MsgExecuted {
		t.Fatalf("second response type = %c, want Executed", executed[0])
	}
	ewb := wire.Wrap(executed)
	shares, err := ewb.GetUint32BEAt(23)
	if err != nil {
		t.Fatalf("reading Executed shares: %v", err)
	}
	if shares == 0 || shares >= 100 {
		t.Fatalf("partial fill shares = %d, want strictly between 0 and 100", shares)
	}

	cancel()
	client.Close()
	<-done
}

// TestOUCH42FullCancel covers the cancel half of spec §8's OUCH
// scenarios: a live order is fully canceled on request.
func TestOUCH42FullCancel(t *testing.T) {
	g := testGateway(t, 0, 0) // never fill, so the order stays live for the cancel
	client, server := net.Pipe()
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		g.handleOUCH42(ctx, server, config.ListenerConfig{})
		close(done)
	}()

	if _, err := client.Write(encodeEnterOrder42(t, "TOK2", "MSFT", ouch.SideBuy, 50, 20000)); err != nil {
		t.Fatalf("write EnterOrder: %v", err)
	}
	accepted := readOUCH42Frame(t, client, ouch.AcceptedLen)
	if accepted[0] != ouch.MsgAccepted {
		t.Fatalf("expected Accepted, got %c", accepted[0])
	}

	cancelBuf := wire.New(ouch.CancelOrder42Len)
	if err := cancelBuf.PutUint8At(0, ouch.MsgCancelOrder); err != nil {
		t.Fatal(err)
	}
	if err := cancelBuf.PutASCIIAt(1, 14, "TOK2"); err != nil {
		t.Fatal(err)
	}
	if err := cancelBuf.PutUint32BEAt(15, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Write(cancelBuf.Bytes()); err != nil {
		t.Fatalf("write CancelOrder: %v", err)
	}

	canceled := readOUCH42Frame(t, client, ouch.CanceledLen)
	if canceled[0] != ouch.MsgCanceled {
		t.Fatalf("response type = %c, want Canceled", canceled[0])
	}
	cwb := wire.Wrap(canceled)
	decrement, err := cwb.GetUint32BEAt(23)
	if err != nil {
		t.Fatalf("reading decrement shares: %v", err)
	}
	if decrement != 50 {
		t.Errorf("decrement shares = %d, want 50 (full cancel of an unfilled order)", decrement)
	}

	cancel()
	client.Close()
	<-done
}

func readOUCH42Frame(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, n)
	read := 0
	for read < n {
		k, err := conn.Read(buf[read:])
		if err != nil {
			t.Fatalf("reading %d-byte frame: %v", n, err)
		}
		read += k
	}
	return buf
}

func TestProbeOUCH42UnknownTypeResyncs(t *testing.T) {
	var f frameBuffer
	f.feed([]byte{'?', 'O'})
	if _, ok := f.next(probeOUCH42); ok {
		t.Fatal("expected no frame from garbage byte")
	}
	if len(f.buf) != 1 || f.buf[0] != 'O' {
		t.Fatalf("expected garbage byte dropped, buf = %v", f.buf)
	}
}

func TestProbeSBEWaitsForFullFrame(t *testing.T) {
	header := []byte{10, 0, 1, 0, 2, 0, 1, 0} // blockLength=10, rest arbitrary
	if n := probeSBE(header); n != 0 {
		t.Fatalf("probeSBE with no block bytes yet = %d, want 0 (need more data)", n)
	}
	full := append(header, make([]byte, 10)...)
	if n := probeSBE(full); n != 18 {
		t.Fatalf("probeSBE on a complete frame = %d, want 18", n)
	}
}
