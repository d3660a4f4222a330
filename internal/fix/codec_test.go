package fix

import (
	"bytes"
	"testing"
)

func buildRaw(t *testing.T, fields [][2]string) []byte {
	t.Helper()
	var body bytes.Buffer
	for _, f := range fields[2:] { // skip 8=, 9= which are computed
		body.WriteString(f[0])
		body.WriteByte('=')
		body.WriteString(f[1])
		body.WriteByte(SOH)
	}
	header := "8=" + fields[0][1] + string(SOH)
	bodyLenField := "9=" + itoa(body.Len()) + string(SOH)
	noChecksum := header + bodyLenField + body.String()
	var sum byte
	for _, b := range []byte(noChecksum) {
		sum += b
	}
	full := noChecksum + "10=" + pad3(sum) + string(SOH)
	return []byte(full)
}

func itoa(n int) string {
	return fmtInt(int64(n))
}

func fmtInt(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func pad3(b byte) string {
	s := fmtInt(int64(b))
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

func TestReader_ReassemblesSplitMessage(t *testing.T) {
	raw := buildRaw(t, [][2]string{
		{"8", "FIX.4.2"}, {"9", ""},
		{"35", "A"}, {"34", "1"}, {"49", "CLIENT"}, {"56", "EXCH"}, {"52", "20260101-00:00:00.000"},
		{"98", "0"}, {"108", "30"},
	})

	r := NewReader()
	// feed in two chunks, splitting mid-message
	mid := len(raw) / 2
	r.AddData(raw[:mid])
	if msg, err := r.ReadIncomingMessage(); msg != nil || err != nil {
		t.Fatalf("expected nil,nil before full message arrives, got %v, %v", msg, err)
	}
	r.AddData(raw[mid:])
	msg, err := r.ReadIncomingMessage()
	if err != nil {
		t.Fatalf("ReadIncomingMessage: %v", err)
	}
	if msg == nil {
		t.Fatalf("expected a complete message")
	}
	if msg.MsgType() != "A" {
		t.Errorf("MsgType = %q, want A", msg.MsgType())
	}
	if msg.MsgSeqNum() != 1 {
		t.Errorf("MsgSeqNum = %d, want 1", msg.MsgSeqNum())
	}
	if v, ok := msg.GetString(108); !ok || v != "30" {
		t.Errorf("tag 108 = %q, %v, want 30,true", v, ok)
	}
}

func TestReader_RejectsBadChecksum(t *testing.T) {
	raw := buildRaw(t, [][2]string{
		{"8", "FIX.4.2"}, {"9", ""},
		{"35", "0"}, {"34", "2"}, {"49", "CLIENT"}, {"56", "EXCH"}, {"52", "20260101-00:00:00.000"},
	})
	// corrupt a body byte without touching length, to force a checksum mismatch
	raw[len(raw)-10] ^= 0xFF

	r := NewReader()
	r.AddData(raw)
	_, err := r.ReadIncomingMessage()
	if err == nil {
		t.Fatalf("expected checksum mismatch error")
	}
}

func TestEncoder_RoundTripsThroughReader(t *testing.T) {
	region := make([]byte, 512)
	enc, err := Wrap(region, BeginStringFIX42, MsgTypeNewOrderSingle, "EXCH", "CLIENT")
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if err := enc.PutString(TagClOrdID, "O1"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if err := enc.PutString(TagSymbol, "AAPL"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if err := enc.PutString(TagSide, SideBuy); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if err := enc.PutInt(TagOrderQty, 100); err != nil {
		t.Fatalf("PutInt: %v", err)
	}
	if err := enc.PrepareForSend(2, 1_750_000_000_000); err != nil {
		t.Fatalf("PrepareForSend: %v", err)
	}

	encoded := enc.Bytes()

	r := NewReader()
	r.AddData(encoded)
	msg, err := r.ReadIncomingMessage()
	if err != nil {
		t.Fatalf("decode(encode(m)): %v", err)
	}
	if msg == nil {
		t.Fatalf("expected decoded message")
	}
	if msg.MsgSeqNum() != 2 {
		t.Errorf("MsgSeqNum = %d, want 2", msg.MsgSeqNum())
	}
	if v, _ := msg.GetString(TagClOrdID); v != "O1" {
		t.Errorf("ClOrdID = %q, want O1", v)
	}
	if v, _ := msg.GetString(TagOrderQty); v != "100" {
		t.Errorf("OrderQty = %q, want 100", v)
	}
}

func TestEncoder_PutDecimalRoundTripsThroughGetDecimal(t *testing.T) {
	region := make([]byte, 256)
	enc, _ := Wrap(region, BeginStringFIX42, MsgTypeNewOrderSingle, "EXCH", "CLIENT")
	if err := enc.PutDecimal(TagPrice, 150.75, 4); err != nil {
		t.Fatalf("PutDecimal: %v", err)
	}
	if err := enc.PrepareForSend(1, 1_750_000_000_000); err != nil {
		t.Fatalf("PrepareForSend: %v", err)
	}

	r := NewReader()
	r.AddData(enc.Bytes())
	msg, err := r.ReadIncomingMessage()
	if err != nil {
		t.Fatalf("ReadIncomingMessage: %v", err)
	}
	if v, ok := msg.GetString(TagPrice); !ok || v != "150.7500" {
		t.Errorf("wire Price = %q, %v, want 150.7500,true", v, ok)
	}
	if v, ok := msg.GetDecimal(TagPrice); !ok || v != 150.75 {
		t.Errorf("GetDecimal(Price) = %v, %v, want 150.75,true", v, ok)
	}
}

func TestReader_RejectsNegativeBodyLengthWithoutPanicking(t *testing.T) {
	raw := []byte("8=FIX.4.2\x019=-5\x0135=0\x0110=000\x01")

	r := NewReader()
	r.AddData(raw)

	msg, err := r.ReadIncomingMessage()
	if msg != nil {
		t.Fatalf("expected nil message for malformed BodyLength, got %v", msg)
	}
	if err == nil {
		t.Fatalf("expected an error for a negative BodyLength header")
	}
}

func TestReader_RejectsOversizedBodyLengthWithoutPanicking(t *testing.T) {
	raw := []byte("8=FIX.4.2\x019=99999999\x0135=0\x0110=000\x01")

	r := NewReader()
	r.AddData(raw)

	msg, err := r.ReadIncomingMessage()
	if msg != nil {
		t.Fatalf("expected nil message for oversized BodyLength, got %v", msg)
	}
	if err == nil {
		t.Fatalf("expected an error for an oversized BodyLength header")
	}
}

func TestEncoder_DuplicateTagRejected(t *testing.T) {
	region := make([]byte, 256)
	enc, _ := Wrap(region, BeginStringFIX42, MsgTypeNewOrderSingle, "EXCH", "CLIENT")
	if err := enc.PutString(TagClOrdID, "O1"); err != nil {
		t.Fatalf("first PutString: %v", err)
	}
	if err := enc.PutString(TagClOrdID, "O2"); err == nil {
		t.Fatalf("expected duplicate tag error")
	}
}
