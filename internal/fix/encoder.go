package fix

import (
	"fmt"
	"strconv"
	"time"

	"github.com/marketsim/exchange-sim/internal/wire"
)

// bodyLengthWidth / seqNumWidth / sendingTimeWidth are the fixed-width
// reserved slots the header pre-lays so PrepareForSend can patch them in
// place without shifting any bytes written after them, per §4.3.
const (
	bodyLengthWidth  = 5
	seqNumWidth      = 8
	sendingTimeWidth = 21 // "YYYYMMDD-HH:MM:SS.sss"
)

// Encoder is a direct-buffer FIX writer. It wraps an existing byte
// region (typically a ring.Claim's Buf) and writes the constant header
// prefix on Wrap, application fields via PutString/PutInt, and patches
// the length-dependent header fields (BodyLength, MsgSeqNum,
// SendingTime) plus the trailing checksum on PrepareForSend.
type Encoder struct {
	buf  *wire.Buffer
	seen map[int]bool

	bodyLenOffset     int // offset of the 5-digit BodyLength placeholder
	bodyStartOffset   int // offset right after "9=NNNNN<SOH>" -- BodyLength counts from here
	seqNumOffset      int // offset of the 8-digit MsgSeqNum placeholder
	sendingTimeOffset int // offset of the 21-char SendingTime placeholder
}

// ErrDuplicateTag is returned by PutString/PutInt when a tag has already
// been written to this message.
type ErrDuplicateTag int

func (e ErrDuplicateTag) Error() string {
	return fmt.Sprintf("fix: duplicate tag %d in one message", int(e))
}

// Wrap begins encoding a new message into region, pre-laying the
// constant header prefix and reserving fixed-width slots for the fields
// that can only be known once the whole message has been written.
func Wrap(region []byte, beginString, msgType, senderCompID, targetCompID string) (*Encoder, error) {
	e := &Encoder{buf: wire.Wrap(region), seen: make(map[int]bool, 16)}

	if err := e.putRaw(TagBeginString, beginString); err != nil {
		return nil, err
	}

	// Reserve "9=NNNNN<SOH>".
	if err := e.buf.PutBytes([]byte("9=")); err != nil {
		return nil, err
	}
	e.bodyLenOffset = e.buf.Position()
	if err := e.buf.PutBytes(make([]byte, bodyLengthWidth)); err != nil {
		return nil, err
	}
	if err := e.buf.PutUint8(SOH); err != nil {
		return nil, err
	}
	e.bodyStartOffset = e.buf.Position()

	if err := e.putRaw(TagMsgType, msgType); err != nil {
		return nil, err
	}

	// Reserve "34=NNNNNNNN<SOH>".
	if err := e.buf.PutBytes([]byte("34=")); err != nil {
		return nil, err
	}
	e.seqNumOffset = e.buf.Position()
	if err := e.buf.PutBytes(make([]byte, seqNumWidth)); err != nil {
		return nil, err
	}
	if err := e.buf.PutUint8(SOH); err != nil {
		return nil, err
	}

	if err := e.putRaw(TagSenderCompID, senderCompID); err != nil {
		return nil, err
	}
	if err := e.putRaw(TagTargetCompID, targetCompID); err != nil {
		return nil, err
	}

	// Reserve "52=YYYYMMDD-HH:MM:SS.sss<SOH>".
	if err := e.buf.PutBytes([]byte("52=")); err != nil {
		return nil, err
	}
	e.sendingTimeOffset = e.buf.Position()
	if err := e.buf.PutBytes(make([]byte, sendingTimeWidth)); err != nil {
		return nil, err
	}
	if err := e.buf.PutUint8(SOH); err != nil {
		return nil, err
	}

	e.seen[TagBeginString] = true
	e.seen[TagBodyLength] = true
	e.seen[TagMsgType] = true
	e.seen[TagMsgSeqNum] = true
	e.seen[TagSenderCompID] = true
	e.seen[TagTargetCompID] = true
	e.seen[TagSendingTime] = true

	return e, nil
}

func (e *Encoder) putRaw(tag int, value string) error {
	if err := e.buf.PutBytes([]byte(fmt.Sprintf("%d=%s", tag, value))); err != nil {
		return err
	}
	return e.buf.PutUint8(SOH)
}

// PutString appends an application field "tag=value<SOH>". Returns
// ErrDuplicateTag if tag was already written to this message.
func (e *Encoder) PutString(tag int, value string) error {
	if e.seen[tag] {
		return ErrDuplicateTag(tag)
	}
	e.seen[tag] = true
	return e.putRaw(tag, value)
}

// PutInt appends an integer-valued application field.
func (e *Encoder) PutInt(tag int, value int64) error {
	return e.PutString(tag, fmt.Sprintf("%d", value))
}

// PutDecimal appends a decimal-valued application field (e.g. Price,
// LastPx, AvgPx) formatted with a fixed number of digits after the
// decimal point, per §4.3's decimal-encoding requirement.
func (e *Encoder) PutDecimal(tag int, value float64, scale int) error {
	return e.PutString(tag, strconv.FormatFloat(value, 'f', scale, 64))
}

// PrepareForSend patches MsgSeqNum, SendingTime, BodyLength and the
// trailing CheckSum, per §4.3. nowMillis is supplied by the caller (not
// read from the system clock here) so tests can exercise non-monotonic
// SendingTime per the open question in SPEC_FULL.md §9.
func (e *Encoder) PrepareForSend(seqNum uint64, nowMillis int64) error {
	seqStr := fmt.Sprintf("%0*d", seqNumWidth, seqNum)
	if len(seqStr) > seqNumWidth {
		return fmt.Errorf("fix: MsgSeqNum %d overflows %d-digit field", seqNum, seqNumWidth)
	}
	copy(e.buf.Bytes()[e.seqNumOffset:e.seqNumOffset+seqNumWidth], seqStr)

	t := time.UnixMilli(nowMillis).UTC()
	sendingTime := t.Format(FixTimeFormat)
	if len(sendingTime) != sendingTimeWidth {
		return fmt.Errorf("fix: formatted SendingTime %q is not %d chars", sendingTime, sendingTimeWidth)
	}
	copy(e.buf.Bytes()[e.sendingTimeOffset:e.sendingTimeOffset+sendingTimeWidth], sendingTime)

	endOfBody := e.buf.Position()
	bodyLen := endOfBody - e.bodyStartOffset
	bodyLenStr := fmt.Sprintf("%0*d", bodyLengthWidth, bodyLen)
	if len(bodyLenStr) > bodyLengthWidth {
		return fmt.Errorf("fix: BodyLength %d overflows %d-digit field", bodyLen, bodyLengthWidth)
	}
	copy(e.buf.Bytes()[e.bodyLenOffset:e.bodyLenOffset+bodyLengthWidth], bodyLenStr)

	var sum byte
	for _, b := range e.buf.Bytes()[:endOfBody] {
		sum += b
	}
	checksumField := fmt.Sprintf("10=%03d", sum)
	if err := e.buf.PutBytes([]byte(checksumField)); err != nil {
		return err
	}
	if err := e.buf.PutUint8(SOH); err != nil {
		return err
	}
	return nil
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return e.buf.Position() }

// Bytes returns the encoded message (valid only after PrepareForSend).
func (e *Encoder) Bytes() []byte { return e.buf.Bytes()[:e.buf.Position()] }
