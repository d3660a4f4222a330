package fix

import (
	"fmt"
	"strconv"
)

// fieldPos is a tag's value region, as a half-open byte range into the
// owning Message's raw slice.
type fieldPos struct {
	start, end int
}

// Message is a read-only view over one complete FIX message:
// tag -> [valueStart, valueEnd) positions into the original bytes, plus
// cached header tags for fast access on the hot decode path. GetBytes
// returns sub-slices of raw without copying; GetString and the cached
// header values are string copies.
type Message struct {
	raw    []byte
	fields map[int]fieldPos
	order  []int

	// cached header tags, per §4.3: 8, 9, 34, 35, 49, 52, 56, 1128, 1137
	beginString string
	bodyLength  int
	msgSeqNum   int64
	msgType     string
	senderCompID string
	sendingTime string
	targetCompID string
	applVerID   string
	defaultApplVerID string
}

// Raw returns the full message bytes including the trailing SOH after
// the checksum field.
func (m *Message) Raw() []byte { return m.raw }

func (m *Message) BeginString() string  { return m.beginString }
func (m *Message) BodyLength() int      { return m.bodyLength }
func (m *Message) MsgSeqNum() int64     { return m.msgSeqNum }
func (m *Message) MsgType() string      { return m.msgType }
func (m *Message) SenderCompID() string { return m.senderCompID }
func (m *Message) TargetCompID() string { return m.targetCompID }
func (m *Message) SendingTime() string  { return m.sendingTime }

// Has reports whether tag is present in the message.
func (m *Message) Has(tag int) bool {
	_, ok := m.fields[tag]
	return ok
}

// GetString returns the value of tag as a string and whether it was
// present. The returned string aliases the underlying buffer's bytes
// only through the Go string conversion, which copies per Go's string
// semantics — callers needing true zero-copy access should use
// GetBytes.
func (m *Message) GetString(tag int) (string, bool) {
	p, ok := m.fields[tag]
	if !ok {
		return "", false
	}
	return string(m.raw[p.start:p.end]), true
}

// GetBytes returns the value of tag as a slice aliasing the message's
// backing array, with no copy.
func (m *Message) GetBytes(tag int) ([]byte, bool) {
	p, ok := m.fields[tag]
	if !ok {
		return nil, false
	}
	return m.raw[p.start:p.end], true
}

// GetInt parses the value of tag as a base-10 integer, walking the bytes
// directly without an intermediate string allocation.
func (m *Message) GetInt(tag int) (int64, bool) {
	p, ok := m.fields[tag]
	if !ok {
		return 0, false
	}
	return parseInt(m.raw[p.start:p.end]), true
}

// parseInt walks ASCII digit bytes directly; used by both header caching
// and GetInt so no intermediate string/allocation is needed on the
// decode hot path.
func parseInt(b []byte) int64 {
	neg := false
	i := 0
	if len(b) > 0 && (b[0] == '-' || b[0] == '+') {
		neg = b[0] == '-'
		i = 1
	}
	var v int64
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + int64(c-'0')
	}
	if neg {
		v = -v
	}
	return v
}

// GetDecimal parses the value of tag as a FIX decimal (e.g. "150.75" or
// "-2.5"), walking the bytes directly without an intermediate string
// allocation, per §4.3's decimal-parsing requirement.
func (m *Message) GetDecimal(tag int) (float64, bool) {
	p, ok := m.fields[tag]
	if !ok {
		return 0, false
	}
	return parseDecimal(m.raw[p.start:p.end]), true
}

// parseDecimal walks ASCII digits and an optional '.' directly, the
// decimal counterpart to parseInt.
func parseDecimal(b []byte) float64 {
	neg := false
	i := 0
	if len(b) > 0 && (b[0] == '-' || b[0] == '+') {
		neg = b[0] == '-'
		i = 1
	}
	var intPart int64
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			break
		}
		intPart = intPart*10 + int64(c-'0')
	}
	v := float64(intPart)
	if i < len(b) && b[i] == '.' {
		i++
		frac := 0.0
		scale := 1.0
		for ; i < len(b); i++ {
			c := b[i]
			if c < '0' || c > '9' {
				break
			}
			frac = frac*10 + float64(c-'0')
			scale *= 10
		}
		v += frac / scale
	}
	if neg {
		v = -v
	}
	return v
}

// Tags returns the tags present, in wire order.
func (m *Message) Tags() []int { return m.order }

func (m *Message) String() string {
	return fmt.Sprintf("FIX{%s seq=%d type=%s}", m.beginString, m.msgSeqNum, m.msgType)
}

// parseMessage splits a complete message (as delimited by the reader)
// into its tag->value index and caches the header tags used throughout
// the session runtime.
func parseMessage(raw []byte) (*Message, error) {
	m := &Message{raw: raw, fields: make(map[int]fieldPos, 24)}

	start := 0
	for start < len(raw) {
		eq := indexByte(raw[start:], '=')
		if eq < 0 {
			return nil, fmt.Errorf("fix: malformed field at offset %d (no '=')", start)
		}
		eq += start
		tagStr := raw[start:eq]
		tag, err := strconv.Atoi(string(tagStr))
		if err != nil {
			return nil, fmt.Errorf("fix: malformed tag %q: %w", tagStr, err)
		}

		soh := indexByte(raw[eq+1:], SOH)
		if soh < 0 {
			return nil, fmt.Errorf("fix: unterminated field, tag %d", tag)
		}
		soh += eq + 1

		m.fields[tag] = fieldPos{start: eq + 1, end: soh}
		m.order = append(m.order, tag)

		switch tag {
		case TagBeginString:
			m.beginString = string(raw[eq+1 : soh])
		case TagBodyLength:
			m.bodyLength = int(parseInt(raw[eq+1 : soh]))
		case TagMsgSeqNum:
			m.msgSeqNum = parseInt(raw[eq+1 : soh])
		case TagMsgType:
			m.msgType = string(raw[eq+1 : soh])
		case TagSenderCompID:
			m.senderCompID = string(raw[eq+1 : soh])
		case TagTargetCompID:
			m.targetCompID = string(raw[eq+1 : soh])
		case TagSendingTime:
			m.sendingTime = string(raw[eq+1 : soh])
		case TagApplVerID:
			m.applVerID = string(raw[eq+1 : soh])
		case TagDefaultApplVerID:
			m.defaultApplVerID = string(raw[eq+1 : soh])
		}

		start = soh + 1
	}
	return m, nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
