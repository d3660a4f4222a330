// Package ilink3 implements the CME iLink 3 SBE-style codec and
// Negotiate/Establish handshake described in SPEC_FULL.md §4.3/§4.4/§6.
// Session identifiers are 16-byte UUIDs (github.com/google/uuid, wired
// per SPEC_FULL.md's DOMAIN STACK section); prices are signed 8-byte
// integers scaled by 10^9 ("PRICE9").
package ilink3

import (
	"github.com/google/uuid"

	"github.com/marketsim/exchange-sim/internal/sbe"
	"github.com/marketsim/exchange-sim/internal/wire"
)

// Template IDs, per §6.
const (
	TemplateNegotiate              = 500
	TemplateNegotiationResponse    = 501
	TemplateNegotiationReject      = 502
	TemplateEstablish              = 503
	TemplateEstablishmentAck       = 504
	TemplateEstablishmentReject    = 505
	TemplateSequence               = 506
	TemplateTerminate              = 507
	TemplateNewOrderSingle         = 514
	TemplateOrderCancelReplaceReq  = 515
	TemplateExecutionReportNew     = 532
)

const schemaID = 1
const schemaVersion = 1

func header(templateID uint16, blockLength uint16) sbe.Header {
	return sbe.Header{BlockLength: blockLength, TemplateID: templateID, SchemaID: schemaID, Version: schemaVersion}
}

// Negotiate is the initiator's handshake opener (template 500).
type Negotiate struct {
	UUID              uuid.UUID
	RequestTimestamp  uint64
	SessionID         string // fixed 20 bytes on the wire
	FirmID            string // fixed 20 bytes
	AccessKeyID       string // fixed 30 bytes
}

const (
	sessionIDLen   = 20
	firmIDLen      = 20
	accessKeyIDLen = 30
)

const negotiateBlockLen = 16 + 8 + sessionIDLen + firmIDLen + accessKeyIDLen

// EncodeNegotiate writes a length-prefixed Negotiate message into buf
// (relative, from the buffer's current position) and returns the total
// bytes written including the 2-byte length prefix and SBE header.
func EncodeNegotiate(buf *wire.Buffer, n *Negotiate) (int, error) {
	start := buf.Position()
	totalLen := 2 + sbe.HeaderLen + negotiateBlockLen
	if err := buf.PutUint16LE(uint16(totalLen)); err != nil {
		return 0, err
	}
	if err := header(TemplateNegotiate, negotiateBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	idBytes := n.UUID
	if err := buf.PutBytes(idBytes[:]); err != nil {
		return 0, err
	}
	if err := buf.PutUint64LE(n.RequestTimestamp); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(n.SessionID, sessionIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(n.FirmID, firmIDLen)); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(padRight(n.AccessKeyID, accessKeyIDLen)); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

// DecodeNegotiate parses a length-prefixed Negotiate message starting at
// buf's current relative position.
func DecodeNegotiate(buf *wire.Buffer) (*Negotiate, error) {
	if _, err := buf.GetUint16LE(); err != nil { // message length, unused here
		return nil, err
	}
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	n := &Negotiate{}
	idBytes, err := buf.GetBytes(16)
	if err != nil {
		return nil, err
	}
	copy(n.UUID[:], idBytes)
	if n.RequestTimestamp, err = buf.GetUint64LE(); err != nil {
		return nil, err
	}
	sess, err := buf.GetBytes(sessionIDLen)
	if err != nil {
		return nil, err
	}
	n.SessionID = trimRight(sess)
	firm, err := buf.GetBytes(firmIDLen)
	if err != nil {
		return nil, err
	}
	n.FirmID = trimRight(firm)
	key, err := buf.GetBytes(accessKeyIDLen)
	if err != nil {
		return nil, err
	}
	n.AccessKeyID = trimRight(key)
	return n, nil
}

// NegotiationResponse is the acceptor's reply (template 501): it echoes
// the UUID, reports the previously negotiated UUID (zero if none), and
// the previous outbound sequence number the initiator should resume
// Establish from.
type NegotiationResponse struct {
	UUID          uuid.UUID
	PreviousUUID  uuid.UUID
	PreviousSeqNo uint64
}

const negotiationResponseBlockLen = 16 + 16 + 8

func EncodeNegotiationResponse(buf *wire.Buffer, r *NegotiationResponse) (int, error) {
	start := buf.Position()
	totalLen := 2 + sbe.HeaderLen + negotiationResponseBlockLen
	if err := buf.PutUint16LE(uint16(totalLen)); err != nil {
		return 0, err
	}
	if err := header(TemplateNegotiationResponse, negotiationResponseBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(r.UUID[:]); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(r.PreviousUUID[:]); err != nil {
		return 0, err
	}
	if err := buf.PutUint64LE(r.PreviousSeqNo); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

// Establish is the initiator's session-establishment request (template
// 503), sent once NegotiationResponse has been received.
type Establish struct {
	UUID             uuid.UUID
	NextSeqNo        uint64
	KeepAliveInterval uint32
}

const establishBlockLen = 16 + 8 + 4

func EncodeEstablish(buf *wire.Buffer, e *Establish) (int, error) {
	start := buf.Position()
	totalLen := 2 + sbe.HeaderLen + establishBlockLen
	if err := buf.PutUint16LE(uint16(totalLen)); err != nil {
		return 0, err
	}
	if err := header(TemplateEstablish, establishBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(e.UUID[:]); err != nil {
		return 0, err
	}
	if err := buf.PutUint64LE(e.NextSeqNo); err != nil {
		return 0, err
	}
	if err := buf.PutUint32LE(e.KeepAliveInterval); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func DecodeEstablish(buf *wire.Buffer) (*Establish, error) {
	if _, err := buf.GetUint16LE(); err != nil {
		return nil, err
	}
	if _, err := sbe.Decode(buf); err != nil {
		return nil, err
	}
	e := &Establish{}
	idBytes, err := buf.GetBytes(16)
	if err != nil {
		return nil, err
	}
	copy(e.UUID[:], idBytes)
	if e.NextSeqNo, err = buf.GetUint64LE(); err != nil {
		return nil, err
	}
	if e.KeepAliveInterval, err = buf.GetUint32LE(); err != nil {
		return nil, err
	}
	return e, nil
}

// EstablishmentAck is the acceptor's confirmation (template 504).
type EstablishmentAck struct {
	UUID              uuid.UUID
	LastIncomingSeqNo uint64
	LastOutgoingSeqNo uint64
}

const establishmentAckBlockLen = 16 + 8 + 8

func EncodeEstablishmentAck(buf *wire.Buffer, a *EstablishmentAck) (int, error) {
	start := buf.Position()
	totalLen := 2 + sbe.HeaderLen + establishmentAckBlockLen
	if err := buf.PutUint16LE(uint16(totalLen)); err != nil {
		return 0, err
	}
	if err := header(TemplateEstablishmentAck, establishmentAckBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(a.UUID[:]); err != nil {
		return 0, err
	}
	if err := buf.PutUint64LE(a.LastIncomingSeqNo); err != nil {
		return 0, err
	}
	if err := buf.PutUint64LE(a.LastOutgoingSeqNo); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

// Terminate (template 507) ends the session.
type Terminate struct {
	UUID       uuid.UUID
	ReasonCode uint32
}

const terminateBlockLen = 16 + 4

func EncodeTerminate(buf *wire.Buffer, t *Terminate) (int, error) {
	start := buf.Position()
	totalLen := 2 + sbe.HeaderLen + terminateBlockLen
	if err := buf.PutUint16LE(uint16(totalLen)); err != nil {
		return 0, err
	}
	if err := header(TemplateTerminate, terminateBlockLen).Encode(buf); err != nil {
		return 0, err
	}
	if err := buf.PutBytes(t.UUID[:]); err != nil {
		return 0, err
	}
	if err := buf.PutUint32LE(t.ReasonCode); err != nil {
		return 0, err
	}
	return buf.Position() - start, nil
}

func padRight(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

func trimRight(b []byte) string {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return string(b[:i])
}
