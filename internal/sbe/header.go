// Package sbe implements the small SBE-style message header shared by
// the iLink 3, Optiq and Pillar codecs (internal/ilink3, internal/optiq,
// internal/pillar): an 8-byte header (blockLength, templateId,
// schemaId, version), which iLink 3 precedes with a 2-byte message
// length prefix while Optiq and Pillar frames start with it, per
// SPEC_FULL.md §4.3/§6. Grounded the same way internal/wire is: no
// teacher analogue exists in the pack for a binary SBE protocol, so this
// follows the spec's wire tables directly.
package sbe

import "github.com/marketsim/exchange-sim/internal/wire"

// HeaderLen is the fixed 8-byte SBE message header length (not counting
// the 2-byte message length prefix that precedes it on iLink 3's wire).
const HeaderLen = 8

// Header is the template discriminator every SBE-family message starts
// with.
type Header struct {
	BlockLength uint16
	TemplateID  uint16
	SchemaID    uint16
	Version     uint16
}

// Encode writes the header's four fields, little-endian, at the
// buffer's current relative position.
func (h Header) Encode(buf *wire.Buffer) error {
	if err := buf.PutUint16LE(h.BlockLength); err != nil {
		return err
	}
	if err := buf.PutUint16LE(h.TemplateID); err != nil {
		return err
	}
	if err := buf.PutUint16LE(h.SchemaID); err != nil {
		return err
	}
	return buf.PutUint16LE(h.Version)
}

// Decode reads a Header from the buffer's current relative position,
// advancing it by HeaderLen.
func Decode(buf *wire.Buffer) (Header, error) {
	var h Header
	var err error
	if h.BlockLength, err = buf.GetUint16LE(); err != nil {
		return h, err
	}
	if h.TemplateID, err = buf.GetUint16LE(); err != nil {
		return h, err
	}
	if h.SchemaID, err = buf.GetUint16LE(); err != nil {
		return h, err
	}
	if h.Version, err = buf.GetUint16LE(); err != nil {
		return h, err
	}
	return h, nil
}

// PeekTemplateID reads just the templateId (the second header field)
// without disturbing buf's position, for dispatch-on-decode.
func PeekTemplateID(buf *wire.Buffer) (uint16, error) {
	return buf.GetUint16LEAt(buf.Position() + 2)
}
