// Package rsrc parses the resource-fork style container used by VI files and
// extracts individual chunks from it. Every function works on one immutable
// byte buffer holding the whole file; returned payloads are views into that
// buffer unless they had to be inflated.
//
// The layout is:
//   - a 32 byte header (magic, rsrcOffset, rsrcSize, dataOffset, dataSize),
//     repeated byte for byte at rsrcOffset
//   - a 20 byte resource info record after the duplicate header
//   - the chunk count (stored as count-1) followed by 12 byte directory entries
//   - 20 byte chunk info records pointing at length-prefixed chunk data
//
// All integers are unsigned 32-bit big-endian.
package rsrc

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	vierrors "github.com/flaneur2020/vi-get/viget/errors"
)

const (
	// HeaderSize is the size of both copies of the container header.
	HeaderSize = 32
	// MagicSize is the length of the signature leading each header.
	MagicSize = 16
)

// Magic is the only container signature recognized.
var Magic = [MagicSize]byte{
	0x52, 0x53, 0x52, 0x43, // RSRC
	0x0D, 0x0A, 0x00, 0x03,
	0x4C, 0x56, 0x49, 0x4E, // LVIN
	0x4C, 0x42, 0x56, 0x57, // LBVW
}

// Header is the validated container header.
type Header struct {
	Magic      [MagicSize]byte
	RsrcOffset uint32
	RsrcSize   uint32
	// DataOffset is always observed to be 32 but is not enforced.
	DataOffset uint32
	DataSize   uint32
}

// ExpectedLength is the total file length the header declares.
func (h *Header) ExpectedLength() int64 {
	return HeaderSize + int64(h.RsrcSize) + int64(h.DataSize)
}

// ParseHeader validates the primary header at offset 0 against the magic
// signature, the duplicate header at RsrcOffset and the total buffer length.
func ParseHeader(buf []byte) (*Header, error) {
	primary, ok := section(buf, 0, HeaderSize)
	if !ok {
		return nil, vierrors.ErrFormat.WithMessage("buffer too short for header").
			WithMismatch(HeaderSize, len(buf))
	}

	if !bytes.Equal(primary[:MagicSize], Magic[:]) {
		return nil, vierrors.ErrFormat.WithMessage("magic mismatch").
			WithMismatch(hex.EncodeToString(Magic[:]), hex.EncodeToString(primary[:MagicSize]))
	}

	h := &Header{
		RsrcOffset: be32(primary, 16),
		RsrcSize:   be32(primary, 20),
		DataOffset: be32(primary, 24),
		DataSize:   be32(primary, 28),
	}
	copy(h.Magic[:], primary[:MagicSize])

	duplicate, ok := section(buf, int64(h.RsrcOffset), HeaderSize)
	if !ok {
		return nil, vierrors.ErrIntegrity.WithMessage("duplicate header out of bounds").
			WithDetail("offset", h.RsrcOffset).
			WithDetail("bufferLength", len(buf))
	}
	if !bytes.Equal(primary, duplicate) {
		return nil, vierrors.ErrIntegrity.WithMessage("duplicate header mismatch").
			WithDetail("offset", h.RsrcOffset).
			WithMismatch(hex.EncodeToString(primary), hex.EncodeToString(duplicate))
	}

	if expected := h.ExpectedLength(); expected != int64(len(buf)) {
		return nil, vierrors.ErrIntegrity.WithMessage("length mismatch").
			WithMismatch(expected, int64(len(buf)))
	}

	return h, nil
}

func be32(b []byte, off int) uint32 {
	return binary.BigEndian.Uint32(b[off : off+4])
}

// section returns buf[off:off+n] when that range lies inside buf.
func section(buf []byte, off, n int64) ([]byte, bool) {
	if off < 0 || n < 0 || off > int64(len(buf)) || n > int64(len(buf))-off {
		return nil, false
	}
	return buf[off : off+n], true
}
