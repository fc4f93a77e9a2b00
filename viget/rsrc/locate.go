package rsrc

import (
	vierrors "github.com/flaneur2020/vi-get/viget/errors"
)

const lengthFieldSize = 4

// Location is a resolved chunk: where its length-prefixed data starts and
// the span of its payload.
type Location struct {
	Tag   Tag
	Index int
	// DataOffset is the absolute offset of the 4 byte length prefix.
	DataOffset int64
	// Offset is the absolute offset of the payload, DataOffset+4.
	Offset int64
	Length uint32
}

// End is the absolute offset one past the payload.
func (l Location) End() int64 {
	return l.Offset + int64(l.Length)
}

// LocateChunk resolves the first entry tagged tag, in directory order.
func LocateChunk(buf []byte, h *Header, entries []Entry, tag Tag) (Location, error) {
	loc, _, err := LocateChunkFrom(buf, h, entries, tag, 0)
	return loc, err
}

// LocateChunkFrom resolves the first entry tagged tag at index start or
// later, returning its location and index. Passing index+1 back in walks
// every entry sharing a tag.
func LocateChunkFrom(buf []byte, h *Header, entries []Entry, tag Tag, start int) (Location, int, error) {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(entries); i++ {
		if entries[i].Tag != tag {
			continue
		}
		loc, err := resolveEntry(buf, h, entries[i])
		if err != nil {
			return Location{}, -1, err
		}
		return loc, i, nil
	}
	return Location{}, -1, vierrors.ErrChunkNotFound.
		WithDetail("tag", tag.String()).
		WithDetail("start", start)
}

// LocateAll resolves every entry tagged tag, in directory order.
func LocateAll(buf []byte, h *Header, entries []Entry, tag Tag) ([]Location, error) {
	var locs []Location
	for i := 0; ; i++ {
		loc, idx, err := LocateChunkFrom(buf, h, entries, tag, i)
		if err != nil {
			if len(locs) > 0 && vierrors.GetErrorCode(err) == vierrors.CodeChunkNotFound {
				return locs, nil
			}
			return nil, err
		}
		locs = append(locs, loc)
		i = idx
	}
}

// Payload returns the chunk payload at loc as a view into buf.
func Payload(buf []byte, loc Location) ([]byte, error) {
	p, ok := section(buf, loc.Offset, int64(loc.Length))
	if !ok {
		return nil, outOfBounds(loc, buf)
	}
	return p, nil
}

func resolveEntry(buf []byte, h *Header, e Entry) (Location, error) {
	infoOffset := resolveInfoOffset(h, e)
	info, ok := section(buf, infoOffset, InfoRecordSize)
	if !ok {
		return Location{}, vierrors.ErrIntegrity.WithMessage("chunk info out of bounds").
			WithDetail("tag", e.Tag.String()).
			WithDetail("index", e.Index).
			WithDetail("offset", infoOffset).
			WithDetail("bufferLength", len(buf))
	}

	loc := Location{
		Tag:        e.Tag,
		Index:      e.Index,
		DataOffset: resolveDataOffset(info),
	}
	loc.Offset = loc.DataOffset + lengthFieldSize

	lengthField, ok := section(buf, loc.DataOffset, lengthFieldSize)
	if !ok {
		return Location{}, outOfBounds(loc, buf)
	}
	loc.Length = be32(lengthField, 0)

	if _, ok := section(buf, loc.Offset, int64(loc.Length)); !ok {
		return Location{}, outOfBounds(loc, buf)
	}
	return loc, nil
}

// resolveInfoOffset turns an entry's info offset, which is relative to the
// end of the duplicate header, into an absolute offset.
func resolveInfoOffset(h *Header, e Entry) int64 {
	return int64(e.InfoOffset) + int64(h.RsrcOffset) + HeaderSize
}

// resolveDataOffset turns the chunk info record's field at offset 12, which
// is relative to the end of the primary header, into the absolute offset of
// the chunk's length prefix.
func resolveDataOffset(info []byte) int64 {
	return int64(be32(info, infoFieldOffset)) + HeaderSize
}

func outOfBounds(loc Location, buf []byte) *vierrors.VIError {
	return vierrors.ErrIntegrity.WithMessage("chunk payload out of bounds").
		WithDetail("tag", loc.Tag.String()).
		WithDetail("index", loc.Index).
		WithDetail("offset", loc.DataOffset).
		WithDetail("length", loc.Length).
		WithDetail("bufferLength", len(buf))
}
