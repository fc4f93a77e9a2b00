package rsrc

import (
	"fmt"

	vierrors "github.com/flaneur2020/vi-get/viget/errors"
)

const (
	// InfoRecordSize is the size of both the resource info record and each
	// chunk info record.
	InfoRecordSize = 20
	// EntrySize is the size of one chunk directory entry.
	EntrySize = 12

	countFieldSize  = 4
	infoFieldOffset = 12
)

// Tag is the four character chunk identifier.
type Tag [4]byte

// ParseTag converts a four character ASCII string into a Tag.
func ParseTag(s string) (Tag, error) {
	var t Tag
	if len(s) != len(t) {
		return t, vierrors.ErrFormat.WithMessage("invalid chunk tag").
			WithDetail("tag", s).
			WithMismatch(len(t), len(s))
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return t, vierrors.ErrFormat.WithMessage("invalid chunk tag").
				WithDetail("tag", s).
				WithDetail("reason", "non-ASCII byte")
		}
		t[i] = s[i]
	}
	return t, nil
}

// MustParseTag is like ParseTag but panics on error.
func MustParseTag(s string) Tag {
	t, err := ParseTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Tag) String() string {
	return string(t[:])
}

// Entry is one chunk directory entry. Tags are not unique across entries.
type Entry struct {
	Tag       Tag
	InfoCount uint32
	// InfoOffset is relative; see resolveInfoOffset.
	InfoOffset uint32
	// Index is the position of the entry in directory order.
	Index int
}

// ReadDirectory reads the chunk directory that follows the resource info
// record, returning its entries in file order.
func ReadDirectory(buf []byte, h *Header) ([]Entry, error) {
	infoStart := int64(h.RsrcOffset) + HeaderSize
	info, ok := section(buf, infoStart, InfoRecordSize)
	if !ok {
		return nil, truncated("resource info", infoStart, InfoRecordSize, buf)
	}

	countOffset := resolveChunkCountOffset(h, info)
	countField, ok := section(buf, countOffset, countFieldSize)
	if !ok {
		return nil, truncated("chunk count", countOffset, countFieldSize, buf)
	}

	// The format stores the number of chunks minus one.
	count := int64(be32(countField, 0)) + 1

	entriesStart := countOffset + countFieldSize
	raw, ok := section(buf, entriesStart, count*EntrySize)
	if !ok {
		return nil, truncated("directory entries", entriesStart, count*EntrySize, buf).
			WithDetail("count", count)
	}

	entries := make([]Entry, count)
	for i := range entries {
		rec := raw[i*EntrySize : (i+1)*EntrySize]
		copy(entries[i].Tag[:], rec[0:4])
		entries[i].InfoCount = be32(rec, 4)
		entries[i].InfoOffset = be32(rec, 8)
		entries[i].Index = i
	}
	return entries, nil
}

// resolveChunkCountOffset locates the chunk count field. The info record's
// field at offset 12 is relative to rsrcOffset, not to the primary header as
// some format notes claim. It always resolves to rsrcOffset+52 in observed
// files but is read rather than assumed so that a variant layout is caught
// by the bounds checks instead of being misparsed.
func resolveChunkCountOffset(h *Header, info []byte) int64 {
	return int64(be32(info, infoFieldOffset)) + int64(h.RsrcOffset)
}

func truncated(what string, off, n int64, buf []byte) *vierrors.VIError {
	return vierrors.ErrIntegrity.WithMessage("truncated directory").
		WithDetail("section", what).
		WithDetail("offset", off).
		WithDetail("length", n).
		WithDetail("bufferLength", len(buf))
}

func (e Entry) String() string {
	return fmt.Sprintf("%s#%d(info=%d, count=%d)", e.Tag, e.Index, e.InfoOffset, e.InfoCount)
}
