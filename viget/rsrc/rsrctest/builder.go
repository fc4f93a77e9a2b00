// Package rsrctest builds well-formed synthetic containers for tests.
package rsrctest

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zlib"
)

var magic = []byte{
	0x52, 0x53, 0x52, 0x43, 0x0D, 0x0A, 0x00, 0x03,
	0x4C, 0x56, 0x49, 0x4E, 0x4C, 0x42, 0x56, 0x57,
}

// Chunk is one directory entry and its payload.
type Chunk struct {
	Tag     string
	Payload []byte
}

// Container is a built container and the absolute offsets of its records,
// so tests can corrupt specific fields.
type Container struct {
	Bytes []byte

	RsrcOffset  int
	InfoOffset  int // resource info record
	CountOffset int
	EntryOffset int // first directory entry
	// ChunkInfoOffsets and DataOffsets are indexed like the input chunks.
	ChunkInfoOffsets []int
	DataOffsets      []int
}

// Build lays out the chunks as: header, chunk data, duplicate header,
// resource info, chunk count, directory entries, chunk info records.
// At least one chunk is required since the count is stored as count-1.
func Build(chunks ...Chunk) *Container {
	if len(chunks) == 0 {
		panic("rsrctest: at least one chunk is required")
	}

	c := &Container{}

	var data bytes.Buffer
	for _, ch := range chunks {
		c.DataOffsets = append(c.DataOffsets, 32+data.Len())
		data.Write(be32(uint32(len(ch.Payload))))
		data.Write(ch.Payload)
	}

	n := len(chunks)
	dataSize := data.Len()
	rsrcSize := 32 + 20 + 4 + 12*n + 20*n
	c.RsrcOffset = 32 + dataSize
	c.InfoOffset = c.RsrcOffset + 32
	c.CountOffset = c.InfoOffset + 20
	c.EntryOffset = c.CountOffset + 4
	for i := range chunks {
		c.ChunkInfoOffsets = append(c.ChunkInfoOffsets, c.EntryOffset+12*n+20*i)
	}

	header := make([]byte, 0, 32)
	header = append(header, magic...)
	header = append(header, be32(uint32(c.RsrcOffset))...)
	header = append(header, be32(uint32(rsrcSize))...)
	header = append(header, be32(32)...)
	header = append(header, be32(uint32(dataSize))...)

	var out bytes.Buffer
	out.Write(header)
	out.Write(data.Bytes())
	out.Write(header)

	info := make([]byte, 20)
	binary.BigEndian.PutUint32(info[12:], uint32(c.CountOffset-c.RsrcOffset))
	out.Write(info)

	out.Write(be32(uint32(n - 1)))

	for i, ch := range chunks {
		entry := make([]byte, 12)
		copy(entry[0:4], ch.Tag)
		binary.BigEndian.PutUint32(entry[8:], uint32(c.ChunkInfoOffsets[i]-c.RsrcOffset-32))
		out.Write(entry)
	}

	for i := range chunks {
		rec := make([]byte, 20)
		binary.BigEndian.PutUint32(rec[12:], uint32(c.DataOffsets[i]-32))
		out.Write(rec)
	}

	c.Bytes = out.Bytes()
	return c
}

// PutUint32 overwrites the big-endian field at off.
func (c *Container) PutUint32(off int, v uint32) {
	binary.BigEndian.PutUint32(c.Bytes[off:off+4], v)
}

// Uint32 reads the big-endian field at off.
func (c *Container) Uint32(off int) uint32 {
	return binary.BigEndian.Uint32(c.Bytes[off : off+4])
}

// CompressedPayload encodes plain the way compressed chunks are stored:
// BE32(len+4) followed by zlib(BE32(len) || plain).
func CompressedPayload(plain []byte) []byte {
	return CompressedPayloadWithSizes(plain, uint32(len(plain)+4), uint32(len(plain)))
}

// CompressedPayloadWithSizes is CompressedPayload with explicit outer and
// inner length fields.
func CompressedPayloadWithSizes(plain []byte, outer, inner uint32) []byte {
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write(be32(inner))
	zw.Write(plain)
	zw.Close()

	return append(be32(outer), z.Bytes()...)
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
