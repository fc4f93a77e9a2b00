package rsrc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vierrors "github.com/flaneur2020/vi-get/viget/errors"
	"github.com/flaneur2020/vi-get/viget/rsrc/rsrctest"
)

func openBuilt(t *testing.T, c *rsrctest.Container) (*Header, []Entry) {
	t.Helper()

	h, err := ParseHeader(c.Bytes)
	require.NoError(t, err)
	entries, err := ReadDirectory(c.Bytes, h)
	require.NoError(t, err)
	return h, entries
}

func TestLocateChunk_NotFound(t *testing.T) {
	c := rsrctest.Build(
		rsrctest.Chunk{Tag: "LVSR", Payload: []byte("v")},
		rsrctest.Chunk{Tag: "BDSE", Payload: []byte("b")},
	)
	h, entries := openBuilt(t, c)

	_, err := LocateChunk(c.Bytes, h, entries, MustParseTag("FPSE"))
	viErr := requireVIError(t, err, vierrors.ErrChunkNotFound, "chunk not found")
	assert.Equal(t, "FPSE", viErr.Details["tag"])
}

func TestLocateChunk_SingleMatch(t *testing.T) {
	c := rsrctest.Build(
		rsrctest.Chunk{Tag: "LVSR", Payload: []byte("version")},
		rsrctest.Chunk{Tag: "FPSE", Payload: []byte("front panel")},
		rsrctest.Chunk{Tag: "BDSE", Payload: []byte("block diagram")},
	)
	h, entries := openBuilt(t, c)

	loc, err := LocateChunk(c.Bytes, h, entries, MustParseTag("FPSE"))
	require.NoError(t, err)

	assert.Equal(t, 1, loc.Index)
	assert.Equal(t, int64(c.DataOffsets[1]), loc.DataOffset)
	assert.Equal(t, int64(c.DataOffsets[1]+4), loc.Offset)
	assert.Equal(t, uint32(len("front panel")), loc.Length)
	assert.Equal(t, loc.Offset+int64(loc.Length), loc.End())

	payload, err := Payload(c.Bytes, loc)
	require.NoError(t, err)
	assert.Equal(t, []byte("front panel"), payload)
}

func TestLocateChunk_DuplicateTagsReturnFirst(t *testing.T) {
	c := rsrctest.Build(
		rsrctest.Chunk{Tag: "LIbd", Payload: []byte("first")},
		rsrctest.Chunk{Tag: "OTHR", Payload: []byte("other")},
		rsrctest.Chunk{Tag: "LIbd", Payload: []byte("second")},
	)
	h, entries := openBuilt(t, c)
	tag := MustParseTag("LIbd")

	loc, err := LocateChunk(c.Bytes, h, entries, tag)
	require.NoError(t, err)
	payload, err := Payload(c.Bytes, loc)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), payload)

	next, idx, err := LocateChunkFrom(c.Bytes, h, entries, tag, loc.Index+1)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	payload, err = Payload(c.Bytes, next)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), payload)

	_, _, err = LocateChunkFrom(c.Bytes, h, entries, tag, idx+1)
	requireVIError(t, err, vierrors.ErrChunkNotFound, "chunk not found")

	all, err := LocateAll(c.Bytes, h, entries, tag)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 0, all[0].Index)
	assert.Equal(t, 2, all[1].Index)
}

func TestLocateAll_NoMatch(t *testing.T) {
	c := rsrctest.Build(rsrctest.Chunk{Tag: "ABCD"})
	h, entries := openBuilt(t, c)

	_, err := LocateAll(c.Bytes, h, entries, MustParseTag("WXYZ"))
	requireVIError(t, err, vierrors.ErrChunkNotFound, "chunk not found")
}

func TestLocateChunk_ZeroLengthPayload(t *testing.T) {
	c := rsrctest.Build(rsrctest.Chunk{Tag: "ABCD"})
	h, entries := openBuilt(t, c)
	require.Len(t, entries, 1)

	loc, err := LocateChunk(c.Bytes, h, entries, MustParseTag("ABCD"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), loc.Length)

	payload, err := Payload(c.Bytes, loc)
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestLocateChunk_Corruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(c *rsrctest.Container)
		message string
	}{
		{
			name:    "length past end",
			corrupt: func(c *rsrctest.Container) { c.PutUint32(c.DataOffsets[0], uint32(len(c.Bytes))) },
			message: "chunk payload out of bounds",
		},
		{
			name:    "maximum length",
			corrupt: func(c *rsrctest.Container) { c.PutUint32(c.DataOffsets[0], 0xffffffff) },
			message: "chunk payload out of bounds",
		},
		{
			name:    "data offset past end",
			corrupt: func(c *rsrctest.Container) { c.PutUint32(c.ChunkInfoOffsets[0]+12, 0xfffffff0) },
			message: "chunk payload out of bounds",
		},
		{
			name:    "info offset past end",
			corrupt: func(c *rsrctest.Container) { c.PutUint32(c.EntryOffset+8, uint32(len(c.Bytes))) },
			message: "chunk info out of bounds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := rsrctest.Build(rsrctest.Chunk{Tag: "ABCD", Payload: []byte("data")})
			tt.corrupt(c)
			h, entries := openBuilt(t, c)

			_, err := LocateChunk(c.Bytes, h, entries, MustParseTag("ABCD"))
			viErr := requireVIError(t, err, vierrors.ErrIntegrity, tt.message)
			assert.Equal(t, "ABCD", viErr.Details["tag"])
		})
	}
}

func TestResolveOffsets(t *testing.T) {
	h := &Header{RsrcOffset: 1000}

	assert.Equal(t, int64(1000+32+24), resolveInfoOffset(h, Entry{InfoOffset: 24}))

	info := make([]byte, InfoRecordSize)
	info[15] = 8
	assert.Equal(t, int64(40), resolveDataOffset(info))
}
