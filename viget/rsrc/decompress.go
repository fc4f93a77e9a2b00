package rsrc

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	vierrors "github.com/flaneur2020/vi-get/viget/errors"
)

const sizeFieldSize = 4

// Decompress inflates a compressed chunk payload.
//
// The payload starts with the declared uncompressed size, which counts the
// 4 byte length field that begins the inflated stream. That inner field must
// equal the declared size minus 4, and the bytes after it are returned.
func Decompress(payload []byte) ([]byte, error) {
	if len(payload) < sizeFieldSize {
		return nil, vierrors.ErrDecompression.WithMessage("payload too short").
			WithMismatch(sizeFieldSize, len(payload))
	}
	declared := int64(binary.BigEndian.Uint32(payload))

	inflated, actual, err := inflate(payload[sizeFieldSize:], declared)
	if err != nil {
		return nil, vierrors.ErrDecompression.WithMessage("invalid compressed stream").
			WithCause(err)
	}

	if actual != declared {
		return nil, vierrors.ErrDecompression.WithMessage("size mismatch after inflate").
			WithMismatch(declared, actual)
	}

	if len(inflated) < sizeFieldSize {
		return nil, vierrors.ErrDecompression.WithMessage("redundant length missing").
			WithMismatch(sizeFieldSize, len(inflated))
	}
	if inner := int64(binary.BigEndian.Uint32(inflated)); inner != declared-sizeFieldSize {
		return nil, vierrors.ErrDecompression.WithMessage("redundant length mismatch").
			WithMismatch(declared-sizeFieldSize, inner)
	}

	return inflated[sizeFieldSize:], nil
}

// inflate reads a zlib or gzip stream, or a bare deflate stream when the
// input carries neither header. At most limit+1 bytes are kept; anything
// beyond is only counted, so actual is the full inflated length.
func inflate(stream []byte, limit int64) (inflated []byte, actual int64, err error) {
	r, err := newInflater(stream)
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()

	inflated, err = io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, 0, err
	}
	actual = int64(len(inflated))
	if actual > limit {
		rest, err := io.Copy(io.Discard, r)
		if err != nil {
			return nil, 0, err
		}
		actual += rest
	}
	return inflated, actual, nil
}

func newInflater(stream []byte) (io.ReadCloser, error) {
	switch {
	case hasGzipHeader(stream):
		return gzip.NewReader(bytes.NewReader(stream))
	case hasZlibHeader(stream):
		return zlib.NewReader(bytes.NewReader(stream))
	default:
		return flate.NewReader(bytes.NewReader(stream)), nil
	}
}

func hasGzipHeader(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

// hasZlibHeader checks the CMF/FLG pair: deflate method and a FCHECK that
// makes the 16-bit header a multiple of 31.
func hasZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}
