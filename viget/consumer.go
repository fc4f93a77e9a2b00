package viget

import "github.com/flaneur2020/vi-get/viget/rsrc"

// DefaultCompressedTags lists the chunks stored as compressed blobs.
var DefaultCompressedTags = []string{"FPSE"}

// ChunkConsumer turns a located chunk payload into the bytes handed to the
// caller. The payload is a view into the container buffer and must not be
// modified.
type ChunkConsumer interface {
	Consume(payload []byte) ([]byte, error)
	// Compressed reports whether the consumer inflates its input.
	Compressed() bool
}

// RawConsumer returns payloads unchanged.
type RawConsumer struct{}

func (RawConsumer) Consume(payload []byte) ([]byte, error) {
	return payload, nil
}

func (RawConsumer) Compressed() bool { return false }

// CompressedConsumer inflates payloads with rsrc.Decompress.
type CompressedConsumer struct{}

func (CompressedConsumer) Consume(payload []byte) ([]byte, error) {
	return rsrc.Decompress(payload)
}

func (CompressedConsumer) Compressed() bool { return true }

// ConsumerFunc adapts a function into a raw ChunkConsumer.
type ConsumerFunc func(payload []byte) ([]byte, error)

func (f ConsumerFunc) Consume(payload []byte) ([]byte, error) {
	return f(payload)
}

func (f ConsumerFunc) Compressed() bool { return false }
