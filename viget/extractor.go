package viget

import (
	"context"
	"fmt"
	"sort"

	"github.com/opencontainers/go-digest"

	vierrors "github.com/flaneur2020/vi-get/viget/errors"
	"github.com/flaneur2020/vi-get/viget/logger"
	"github.com/flaneur2020/vi-get/viget/rsrc"
	"github.com/flaneur2020/vi-get/viget/storage"
)

// ExtractOptions selects what Extract pulls out of a container.
type ExtractOptions struct {
	// Tag is the four character chunk tag.
	Tag string
	// All extracts every entry carrying Tag instead of only the first.
	All bool
	// Raw skips decompression even for compressed tags.
	Raw bool
}

// Extraction is one extracted chunk.
type Extraction struct {
	Source     string
	Tag        rsrc.Tag
	Index      int
	Offset     int64
	Length     uint32
	Compressed bool
	Data       []byte
	Digest     digest.Digest
}

// ChunkInfo describes one directory entry and where its payload lives.
type ChunkInfo struct {
	Tag        rsrc.Tag
	Index      int
	InfoCount  uint32
	Offset     int64
	Length     uint32
	Compressed bool
	// Digest is computed over the stored payload, before any inflation.
	Digest     digest.Digest
}

type Extractor interface {
	// ListChunks resolves every directory entry of the container at path.
	ListChunks(ctx context.Context, path string) ([]ChunkInfo, error)
	// Extract locates and consumes the chunks selected by opts.
	Extract(ctx context.Context, path string, opts ExtractOptions) ([]*Extraction, error)
	// Save hands an extraction to storage under target.
	Save(ctx context.Context, ext *Extraction, target string) error
	// CompressedTags returns the tags inflated on extraction, sorted.
	CompressedTags() []string
	// ExtractBatch runs independent extractions in parallel.
	ExtractBatch(ctx context.Context, jobs []*ExtractJob, concurrency int, progress ProgressCallback) (*BatchStats, error)
}

// Option configures an Extractor.
type Option func(*extractor)

// WithCompressedTags replaces the set of tags inflated on extraction.
func WithCompressedTags(tags ...string) Option {
	return func(e *extractor) {
		for tag, c := range e.consumers {
			if c.Compressed() {
				delete(e.consumers, tag)
			}
		}
		for _, s := range tags {
			if tag, err := rsrc.ParseTag(s); err == nil {
				e.consumers[tag] = CompressedConsumer{}
			} else {
				logger.Warn("ignoring compressed tag %q: %v", s, err)
			}
		}
	}
}

// WithConsumer registers a consumer for one tag.
func WithConsumer(tag rsrc.Tag, c ChunkConsumer) Option {
	return func(e *extractor) {
		e.consumers[tag] = c
	}
}

type extractor struct {
	storage   storage.Storage
	consumers map[rsrc.Tag]ChunkConsumer
}

func NewExtractor(s storage.Storage, opts ...Option) Extractor {
	e := &extractor{
		storage:   s,
		consumers: make(map[rsrc.Tag]ChunkConsumer),
	}
	WithCompressedTags(DefaultCompressedTags...)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *extractor) consumerFor(tag rsrc.Tag, raw bool) ChunkConsumer {
	if raw {
		return RawConsumer{}
	}
	if c, ok := e.consumers[tag]; ok {
		return c
	}
	return RawConsumer{}
}

func (e *extractor) open(ctx context.Context, path string) (*rsrc.Container, error) {
	buf, err := e.storage.ReadFile(ctx, path)
	if err != nil {
		return nil, vierrors.ErrStorage.WithMessage("failed to read container").
			WithDetail("path", path).
			WithCause(err)
	}

	c, err := rsrc.Open(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	h := c.Header
	logger.Debug("%s: rsrcOffset=%d rsrcSize=%d dataOffset=%d dataSize=%d chunks=%d",
		path, h.RsrcOffset, h.RsrcSize, h.DataOffset, h.DataSize, len(c.Entries))
	if h.DataOffset != rsrc.HeaderSize {
		logger.Warn("%s: unexpected data offset %d", path, h.DataOffset)
	}
	return c, nil
}

func (e *extractor) ListChunks(ctx context.Context, path string) ([]ChunkInfo, error) {
	c, err := e.open(ctx, path)
	if err != nil {
		return nil, err
	}

	locs, err := c.Chunks()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chunks of %s: %w", path, err)
	}

	infos := make([]ChunkInfo, len(locs))
	for i, loc := range locs {
		logger.Debug("%s: %s data=%d length=%d", path, loc.Tag, loc.DataOffset, loc.Length)
		payload, err := c.Payload(loc)
		if err != nil {
			return nil, err
		}
		infos[i] = ChunkInfo{
			Tag:        loc.Tag,
			Index:      loc.Index,
			InfoCount:  c.Entries[loc.Index].InfoCount,
			Offset:     loc.Offset,
			Length:     loc.Length,
			Compressed: e.consumerFor(loc.Tag, false).Compressed(),
			Digest:     digest.FromBytes(payload),
		}
	}
	return infos, nil
}

func (e *extractor) Extract(ctx context.Context, path string, opts ExtractOptions) ([]*Extraction, error) {
	tag, err := rsrc.ParseTag(opts.Tag)
	if err != nil {
		return nil, err
	}

	c, err := e.open(ctx, path)
	if err != nil {
		return nil, err
	}

	var locs []rsrc.Location
	if opts.All {
		locs, err = c.LocateAll(tag)
	} else {
		var loc rsrc.Location
		loc, err = c.Locate(tag)
		locs = []rsrc.Location{loc}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s in %s: %w", tag, path, err)
	}

	consumer := e.consumerFor(tag, opts.Raw)
	extractions := make([]*Extraction, 0, len(locs))
	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := c.Payload(loc)
		if err != nil {
			return nil, err
		}

		data, err := consumer.Consume(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s#%d from %s: %w", tag, loc.Index, path, err)
		}

		ext := &Extraction{
			Source:     path,
			Tag:        tag,
			Index:      loc.Index,
			Offset:     loc.Offset,
			Length:     loc.Length,
			Compressed: consumer.Compressed(),
			Data:       data,
			Digest:     digest.FromBytes(data),
		}
		extractions = append(extractions, ext)
		logger.Info("%s: extracted %s#%d (%d bytes, %s)", path, tag, loc.Index, len(data), ext.Digest)
	}
	return extractions, nil
}

func (e *extractor) Save(ctx context.Context, ext *Extraction, target string) error {
	if err := e.storage.WriteFile(ctx, target, ext.Data); err != nil {
		return vierrors.ErrStorage.WithMessage("failed to write extraction").
			WithDetail("path", target).
			WithDetail("tag", ext.Tag.String()).
			WithCause(err)
	}
	logger.Debug("wrote %s#%d to %s", ext.Tag, ext.Index, target)
	return nil
}

// OutputPath names the file an extraction is saved to. An empty base
// defaults to "<source>.<TAG>"; when a job yields several extractions each
// gets its directory index appended.
func OutputPath(base string, ext *Extraction, multiple bool) string {
	if base == "" {
		base = ext.Source + "." + ext.Tag.String()
	}
	if multiple {
		return fmt.Sprintf("%s.%d", base, ext.Index)
	}
	return base
}

func (e *extractor) CompressedTags() []string {
	var tags []string
	for tag, c := range e.consumers {
		if c.Compressed() {
			tags = append(tags, tag.String())
		}
	}
	sort.Strings(tags)
	return tags
}
