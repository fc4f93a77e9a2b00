package rsrc

// Container is a parsed container: its validated header and chunk directory,
// plus the buffer both describe. The buffer must not be modified while the
// Container or any payload returned from it is in use.
type Container struct {
	Header  *Header
	Entries []Entry

	buf []byte
}

// Open validates the header and reads the chunk directory of buf.
func Open(buf []byte) (*Container, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	entries, err := ReadDirectory(buf, h)
	if err != nil {
		return nil, err
	}
	return &Container{Header: h, Entries: entries, buf: buf}, nil
}

// Locate resolves the first chunk tagged tag.
func (c *Container) Locate(tag Tag) (Location, error) {
	return LocateChunk(c.buf, c.Header, c.Entries, tag)
}

// LocateAll resolves every chunk tagged tag.
func (c *Container) LocateAll(tag Tag) ([]Location, error) {
	return LocateAll(c.buf, c.Header, c.Entries, tag)
}

// Payload returns the payload at loc as a view into the container buffer.
func (c *Container) Payload(loc Location) ([]byte, error) {
	return Payload(c.buf, loc)
}

// Chunks resolves every directory entry, in directory order.
func (c *Container) Chunks() ([]Location, error) {
	locs := make([]Location, 0, len(c.Entries))
	for _, e := range c.Entries {
		loc, err := resolveEntry(c.buf, c.Header, e)
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, nil
}
