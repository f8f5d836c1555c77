package ie

import (
	"encoding/binary"
)

// Reader is a forward-only cursor over a received frame body.
// A failed read leaves the cursor where it was.
type Reader struct {
	b   []byte
	off int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.b) - r.off
}

// Peek returns the next byte without consuming it.
func (r *Reader) Peek() (byte, bool) {
	if r.Remaining() < 1 {
		return 0, false
	}
	return r.b[r.off], true
}

// Next consumes n bytes.
func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrTruncatedFrame
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out, nil
}

// Uint16 consumes a little-endian 16-bit scalar.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Rest returns the unread bytes without consuming them.
func (r *Reader) Rest() []byte {
	return r.b[r.off:]
}
