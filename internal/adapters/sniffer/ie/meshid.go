package ie

import (
	"fmt"

	"github.com/google/gopacket"
)

// MaxMeshIDLen is the longest mesh ID the element may carry.
const MaxMeshIDLen = 32

// MeshID is the Mesh ID element (tag 114). An empty ID is the wildcard mesh ID.
type MeshID struct {
	ID []byte
}

// NewMeshID builds the element for id.
func NewMeshID(id string) (MeshID, error) {
	if len(id) > MaxMeshIDLen {
		return MeshID{}, fmt.Errorf("%w: %d bytes, at most %d", ErrMeshIDTooLong, len(id), MaxMeshIDLen)
	}
	return MeshID{ID: []byte(id)}, nil
}

// IsWildcard reports whether the element carries the zero-length wildcard ID.
func (m MeshID) IsWildcard() bool {
	return len(m.ID) == 0
}

func (m MeshID) Len() int {
	return elementHeaderLen + len(m.ID)
}

func (m MeshID) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if len(m.ID) > MaxMeshIDLen {
		return fmt.Errorf("%w: %d bytes", ErrMeshIDTooLong, len(m.ID))
	}
	return writeElement(b, opts, TagMeshID, m.ID)
}

func (m *MeshID) DecodeFrom(r *Reader) (int, error) {
	payload, err := ReadElement(r, TagMeshID, 0, MaxMeshIDLen)
	if err != nil {
		return 0, err
	}
	m.ID = append([]byte(nil), payload...)
	return elementHeaderLen + len(payload), nil
}

// Clone returns a copy that shares no memory with m.
func (m MeshID) Clone() MeshID {
	if m.ID == nil {
		return MeshID{}
	}
	return MeshID{ID: append([]byte(nil), m.ID...)}
}

func (m MeshID) Equal(o MeshID) bool {
	return string(m.ID) == string(o.ID)
}

func (m MeshID) String() string {
	if m.IsWildcard() {
		return "<wildcard>"
	}
	return string(m.ID)
}
