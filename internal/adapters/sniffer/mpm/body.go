// Package mpm encodes and decodes the 802.11s Mesh Peering Management frame bodies:
// Open, Confirm and Close.
//
// Each body is a gopacket layer. Serialization prepends the constituent elements in
// reverse wire order so a body can be stacked under a Dot11 header with
// gopacket.SerializeLayers; decoding walks the body with an ie.Reader.
package mpm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/google/gopacket"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/ie"
)

// CategorySelfProtected is the Action frame category carrying mesh peering frames.
const CategorySelfProtected uint8 = 15

// Kind identifies one of the three peering bodies. Its value is the self-protected
// action code of the frame.
type Kind uint8

const (
	KindOpen    Kind = 1
	KindConfirm Kind = 2
	KindClose   Kind = 3
)

// Kinds lists every body kind in handshake order.
var Kinds = []Kind{KindOpen, KindConfirm, KindClose}

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindConfirm:
		return "confirm"
	case KindClose:
		return "close"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the peering action codes.
func (k Kind) Valid() bool {
	return k >= KindOpen && k <= KindClose
}

// ParseKind maps a name ("open", "confirm", "close") to its Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Errors surfaced by body decoding. The element sentinels are shared with package ie
// so errors.Is works at either layer.
var (
	ErrTruncatedFrame   = ie.ErrTruncatedFrame
	ErrMalformedElement = ie.ErrMalformedElement
	ErrUnknownKind      = errors.New("unknown mesh peering frame kind")
)

// DecodeError reports which field of which body failed and where.
type DecodeError struct {
	Kind   Kind
	Field  string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mpm %s: %s at offset %d: %v", e.Kind, e.Field, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Body is satisfied by *OpenBody, *ConfirmBody and *CloseBody.
type Body interface {
	gopacket.SerializableLayer
	Kind() Kind
	SerializedSize() int
	Serialize() ([]byte, error)
	Deserialize(data []byte) (int, error)
	String() string
}

// NewBody returns an empty body of the given kind.
func NewBody(k Kind) (Body, error) {
	switch k {
	case KindOpen:
		return NewOpenBody(), nil
	case KindConfirm:
		return NewConfirmBody(), nil
	case KindClose:
		return NewCloseBody(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
}

// Decode decodes data as a body of kind k and returns the bytes consumed.
func Decode(k Kind, data []byte) (Body, int, error) {
	body, err := NewBody(k)
	if err != nil {
		return nil, 0, err
	}
	n, err := body.Deserialize(data)
	if err != nil {
		return nil, 0, err
	}
	return body, n, nil
}

// noCopy makes go vet flag bodies copied by value; use Clone instead.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// wirePart is one fixed-position item of a body.
type wirePart interface {
	Len() int
	SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error
}

// le16 is a little-endian 16-bit scalar field.
type le16 uint16

func (v le16) Len() int { return 2 }

func (v le16) SerializeTo(b gopacket.SerializeBuffer, _ gopacket.SerializeOptions) error {
	buf, err := b.PrependBytes(2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(buf, uint16(v))
	return nil
}

func partsLen(parts []wirePart) int {
	n := 0
	for _, p := range parts {
		n += p.Len()
	}
	return n
}

// prependParts writes parts so that they read in slice order.
func prependParts(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions, parts []wirePart) error {
	for i := len(parts) - 1; i >= 0; i-- {
		if err := parts[i].SerializeTo(b, opts); err != nil {
			return err
		}
	}
	return nil
}

func serializeLayer(l gopacket.SerializableLayer) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	if err := l.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// bodyDecoder carries the cursor and the kind for error reporting.
type bodyDecoder struct {
	kind Kind
	r    *ie.Reader
}

func (d *bodyDecoder) fail(field string, err error) error {
	return &DecodeError{Kind: d.kind, Field: field, Offset: d.r.Offset(), Err: err}
}

func (d *bodyDecoder) element(field string, el ie.Element) error {
	if _, err := el.DecodeFrom(d.r); err != nil {
		return d.fail(field, err)
	}
	return nil
}

func (d *bodyDecoder) uint16(field string) (uint16, error) {
	v, err := d.r.Uint16()
	if err != nil {
		return 0, d.fail(field, err)
	}
	return v, nil
}

func (d *bodyDecoder) extendedRates() (*ie.ExtendedSupportedRates, error) {
	ext, _, err := ie.DecodeOptionalExtendedRates(d.r)
	if err != nil {
		return nil, d.fail("extended rates", err)
	}
	return ext, nil
}

func nextLayer(payload []byte) gopacket.LayerType {
	if len(payload) == 0 {
		return gopacket.LayerTypeZero
	}
	return gopacket.LayerTypePayload
}

func feedback(df gopacket.DecodeFeedback, err error) error {
	if errors.Is(err, ErrTruncatedFrame) {
		df.SetTruncated()
	}
	return err
}

// ErrorReason classifies a decode error for metrics: "truncated", "malformed" or "other".
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrTruncatedFrame):
		return "truncated"
	case errors.Is(err, ErrMalformedElement):
		return "malformed"
	default:
		return "other"
	}
}
