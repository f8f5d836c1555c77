package mpm

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/ie"
)

// OpenFields is the content of a Mesh Peering Open body.
// ExtendedRates is nil unless Rates overflows; use SetRates to keep the two consistent.
type OpenFields struct {
	Protocol      ie.PeeringProtocol
	Capability    Capability
	Rates         ie.SupportedRates
	ExtendedRates *ie.ExtendedSupportedRates
	MeshID        ie.MeshID
	Config        ie.Configuration
}

// SetRates splits set across the Supported and Extended Supported Rates elements.
func (f *OpenFields) SetRates(set ie.RateSet) {
	f.Rates = set.Supported()
	f.ExtendedRates = set.Extended()
}

// AllRates returns the advertised rates from both rate elements.
func (f OpenFields) AllRates() ie.RateSet {
	return ie.CombineRates(f.Rates, f.ExtendedRates)
}

func (f OpenFields) clone() OpenFields {
	out := f
	out.Rates = f.Rates.Clone()
	out.ExtendedRates = f.ExtendedRates.Clone()
	out.MeshID = f.MeshID.Clone()
	return out
}

// Equal compares every field, including whether extended rates are present.
func (f OpenFields) Equal(o OpenFields) bool {
	return f.Protocol.Equal(o.Protocol) &&
		f.Capability == o.Capability &&
		f.Rates.Equal(o.Rates) &&
		f.ExtendedRates.Equal(o.ExtendedRates) &&
		f.MeshID.Equal(o.MeshID) &&
		f.Config.Equal(o.Config)
}

func (f *OpenFields) parts() []wirePart {
	parts := []wirePart{f.Protocol, le16(f.Capability), f.Rates}
	if f.ExtendedRates != nil {
		parts = append(parts, *f.ExtendedRates)
	}
	return append(parts, f.MeshID, f.Config)
}

// OpenBody is the Mesh Peering Open frame body:
// Protocol, Capability, Rates, [Extended Rates], Mesh ID, Configuration.
type OpenBody struct {
	layers.BaseLayer
	noCopy noCopy
	fields OpenFields
}

// NewOpenBody returns an empty Open body advertising the MPM protocol.
func NewOpenBody() *OpenBody {
	return &OpenBody{fields: OpenFields{Protocol: ie.NewPeeringProtocol()}}
}

// SetFields stores a copy of f.
func (b *OpenBody) SetFields(f OpenFields) {
	b.fields = f.clone()
}

// Fields returns a copy of the stored fields.
func (b *OpenBody) Fields() OpenFields {
	return b.fields.clone()
}

func (b *OpenBody) Kind() Kind {
	return KindOpen
}

func (b *OpenBody) LayerType() gopacket.LayerType {
	return LayerTypeMeshPeeringOpen
}

func (b *OpenBody) CanDecode() gopacket.LayerClass {
	return LayerTypeMeshPeeringOpen
}

func (b *OpenBody) NextLayerType() gopacket.LayerType {
	return nextLayer(b.Payload)
}

// SerializedSize returns the exact number of bytes SerializeTo writes.
func (b *OpenBody) SerializedSize() int {
	return partsLen(b.fields.parts())
}

func (b *OpenBody) SerializeTo(buf gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	return prependParts(buf, opts, b.fields.parts())
}

// Serialize returns the body bytes.
func (b *OpenBody) Serialize() ([]byte, error) {
	return serializeLayer(b)
}

// Deserialize decodes an Open body from the start of data and returns the bytes consumed.
// On error the body is left unchanged.
func (b *OpenBody) Deserialize(data []byte) (int, error) {
	d := &bodyDecoder{kind: KindOpen, r: ie.NewReader(data)}
	var f OpenFields
	var err error

	if err = d.element("protocol", &f.Protocol); err != nil {
		return 0, err
	}
	capability, err := d.uint16("capability")
	if err != nil {
		return 0, err
	}
	f.Capability = Capability(capability)
	if err = d.element("rates", &f.Rates); err != nil {
		return 0, err
	}
	if f.ExtendedRates, err = d.extendedRates(); err != nil {
		return 0, err
	}
	if err = d.element("mesh id", &f.MeshID); err != nil {
		return 0, err
	}
	if err = d.element("configuration", &f.Config); err != nil {
		return 0, err
	}

	n := d.r.Offset()
	b.fields = f
	b.BaseLayer = layers.BaseLayer{Contents: data[:n], Payload: data[n:]}
	return n, nil
}

func (b *OpenBody) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	_, err := b.Deserialize(data)
	return feedback(df, err)
}

// Equal compares the fields of two bodies.
func (b *OpenBody) Equal(o *OpenBody) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.fields.Equal(o.fields)
}

// Clone returns an independent copy of the body fields.
func (b *OpenBody) Clone() *OpenBody {
	c := NewOpenBody()
	c.SetFields(b.fields)
	return c
}

func (b *OpenBody) String() string {
	f := b.fields
	return fmt.Sprintf("protocol=%s capability=%s rates=%s ext=%s meshId=%s config={%s}",
		f.Protocol, f.Capability, f.Rates, f.ExtendedRates, f.MeshID, f.Config)
}
