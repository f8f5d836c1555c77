package mpm

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/ie"
)

// ConfirmFields is the content of a Mesh Peering Confirm body.
type ConfirmFields struct {
	Protocol      ie.PeeringProtocol
	Capability    Capability
	AID           uint16
	Rates         ie.SupportedRates
	ExtendedRates *ie.ExtendedSupportedRates
	Config        ie.Configuration
}

// SetRates splits set across the Supported and Extended Supported Rates elements.
func (f *ConfirmFields) SetRates(set ie.RateSet) {
	f.Rates = set.Supported()
	f.ExtendedRates = set.Extended()
}

// AllRates returns the advertised rates from both rate elements.
func (f ConfirmFields) AllRates() ie.RateSet {
	return ie.CombineRates(f.Rates, f.ExtendedRates)
}

func (f ConfirmFields) clone() ConfirmFields {
	out := f
	out.Rates = f.Rates.Clone()
	out.ExtendedRates = f.ExtendedRates.Clone()
	return out
}

func (f ConfirmFields) Equal(o ConfirmFields) bool {
	return f.Protocol.Equal(o.Protocol) &&
		f.Capability == o.Capability &&
		f.AID == o.AID &&
		f.Rates.Equal(o.Rates) &&
		f.ExtendedRates.Equal(o.ExtendedRates) &&
		f.Config.Equal(o.Config)
}

func (f *ConfirmFields) parts() []wirePart {
	parts := []wirePart{f.Protocol, le16(f.Capability), le16(f.AID), f.Rates}
	if f.ExtendedRates != nil {
		parts = append(parts, *f.ExtendedRates)
	}
	return append(parts, f.Config)
}

// ConfirmBody is the Mesh Peering Confirm frame body:
// Protocol, Capability, AID, Rates, [Extended Rates], Configuration.
type ConfirmBody struct {
	layers.BaseLayer
	noCopy noCopy
	fields ConfirmFields
}

func NewConfirmBody() *ConfirmBody {
	return &ConfirmBody{fields: ConfirmFields{Protocol: ie.NewPeeringProtocol()}}
}

func (b *ConfirmBody) SetFields(f ConfirmFields) {
	b.fields = f.clone()
}

func (b *ConfirmBody) Fields() ConfirmFields {
	return b.fields.clone()
}

func (b *ConfirmBody) Kind() Kind {
	return KindConfirm
}

func (b *ConfirmBody) LayerType() gopacket.LayerType {
	return LayerTypeMeshPeeringConfirm
}

func (b *ConfirmBody) CanDecode() gopacket.LayerClass {
	return LayerTypeMeshPeeringConfirm
}

func (b *ConfirmBody) NextLayerType() gopacket.LayerType {
	return nextLayer(b.Payload)
}

func (b *ConfirmBody) SerializedSize() int {
	return partsLen(b.fields.parts())
}

func (b *ConfirmBody) SerializeTo(buf gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	return prependParts(buf, opts, b.fields.parts())
}

func (b *ConfirmBody) Serialize() ([]byte, error) {
	return serializeLayer(b)
}

// Deserialize decodes a Confirm body from the start of data and returns the bytes consumed.
// On error the body is left unchanged.
func (b *ConfirmBody) Deserialize(data []byte) (int, error) {
	d := &bodyDecoder{kind: KindConfirm, r: ie.NewReader(data)}
	var f ConfirmFields
	var err error

	if err = d.element("protocol", &f.Protocol); err != nil {
		return 0, err
	}
	capability, err := d.uint16("capability")
	if err != nil {
		return 0, err
	}
	f.Capability = Capability(capability)
	if f.AID, err = d.uint16("aid"); err != nil {
		return 0, err
	}
	if err = d.element("rates", &f.Rates); err != nil {
		return 0, err
	}
	if f.ExtendedRates, err = d.extendedRates(); err != nil {
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

func (b *ConfirmBody) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	_, err := b.Deserialize(data)
	return feedback(df, err)
}

func (b *ConfirmBody) Equal(o *ConfirmBody) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.fields.Equal(o.fields)
}

func (b *ConfirmBody) Clone() *ConfirmBody {
	c := NewConfirmBody()
	c.SetFields(b.fields)
	return c
}

func (b *ConfirmBody) String() string {
	f := b.fields
	return fmt.Sprintf("protocol=%s capability=%s aid=%d rates=%s ext=%s config={%s}",
		f.Protocol, f.Capability, f.AID, f.Rates, f.ExtendedRates, f.Config)
}
