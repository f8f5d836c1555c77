package mpm

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/ie"
)

// CloseFields is the content of a Mesh Peering Close body.
type CloseFields struct {
	Protocol ie.PeeringProtocol
	MeshID   ie.MeshID
}

func (f CloseFields) clone() CloseFields {
	return CloseFields{Protocol: f.Protocol, MeshID: f.MeshID.Clone()}
}

func (f CloseFields) Equal(o CloseFields) bool {
	return f.Protocol.Equal(o.Protocol) && f.MeshID.Equal(o.MeshID)
}

func (f *CloseFields) parts() []wirePart {
	return []wirePart{f.Protocol, f.MeshID}
}

// CloseBody is the Mesh Peering Close frame body: Protocol, Mesh ID.
type CloseBody struct {
	layers.BaseLayer
	noCopy noCopy
	fields CloseFields
}

func NewCloseBody() *CloseBody {
	return &CloseBody{fields: CloseFields{Protocol: ie.NewPeeringProtocol()}}
}

func (b *CloseBody) SetFields(f CloseFields) {
	b.fields = f.clone()
}

func (b *CloseBody) Fields() CloseFields {
	return b.fields.clone()
}

func (b *CloseBody) Kind() Kind {
	return KindClose
}

func (b *CloseBody) LayerType() gopacket.LayerType {
	return LayerTypeMeshPeeringClose
}

func (b *CloseBody) CanDecode() gopacket.LayerClass {
	return LayerTypeMeshPeeringClose
}

func (b *CloseBody) NextLayerType() gopacket.LayerType {
	return nextLayer(b.Payload)
}

func (b *CloseBody) SerializedSize() int {
	return partsLen(b.fields.parts())
}

func (b *CloseBody) SerializeTo(buf gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	return prependParts(buf, opts, b.fields.parts())
}

func (b *CloseBody) Serialize() ([]byte, error) {
	return serializeLayer(b)
}

func (b *CloseBody) Deserialize(data []byte) (int, error) {
	d := &bodyDecoder{kind: KindClose, r: ie.NewReader(data)}
	var f CloseFields

	if err := d.element("protocol", &f.Protocol); err != nil {
		return 0, err
	}
	if err := d.element("mesh id", &f.MeshID); err != nil {
		return 0, err
	}

	n := d.r.Offset()
	b.fields = f
	b.BaseLayer = layers.BaseLayer{Contents: data[:n], Payload: data[n:]}
	return n, nil
}

func (b *CloseBody) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	_, err := b.Deserialize(data)
	return feedback(df, err)
}

func (b *CloseBody) Equal(o *CloseBody) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.fields.Equal(o.fields)
}

func (b *CloseBody) Clone() *CloseBody {
	c := NewCloseBody()
	c.SetFields(b.fields)
	return c
}

func (b *CloseBody) String() string {
	return fmt.Sprintf("protocol=%s meshId=%s", b.fields.Protocol, b.fields.MeshID)
}
