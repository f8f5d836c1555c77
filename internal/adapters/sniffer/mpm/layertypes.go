package mpm

import (
	"github.com/google/gopacket"
)

var (
	LayerTypeMeshPeeringOpen = gopacket.RegisterLayerType(1851, gopacket.LayerTypeMetadata{
		Name: "MeshPeeringOpen", Decoder: gopacket.DecodeFunc(decodeOpenBody)})
	LayerTypeMeshPeeringConfirm = gopacket.RegisterLayerType(1852, gopacket.LayerTypeMetadata{
		Name: "MeshPeeringConfirm", Decoder: gopacket.DecodeFunc(decodeConfirmBody)})
	LayerTypeMeshPeeringClose = gopacket.RegisterLayerType(1853, gopacket.LayerTypeMetadata{
		Name: "MeshPeeringClose", Decoder: gopacket.DecodeFunc(decodeCloseBody)})
)

type decodingLayer interface {
	gopacket.Layer
	gopacket.DecodingLayer
}

func decodeOpenBody(data []byte, p gopacket.PacketBuilder) error {
	return decodeLayer(NewOpenBody(), data, p)
}

func decodeConfirmBody(data []byte, p gopacket.PacketBuilder) error {
	return decodeLayer(NewConfirmBody(), data, p)
}

func decodeCloseBody(data []byte, p gopacket.PacketBuilder) error {
	return decodeLayer(NewCloseBody(), data, p)
}

func decodeLayer(d decodingLayer, data []byte, p gopacket.PacketBuilder) error {
	if err := d.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(d)
	next := d.NextLayerType()
	if next == gopacket.LayerTypeZero {
		return nil
	}
	return p.NextDecoder(next)
}
