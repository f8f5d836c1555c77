package ie

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Element is the contract every leaf element codec satisfies.
type Element interface {
	// Len returns the serialized size including the tag and length octets.
	Len() int
	// SerializeTo prepends the element to b.
	SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error
	// DecodeFrom reads the element from r and returns the bytes consumed.
	DecodeFrom(r *Reader) (int, error)
}

// ReadElement consumes one element with the expected tag and returns its payload.
// A missing header or a payload shorter than the declared length is ErrTruncatedFrame;
// an unexpected tag or a declared length outside [minLen, maxLen] is ErrMalformedElement.
// Nothing is consumed on failure.
func ReadElement(r *Reader, tag layers.Dot11InformationElementID, minLen, maxLen int) ([]byte, error) {
	start := r.Offset()
	hdr := r.Rest()
	if len(hdr) < elementHeaderLen {
		return nil, &ElementError{Tag: tag, Offset: start, Err: ErrTruncatedFrame,
			Detail: fmt.Sprintf("%d header bytes, %d required", len(hdr), elementHeaderLen)}
	}

	got := layers.Dot11InformationElementID(hdr[0])
	if got != tag {
		return nil, &ElementError{Tag: tag, Offset: start, Err: ErrMalformedElement,
			Detail: fmt.Sprintf("unexpected tag %d", uint8(got))}
	}

	length := int(hdr[1])
	if length < minLen || length > maxLen {
		return nil, &ElementError{Tag: tag, Offset: start, Err: ErrMalformedElement,
			Detail: fmt.Sprintf("length %d outside [%d, %d]", length, minLen, maxLen)}
	}
	if len(hdr) < elementHeaderLen+length {
		return nil, &ElementError{Tag: tag, Offset: start, Err: ErrTruncatedFrame,
			Detail: fmt.Sprintf("%d payload bytes, %d declared", len(hdr)-elementHeaderLen, length)}
	}

	b, _ := r.Next(elementHeaderLen + length)
	return b[elementHeaderLen:], nil
}

// writeElement prepends tag, length and info using the gopacket element serializer.
func writeElement(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions, tag layers.Dot11InformationElementID, info []byte) error {
	el := layers.Dot11InformationElement{ID: tag, Length: uint8(len(info)), Info: info}
	return el.SerializeTo(b, opts)
}
