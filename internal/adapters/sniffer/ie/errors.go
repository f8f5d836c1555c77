package ie

import (
	"errors"
	"fmt"

	"github.com/google/gopacket/layers"
)

// Sentinel errors for element decoding.
var (
	// ErrTruncatedFrame indicates fewer bytes remain than a field or declared length requires
	ErrTruncatedFrame = errors.New("truncated frame")

	// ErrMalformedElement indicates an element violates its own encoding rules
	ErrMalformedElement = errors.New("malformed information element")

	// ErrTooManyRates indicates a rate set that does not fit in the two rate elements
	ErrTooManyRates = errors.New("too many rates")

	// ErrMeshIDTooLong indicates a mesh ID longer than MaxMeshIDLen
	ErrMeshIDTooLong = errors.New("mesh ID too long")
)

// ElementError wraps an element decode failure with the element and the offset it started at.
type ElementError struct {
	Tag    layers.Dot11InformationElementID
	Offset int
	Detail string
	Err    error
}

func (e *ElementError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s at offset %d: %v", TagName(e.Tag), e.Offset, e.Err)
	}
	return fmt.Sprintf("%s at offset %d: %v: %s", TagName(e.Tag), e.Offset, e.Err, e.Detail)
}

func (e *ElementError) Unwrap() error {
	return e.Err
}
