package ie

import (
	"fmt"

	"github.com/google/gopacket/layers"
)

// Element tags used by mesh peering frames.
const (
	TagSupportedRates        = layers.Dot11InformationElementIDRates
	TagExtendedRates         = layers.Dot11InformationElementIDESRates
	TagPeeringProtocol       = layers.Dot11InformationElementID(74)
	TagMeshConfiguration     = layers.Dot11InformationElementID(113)
	TagMeshID                = layers.Dot11InformationElementID(114)
	TagMeshPeeringManagement = layers.Dot11InformationElementID(117)
)

const (
	elementHeaderLen  = 2
	maxElementPayload = 255
)

// IE represents a generic Information Element
type IE struct {
	ID   int
	Data []byte
}

// TagName returns a readable name for the element tags this package knows.
func TagName(tag layers.Dot11InformationElementID) string {
	switch tag {
	case TagSupportedRates:
		return "Supported Rates"
	case TagExtendedRates:
		return "Extended Supported Rates"
	case TagPeeringProtocol:
		return "Peering Protocol"
	case TagMeshConfiguration:
		return "Mesh Configuration"
	case TagMeshID:
		return "Mesh ID"
	case TagMeshPeeringManagement:
		return "Mesh Peering Management"
	default:
		return fmt.Sprintf("Element(%d)", uint8(tag))
	}
}

// IterateIEs calls the provided callback for each valid IE found in the data.
// It stops if it encounters a malformed IE (length exceeds remaining data).
func IterateIEs(data []byte, callback func(id int, data []byte)) {
	offset := 0
	limit := len(data)

	for offset < limit {
		if offset+elementHeaderLen > limit {
			break
		}

		id := int(data[offset])
		length := int(data[offset+1])
		offset += elementHeaderLen

		if offset+length > limit {
			break
		}

		callback(id, data[offset:offset+length])
		offset += length
	}
}

// ListIEs returns every well-formed element of data in order.
func ListIEs(data []byte) []IE {
	var out []IE
	IterateIEs(data, func(id int, val []byte) {
		out = append(out, IE{ID: id, Data: val})
	})
	return out
}

// FindIE returns the data of the first IE with the given ID.
// Returns nil if not found.
func FindIE(data []byte, targetID int) []byte {
	var result []byte
	IterateIEs(data, func(id int, val []byte) {
		if result == nil && id == targetID {
			result = val
		}
	})
	return result
}
