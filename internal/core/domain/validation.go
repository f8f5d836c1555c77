package domain

import (
	"regexp"
)

// Validation Helpers

var macRegex = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)

// MaxMeshIDLen is the longest mesh ID a peering frame can carry.
const MaxMeshIDLen = 32

// IsValidMAC checks if the string is a valid MAC address
func IsValidMAC(mac string) bool {
	return macRegex.MatchString(mac)
}

// IsValidMeshID checks that id fits in a Mesh ID element. The empty wildcard ID is valid.
func IsValidMeshID(id string) bool {
	return len(id) <= MaxMeshIDLen
}
