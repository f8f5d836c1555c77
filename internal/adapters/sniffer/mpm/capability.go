package mpm

import (
	"fmt"
	"strings"
)

// Capability is the 802.11 Capability Information field carried by Open and Confirm.
type Capability uint16

const (
	CapESS Capability = 1 << iota
	CapIBSS
	CapCFPollable
	CapCFPollRequest
	CapPrivacy
	CapShortPreamble
	CapPBCC
	CapChannelAgility
	CapSpectrumManagement
	CapQoS
	CapShortSlotTime
	CapAPSD
	CapRadioMeasurement
	CapDSSSOFDM
	CapDelayedBlockAck
	CapImmediateBlockAck
)

var capabilityNames = []string{
	"ESS", "IBSS", "CF-Pollable", "CF-Poll-Req", "Privacy", "Short-Preamble", "PBCC",
	"Channel-Agility", "Spectrum-Mgmt", "QoS", "Short-Slot", "APSD", "Radio-Measurement",
	"DSSS-OFDM", "Delayed-BA", "Immediate-BA",
}

// Has reports whether every bit of flag is set.
func (c Capability) Has(flag Capability) bool {
	return c&flag == flag
}

func (c Capability) String() string {
	var set []string
	for i, name := range capabilityNames {
		if c&(1<<i) != 0 {
			set = append(set, name)
		}
	}
	return fmt.Sprintf("0x%04x[%s]", uint16(c), strings.Join(set, "|"))
}
