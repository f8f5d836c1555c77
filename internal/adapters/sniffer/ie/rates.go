package ie

import (
	"fmt"
	"strings"

	"github.com/google/gopacket"
)

// Rate capacities of the two rate elements.
const (
	MaxSupportedRates = 8
	MaxExtendedRates  = maxElementPayload
	MaxRates          = MaxSupportedRates + MaxExtendedRates
)

const basicRateFlag = 0x80

// Rate is one rate octet: bits 0-6 in units of 500 kb/s, bit 7 set for a basic rate.
type Rate uint8

// NewRate builds a rate octet from a rate in kb/s.
func NewRate(kbps int, basic bool) Rate {
	r := Rate((kbps / 500) & 0x7f)
	if basic {
		r |= basicRateFlag
	}
	return r
}

// Kbps returns the rate in kb/s.
func (r Rate) Kbps() int {
	return int(r&0x7f) * 500
}

// IsBasic reports whether the rate is part of the basic rate set.
func (r Rate) IsBasic() bool {
	return r&basicRateFlag != 0
}

func (r Rate) String() string {
	s := fmt.Sprintf("%.1f", float64(r.Kbps())/1000)
	if r.IsBasic() {
		s += "*"
	}
	return s
}

// RateSet is every rate a station advertises, in advertisement order.
// The first MaxSupportedRates entries travel in the Supported Rates element,
// the rest in the Extended Supported Rates element.
type RateSet []Rate

// NewRateSet validates that rates fit in the two rate elements.
func NewRateSet(rates ...Rate) (RateSet, error) {
	if len(rates) > MaxRates {
		return nil, fmt.Errorf("%w: %d rates, at most %d", ErrTooManyRates, len(rates), MaxRates)
	}
	out := make(RateSet, len(rates))
	copy(out, rates)
	return out, nil
}

// NeedsExtended reports whether the set overflows the Supported Rates element.
func (s RateSet) NeedsExtended() bool {
	return len(s) > MaxSupportedRates
}

// Supported returns the Supported Rates element for the set.
func (s RateSet) Supported() SupportedRates {
	n := len(s)
	if n > MaxSupportedRates {
		n = MaxSupportedRates
	}
	return SupportedRates{Rates: cloneRates(s[:n])}
}

// Extended returns the Extended Supported Rates element, or nil when the set fits
// in the Supported Rates element.
func (s RateSet) Extended() *ExtendedSupportedRates {
	if !s.NeedsExtended() {
		return nil
	}
	return &ExtendedSupportedRates{Rates: cloneRates(s[MaxSupportedRates:])}
}

// CombineRates rebuilds the advertised set from its two elements.
func CombineRates(s SupportedRates, ext *ExtendedSupportedRates) RateSet {
	out := make(RateSet, 0, len(s.Rates)+ext.count())
	out = append(out, s.Rates...)
	if ext != nil {
		out = append(out, ext.Rates...)
	}
	return out
}

// SupportedRates is the Supported Rates element (tag 1), up to eight rates.
type SupportedRates struct {
	Rates []Rate
}

func (s SupportedRates) Len() int {
	return elementHeaderLen + len(s.Rates)
}

func (s SupportedRates) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if len(s.Rates) > MaxSupportedRates {
		return fmt.Errorf("%w: %d rates in Supported Rates", ErrTooManyRates, len(s.Rates))
	}
	return writeElement(b, opts, TagSupportedRates, rateBytes(s.Rates))
}

func (s *SupportedRates) DecodeFrom(r *Reader) (int, error) {
	payload, err := ReadElement(r, TagSupportedRates, 0, MaxSupportedRates)
	if err != nil {
		return 0, err
	}
	s.Rates = bytesToRates(payload)
	return elementHeaderLen + len(payload), nil
}

// Clone returns a copy that shares no memory with s.
func (s SupportedRates) Clone() SupportedRates {
	return SupportedRates{Rates: cloneRates(s.Rates)}
}

func (s SupportedRates) Equal(o SupportedRates) bool {
	return equalRates(s.Rates, o.Rates)
}

func (s SupportedRates) String() string {
	return formatRates(s.Rates)
}

// ExtendedSupportedRates is the Extended Supported Rates element (tag 50).
type ExtendedSupportedRates struct {
	Rates []Rate
}

func (e *ExtendedSupportedRates) count() int {
	if e == nil {
		return 0
	}
	return len(e.Rates)
}

func (e ExtendedSupportedRates) Len() int {
	return elementHeaderLen + len(e.Rates)
}

func (e ExtendedSupportedRates) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if len(e.Rates) == 0 || len(e.Rates) > MaxExtendedRates {
		return fmt.Errorf("%w: %d rates in Extended Supported Rates", ErrTooManyRates, len(e.Rates))
	}
	return writeElement(b, opts, TagExtendedRates, rateBytes(e.Rates))
}

func (e *ExtendedSupportedRates) DecodeFrom(r *Reader) (int, error) {
	payload, err := ReadElement(r, TagExtendedRates, 1, MaxExtendedRates)
	if err != nil {
		return 0, err
	}
	e.Rates = bytesToRates(payload)
	return elementHeaderLen + len(payload), nil
}

// Clone returns a deep copy; nil stays nil.
func (e *ExtendedSupportedRates) Clone() *ExtendedSupportedRates {
	if e == nil {
		return nil
	}
	return &ExtendedSupportedRates{Rates: cloneRates(e.Rates)}
}

// Equal compares presence as well as content.
func (e *ExtendedSupportedRates) Equal(o *ExtendedSupportedRates) bool {
	if e == nil || o == nil {
		return e == nil && o == nil
	}
	return equalRates(e.Rates, o.Rates)
}

func (e *ExtendedSupportedRates) String() string {
	if e == nil {
		return "none"
	}
	return formatRates(e.Rates)
}

// DecodeOptionalExtendedRates decodes an Extended Supported Rates element if, and only if,
// the next tag in r announces one. Otherwise it returns nil and r is left untouched.
func DecodeOptionalExtendedRates(r *Reader) (*ExtendedSupportedRates, int, error) {
	tag, ok := r.Peek()
	if !ok || tag != uint8(TagExtendedRates) {
		return nil, 0, nil
	}
	ext := &ExtendedSupportedRates{}
	n, err := ext.DecodeFrom(r)
	if err != nil {
		return nil, 0, err
	}
	return ext, n, nil
}

func rateBytes(rates []Rate) []byte {
	b := make([]byte, len(rates))
	for i, r := range rates {
		b[i] = byte(r)
	}
	return b
}

func bytesToRates(b []byte) []Rate {
	rates := make([]Rate, len(b))
	for i, v := range b {
		rates[i] = Rate(v)
	}
	return rates
}

func cloneRates(rates []Rate) []Rate {
	if rates == nil {
		return nil
	}
	out := make([]Rate, len(rates))
	copy(out, rates)
	return out
}

func equalRates(a, b []Rate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatRates(rates []Rate) string {
	parts := make([]string, len(rates))
	for i, r := range rates {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
