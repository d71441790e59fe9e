package jpegmosh

import (
	"fmt"
	"strconv"
	"strings"
)

// Spec is the corruption intensity for one target: how many bytes to pick and how many bits to flip in each.
type Spec struct {
	Picks int // Number of random byte selections.
	Bits  int // Distinct bits flipped per selected byte. Values above 8 flip all 8.
}

// Default intensities for quantization tables and image data.
var (
	DefaultQuantizationSpec = Spec{Picks: 2, Bits: 1}
	DefaultImageSpec        = Spec{Picks: 15, Bits: 1}
)

// ParseSpec parses the "<picks>,<bits>" form, e.g. "15,1".
func ParseSpec(s string) (Spec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Spec{}, fmt.Errorf("%q: expected <picks>,<bits>: %w", s, ErrInvalidSpec)
	}

	var vals [2]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Spec{}, fmt.Errorf("%q: %q is not a number: %w", s, p, ErrInvalidSpec)
		}

		if n < 0 {
			return Spec{}, fmt.Errorf("%q: %d is negative: %w", s, n, ErrInvalidSpec)
		}

		vals[i] = n
	}

	return Spec{Picks: vals[0], Bits: vals[1]}, nil
}

// String returns the spec in the form accepted by ParseSpec.
func (s Spec) String() string {
	return strconv.Itoa(s.Picks) + "," + strconv.Itoa(s.Bits)
}

// Inert reports whether the spec picks bytes but flips no bits in them.
// Such a spec is allowed; it simply changes nothing.
func (s Spec) Inert() bool {
	return s.Picks > 0 && s.Bits == 0
}
