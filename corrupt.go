package jpegmosh

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"math/rand/v2"
)

// Rand is the random source used to choose bytes and bits. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a uniformly distributed integer in [0, n). n is always > 0.
	IntN(n int) int
}

// TargetKind names the region a flip was applied to.
type TargetKind uint8

const (
	// TargetQuantization is the union of all DQT payloads.
	TargetQuantization TargetKind = iota
	// TargetImage is the union of all entropy-coded scan data.
	TargetImage
)

// String returns the CLI abbreviation of the target.
func (t TargetKind) String() string {
	switch t {
	case TargetQuantization:
		return "qt"
	case TargetImage:
		return "im"
	default:
		return "invalid"
	}
}

// Flip records one pick: the byte it selected and the bits XORed into it.
type Flip struct {
	Target TargetKind
	Offset int  // Absolute offset in the input buffer.
	Mask   byte // Bits flipped. Zero when the spec flips no bits.
}

// Result is the output of Corrupt.
type Result struct {
	Data  []byte // Corrupted copy of the input.
	Flips []Flip // One entry per pick, in the order applied.
}

// newRand returns an unseeded generator owned by a single call.
func newRand() Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// bitMask picks min(bits, 8) distinct bit positions and returns them as a mask.
// A partial Fisher-Yates shuffle over the 8 positions keeps picks within one byte distinct.
func bitMask(r Rand, bits int) byte {
	bits = min(bits, 8)
	if bits <= 0 {
		return 0
	}

	positions := [8]uint8{0, 1, 2, 3, 4, 5, 6, 7}

	var mask byte
	for k := 0; k < bits; k++ {
		j := k + r.IntN(8-k)
		positions[k], positions[j] = positions[j], positions[k]
		mask |= 1 << positions[k]
	}

	return mask
}

// flipBits applies spec to the target in buf and appends one Flip per pick.
func flipBits(buf []byte, target *Target, kind TargetKind, spec Spec, r Rand, flips []Flip) []Flip {
	n := target.Len()
	if n == 0 || spec.Picks <= 0 {
		return flips
	}

	for range spec.Picks {
		off := target.Offset(r.IntN(n))
		mask := bitMask(r, spec.Bits)
		buf[off] ^= mask

		flips = append(flips, Flip{Target: kind, Offset: off, Mask: mask})
	}

	return flips
}

// stripSegments returns a copy of buf without the segments for which drop returns true.
func stripSegments(buf []byte, doc *Document, drop func(Segment) bool) []byte {
	out := make([]byte, 0, len(buf))

	prev := 0
	for _, seg := range doc.Segments {
		if !drop(seg) {
			continue
		}

		out = append(out, buf[prev:seg.Start]...)
		prev = seg.End()
	}

	return append(out, buf[prev:]...)
}

// isMetadata reports whether seg is an APP1..APP15 segment (EXIF, XMP, ICC, Adobe, ...).
func isMetadata(seg Segment) bool {
	return isAPPn(seg.Marker) && seg.Marker >= markerAPP1
}

// validate checks that data still holds a usable JPEG structure at the requested level.
func validate(data []byte, level Validation) error {
	switch level {
	case ValidateNone:
		return nil
	case ValidateStructure, ValidateDecode:
		if _, err := Scan(data); err != nil {
			return fmt.Errorf("%w: %w", ErrUnvalidated, err)
		}

		if level == ValidateStructure {
			return nil
		}

		if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
			return fmt.Errorf("%w: decode: %w", ErrUnvalidated, err)
		}

		return nil
	default:
		return fmt.Errorf("unknown validation level %d", level)
	}
}

// Corrupt flips random bits in the quantization tables and scan data of data, as located by doc.
// doc must come from scanning data; if it is nil, data is scanned first. The input buffer is never modified.
// Quantization tables are corrupted first, then image data, both in one working copy.
func Corrupt(data []byte, doc *Document, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if doc == nil {
		var err error
		if doc, err = Scan(data); err != nil {
			return nil, err
		}
	}

	if doc.Size != len(data) {
		return nil, fmt.Errorf("document describes %d bytes, buffer has %d", doc.Size, len(data))
	}

	r := opts.Rand
	if r == nil {
		r = newRand()
	}

	// Targets come from the pre-mutation document and never overlap.
	qt := doc.QuantizationTables()
	im := doc.ScanData()

	buf := bytes.Clone(data)
	if buf == nil {
		buf = []byte{}
	}

	var flips []Flip
	flips = flipBits(buf, qt, TargetQuantization, opts.QuantizationTables, r, flips)
	flips = flipBits(buf, im, TargetImage, opts.ImageData, r, flips)

	if opts.StripMetadata {
		buf = stripSegments(buf, doc, isMetadata)
	}

	if err := validate(buf, opts.Validate); err != nil {
		return nil, err
	}

	return &Result{Data: buf, Flips: flips}, nil
}
