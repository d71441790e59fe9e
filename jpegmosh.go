// Package jpegmosh produces deliberately corrupted copies of JPEG images for datamoshing.
//
// The file is split into its marker segments, then random bits are flipped inside the
// quantization tables and the entropy-coded scan data only, so the result keeps a valid
// container structure while decoding into glitched pixels.
package jpegmosh

import (
	"errors"
	"fmt"
)

// Standard error types for scanning and corrupting.
var (
	ErrNoJPEG           = errors.New("not a JPEG file")
	ErrMalformedSegment = errors.New("malformed segment")
	ErrUnvalidated      = errors.New("corrupted data failed validation")
	ErrInvalidSpec      = errors.New("invalid corruption spec")
)

// Validation selects how a corrupted buffer is checked before it is returned.
type Validation int

const (
	// ValidateNone returns the corrupted data unchecked.
	ValidateNone Validation = iota
	// ValidateStructure re-scans the corrupted data and fails if its marker structure no longer parses.
	ValidateStructure
	// ValidateDecode additionally requires the image/jpeg decoder to load the corrupted data.
	ValidateDecode
)

// String returns the name of the validation level.
func (v Validation) String() string {
	switch v {
	case ValidateNone:
		return "none"
	case ValidateStructure:
		return "structure"
	case ValidateDecode:
		return "decode"
	default:
		return fmt.Sprintf("Validation(%d)", int(v))
	}
}

// Options specifies corruption parameters.
type Options struct {
	// QuantizationTables is the intensity applied to the DQT payloads.
	QuantizationTables Spec
	// ImageData is the intensity applied to the entropy-coded scan data.
	ImageData Spec
	// Validate selects the check run on the result.
	Validate Validation
	// StripMetadata removes APP1..APP15 segments (EXIF, XMP, ICC profiles and the like) from the output.
	// APP0 (JFIF) is kept.
	StripMetadata bool
	// Rand is the random source. If nil, each call uses its own unseeded generator.
	Rand Rand
}

// DefaultOptions returns the default intensities with validation disabled.
func DefaultOptions() *Options {
	return &Options{
		QuantizationTables: DefaultQuantizationSpec,
		ImageData:          DefaultImageSpec,
	}
}

// Mosh returns a corrupted copy of data. qt and im set the intensity for the quantization tables
// and the image data; validate re-scans the result before returning it.
// Failures wrap ErrNoJPEG, ErrMalformedSegment or ErrUnvalidated.
func Mosh(data []byte, qt, im Spec, validate bool) ([]byte, error) {
	doc, err := Scan(data)
	if err != nil {
		return nil, err
	}

	opts := &Options{
		QuantizationTables: qt,
		ImageData:          im,
	}

	if validate {
		opts.Validate = ValidateStructure
	}

	res, err := Corrupt(data, doc, opts)
	if err != nil {
		return nil, err
	}

	return res.Data, nil
}
