package jpegmosh

import "fmt"

// Marker codes used by the scanner. The 0xFF prefix is implied.
const (
	markerTEM  = 0x01
	markerSOF0 = 0xC0
	markerRST0 = 0xD0
	markerRST7 = 0xD7
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerDQT  = 0xDB
	markerDNL  = 0xDC
	markerDRI  = 0xDD
	markerDHP  = 0xDE
	markerEXP  = 0xDF
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1
	markerAPPF = 0xEF
	markerCOM  = 0xFE
)

// isRST reports whether marker is one of RST0..RST7.
func isRST(marker byte) bool {
	return (marker | 7) == markerRST7
}

// isStandalone reports whether marker is not followed by a length field.
func isStandalone(marker byte) bool {
	switch {
	case marker == markerSOI, marker == markerEOI, marker == markerTEM:
		return true
	case isRST(marker):
		return true
	case marker >= 0x30 && marker <= 0x3F: // Reserved, JPEG 2000 style standalone markers.
		return true
	}

	return false
}

// isAPPn reports whether marker is an APPn application segment.
func isAPPn(marker byte) bool {
	return marker >= markerAPP0 && marker <= markerAPPF
}

// classify maps a marker code to the segment kind the corruption engine cares about.
func classify(marker byte) Kind {
	switch marker {
	case markerDQT:
		return KindQuantizationTable
	case markerSOS:
		return KindStartOfScan
	default:
		return KindOther
	}
}

// sofNames describes the SOFn variants, indexed by marker-0xC0.
var sofNames = [16]string{
	"start of frame, baseline sequential, huffman",
	"start of frame, extended sequential, huffman",
	"start of frame, progressive, huffman",
	"start of frame, lossless, huffman",
	"huffman tables",
	"start of frame, differential sequential, huffman",
	"start of frame, differential progressive, huffman",
	"start of frame, differential lossless, huffman",
	"JPEG extensions",
	"start of frame, extended sequential, arithmetic",
	"start of frame, progressive, arithmetic",
	"start of frame, lossless, arithmetic",
	"arithmetic conditioning table",
	"start of frame, differential sequential, arithmetic",
	"start of frame, differential progressive, arithmetic",
	"start of frame, differential lossless, arithmetic",
}

// MarkerName returns a readable description of a marker code.
func MarkerName(marker byte) string {
	switch {
	case marker == markerSOI:
		return "start of image"
	case marker == markerEOI:
		return "end of image"
	case isRST(marker):
		return fmt.Sprintf("restart %d", marker-markerRST0)
	case marker == markerSOS:
		return "start of scan"
	case marker == markerDQT:
		return "quantization tables"
	case marker == markerDNL:
		return "number of lines"
	case marker == markerDRI:
		return "restart interval"
	case marker == markerDHP:
		return "hierarchical progression"
	case marker == markerEXP:
		return "expand reference components"
	case marker >= markerSOF0 && marker <= 0xCF:
		return sofNames[marker-markerSOF0]
	case isAPPn(marker):
		return fmt.Sprintf("APP%d", marker-markerAPP0)
	case marker == markerCOM:
		return "comment"
	case marker == markerTEM:
		return "temporary"
	case marker >= 0xF0 && marker <= 0xFD:
		return "JPEG extensions"
	case marker >= 0x30 && marker <= 0x3F:
		return "reserved"
	default:
		return "unknown marker"
	}
}
