package jpegmosh

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// baselineGray2x2 is a minimal 2x2, 8-bit grayscale, baseline JPEG.
var baselineGray2x2 = []byte{
	// SOI: Start of Image
	0xff, 0xd8,
	// APP0: JFIF segment
	0xff, 0xe0, 0x00, 0x10, 0x4a, 0x46, 0x49, 0x46, 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01,
	0x00, 0x00,
	// DQT: Define Quantization Table
	0xff, 0xdb, 0x00, 0x43, 0x00, 0x03, 0x02, 0x02, 0x02, 0x02, 0x02, 0x03, 0x02, 0x02, 0x02, 0x03,
	0x03, 0x03, 0x03, 0x04, 0x06, 0x04, 0x04, 0x04, 0x05, 0x0a, 0x07, 0x07, 0x08, 0x0a, 0x0d, 0x0b,
	0x0d, 0x0c, 0x0c, 0x0b, 0x0b, 0x0c, 0x11, 0x0f, 0x12, 0x10, 0x13, 0x12, 0x11, 0x0f, 0x11, 0x10,
	0x10, 0x14, 0x18, 0x1a, 0x17, 0x14, 0x15, 0x18, 0x10, 0x10, 0x13, 0x1c, 0x15, 0x13, 0x15, 0x16,
	0x19, 0x1c, 0x19, 0x19, 0x19,

	// SOF0: Start of Frame (Baseline DCT)
	0xff, 0xc0, 0x00, 0x0b, 0x08, 0x00, 0x02, 0x00, 0x02, 0x01, 0x01, 0x11, 0x00,

	// DHT for DC table 0 (Standard Luminance DC)
	0xff, 0xc4, 0x00, 0x1f, 0x00,
	// Counts (16 bytes)
	0x00, 0x01, 0x05, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	// Values (12 bytes)
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b,

	// DHT for AC table 0 (Standard Luminance AC)
	0xff, 0xc4, 0x00, 0xb5, 0x10,
	// Counts (16 bytes)
	0x00, 0x02, 0x01, 0x03, 0x03, 0x02, 0x04, 0x03, 0x05, 0x05, 0x04, 0x04, 0x00, 0x00, 0x01, 0x7d,
	// Values (162 bytes)
	0x01, 0x02, 0x03, 0x00, 0x04, 0x11, 0x05, 0x12, 0x21, 0x31, 0x41, 0x06, 0x13, 0x51, 0x61, 0x07,
	0x22, 0x71, 0x14, 0x32, 0x81, 0x91, 0xa1, 0x08, 0x23, 0x42, 0xb1, 0xc1, 0x15, 0x52, 0xd1, 0xf0,
	0x24, 0x33, 0x62, 0x72, 0x82, 0x09, 0x0a, 0x16, 0x17, 0x18, 0x19, 0x1a, 0x25, 0x26, 0x27, 0x28,
	0x29, 0x2a, 0x34, 0x35, 0x36, 0x37, 0x38, 0x39, 0x3a, 0x43, 0x44, 0x45, 0x46, 0x47, 0x48, 0x49,
	0x4a, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58, 0x59, 0x5a, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69,
	0x6a, 0x73, 0x74, 0x75, 0x76, 0x77, 0x78, 0x79, 0x7a, 0x83, 0x84, 0x85, 0x86, 0x87, 0x88, 0x89,
	0x8a, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97, 0x98, 0x99, 0x9a, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7,
	0xa8, 0xa9, 0xaa, 0xb2, 0xb3, 0xb4, 0xb5, 0xb6, 0xb7, 0xb8, 0xb9, 0xba, 0xc2, 0xc3, 0xc4, 0xc5,
	0xc6, 0xc7, 0xc8, 0xc9, 0xca, 0xd2, 0xd3, 0xd4, 0xd5, 0xd6, 0xd7, 0xd8, 0xd9, 0xda, 0xe1, 0xe2,
	0xe3, 0xe4, 0xe5, 0xe6, 0xe7, 0xe8, 0xe9, 0xea, 0xf1, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6, 0xf7, 0xf8,
	0xf9, 0xfa,

	// SOS: Start of Scan
	0xff, 0xda, // Marker
	0x00, 0x08, // Length 8 (6 + 2*1 component)
	0x01,       // Ns=1 (1 component)
	0x01, 0x00, // Cs=1 (ID 1), Td/Ta=0 (DC/AC table 0)
	0x00, 0x3f, 0x00, // Ss=0, Se=63, Ah/Al=0 (Baseline parameters)

	// Scan data
	0xed, 0x9f, 0x2f, 0x84, 0xa2, 0x8b, 0x1f, 0x22, 0xa2, 0x80, 0x2a, 0x28,
	0xa2, 0x80, 0x2a, 0x28, 0xa2, 0x80, 0x2a, 0x28, 0xa2, 0x80, 0x3f,

	// EOI: End of Image
	0xff, 0xd9,
}

// minimalScanData is 20 bytes of entropy-coded data with no 0xFF bytes.
var minimalScanData = []byte{
	0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x0f, 0xed,
	0xcb, 0xa9, 0x87, 0x65, 0x43, 0x21, 0x11, 0x22, 0x33, 0x44,
}

// minimalJPEG is SOI, a DQT segment with an 8-byte payload, an SOS header, 20 bytes of scan data and EOI.
//
//	SOI   [0, 2)
//	DQT   [2, 14)   payload [6, 14)
//	SOS   [14, 44)  payload [18, 24), scan data [24, 44)
//	EOI   [44, 46)
var minimalJPEG = jpegBytes(
	[]byte{0xff, 0xd8},
	segmentBytes(0xdb, []byte{0x00, 0x10, 0x0b, 0x0c, 0x0e, 0x0c, 0x0a, 0x10}),
	segmentBytes(0xda, []byte{0x01, 0x01, 0x00, 0x00, 0x3f, 0x00}),
	minimalScanData,
	[]byte{0xff, 0xd9},
)

// jpegBytes concatenates parts into one buffer.
func jpegBytes(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// segmentBytes encodes a length-prefixed marker segment.
func segmentBytes(marker byte, payload []byte) []byte {
	length := len(payload) + 2
	out := []byte{0xff, marker, byte(length >> 8), byte(length)}

	return append(out, payload...)
}

// encodeTestJPEG returns a JPEG produced by the standard library encoder: two DQT tables, a 4:2:0 scan.
func encodeTestJPEG(t testing.TB) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 48, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 7), B: uint8((x + y) * 3), A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}

	return buf.Bytes()
}

// checkCoverage verifies that doc describes contiguous, non-overlapping segments that,
// together with the trailer, account for every byte of a buffer of length n.
func checkCoverage(t testing.TB, doc *Document, n int) {
	t.Helper()

	if doc.Size != n {
		t.Fatalf("Size = %d, want %d", doc.Size, n)
	}

	if len(doc.Segments) == 0 {
		t.Fatalf("no segments")
	}

	prev := 0
	total := 0
	for i, seg := range doc.Segments {
		if seg.Start != prev {
			t.Fatalf("segment %d starts at %d, previous ended at %d", i, seg.Start, prev)
		}

		if seg.Payload.Start < seg.Start || seg.Payload.End < seg.Payload.Start {
			t.Fatalf("segment %d has bad payload %+v", i, seg.Payload)
		}

		if !seg.ScanData.Empty() && seg.ScanData.Start != seg.Payload.End {
			t.Fatalf("segment %d scan data %+v does not follow payload %+v", i, seg.ScanData, seg.Payload)
		}

		if !seg.ScanData.Empty() && seg.Kind != KindStartOfScan {
			t.Fatalf("segment %d of kind %v owns scan data", i, seg.Kind)
		}

		total += seg.Len()
		prev = seg.End()
	}

	if doc.Trailer.Start != prev || doc.Trailer.End != n {
		t.Fatalf("trailer = %+v, want [%d, %d)", doc.Trailer, prev, n)
	}

	if total+doc.Trailer.Len() != n {
		t.Fatalf("segments cover %d bytes + trailer %d, want %d", total, doc.Trailer.Len(), n)
	}
}
