package jpegmosh

import "fmt"

// scanner holds the state of a single structural pass over a JPEG buffer.
type scanner struct {
	jpegData []byte    // Input buffer containing the entire JPEG file.
	pos      int       // Current position index in the input buffer.
	size     int       // Remaining bytes to be processed.
	length   int       // Length of the current marker segment payload.
	doc      *Document // Document being built.
}

// skip advances the current position in the jpegData buffer by 'count' bytes.
func (s *scanner) skip(count int) {
	s.pos += count
	s.size -= count

	if s.length >= count {
		s.length -= count
	} else {
		s.length = 0
	}
}

// decode16 reads a 16-bit big-endian integer from the specified offset.
func (s *scanner) decode16(offset int) int {
	p := s.pos + offset

	return (int(s.jpegData[p]) << 8) | int(s.jpegData[p+1])
}

// decodeLength reads the 16-bit length field of a marker segment and checks it against the remaining buffer.
// On success s.length holds the payload size and the position is just past the length field.
func (s *scanner) decodeLength(marker byte, start int) error {
	if s.size < 2 {
		return fmt.Errorf("marker 0x%02X at offset %d: length field truncated: %w", marker, start, ErrMalformedSegment)
	}

	length := s.decode16(0)
	if length < 2 {
		// Length must include its own 2 bytes.
		return fmt.Errorf("marker 0x%02X at offset %d: invalid length %d: %w", marker, start, length, ErrMalformedSegment)
	}

	if length > s.size {
		return fmt.Errorf("marker 0x%02X at offset %d: length %d overruns buffer (%d bytes left): %w",
			marker, start, length, s.size, ErrMalformedSegment)
	}

	s.length = length
	s.skip(2)

	return nil
}

// readMarker consumes a marker prefix at the current position, including any 0xFF fill bytes.
// It returns false if the position does not hold a marker.
func (s *scanner) readMarker() (byte, bool) {
	if s.size < 2 || s.jpegData[s.pos] != 0xFF {
		return 0, false
	}

	p := s.pos + 1
	for p < len(s.jpegData) && s.jpegData[p] == 0xFF {
		p++
	}

	if p >= len(s.jpegData) || s.jpegData[p] == 0x00 {
		return 0, false
	}

	marker := s.jpegData[p]
	s.skip(p + 1 - s.pos)

	return marker, true
}

// scanEntropyData walks entropy-coded data starting at the current position and returns its range.
// Byte-stuffed 0xFF00 pairs and RSTn markers are part of the data. Any other marker ends it.
func (s *scanner) scanEntropyData() Range {
	start := s.pos
	end := len(s.jpegData)

	for p := start; p < end; {
		if s.jpegData[p] != 0xFF {
			p++

			continue
		}

		if p+1 >= end {
			// Reached EOF after a 0xFF. Treat 0xFF as data.
			break
		}

		b2 := s.jpegData[p+1]
		if b2 == 0x00 || isRST(b2) {
			p += 2

			continue
		}

		// A non-RST marker (including 0xFFFF fill) begins the next segment.
		end = p

		break
	}

	s.skip(end - start)

	return Range{Start: start, End: end}
}

// scan walks the buffer segment by segment and fills the document.
func (s *scanner) scan(jpegData []byte) error {
	s.jpegData = jpegData
	s.pos = 0
	s.size = len(jpegData)
	s.doc = &Document{Size: len(jpegData)}

	// Check for SOI (Start of Image) marker.
	if s.size < 2 || s.jpegData[0] != 0xFF || s.jpegData[1] != markerSOI {
		return ErrNoJPEG
	}

markerLoop:
	for s.size > 0 {
		start := s.pos

		marker, ok := s.readMarker()
		if !ok {
			// Not a marker where one is expected; the rest is unstructured.
			break markerLoop
		}

		seg := Segment{
			Start:  start,
			Marker: marker,
			Kind:   classify(marker),
		}

		if isStandalone(marker) {
			seg.Payload = Range{Start: s.pos, End: s.pos}
			seg.ScanData = seg.Payload
			s.doc.Segments = append(s.doc.Segments, seg)

			if marker == markerEOI {
				s.doc.Terminated = true

				break markerLoop
			}

			continue
		}

		if err := s.decodeLength(marker, start); err != nil {
			return err
		}

		seg.Payload = Range{Start: s.pos, End: s.pos + s.length}
		s.skip(s.length)

		switch seg.Kind {
		case KindStartOfScan:
			seg.ScanData = s.scanEntropyData()
		case KindQuantizationTable, KindOther:
			seg.ScanData = Range{Start: s.pos, End: s.pos}
		}

		s.doc.Segments = append(s.doc.Segments, seg)
	}

	s.doc.Trailer = Range{Start: s.pos, End: len(s.jpegData)}

	return nil
}

// Scan parses data into its ordered marker segments.
// It returns ErrNoJPEG if data does not start with an SOI marker and ErrMalformedSegment
// if a segment's declared length does not fit in the buffer.
func Scan(data []byte) (*Document, error) {
	var s scanner
	if err := s.scan(data); err != nil {
		return nil, err
	}

	return s.doc, nil
}
