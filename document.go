package jpegmosh

import "sort"

// Kind classifies a marker segment for corruption purposes.
type Kind uint8

const (
	// KindOther is any segment the corruption engine leaves alone.
	KindOther Kind = iota
	// KindQuantizationTable is a DQT segment; its payload holds one or more quantization tables.
	KindQuantizationTable
	// KindStartOfScan is an SOS segment; it owns the entropy-coded data following its header.
	KindStartOfScan
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindQuantizationTable:
		return "dqt"
	case KindStartOfScan:
		return "sos"
	case KindOther:
		return "other"
	default:
		return "invalid"
	}
}

// Range is a half-open byte range [Start, End) into a scanned buffer.
type Range struct {
	Start, End int
}

// Len returns the number of bytes in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Empty reports whether the range holds no bytes.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Contains reports whether off lies inside the range.
func (r Range) Contains(off int) bool {
	return off >= r.Start && off < r.End
}

// Segment is a single marker segment located in a buffer.
type Segment struct {
	Start    int   // Offset of the first 0xFF byte, fill bytes included.
	Marker   byte  // Marker code following the 0xFF prefix.
	Kind     Kind  // Classification of the marker.
	Payload  Range // Bytes after the length field. Empty for standalone markers.
	ScanData Range // Entropy-coded data after an SOS header. Empty for other kinds.
}

// End returns the offset just past the last byte owned by the segment.
func (s Segment) End() int {
	if s.ScanData.End > s.Payload.End {
		return s.ScanData.End
	}

	return s.Payload.End
}

// Len returns the total number of bytes owned by the segment.
func (s Segment) Len() int {
	return s.End() - s.Start
}

// Name returns a readable description of the segment's marker.
func (s Segment) Name() string {
	return MarkerName(s.Marker)
}

// Document is the marker structure of a JPEG buffer.
type Document struct {
	Segments   []Segment // Segments in file order, starting with SOI.
	Size       int       // Length of the scanned buffer.
	Terminated bool      // Whether an EOI marker was reached.
	Trailer    Range     // Bytes after the last segment that carry no marker structure.
}

// Find returns the segments of the given kind in file order.
func (d *Document) Find(kind Kind) []Segment {
	var out []Segment
	for _, seg := range d.Segments {
		if seg.Kind == kind {
			out = append(out, seg)
		}
	}

	return out
}

// QuantizationTables returns the corruption target spanning all DQT payloads.
func (d *Document) QuantizationTables() *Target {
	var ranges []Range
	for _, seg := range d.Find(KindQuantizationTable) {
		ranges = append(ranges, seg.Payload)
	}

	return NewTarget(ranges...)
}

// ScanData returns the corruption target spanning the entropy-coded data of all scans.
func (d *Document) ScanData() *Target {
	var ranges []Range
	for _, seg := range d.Find(KindStartOfScan) {
		ranges = append(ranges, seg.ScanData)
	}

	return NewTarget(ranges...)
}

// Target is a logical, contiguous index space over disjoint byte ranges of one buffer.
type Target struct {
	ranges []Range
	ends   []int // Cumulative logical end of each range.
}

// NewTarget builds a target from ranges. Empty ranges are dropped.
func NewTarget(ranges ...Range) *Target {
	t := &Target{}

	total := 0
	for _, r := range ranges {
		if r.Empty() {
			continue
		}

		total += r.Len()
		t.ranges = append(t.ranges, r)
		t.ends = append(t.ends, total)
	}

	return t
}

// Len returns the number of addressable bytes.
func (t *Target) Len() int {
	if len(t.ends) == 0 {
		return 0
	}

	return t.ends[len(t.ends)-1]
}

// Ranges returns the non-empty ranges backing the target.
func (t *Target) Ranges() []Range {
	return t.ranges
}

// Contains reports whether the absolute offset off belongs to the target.
func (t *Target) Contains(off int) bool {
	for _, r := range t.ranges {
		if r.Contains(off) {
			return true
		}
	}

	return false
}

// Offset maps logical index i in [0, Len()) to an absolute buffer offset.
func (t *Target) Offset(i int) int {
	if i < 0 || i >= t.Len() {
		panic("jpegmosh: target index out of range")
	}

	k := sort.SearchInts(t.ends, i+1)
	base := 0
	if k > 0 {
		base = t.ends[k-1]
	}

	return t.ranges[k].Start + (i - base)
}
