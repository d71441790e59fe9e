package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gen2brain/jpegmosh"
)

// Marker codes whose payloads the dump decodes.
const (
	markerSOF0 = 0xC0
	markerDHT  = 0xC4
	markerJPG  = 0xC8
	markerDAC  = 0xCC
	markerSOFF = 0xCF
	markerSOS  = 0xDA
	markerDQT  = 0xDB
	markerDRI  = 0xDD
	markerAPP0 = 0xE0
	markerAPPF = 0xEF
	markerCOM  = 0xFE
)

// detailIndent lines up detail lines with the name column of a segment line.
const detailIndent = 33

const maxCommentLen = 60

// dumpFiles prints the segment structure of each file. It returns the exit code.
func dumpFiles(o *IO, workDir string, paths []string) int {
	failed := 0

	for _, path := range paths {
		src := path
		if !filepath.IsAbs(src) {
			src = filepath.Join(workDir, src)
		}

		data, err := os.ReadFile(src) //nolint:gosec // path is intentionally user-controlled
		if err != nil {
			o.ErrPrintln("error:", path+":", err)

			failed++

			continue
		}

		doc, err := jpegmosh.Scan(data)
		if err != nil {
			o.ErrPrintln("error:", path+":", err)

			failed++

			continue
		}

		dumpDocument(o, path, data, doc)
	}

	if failed > 0 {
		return exitFail
	}

	return exitOK
}

func dumpDocument(o *IO, path string, data []byte, doc *jpegmosh.Document) {
	o.Printf("%s: %d bytes, %d segments\n", path, doc.Size, len(doc.Segments))

	for _, seg := range doc.Segments {
		payload := data[seg.Payload.Start:seg.Payload.End]

		name := seg.Name()
		if isAPPn(seg.Marker) {
			if id := appIdentifier(payload); id != "" {
				name += " " + strconv.Quote(id)
			}
		}

		o.Printf("  %8d  FF%02X  %-5s  %6d  %s\n", seg.Start, seg.Marker, seg.Kind, seg.Payload.Len(), name)

		for _, line := range segmentDetails(seg.Marker, payload) {
			o.Printf("%*s%s\n", detailIndent, "", line)
		}

		if !seg.ScanData.Empty() {
			o.Printf("  %8d        %-5s  %6d  entropy-coded data\n", seg.ScanData.Start, "data", seg.ScanData.Len())
		}
	}

	if !doc.Terminated {
		o.Println("  no end of image marker")
	}

	if !doc.Trailer.Empty() {
		o.Printf("  %8d        %-5s  %6d  trailing bytes\n", doc.Trailer.Start, "junk", doc.Trailer.Len())
	}
}

// segmentDetails decodes the header fields of the segments worth looking at.
// Payloads may be corrupted, so every field is bounds checked.
func segmentDetails(marker byte, p []byte) []string {
	switch {
	case marker == markerAPP0 && bytes.HasPrefix(p, []byte("JFIF\x00")):
		return jfifDetails(p)
	case marker == markerDQT:
		return tableDetails(p)
	case marker == markerSOS:
		return scanDetails(p)
	case isFrame(marker):
		return frameDetails(p)
	case marker == markerDRI && len(p) >= 2:
		return []string{fmt.Sprintf("interval %d MCUs", be16(p))}
	case marker == markerCOM:
		if len(p) > maxCommentLen {
			return []string{fmt.Sprintf("text %q...", p[:maxCommentLen])}
		}

		return []string{fmt.Sprintf("text %q", p)}
	}

	return nil
}

func jfifDetails(p []byte) []string {
	if len(p) < 14 {
		return []string{"JFIF (truncated)"}
	}

	var units string

	switch p[7] {
	case 0:
		units = "(aspect ratio)"
	case 1:
		units = "dpi"
	case 2:
		units = "dpcm"
	default:
		units = fmt.Sprintf("(units %d)", p[7])
	}

	lines := []string{fmt.Sprintf("JFIF %d.%02d, density %dx%d %s", p[5], p[6], be16(p[8:]), be16(p[10:]), units)}
	if p[12] != 0 || p[13] != 0 {
		lines = append(lines, fmt.Sprintf("thumbnail %dx%d", p[12], p[13]))
	}

	return lines
}

func tableDetails(p []byte) []string {
	var lines []string

	for len(p) > 0 {
		precision, id := p[0]>>4, p[0]&0x0F

		bits, size := 8, 64
		if precision != 0 {
			bits, size = 16, 128
		}

		if len(p)-1 < size {
			lines = append(lines, fmt.Sprintf("table %d, %d-bit (truncated)", id, bits))

			break
		}

		lines = append(lines, fmt.Sprintf("table %d, %d-bit", id, bits))
		p = p[1+size:]
	}

	return lines
}

func frameDetails(p []byte) []string {
	if len(p) < 6 {
		return []string{"frame header (truncated)"}
	}

	n := int(p[5])
	lines := []string{fmt.Sprintf("%dx%d px, %d-bit, components: %d", be16(p[3:]), be16(p[1:]), p[0], n)}

	for i := 0; i < n; i++ {
		c := p[min(6+3*i, len(p)):]
		if len(c) < 3 {
			lines = append(lines, "(truncated)")

			break
		}

		lines = append(lines, fmt.Sprintf("component %s: sampling %dx%d, quantization table %d",
			componentName(c[0]), c[1]>>4, c[1]&0x0F, c[2]))
	}

	return lines
}

func scanDetails(p []byte) []string {
	if len(p) < 1 {
		return []string{"scan header (truncated)"}
	}

	n := int(p[0])

	var lines []string

	for i := 0; i < n; i++ {
		c := p[min(1+2*i, len(p)):]
		if len(c) < 2 {
			return append(lines, "(truncated)")
		}

		lines = append(lines, fmt.Sprintf("component %s: dc table %d, ac table %d", componentName(c[0]), c[1]>>4, c[1]&0x0F))
	}

	if tail := p[min(1+2*n, len(p)):]; len(tail) >= 3 {
		lines = append(lines, fmt.Sprintf("spectral selection %d-%d, successive approximation %d/%d",
			tail[0], tail[1], tail[2]>>4, tail[2]&0x0F))
	}

	return lines
}

// appIdentifier returns the NUL-terminated ASCII tag that opens most APPn payloads, e.g. "Exif".
func appIdentifier(p []byte) string {
	end := bytes.IndexByte(p[:min(len(p), 32)], 0)
	if end <= 0 {
		return ""
	}

	for _, b := range p[:end] {
		if b < 0x20 || b > 0x7E {
			return ""
		}
	}

	return string(p[:end])
}

// componentName returns the conventional channel name of a component id.
func componentName(id byte) string {
	switch id {
	case 1:
		return "Y"
	case 2:
		return "Cb"
	case 3:
		return "Cr"
	case 4:
		return "I"
	case 5:
		return "Q"
	default:
		return strconv.Itoa(int(id))
	}
}

// isFrame reports whether marker is one of the SOFn frame headers.
func isFrame(marker byte) bool {
	switch marker {
	case markerDHT, markerJPG, markerDAC:
		return false
	}

	return marker >= markerSOF0 && marker <= markerSOFF
}

func isAPPn(marker byte) bool {
	return marker >= markerAPP0 && marker <= markerAPPF
}

func be16(p []byte) int {
	return int(p[0])<<8 | int(p[1])
}
