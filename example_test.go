package jpegmosh_test

import (
	"bytes"
	"fmt"
	"math/rand/v2"

	"github.com/gen2brain/jpegmosh"
)

func ExampleScan() {
	data := []byte{
		0xff, 0xd8, // SOI
		0xff, 0xdb, 0x00, 0x06, 0x00, 0x10, 0x0b, 0x0c, // DQT
		0xff, 0xda, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3f, 0x00, // SOS
		0x12, 0x34, 0xff, 0x00, 0x56, // Scan data
		0xff, 0xd9, // EOI
	}

	doc, err := jpegmosh.Scan(data)
	if err != nil {
		panic(err)
	}

	for _, seg := range doc.Segments {
		fmt.Printf("0x%02X %-5s at %d: %s\n", seg.Marker, seg.Kind, seg.Start, seg.Name())
	}

	fmt.Println("scan data bytes:", doc.ScanData().Len())

	// Output:
	// 0xD8 other at 0: start of image
	// 0xDB dqt   at 2: quantization tables
	// 0xDA sos   at 10: start of scan
	// 0xD9 other at 25: end of image
	// scan data bytes: 5
}

func ExampleCorrupt() {
	data := []byte{
		0xff, 0xd8,
		0xff, 0xdb, 0x00, 0x06, 0x00, 0x10, 0x0b, 0x0c,
		0xff, 0xda, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3f, 0x00,
		0x12, 0x34, 0x56, 0x78,
		0xff, 0xd9,
	}

	doc, err := jpegmosh.Scan(data)
	if err != nil {
		panic(err)
	}

	res, err := jpegmosh.Corrupt(data, doc, &jpegmosh.Options{
		QuantizationTables: jpegmosh.Spec{Picks: 1, Bits: 1},
		ImageData:          jpegmosh.Spec{Picks: 2, Bits: 1},
		Validate:           jpegmosh.ValidateStructure,
		Rand:               rand.New(rand.NewPCG(1, 2)),
	})
	if err != nil {
		panic(err)
	}

	fmt.Println("flips:", len(res.Flips))
	fmt.Println("same length:", len(res.Data) == len(data))
	fmt.Println("header intact:", bytes.Equal(res.Data[:6], data[:6]))

	// Output:
	// flips: 3
	// same length: true
	// header intact: true
}
