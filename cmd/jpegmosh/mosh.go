package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/zeebo/blake3"

	"github.com/gen2brain/jpegmosh"
)

const filePerms = 0o644

var errOutputExists = errors.New("output already exists")

// OutputPath derives the output file name from the input path and the intensities,
// e.g. photo.jpg -> photo_mosh_qt2x1_im15x1.jpg.
func OutputPath(path string, qt, im jpegmosh.Spec) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	if ext == "" {
		ext = ".jpg"
	}

	return fmt.Sprintf("%s_mosh_qt%dx%d_im%dx%d%s", stem, qt.Picks, qt.Bits, im.Picks, im.Bits, ext)
}

// mosher corrupts input files one at a time.
type mosher struct {
	io      *IO
	cfg     Config
	workDir string
	seed    uint64
}

func (m *mosher) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(m.workDir, path)
}

// rand returns the random source for the index-th file. A zero seed leaves the choice to the library.
func (m *mosher) rand(index int) jpegmosh.Rand {
	if m.seed == 0 {
		return nil
	}

	return rand.New(rand.NewPCG(m.seed, uint64(index)))
}

// processFile writes a corrupted copy of path. An existing output is skipped, not replaced.
func (m *mosher) processFile(index int, path string) error {
	src := m.resolve(path)
	dst := OutputPath(src, m.cfg.QT, m.cfg.IM)

	if _, err := os.Stat(dst); err == nil {
		m.io.Printf("skipping %s: %s already exists\n", path, dst)

		return nil
	}

	data, err := os.ReadFile(src) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return fmt.Errorf("cannot read input: %w", err)
	}

	doc, err := jpegmosh.Scan(data)
	if err != nil {
		return err
	}

	opts := &jpegmosh.Options{
		QuantizationTables: m.cfg.QT,
		ImageData:          m.cfg.IM,
		Validate:           m.cfg.Validation(),
		StripMetadata:      m.cfg.StripMetadata,
		Rand:               m.rand(index),
	}

	attempts := 1
	if opts.Validate != jpegmosh.ValidateNone {
		attempts = m.cfg.Retries
	}

	var res *jpegmosh.Result

	for attempt := 1; ; attempt++ {
		res, err = jpegmosh.Corrupt(data, doc, opts)
		if err == nil {
			break
		}

		if !errors.Is(err, jpegmosh.ErrUnvalidated) {
			return err
		}

		if attempt >= attempts {
			return fmt.Errorf("no valid result after %d attempts, try less corruption: %w", attempt, err)
		}
	}

	if err := writeExclusive(dst, res.Data); err != nil {
		if errors.Is(err, errOutputExists) {
			m.io.Printf("skipping %s: %s already exists\n", path, dst)

			return nil
		}

		return err
	}

	sum := blake3.Sum256(res.Data)
	m.io.Printf("%s -> %s (%d picks, blake3 %x)\n", path, dst, len(res.Flips), sum[:8])

	return nil
}

// writeExclusive atomically writes data to dst, failing with errOutputExists rather than replacing
// an existing file. The data is staged in a temp file next to dst and hard-linked into place.
func writeExclusive(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}

	staging := tmp.Name()
	_ = tmp.Close()

	defer func() { _ = os.Remove(staging) }()

	if err := atomic.WriteFile(staging, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("cannot write output: %w", err)
	}

	// CreateTemp leaves the staging file at 0600, and the link shares its mode.
	if err := os.Chmod(staging, filePerms); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	// Unlike rename, link never replaces an existing destination.
	if err := os.Link(staging, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", errOutputExists, dst)
		}

		return fmt.Errorf("cannot write output: %w", err)
	}

	return nil
}
