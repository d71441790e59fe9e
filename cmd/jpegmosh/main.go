// Package main provides jpegmosh, a command that writes glitched copies of JPEG files.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/gen2brain/jpegmosh"
)

const usage = `Usage: jpegmosh [flags] <file.jpg>...

Writes a corrupted copy of each input next to it, named after the intensities used,
e.g. photo_mosh_qt2x1_im15x1.jpg. Existing outputs are never overwritten.

Intensities are "<picks>,<bits>": how many random bytes to pick in the region and
how many distinct bits to flip in each of them.

Flags:
`

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Stdout, os.Stderr, os.Args[1:]))
}

// flags holds the parsed command line.
type flags struct {
	set       *flag.FlagSet
	workDir   string
	config    string
	qt        string
	im        string
	validate  bool
	decode    bool
	retries   int
	seed      uint64
	strip     bool
	dump      bool
	help      bool
	remaining []string
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}

	fs := flag.NewFlagSet("jpegmosh", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&f.workDir, "cwd", "C", "", "Run as if started in `dir`")
	fs.StringVarP(&f.config, "config", "c", "", "Use config file `path` instead of "+ConfigFileName)
	fs.StringVar(&f.qt, "corrupt-qt", jpegmosh.DefaultQuantizationSpec.String(), "Quantization table corruption as `picks,bits`")
	fs.StringVar(&f.im, "corrupt-im", jpegmosh.DefaultImageSpec.String(), "Image data corruption as `picks,bits`")
	fs.BoolVar(&f.validate, "validate", false, "Re-scan the result and retry if its structure broke")
	fs.BoolVar(&f.decode, "decode-check", false, "Like --validate, and also require the result to decode")
	fs.IntVar(&f.retries, "retries", defaultRetries, "Attempts per file when validation fails")
	fs.Uint64Var(&f.seed, "seed", 0, "Seed for reproducible output (0 picks a random seed)")
	fs.BoolVar(&f.strip, "strip-metadata", false, "Drop APP1-APP15 segments (EXIF, XMP, ICC, ...)")
	fs.BoolVar(&f.dump, "dump", false, "Print the segment structure of each file instead of moshing it")
	fs.BoolVarP(&f.help, "help", "h", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f.set = fs
	f.remaining = fs.Args()

	return f, nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprint(w, usage)

	var buf strings.Builder
	fs.SetOutput(&buf)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)

	_, _ = fmt.Fprint(w, buf.String())
}

// resolveWorkDir returns --cwd or, if unset, the process working directory.
func resolveWorkDir(f *flags) (string, error) {
	if f.workDir != "" {
		return f.workDir, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot get working directory: %w", err)
	}

	return wd, nil
}

// resolveConfig applies explicitly set flags over the file configuration.
func resolveConfig(f *flags, workDir string) (Config, string, error) {
	cfg, source, err := LoadConfig(workDir, f.config)
	if err != nil {
		return Config{}, "", err
	}

	if f.set.Changed("corrupt-qt") {
		spec, err := jpegmosh.ParseSpec(f.qt)
		if err != nil {
			return Config{}, "", fmt.Errorf("--corrupt-qt: %w", err)
		}

		cfg.QT = spec
	}

	if f.set.Changed("corrupt-im") {
		spec, err := jpegmosh.ParseSpec(f.im)
		if err != nil {
			return Config{}, "", fmt.Errorf("--corrupt-im: %w", err)
		}

		cfg.IM = spec
	}

	if f.set.Changed("validate") {
		cfg.Validate = f.validate
	}

	if f.set.Changed("decode-check") {
		cfg.DecodeCheck = f.decode
	}

	if f.set.Changed("retries") {
		cfg.Retries = f.retries
	}

	if f.set.Changed("strip-metadata") {
		cfg.StripMetadata = f.strip
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, "", err
	}

	return cfg, source, nil
}

// run executes the command and returns the exit code.
func run(out, errOut io.Writer, args []string) int {
	o := NewIO(out, errOut)

	f, err := parseFlags(args)
	if err != nil {
		o.ErrPrintln("error:", err)

		return exitUsage
	}

	if f.help {
		printUsage(out, f.set)

		return exitOK
	}

	if len(f.remaining) == 0 {
		printUsage(errOut, f.set)

		return exitUsage
	}

	workDir, err := resolveWorkDir(f)
	if err != nil {
		o.ErrPrintln("error:", err)

		return exitFail
	}

	if f.dump {
		return dumpFiles(o, workDir, f.remaining)
	}

	cfg, source, err := resolveConfig(f, workDir)
	if err != nil {
		o.ErrPrintln("error:", err)

		return exitUsage
	}

	if source != "" {
		o.Printf("using config %s\n", source)
	}

	// Changing nothing multiple times doesn't make sense, but it is not an error.
	if cfg.QT.Inert() {
		o.Warn("--corrupt-qt %s picks bytes but flips no bits", cfg.QT)
	}

	if cfg.IM.Inert() {
		o.Warn("--corrupt-im %s picks bytes but flips no bits", cfg.IM)
	}

	m := &mosher{
		io:      o,
		cfg:     cfg,
		workDir: workDir,
		seed:    f.seed,
	}

	failed := 0
	for i, path := range f.remaining {
		if err := m.processFile(i, path); err != nil {
			o.ErrPrintln("error:", path+":", err)

			failed++
		}
	}

	if failed > 0 {
		o.ErrPrintln(fmt.Sprintf("%d of %d files failed", failed, len(f.remaining)))

		return exitFail
	}

	return exitOK
}
