package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/MeKo-Tech/frameocr/internal/testutil"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		outDir  = flag.String("out", "testdata/frames", "output directory, relative to the project root")
		text    = flag.String("text", "Hello World", "text drawn on every frame")
		verbose = flag.Bool("v", false, "Verbose output")
		help    = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate synthetic camera frames, one per device orientation.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s                      # Write testdata/frames/<orientation>.png\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -text \"TOTAL 12.50\"  # Custom frame text\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	root, err := testutil.GetProjectRoot()
	if err != nil {
		slog.Error("Failed to find project root", "error", err)
		os.Exit(1)
	}

	dir := *outDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	if *verbose {
		slog.Info("Options", "out", dir, "text", *text)
	}

	if err := generateFrames(dir, *text); err != nil {
		slog.Error("Failed to generate frames", "error", err)
		os.Exit(1)
	}

	slog.Info("Frame generation completed", "dir", dir)
}

// generateFrames writes one frame per orientation. Each file holds the
// buffer a device held in that orientation would deliver.
func generateFrames(dir, text string) error {
	if err := testutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	for _, o := range orientation.All() {
		cfg := testutil.DefaultFrameConfig()
		cfg.Lines = []string{text}
		cfg.Size = testutil.MediumSize
		cfg.Orientation = o

		path := filepath.Join(dir, o.String()+".png")
		if err := writePNG(path, cfg); err != nil {
			return err
		}
		slog.Info("Generated frame", "path", path, "orientation", o.String(), "exif", o.EXIF())
	}
	return nil
}

func writePNG(path string, cfg testutil.FrameConfig) error {
	file, err := os.Create(path) //nolint:gosec // G304: Test data generation uses controlled paths
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	if err := png.Encode(file, testutil.GenerateFrame(cfg)); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}
