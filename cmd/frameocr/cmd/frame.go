package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/MeKo-Tech/frameocr/internal/flatten"
	"github.com/MeKo-Tech/frameocr/internal/frame"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/spf13/cobra"
)

// frameProcessor is the part of frameproc.Processor used by the commands.
type frameProcessor interface {
	Process(ctx context.Context, f frame.Frame) (*flatten.Document, flatten.Diagnostics)
}

// frameOptions controls how image files are turned into documents.
type frameOptions struct {
	Orientation orientation.Orientation
	Format      string
	Pretty      bool
	MaxBytes    int64
}

// frameCmd represents the frame command.
var frameCmd = &cobra.Command{
	Use:   "frame <image>...",
	Short: "Recognize text in image files as camera frames",
	Long: `Recognize text in one or more image files, each treated as a single
camera frame, and print one document per frame.

Supported formats: JPEG, PNG, BMP, TIFF, WebP

A frame the engine cannot recognize prints as null (JSON/YAML) or an empty
line (text).

Examples:
  frameocr frame photo.jpg
  frameocr frame portrait.png --orientation left
  frameocr frame *.png --format yaml
  frameocr frame captures/ --recursive --exclude '*_thumb.png'
  frameocr frame shot.jpg --output result.json --pretty`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		opts := frameOptions{
			Format:   cfg.Output.Format,
			Pretty:   cfg.Output.Pretty,
			MaxBytes: frame.MaxBytes(cfg.Frame.MaxImageMB),
		}
		o, err := cfg.FrameOrientation()
		if err != nil {
			return fmt.Errorf("invalid orientation: %w", err)
		}
		opts.Orientation = o

		paths, err := discoverFrames(cmd, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		logger := slog.Default()
		proc := newProcessor(cfg, logger)
		defer func() {
			if err := engine.ResetShared(); err != nil {
				logger.Warn("Failed to close text engine", "error", err)
			}
		}()

		return runFrames(cmd.Context(), out, proc, paths, opts, logger)
	},
}

// discoverFrames expands the file and directory arguments of cmd.
func discoverFrames(cmd *cobra.Command, args []string) ([]string, error) {
	recursive, _ := cmd.Flags().GetBool("recursive")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	paths, err := frame.Discover(args, frame.DiscoverOptions{
		Recursive: recursive,
		Include:   include,
		Exclude:   exclude,
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no frame files found")
	}
	return paths, nil
}

// runFrames recognizes every path and writes its document to out. Files
// that cannot be loaded are reported and skipped.
func runFrames(ctx context.Context, out io.Writer, proc frameProcessor, paths []string, opts frameOptions, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	failed := 0
	for i, path := range paths {
		f, meta, err := frame.Load(path, opts.Orientation, opts.MaxBytes)
		if err != nil {
			logger.Error("Failed to load frame", "path", path, "error", err)
			failed++
			continue
		}
		logger.Debug("Frame loaded",
			"path", meta.Path,
			"format", meta.Format,
			"width", meta.Width,
			"height", meta.Height,
			"size_bytes", meta.SizeBytes)

		doc, _ := proc.Process(ctx, f)
		rendered, err := flatten.Render(doc, opts.Format, opts.Pretty)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", path, err)
		}

		if len(paths) > 1 {
			if err := writeSeparator(out, opts.Format, path, i); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out, rendered); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if failed > 0 {
		if failed == len(paths) {
			return errors.New("no frame could be loaded")
		}
		return fmt.Errorf("%d of %d frames could not be loaded", failed, len(paths))
	}
	return nil
}

// writeSeparator marks the start of a document when several files are
// processed. JSON output stays one document per line.
func writeSeparator(out io.Writer, format, path string, index int) error {
	var err error
	switch format {
	case flatten.FormatYAML:
		_, err = fmt.Fprintf(out, "--- # %s\n", path)
	case flatten.FormatText:
		if index > 0 {
			_, err = fmt.Fprintln(out)
		}
		if err == nil {
			_, err = fmt.Fprintf(out, "== %s ==\n", path)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(frameCmd)

	frameCmd.Flags().String("orientation", "up",
		"device orientation of the frames (up, down, left, right, *Mirrored, or EXIF tag 1-8)")
	frameCmd.Flags().StringP("format", "f", "json", "output format (json, yaml, text)")
	frameCmd.Flags().Bool("pretty", false, "indent JSON output")
	frameCmd.Flags().StringP("output", "o", "", "write documents to a file instead of stdout")
	frameCmd.Flags().Int("max-image-mb", 20, "maximum image file size in MB")
	addDiscoveryFlags(frameCmd)

	frameCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"frame.default_orientation": "orientation",
			"output.format":             "format",
			"output.pretty":             "pretty",
			"frame.max_image_mb":        "max-image-mb",
		})
	}
}

// addDiscoveryFlags adds the flags read by discoverFrames.
func addDiscoveryFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	cmd.Flags().StringSlice("include", nil, "only process files matching these glob patterns")
	cmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")
}

// bindFlags binds the flags of cmd to configuration keys. Binding happens
// when the command runs because several commands share keys.
func bindFlags(cmd *cobra.Command, bindings map[string]string) error {
	v := GetConfigLoader().GetViper()
	for key, name := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}
