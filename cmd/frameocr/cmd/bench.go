package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/MeKo-Tech/frameocr/internal/benchmark"
	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/MeKo-Tech/frameocr/internal/frame"
	"github.com/spf13/cobra"
)

// benchCmd represents the bench command.
var benchCmd = &cobra.Command{
	Use:   "bench <image>...",
	Short: "Measure per-frame recognition latency",
	Long: `Run each image through the text engine repeatedly, the way a camera
stream would deliver it, and report latency percentiles, sustained frame
rate and memory growth.

Examples:
  frameocr bench photo.jpg
  frameocr bench *.png --iterations 50 --orientation left`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		iterations, _ := cmd.Flags().GetInt("iterations")
		if iterations <= 0 {
			return fmt.Errorf("invalid iterations: %d (must be positive)", iterations)
		}
		o, err := cfg.FrameOrientation()
		if err != nil {
			return fmt.Errorf("invalid orientation: %w", err)
		}

		logger := slog.Default()
		proc := newProcessor(cfg, logger)
		defer func() {
			if err := engine.ResetShared(); err != nil {
				logger.Warn("Failed to close text engine", "error", err)
			}
		}()

		paths, err := discoverFrames(cmd, args)
		if err != nil {
			return err
		}

		suite := benchmark.NewSuite(proc)
		loaded := 0
		for _, path := range paths {
			f, _, err := frame.Load(path, o, frame.MaxBytes(cfg.Frame.MaxImageMB))
			if err != nil {
				logger.Error("Failed to load frame", "path", path, "error", err)
				continue
			}
			suite.Add(filepath.Base(path), f)
			loaded++
		}
		if loaded == 0 {
			return errors.New("no frame could be loaded")
		}

		suite.Run(cmd.Context(), iterations)
		return suite.WriteReport(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().IntP("iterations", "n", 10, "recognitions per image")
	benchCmd.Flags().String("orientation", "up", "device orientation of the frames")
	addDiscoveryFlags(benchCmd)

	benchCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"frame.default_orientation": "orientation",
		})
	}
}
