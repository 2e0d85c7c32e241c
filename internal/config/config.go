package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/frameocr/internal/engine/tesseract"
	"github.com/MeKo-Tech/frameocr/internal/flatten"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
)

// Engine names accepted by engine.name.
const (
	EngineTesseract = "tesseract"
	EngineNone      = "none"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	tess := tesseract.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Engine: EngineConfig{
			Name:        EngineTesseract,
			Languages:   tess.Languages,
			PageSegMode: tess.PageSegMode,
		},
		Frame: FrameConfig{
			DefaultOrientation: orientation.Up.String(),
			MaxImageMB:         20,
		},
		Output: OutputConfig{
			Format: flatten.FormatJSON,
			Pretty: false,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			DropOverlapping: true,

			RateLimitEnabled: false,
			FramesPerMinute:  600,
			FramesPerHour:    20000,
			MaxFramesPerDay:  200000,
			MaxDataPerDay:    10 << 30,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validEngines := []string{EngineTesseract, EngineNone}
	if !slices.Contains(validEngines, c.Engine.Name) {
		return fmt.Errorf("invalid engine: %s (must be one of: %s)", c.Engine.Name, strings.Join(validEngines, ", "))
	}
	if c.Engine.Name == EngineTesseract && len(c.Engine.Languages) == 0 {
		return fmt.Errorf("engine.languages must not be empty for %s", EngineTesseract)
	}
	if c.Engine.PageSegMode < 0 || c.Engine.PageSegMode > 13 {
		return fmt.Errorf("invalid page segmentation mode: %d (must be between 0 and 13)", c.Engine.PageSegMode)
	}

	if _, err := c.FrameOrientation(); err != nil {
		return fmt.Errorf("invalid frame.default_orientation: %w", err)
	}
	if c.Frame.MaxImageMB < 0 {
		return fmt.Errorf("invalid max image size: %d (must not be negative)", c.Frame.MaxImageMB)
	}

	if c.Output.Format != "" && !slices.Contains(flatten.Formats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(flatten.Formats, ", "))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must not be negative)", c.Server.ShutdownTimeout)
	}
	if c.Server.FramesPerMinute < 0 || c.Server.FramesPerHour < 0 || c.Server.MaxFramesPerDay < 0 || c.Server.MaxDataPerDay < 0 {
		return errors.New("invalid rate limit: limits must not be negative")
	}

	return nil
}

// FrameOrientation parses frame.default_orientation. An empty value means up.
func (c *Config) FrameOrientation() (orientation.Orientation, error) {
	if strings.TrimSpace(c.Frame.DefaultOrientation) == "" {
		return orientation.Up, nil
	}
	return orientation.Parse(c.Frame.DefaultOrientation)
}

// ToTesseractConfig converts the engine settings to the Tesseract engine format.
func (c *Config) ToTesseractConfig() tesseract.Config {
	return tesseract.Config{
		Languages:      append([]string(nil), c.Engine.Languages...),
		TessdataPrefix: c.Engine.TessdataPrefix,
		PageSegMode:    c.Engine.PageSegMode,
		Whitelist:      c.Engine.Whitelist,
	}
}

// RequestTimeout returns the per-frame timeout of the host runtime.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSec) * time.Second
}
