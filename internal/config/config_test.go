package config

import (
	"testing"
	"time"

	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, EngineTesseract, cfg.Engine.Name)
	assert.Equal(t, []string{"eng"}, cfg.Engine.Languages)
	assert.Equal(t, 3, cfg.Engine.PageSegMode)
	assert.Equal(t, "up", cfg.Frame.DefaultOrientation)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.DropOverlapping)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"bad engine", func(c *Config) { c.Engine.Name = "onnx" }, "invalid engine"},
		{"no languages", func(c *Config) { c.Engine.Languages = nil }, "engine.languages"},
		{"no languages without engine", func(c *Config) {
			c.Engine.Name = EngineNone
			c.Engine.Languages = nil
		}, ""},
		{"page seg mode", func(c *Config) { c.Engine.PageSegMode = 14 }, "page segmentation mode"},
		{"bad orientation", func(c *Config) { c.Frame.DefaultOrientation = "sideways" }, "default_orientation"},
		{"exif orientation", func(c *Config) { c.Frame.DefaultOrientation = "6" }, ""},
		{"negative image size", func(c *Config) { c.Frame.MaxImageMB = -1 }, "max image size"},
		{"bad format", func(c *Config) { c.Output.Format = "csv" }, "invalid output format"},
		{"yaml format", func(c *Config) { c.Output.Format = "yaml" }, ""},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"huge port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"upload size", func(c *Config) { c.Server.MaxUploadMB = 0 }, "max upload size"},
		{"timeout", func(c *Config) { c.Server.TimeoutSec = 0 }, "invalid timeout"},
		{"negative rate limit", func(c *Config) { c.Server.FramesPerMinute = -1 }, "invalid rate limit"},
		{"shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = -5 }, "shutdown timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFrameOrientation(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Frame.DefaultOrientation = ""
	o, err := cfg.FrameOrientation()
	require.NoError(t, err)
	assert.Equal(t, orientation.Up, o)

	cfg.Frame.DefaultOrientation = "Left"
	o, err = cfg.FrameOrientation()
	require.NoError(t, err)
	assert.Equal(t, orientation.Left, o)
}

func TestToTesseractConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Languages = []string{"eng", "deu"}
	cfg.Engine.TessdataPrefix = "/usr/share/tessdata"
	cfg.Engine.Whitelist = "0123456789"

	tc := cfg.ToTesseractConfig()
	assert.Equal(t, []string{"eng", "deu"}, tc.Languages)
	assert.Equal(t, "/usr/share/tessdata", tc.TessdataPrefix)
	assert.Equal(t, 3, tc.PageSegMode)
	assert.Equal(t, "0123456789", tc.Whitelist)

	tc.Languages[0] = "fra"
	assert.Equal(t, "eng", cfg.Engine.Languages[0])
}

func TestRequestTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
}
