//nolint:lll
package config

// Config represents the complete configuration for frameocr. It covers the
// frame command and the host runtime, and is loaded from configuration
// files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Text engine configuration
	Engine EngineConfig `mapstructure:"engine" yaml:"engine" json:"engine"`

	// Frame source configuration
	Frame FrameConfig `mapstructure:"frame" yaml:"frame" json:"frame"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// EngineConfig selects and tunes the text recognition engine.
type EngineConfig struct {
	Name           string   `mapstructure:"name" yaml:"name" json:"name"`
	Languages      []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	TessdataPrefix string   `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
	PageSegMode    int      `mapstructure:"page_seg_mode" yaml:"page_seg_mode" json:"page_seg_mode"`
	Whitelist      string   `mapstructure:"whitelist" yaml:"whitelist" json:"whitelist"`
}

// FrameConfig contains frame source settings.
type FrameConfig struct {
	DefaultOrientation string `mapstructure:"default_orientation" yaml:"default_orientation" json:"default_orientation"`
	MaxImageMB         int    `mapstructure:"max_image_mb" yaml:"max_image_mb" json:"max_image_mb"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" json:"pretty"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	DropOverlapping bool   `mapstructure:"drop_overlapping" yaml:"drop_overlapping" json:"drop_overlapping"`

	// Per-client frame rate limiting
	RateLimitEnabled bool  `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	FramesPerMinute  int   `mapstructure:"frames_per_minute" yaml:"frames_per_minute" json:"frames_per_minute"`
	FramesPerHour    int   `mapstructure:"frames_per_hour" yaml:"frames_per_hour" json:"frames_per_hour"`
	MaxFramesPerDay  int   `mapstructure:"max_frames_per_day" yaml:"max_frames_per_day" json:"max_frames_per_day"`
	MaxDataPerDay    int64 `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"`
}
