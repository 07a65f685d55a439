// Package config loads the layered TOML configuration for the docling
// pipeline: defaults, then config file(s) in order, then environment
// variables, then CLI flag overrides — each layer overriding the last.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root configuration struct. Nested structs group settings
// per subsystem so each package can be handed only the slice it needs.
type Config struct {
	Environment string             `toml:"environment"` // "development" or "production"
	Server      ServerConfig       `toml:"server"`
	Logging     LoggingConfig      `toml:"logging"`
	Layout      LayoutConfig       `toml:"layout"`
	ReadingOrder ReadingOrderConfig `toml:"reading_order"`
	TableStructure TableStructureConfig `toml:"table_structure"`
	Media       MediaConfig        `toml:"media"`
}

// ServerConfig configures the media API's HTTP listener.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// LoggingConfig configures arbor.
type LoggingConfig struct {
	Level      string   `toml:"level"`       // debug|info|warn|error
	Format     string   `toml:"format"`      // text|json
	Output     []string `toml:"output"`      // stdout, file
	TimeFormat string   `toml:"time_format"`
	FilePath   string   `toml:"file_path"`
}

// LayoutConfig configures the cascade layout predictor.
type LayoutConfig struct {
	DefaultMode      string        `toml:"default_mode"` // one of the seven Mode names
	FastThreshold    float64       `toml:"fast_threshold"`
	AccelThreshold   float64       `toml:"accel_threshold"`
	StatsResetCron   string        `toml:"stats_reset_cron"` // cron expression, empty disables the reset job
	BackendTimeout   time.Duration `toml:"backend_timeout"`
}

// ReadingOrderConfig configures the reading-order engine.
type ReadingOrderConfig struct {
	RowBucketTolerance float64 `toml:"row_bucket_tolerance"` // points; rows within this band are the same bucket
	HorizontalDilation float64 `toml:"horizontal_dilation"`  // max dilation as a fraction of page width; 0 disables
	HeaderZoneFraction  float64 `toml:"header_zone_fraction"` // fraction of page height treated as header band
	FooterZoneFraction  float64 `toml:"footer_zone_fraction"`
}

// TableStructureConfig configures the table structure decoder.
type TableStructureConfig struct {
	TensorSize          int     `toml:"tensor_size"` // square input size fed to the inference backend, e.g. 448
	MinCellConfidence   float64 `toml:"min_cell_confidence"`
	MaxSpanCells        int     `toml:"max_span_cells"`
	EnableWhitespaceFix bool    `toml:"enable_whitespace_fix"`
}

// MediaConfig configures the DAG executor and on-disk job layout.
type MediaConfig struct {
	OutputDir        string        `toml:"output_dir"`
	CPUConcurrency   int           `toml:"cpu_concurrency"` // 0 means runtime.NumCPU()
	GPUConcurrency   int           `toml:"gpu_concurrency"` // 0 means 1
	TaskTimeout      time.Duration `toml:"task_timeout"`
	BulkStageTimeout time.Duration `toml:"bulk_stage_timeout"`
}

// Default returns the built-in configuration used when no file overrides a
// given field.
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
			FilePath:   "./logs/doclingd.log",
		},
		Layout: LayoutConfig{
			DefaultMode:    "auto",
			FastThreshold:  0.25,
			AccelThreshold: 0.75,
			StatsResetCron: "0 0 */6 * * *",
			BackendTimeout: 30 * time.Second,
		},
		ReadingOrder: ReadingOrderConfig{
			RowBucketTolerance: 2.0,
			HorizontalDilation: 4.0,
			HeaderZoneFraction: 0.08,
			FooterZoneFraction: 0.08,
		},
		TableStructure: TableStructureConfig{
			TensorSize:          448,
			MinCellConfidence:   0.1,
			MaxSpanCells:        64,
			EnableWhitespaceFix: true,
		},
		Media: MediaConfig{
			OutputDir:        "./data/media",
			CPUConcurrency:   0,
			GPUConcurrency:   1,
			TaskTimeout:      5 * time.Minute,
			BulkStageTimeout: 30 * time.Minute,
		},
	}
}

// LoadFromFiles builds a Config by merging defaults with each TOML file in
// order (later files override earlier ones), then applying environment
// overrides. A missing path is an error; pass no paths to get defaults only.
func LoadFromFiles(paths ...string) (*Config, error) {
	cfg := Default()
	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s (%d of %d): %w", path, i+1, len(paths), err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if env := os.Getenv("DOCLING_ENV"); env != "" {
		cfg.Environment = env
	}
	if port := os.Getenv("DOCLING_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("DOCLING_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if level := os.Getenv("DOCLING_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if mode := os.Getenv("DOCLING_LAYOUT_MODE"); mode != "" {
		cfg.Layout.DefaultMode = mode
	}
	if dir := os.Getenv("DOCLING_MEDIA_OUTPUT_DIR"); dir != "" {
		cfg.Media.OutputDir = dir
	}
}

// ApplyFlagOverrides applies CLI flag values, which take highest priority.
// A zero port or empty host leaves the existing value untouched.
func ApplyFlagOverrides(cfg *Config, port int, host string) {
	if port > 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
}

// IsProduction reports whether the configuration is running in production
// mode, used to decide whether to relax any development-only conveniences.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
