package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// TuningConfig represents the root configuration for a traversal sweep.
// All fields are pointers so that fields omitted from the JSON file fall
// back to the Get* defaults, which makes partial configs safe.
type TuningConfig struct {
	// Sweep params
	Formation      *string `json:"formation,omitempty"` // explicit-2d, explicit-3d, otf-tracks, otf-stacks
	Workers        *int    `json:"workers,omitempty"`
	ScratchReserve *int    `json:"scratch_reserve,omitempty"`
	TwoWay         *bool   `json:"two_way,omitempty"`

	// Persistence params
	TrackDBPath *string `json:"track_db_path,omitempty"`

	// Report params
	ReportDir     *string `json:"report_dir,omitempty"`
	HistogramBins *int    `json:"histogram_bins,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Formation != nil {
		switch *c.Formation {
		case "explicit-2d", "explicit-3d", "otf-tracks", "otf-stacks":
		default:
			return fmt.Errorf("unknown formation %q", *c.Formation)
		}
	}

	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	if c.ScratchReserve != nil && *c.ScratchReserve < 0 {
		return fmt.Errorf("scratch_reserve must be non-negative, got %d", *c.ScratchReserve)
	}

	if c.HistogramBins != nil && *c.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins must be positive, got %d", *c.HistogramBins)
	}

	return nil
}

// GetFormation returns the formation value or the default.
func (c *TuningConfig) GetFormation() string {
	if c.Formation == nil || *c.Formation == "" {
		return "otf-stacks" // default
	}
	return *c.Formation
}

// GetWorkers returns the workers value or the default. Zero means one
// worker per CPU.
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.NumCPU()
	}
	return *c.Workers
}

// GetScratchReserve returns the scratch_reserve value or the default.
func (c *TuningConfig) GetScratchReserve() int {
	if c.ScratchReserve == nil {
		return 256 // default per-worker segment capacity
	}
	return *c.ScratchReserve
}

// GetTwoWay returns the two_way value or the default.
func (c *TuningConfig) GetTwoWay() bool {
	if c.TwoWay == nil {
		return false
	}
	return *c.TwoWay
}

// GetTrackDBPath returns the track_db_path value or the default.
func (c *TuningConfig) GetTrackDBPath() string {
	if c.TrackDBPath == nil || *c.TrackDBPath == "" {
		return "tracks.db"
	}
	return *c.TrackDBPath
}

// GetReportDir returns the report_dir value or the default.
func (c *TuningConfig) GetReportDir() string {
	if c.ReportDir == nil || *c.ReportDir == "" {
		return "report"
	}
	return *c.ReportDir
}

// GetHistogramBins returns the histogram_bins value or the default.
func (c *TuningConfig) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return 32
	}
	return *c.HistogramBins
}
