// Package config provides application configuration management.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oszuidwest/zwfm-levelmeter/internal/util"
)

// Configuration defaults are used when values are not specified.
const (
	DefaultMeterWidth        = 100
	DefaultMovingAvgSize     = 10
	DefaultAlertThreshold    = 80.0
	DefaultBackend           = "portaudio"
	DefaultSampleRate        = 48000
	DefaultFramesPerBuffer   = 1024
	DefaultSilenceThreshold  = -40.0
	DefaultSilenceDurationMs = 15000 // 15 seconds
	DefaultSilenceRecoveryMs = 5000  // 5 seconds
	DefaultRefreshMs         = 50
	DefaultPeakHoldMs        = 3000
)

// validate is the shared validator instance for configuration validation.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Report field paths using JSON tag names, matching the config file.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// MeterConfig holds the metering and display-scaling settings.
type MeterConfig struct {
	Width            int     `json:"width" validate:"gte=1,lte=500"`                // meter bar width in columns
	MovingAvgSize    int     `json:"moving_avg_size" validate:"gte=1,lte=1000"`     // smoothing window capacity
	AlertThreshold   float64 `json:"alert_threshold" validate:"gte=0,lte=100"`      // percent above which the alert shows
	UseMovingAverage bool    `json:"use_moving_average"`                            // smooth levels before tracking
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	Backend         string `json:"backend" validate:"oneof=portaudio pipe"`         // capture backend
	Device          string `json:"device"`                                          // input device; empty = default
	SampleRate      int    `json:"sample_rate" validate:"gte=8000,lte=192000"`      // capture sample rate in Hz
	FramesPerBuffer int    `json:"frames_per_buffer" validate:"gte=64,lte=16384"`   // PortAudio buffer size in frames
	FFmpegPath      string `json:"ffmpeg_path"`                                     // FFmpeg binary for pipe capture (empty = use PATH)
}

// SilenceConfig holds silence detection thresholds and timing parameters.
type SilenceConfig struct {
	ThresholdDB float64 `json:"threshold_db" validate:"gte=-100,lte=0"`     // silence threshold in dB
	DurationMs  int64   `json:"duration_ms" validate:"gte=500,lte=300000"`  // duration below threshold before silence is confirmed
	RecoveryMs  int64   `json:"recovery_ms" validate:"gte=500,lte=60000"`   // duration above threshold before recovery
}

// DisplayConfig holds terminal rendering settings.
type DisplayConfig struct {
	RefreshMs  int64 `json:"refresh_ms" validate:"gte=10,lte=1000"`   // minimum interval between redraws
	PeakHoldMs int64 `json:"peak_hold_ms" validate:"gte=0,lte=60000"` // how long the peak marker holds
}

// Config holds all application configuration. It is loaded once at
// startup and treated as read-only for the session.
type Config struct {
	Meter   MeterConfig   `json:"meter"`
	Audio   AudioConfig   `json:"audio"`
	Silence SilenceConfig `json:"silence"`
	Display DisplayConfig `json:"display"`

	filePath string
}

// New creates a new Config with default values.
func New(filePath string) *Config {
	return &Config{
		Meter: MeterConfig{
			Width:            DefaultMeterWidth,
			MovingAvgSize:    DefaultMovingAvgSize,
			AlertThreshold:   DefaultAlertThreshold,
			UseMovingAverage: true,
		},
		Audio: AudioConfig{
			Backend:         DefaultBackend,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
		Silence: SilenceConfig{
			ThresholdDB: DefaultSilenceThreshold,
			DurationMs:  DefaultSilenceDurationMs,
			RecoveryMs:  DefaultSilenceRecoveryMs,
		},
		Display: DisplayConfig{
			RefreshMs:  DefaultRefreshMs,
			PeakHoldMs: DefaultPeakHoldMs,
		},
		filePath: filePath,
	}
}

// Load reads config from file, creating a default file if none exists.
// Fields absent from the file keep their defaults.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return c.save()
	}
	if err != nil {
		return util.WrapError("read config", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return util.WrapError("parse config", err)
	}

	c.applyDefaults()

	return c.Validate()
}

// applyDefaults restores defaults for numeric fields explicitly zeroed
// in the file, where zero has no valid meaning.
func (c *Config) applyDefaults() {
	if c.Meter.Width == 0 {
		c.Meter.Width = DefaultMeterWidth
	}
	if c.Meter.MovingAvgSize == 0 {
		c.Meter.MovingAvgSize = DefaultMovingAvgSize
	}
	if c.Audio.Backend == "" {
		c.Audio.Backend = DefaultBackend
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = DefaultSampleRate
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if c.Silence.DurationMs == 0 {
		c.Silence.DurationMs = DefaultSilenceDurationMs
	}
	if c.Silence.RecoveryMs == 0 {
		c.Silence.RecoveryMs = DefaultSilenceRecoveryMs
	}
	if c.Display.RefreshMs == 0 {
		c.Display.RefreshMs = DefaultRefreshMs
	}
}

// Validate checks all configuration fields against their constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s %s", fieldPath(e), formatValidationMessage(e)))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return err
}

// save persists the configuration file.
func (c *Config) save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return util.WrapError("marshal config", err)
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return util.WrapError("create config directory", err)
	}

	if err := os.WriteFile(c.filePath, data, 0o600); err != nil {
		return util.WrapError("write config", err)
	}

	return nil
}

// fieldPath returns the dotted JSON path for a failed field,
// e.g. "meter.alert_threshold".
func fieldPath(e validator.FieldError) string {
	// Namespace is like "Config.meter.alert_threshold"; drop the root.
	path := e.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	return path
}

// formatValidationMessage creates a human-readable message from a
// validator error.
func formatValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
