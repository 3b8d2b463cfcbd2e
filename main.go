// Package main provides a real-time terminal audio level meter. It
// captures audio from an input device, converts each sample buffer to a
// smoothed 0-100 loudness level, and renders a live color VU meter with
// min/max tracking, trend indication and threshold alerting.
//
// Usage:
//
//	levelmeter [-config path/to/config.json] [-backend portaudio|pipe] [-device name]
//
// If -config is not specified, the meter looks for config.json in the
// same directory as the binary, creating it with defaults on first run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/oszuidwest/zwfm-levelmeter/internal/capture"
	"github.com/oszuidwest/zwfm-levelmeter/internal/config"
	"github.com/oszuidwest/zwfm-levelmeter/internal/engine"
	"github.com/oszuidwest/zwfm-levelmeter/internal/render"
	"github.com/oszuidwest/zwfm-levelmeter/internal/util"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: config.json next to binary)")
	backend := flag.String("backend", "", "Capture backend override: portaudio or pipe")
	device := flag.String("device", "", "Input device override (portaudio: name substring, pipe: device ID or '-' for stdin)")
	listDevices := flag.Bool("list-devices", false, "List available input devices and exit")
	showVersion := flag.Bool("version", false, "Print version information, check for updates and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	if *configPath == "" {
		execPath, err := os.Executable()
		if err != nil {
			slog.Error("failed to get executable path", "error", err)
			os.Exit(1)
		}
		*configPath = filepath.Join(filepath.Dir(execPath), "config.json")
	}

	cfg := config.New(*configPath)
	if err := cfg.Load(); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Flag overrides apply after file validation; validate again so a
	// bad -backend fails the same way a bad file does.
	if *backend != "" {
		cfg.Audio.Backend = *backend
	}
	if *device != "" {
		cfg.Audio.Device = *device
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if *listDevices {
		devices, err := capture.Devices(cfg.Audio.Backend)
		if err != nil {
			slog.Error("failed to list devices", "error", err)
			os.Exit(1)
		}
		if len(devices) == 0 {
			fmt.Println("no input devices found")
			return
		}
		for _, d := range devices {
			fmt.Printf("%-40s %s\n", d.ID, d.Name)
		}
		return
	}

	captureCfg := capture.Config{
		Device:          cfg.Audio.Device,
		SampleRate:      cfg.Audio.SampleRate,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
	}
	if cfg.Audio.Backend == capture.BackendPipe {
		captureCfg.FFmpegPath = util.ResolveFFmpegPath(cfg.Audio.FFmpegPath)
	}

	source, err := capture.New(cfg.Audio.Backend, captureCfg)
	if err != nil {
		slog.Error("failed to create capture source", "error", err)
		os.Exit(1)
	}

	renderer := render.New(render.FitWidth(cfg.Meter.Width), os.Stdout)

	eng, err := engine.New(cfg, source, renderer)
	if err != nil {
		slog.Error("failed to create meter engine", "error", err)
		os.Exit(1)
	}

	slog.Info("starting level meter",
		"backend", cfg.Audio.Backend,
		"device", cfg.Audio.Device,
		"smoothing", cfg.Meter.UseMovingAverage,
		"alert_threshold", cfg.Meter.AlertThreshold)

	ctx, stop := signal.NotifyContext(context.Background(), util.ShutdownSignals()...)
	defer stop()

	if err := eng.Run(ctx); err != nil {
		slog.Error("meter stopped with error", "error", err)
		os.Exit(1)
	}
}

// printVersion prints build information and best-effort checks GitHub
// for a newer release.
func printVersion() {
	fmt.Printf("levelmeter %s (commit %s, built %s)\n", Version, Commit, util.FormatHumanTime(BuildTime))

	latest, newer, err := checkLatestRelease(context.Background())
	switch {
	case err != nil:
		fmt.Printf("update check failed: %v\n", err)
	case latest == "":
		fmt.Println("no releases published")
	case newer:
		fmt.Printf("update available: %s\n", latest)
	default:
		fmt.Println("up to date")
	}
}
