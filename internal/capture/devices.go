package capture

import (
	"errors"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// ErrNoAudioDevice is returned when no audio input device is available.
var ErrNoAudioDevice = errors.New("no audio input device found")

// Devices returns available audio input devices for the given backend.
func Devices(backend string) ([]Device, error) {
	switch backend {
	case BackendPortAudio:
		return portaudioDevices()
	case BackendPipe:
		cfg := getPlatformConfig()
		return cfg.Devices(), nil
	default:
		return nil, errors.New("unknown capture backend " + backend)
	}
}

// portaudioDevices enumerates PortAudio devices with input channels.
func portaudioDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	defer func() {
		_ = portaudio.Terminate()
	}()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	var devices []Device
	for _, info := range infos {
		if info.MaxInputChannels > 0 {
			devices = append(devices, Device{ID: info.Name, Name: info.Name})
		}
	}
	return devices, nil
}

// platformConfig defines the platform-specific capture process.
type platformConfig struct {
	// Command is the executable name (e.g., "arecord", "ffmpeg").
	Command string

	// DefaultDevice is used when no device is configured.
	DefaultDevice string

	// UsesFFmpeg indicates if this platform captures through FFmpeg.
	UsesFFmpeg bool

	// BuildArgs returns the command arguments for audio capture.
	BuildArgs func(device string) []string
}

// BuildCaptureCommand returns the command and arguments for pipe capture.
// If device is empty, it uses the platform default or auto-detects. The
// ffmpegPath parameter overrides the binary on FFmpeg platforms.
func BuildCaptureCommand(device, ffmpegPath string) (cmd string, args []string, err error) {
	cfg := getPlatformConfig()

	if device == "" {
		device = cfg.DefaultDevice
	}

	// Auto-detect if still empty (Windows has no safe default).
	if device == "" {
		devices := cfg.Devices()
		if len(devices) == 0 {
			return "", nil, ErrNoAudioDevice
		}
		device = devices[0].ID
	}

	command := cfg.Command
	if cfg.UsesFFmpeg && ffmpegPath != "" {
		command = ffmpegPath
	}

	return command, cfg.BuildArgs(device), nil
}

// deviceListConfig defines how to list capture devices for a platform.
type deviceListConfig struct {
	// Command and args to list devices.
	Command []string

	// AudioStartMarker indicates the start of the audio devices section.
	AudioStartMarker string

	// AudioStopMarker indicates the end of the audio devices section (optional).
	AudioStopMarker string

	// DevicePattern is the regex to extract device info.
	DevicePattern *regexp.Regexp

	// ParseDevice converts regex matches to a Device.
	ParseDevice func(matches []string) *Device

	// FallbackDevices are returned if detection fails.
	FallbackDevices []Device
}

// listDevices runs the platform device-listing command and parses its output.
func listDevices(cfg deviceListConfig) []Device {
	if len(cfg.Command) == 0 {
		return cfg.FallbackDevices
	}

	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil && len(output) == 0 {
		slog.Error("failed to list audio devices", "error", err)
		return cfg.FallbackDevices
	}

	return parseDeviceOutput(string(output), cfg)
}

// parseDeviceOutput extracts audio device information from listing
// command output. Split from listDevices so parsing is testable without
// running the platform command.
func parseDeviceOutput(output string, cfg deviceListConfig) []Device {
	var devices []Device
	inAudioSection := cfg.AudioStartMarker == "" // no marker, parse all lines

	for _, line := range strings.Split(output, "\n") {
		if cfg.AudioStartMarker != "" && strings.Contains(line, cfg.AudioStartMarker) {
			inAudioSection = true
			continue
		}
		if cfg.AudioStopMarker != "" && strings.Contains(line, cfg.AudioStopMarker) {
			inAudioSection = false
			continue
		}

		if !inAudioSection {
			continue
		}

		// Skip alternative name lines (Windows DirectShow).
		if strings.Contains(line, "Alternative name") {
			continue
		}

		if cfg.DevicePattern == nil {
			continue
		}

		matches := cfg.DevicePattern.FindStringSubmatch(line)
		if len(matches) > 0 && cfg.ParseDevice != nil {
			if dev := cfg.ParseDevice(matches); dev != nil {
				devices = append(devices, *dev)
			}
		}
	}

	if len(devices) == 0 {
		return cfg.FallbackDevices
	}

	return devices
}
