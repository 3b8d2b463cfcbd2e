//go:build windows

package capture

import (
	"regexp"
	"strings"
)

func getPlatformConfig() platformConfig {
	return platformConfig{
		Command:       "ffmpeg",
		DefaultDevice: "", // auto-detect, no safe default on Windows
		UsesFFmpeg:    true,
		BuildArgs:     buildWindowsArgs,
	}
}

func buildWindowsArgs(device string) []string {
	return buildFFmpegCaptureArgs("dshow", device)
}

func (cfg *platformConfig) Devices() []Device {
	return listDevices(deviceListConfig{
		Command: []string{"ffmpeg", "-hide_banner", "-f", "dshow", "-list_devices", "true", "-i", "dummy"},
		// No section markers - FFmpeg versions vary in output format.
		// Filter by lines ending with "(audio)" instead.
		AudioStartMarker: "",
		AudioStopMarker:  "",
		// Match lines like: [dshow @ addr] "Device Name" (audio)
		DevicePattern: regexp.MustCompile(`\[dshow[^\]]*\]\s*"([^"]+)"\s*\(audio\)`),
		ParseDevice: func(matches []string) *Device {
			if len(matches) < 2 {
				return nil
			}
			name := strings.TrimSpace(matches[1])
			return &Device{
				ID:   "audio=" + name,
				Name: name,
			}
		},
		FallbackDevices: nil,
	})
}
