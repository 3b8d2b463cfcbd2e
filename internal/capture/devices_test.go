package capture

import (
	"regexp"
	"testing"
)

// alsaListConfig mirrors the arecord -l parsing rules so the parser can
// be exercised on any platform.
var alsaListConfig = deviceListConfig{
	DevicePattern: regexp.MustCompile(`card\s+(\d+):\s+(\w+)\s+\[([^\]]+)\]`),
	ParseDevice: func(matches []string) *Device {
		if len(matches) < 4 {
			return nil
		}
		return &Device{ID: "default:CARD=" + matches[2], Name: matches[3]}
	},
	FallbackDevices: []Device{{ID: "default", Name: "Default ALSA device"}},
}

const alsaListOutput = `**** List of CAPTURE Hardware Devices ****
card 0: PCH [HDA Intel PCH], device 0: ALC3234 Analog [ALC3234 Analog]
  Subdevices: 1/1
  Subdevice #0: subdevice #0
card 1: USB [USB Audio Device], device 0: USB Audio [USB Audio]
  Subdevices: 1/1
  Subdevice #0: subdevice #0
`

func TestParseDeviceOutputALSA(t *testing.T) {
	devices := parseDeviceOutput(alsaListOutput, alsaListConfig)

	if len(devices) != 2 {
		t.Fatalf("parsed %d devices, want 2: %+v", len(devices), devices)
	}
	if devices[0].ID != "default:CARD=PCH" || devices[0].Name != "HDA Intel PCH" {
		t.Errorf("device 0 = %+v", devices[0])
	}
	if devices[1].ID != "default:CARD=USB" || devices[1].Name != "USB Audio Device" {
		t.Errorf("device 1 = %+v", devices[1])
	}
}

func TestParseDeviceOutputFallback(t *testing.T) {
	devices := parseDeviceOutput("arecord: device_list:274: no soundcards found...\n", alsaListConfig)

	if len(devices) != 1 || devices[0].ID != "default" {
		t.Errorf("fallback devices = %+v, want the default ALSA device", devices)
	}
}

func TestParseDeviceOutputSectionMarkers(t *testing.T) {
	cfg := deviceListConfig{
		AudioStartMarker: "AVFoundation audio devices:",
		DevicePattern:    regexp.MustCompile(`\[(\d+)\]\s+(.+)$`),
		ParseDevice: func(matches []string) *Device {
			if len(matches) < 3 {
				return nil
			}
			return &Device{ID: ":" + matches[1], Name: matches[2]}
		},
	}
	output := `AVFoundation video devices:
[0] FaceTime HD Camera
AVFoundation audio devices:
[0] MacBook Pro Microphone
[1] External USB Interface
`
	devices := parseDeviceOutput(output, cfg)

	if len(devices) != 2 {
		t.Fatalf("parsed %d devices, want 2: %+v", len(devices), devices)
	}
	if devices[0].ID != ":0" || devices[0].Name != "MacBook Pro Microphone" {
		t.Errorf("device 0 = %+v", devices[0])
	}
	if devices[1].ID != ":1" || devices[1].Name != "External USB Interface" {
		t.Errorf("device 1 = %+v", devices[1])
	}
}

func TestParseDeviceOutputSkipsAlternativeNames(t *testing.T) {
	cfg := deviceListConfig{
		DevicePattern: regexp.MustCompile(`"([^"]+)"`),
		ParseDevice: func(matches []string) *Device {
			return &Device{ID: matches[1], Name: matches[1]}
		},
	}
	output := `"Microphone (USB Audio)"
    Alternative name "@device_cm_{33D9A762}"
`
	devices := parseDeviceOutput(output, cfg)

	if len(devices) != 1 {
		t.Fatalf("parsed %d devices, want 1: %+v", len(devices), devices)
	}
	if devices[0].Name != "Microphone (USB Audio)" {
		t.Errorf("device = %+v", devices[0])
	}
}
