// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"mixmon/internal/config"

	"github.com/gordonklaus/portaudio"
)

func fakeDeviceInfos() []*portaudio.DeviceInfo {
	coreAudio := &portaudio.HostApiInfo{Name: "Core Audio"}
	return []*portaudio.DeviceInfo{
		{
			Name:                    "MacBook Pro Speakers",
			HostApi:                 coreAudio,
			MaxOutputChannels:       2,
			DefaultSampleRate:       48000,
			DefaultLowInputLatency:  10 * time.Millisecond,
			DefaultHighInputLatency: 40 * time.Millisecond,
		},
		{
			Name:                    "MacBook Pro Microphone",
			HostApi:                 coreAudio,
			MaxInputChannels:        1,
			DefaultSampleRate:       48000,
			DefaultLowInputLatency:  5 * time.Millisecond,
			DefaultHighInputLatency: 20 * time.Millisecond,
		},
		{
			Name:                    "MG-XU USB Audio CODEC",
			HostApi:                 coreAudio,
			MaxInputChannels:        2,
			MaxOutputChannels:       2,
			DefaultSampleRate:       44100,
			DefaultLowInputLatency:  3 * time.Millisecond,
			DefaultHighInputLatency: 12 * time.Millisecond,
		},
	}
}

// withFakeDevices swaps the PortAudio device hooks for the duration of t.
func withFakeDevices(t *testing.T, infos []*portaudio.DeviceInfo) {
	t.Helper()

	origDevices := paLibDevicesFunc
	origDefault := paLibDefaultInputDeviceFunc
	t.Cleanup(func() {
		paLibDevicesFunc = origDevices
		paLibDefaultInputDeviceFunc = origDefault
	})

	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return infos, nil
	}
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		for _, info := range infos {
			if info.MaxInputChannels > 0 {
				return info, nil
			}
		}
		return nil, fmt.Errorf("no default input device")
	}
}

func TestHostDevices(t *testing.T) {
	withFakeDevices(t, fakeDeviceInfos())

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(devices))
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("Device ID mismatch: got %d, want %d", d.ID, i)
		}
		if d.Name == "" {
			t.Errorf("Device %d has empty name", i)
		}
		if d.HostAPI != "Core Audio" {
			t.Errorf("Device %d host API = %q", i, d.HostAPI)
		}
	}

	wantDirections := []string{"Output", "Input", "Input/Output"}
	for i, want := range wantDirections {
		if got := devices[i].Direction(); got != want {
			t.Errorf("devices[%d].Direction() = %q, want %q", i, got, want)
		}
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock error")
	}

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestInputDevice(t *testing.T) {
	infos := fakeDeviceInfos()
	withFakeDevices(t, infos)

	if dev, err := InputDevice(config.MinDeviceID); err != nil || dev != infos[1] {
		t.Errorf("InputDevice(-1) = %v, %v; want default microphone", dev, err)
	}

	t.Run("Valid input device", func(t *testing.T) {
		dev, err := InputDevice(2)
		if err != nil {
			t.Fatalf("InputDevice(2) error: %v", err)
		}
		if dev.Name != infos[2].Name {
			t.Errorf("InputDevice(2) = %q, want %q", dev.Name, infos[2].Name)
		}
	})

	tests := []struct {
		name   string
		id     int
		substr string
	}{
		{"Negative ID", -2, "invalid device ID"},
		{"Too high ID", len(infos) + 10, "invalid device ID"},
		{"Non-input device", 0, "does not support input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InputDevice(tt.id)
			if err == nil {
				t.Errorf("Expected error for ID %d", tt.id)
			} else if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Error = %q, want substring %q", err.Error(), tt.substr)
			}
		})
	}
}

func TestInputDevice_paDefaultInputDeviceError(t *testing.T) {
	withFakeDevices(t, fakeDeviceInfos())
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock default input error")
	}

	_, err := InputDevice(-1)
	if err == nil || !strings.Contains(err.Error(), "mock default input error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestFindInputDevice(t *testing.T) {
	withFakeDevices(t, fakeDeviceInfos())
	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}

	tests := []struct {
		match  string
		wantID int
		err    error
	}{
		{"USB", 2, nil},
		{"usb", 2, nil},
		{"Microphone", 1, nil},
		{"MacBook", 1, nil}, // Speakers come first but have no inputs.
		{"Speakers", 0, ErrNoMatchingDevice},
		{"MG166CX", 0, ErrNoMatchingDevice},
	}

	for _, tt := range tests {
		t.Run(tt.match, func(t *testing.T) {
			d, err := FindInputDevice(devices, tt.match)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("FindInputDevice(%q) error = %v, want %v", tt.match, err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindInputDevice(%q) error: %v", tt.match, err)
			}
			if d.ID != tt.wantID {
				t.Errorf("FindInputDevice(%q) = %d, want %d", tt.match, d.ID, tt.wantID)
			}
		})
	}
}

func TestResolveInputDevice(t *testing.T) {
	infos := fakeDeviceInfos()
	withFakeDevices(t, infos)

	dev, err := ResolveInputDevice(config.AudioConfig{InputDevice: -1, Match: "USB"})
	if err != nil || dev != infos[2] {
		t.Errorf("match USB = %v, %v; want mixer", dev, err)
	}

	dev, err = ResolveInputDevice(config.AudioConfig{InputDevice: 1})
	if err != nil || dev != infos[1] {
		t.Errorf("device 1 = %v, %v; want microphone", dev, err)
	}

	if _, err := ResolveInputDevice(config.AudioConfig{Match: "Focusrite"}); !errors.Is(err, ErrNoMatchingDevice) {
		t.Errorf("expected ErrNoMatchingDevice, got %v", err)
	}
}

func TestResolveChannels(t *testing.T) {
	tests := []struct {
		requested, max int
		want           int
		wantErr        bool
	}{
		{0, 2, 2, false},
		{1, 2, 1, false},
		{2, 2, 2, false},
		{0, 16, 16, false},
		{3, 2, 0, true},
		{-1, 2, 0, true},
		{0, 0, 0, true},
	}

	for _, tt := range tests {
		got, err := ResolveChannels(tt.requested, tt.max)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ResolveChannels(%d, %d) = %d, %v; want %d, err=%v",
				tt.requested, tt.max, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestChannelMode(t *testing.T) {
	tests := map[int]string{
		0:  "none",
		1:  "mono",
		2:  "stereo",
		16: "multichannel (16)",
	}
	for channels, want := range tests {
		if got := ChannelMode(channels); got != want {
			t.Errorf("ChannelMode(%d) = %q, want %q", channels, got, want)
		}
	}
}

func TestListDevices(t *testing.T) {
	withFakeDevices(t, fakeDeviceInfos())

	var buf bytes.Buffer
	if err := ListDevices(&buf); err != nil {
		t.Fatalf("ListDevices error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"[2] MG-XU USB Audio CODEC (Input/Output)",
		"Input channels: 1, Output channels: 0",
		"Default sample rate: 44100 Hz",
		"Latency: Low=3.00ms, High=12.00ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ListDevices output missing %q\n%s", want, out)
		}
	}
}

func TestListDevices_Empty(t *testing.T) {
	withFakeDevices(t, nil)

	var buf bytes.Buffer
	if err := ListDevices(&buf); err != nil {
		t.Fatalf("ListDevices error: %v", err)
	}
	if !strings.Contains(buf.String(), "No audio devices found.") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestErrorInitialize(t *testing.T) {
	orig := paLibInitialize
	defer func() { paLibInitialize = orig }()

	paLibInitialize = func() error { return nil }
	if err := Initialize(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibInitialize = func() error { return fmt.Errorf("mock init error") }
	if err := Initialize(); err == nil || !strings.Contains(err.Error(), "mock init error") {
		t.Errorf("expected mock init error, got %v", err)
	}
}

func TestErrorTerminate(t *testing.T) {
	orig := paLibTerminate
	defer func() { paLibTerminate = orig }()

	paLibTerminate = func() error { return nil }
	if err := Terminate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibTerminate = func() error { return fmt.Errorf("mock term error") }
	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "mock term error") {
		t.Errorf("expected mock term error, got %v", err)
	}
}

func TestNilDevices(t *testing.T) {
	withFakeDevices(t, nil)

	devices, err := paDevices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if devices == nil {
		t.Errorf("expected empty slice, got nil")
	}
	if len(devices) != 0 {
		t.Errorf("expected length 0, got %d", len(devices))
	}
}

func TestPortAudioNotInitialized(t *testing.T) {
	orig := paLibDevicesFunc
	defer func() { paLibDevicesFunc = orig }()
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("PortAudio not initialized")
	}

	devices, err := paDevices()
	if err == nil || !strings.Contains(err.Error(), "PortAudio not initialized") {
		t.Errorf("expected 'PortAudio not initialized' error, got %v", err)
	}
	if devices != nil {
		t.Errorf("expected devices to be nil on error, got %v", devices)
	}
}
