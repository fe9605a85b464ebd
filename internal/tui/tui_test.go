// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"

	"mixmon/internal/audio"
	"mixmon/internal/level"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m tea.Model, msg tea.Msg) (tea.Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	if next == nil {
		t.Fatal("Update returned nil model")
	}
	return next, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestMeterModelEvents(t *testing.T) {
	th := level.DefaultThresholds()
	var m tea.Model = NewMeterModel("MG-XU USB Audio CODEC", 2, th)

	if !strings.Contains(m.View(), "Waiting for audio") {
		t.Errorf("initial view = %q", m.View())
	}

	for _, lvl := range []float64{-20, 3, 9, -70} {
		ev := level.Classify(lvl, th)
		ev.Gains = []float64{lvl, lvl - 1}
		ev.Channels = []level.Severity{level.Unclassified, level.Unclassified}
		m, _ = update(t, m, EventMsg(ev))
	}

	meter := m.(MeterModel)
	if meter.events != 4 {
		t.Errorf("events = %d, want 4", meter.events)
	}
	if meter.peak != 9 {
		t.Errorf("peak = %v, want 9", meter.peak)
	}
	if meter.counts[level.TooHot] != 1 || meter.counts[level.SlightlyHot] != 1 || meter.counts[level.NoiseDetected] != 1 {
		t.Errorf("counts = %v", meter.counts)
	}

	view := m.View()
	for _, want := range []string{"MG-XU USB Audio CODEC", "Ch 2", "-70.00 dBu: noise floor", "noise or hum detected", "Peak 9.00 dBu"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestMeterModelKeys(t *testing.T) {
	th := level.DefaultThresholds()
	var m tea.Model = NewMeterModel("Mic", 1, th)

	m, _ = update(t, m, EventMsg(level.Classify(6, th)))

	// Paused meters ignore events.
	m, _ = update(t, m, keyMsg("p"))
	m, _ = update(t, m, EventMsg(level.Classify(10, th)))
	if got := m.(MeterModel).events; got != 1 {
		t.Errorf("events while paused = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("paused view should say PAUSED")
	}

	m, _ = update(t, m, keyMsg("r"))
	meter := m.(MeterModel)
	if meter.events != 0 || meter.peak != th.SilenceLevel() {
		t.Errorf("after reset events=%d peak=%v", meter.events, meter.peak)
	}

	_, cmd := update(t, m, keyMsg("q"))
	if !isQuit(cmd) {
		t.Error("q should quit")
	}
}

func TestMeterPercent(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{-218, 0},
		{meterMin, 0},
		{-24, 0.5},
		{meterMax, 1},
		{40, 1},
	}
	for _, tt := range tests {
		if got := MeterPercent(tt.level); got != tt.want {
			t.Errorf("MeterPercent(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func testDevices() []audio.Device {
	return []audio.Device{
		{ID: 0, Name: "Built-in Output", MaxOutputChannels: 2, DefaultSampleRate: 48000},
		{ID: 1, Name: "Built-in Microphone", MaxInputChannels: 1, DefaultSampleRate: 48000},
		{ID: 2, Name: "MG-XU USB Audio CODEC", MaxInputChannels: 2, MaxOutputChannels: 2, DefaultSampleRate: 44100},
	}
}

func newTestDeviceList(t *testing.T, match string) tea.Model {
	t.Helper()
	model := NewDeviceListModel(match)
	model.fetch = func() ([]audio.Device, error) { return testDevices(), nil }

	var m tea.Model = model
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, model.Init()())
	return m
}

func TestDeviceListSelectsMatch(t *testing.T) {
	m := newTestDeviceList(t, "usb")

	if got := m.(DeviceListModel).selectedIndex; got != 2 {
		t.Errorf("selectedIndex = %d, want the USB mixer at 2", got)
	}
	view := m.View()
	for _, want := range []string{"Audio Device List", "*[2] MG-XU USB Audio CODEC (Input/Output)", "stereo"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m, cmd := update(t, m, keyMsg("enter"))
	if !isQuit(cmd) {
		t.Error("enter on an input device should quit")
	}
	d, ok := m.(DeviceListModel).Selected()
	if !ok || d.ID != 2 {
		t.Errorf("Selected() = %+v, %v; want device 2", d, ok)
	}
}

func TestDeviceListNavigation(t *testing.T) {
	m := newTestDeviceList(t, "")

	m, _ = update(t, m, keyMsg("down"))
	m, _ = update(t, m, keyMsg("down"))
	m, _ = update(t, m, keyMsg("down"))
	if got := m.(DeviceListModel).selectedIndex; got != 2 {
		t.Errorf("selectedIndex after 3 downs = %d, want 2", got)
	}

	m, _ = update(t, m, keyMsg("up"))
	m, _ = update(t, m, keyMsg("up"))
	m, _ = update(t, m, keyMsg("up"))
	if got := m.(DeviceListModel).selectedIndex; got != 0 {
		t.Errorf("selectedIndex after 3 ups = %d, want 0", got)
	}

	// Output-only devices cannot be monitored.
	m, cmd := update(t, m, keyMsg("enter"))
	if isQuit(cmd) {
		t.Error("enter on an output device should not quit")
	}
	if _, ok := m.(DeviceListModel).Selected(); ok {
		t.Error("output device should not be selectable")
	}
}

func TestDeviceListError(t *testing.T) {
	model := NewDeviceListModel("")
	model.fetch = func() ([]audio.Device, error) { return nil, errors.New("PortAudio not initialized") }

	var m tea.Model = model
	m, _ = update(t, m, model.Init()())
	if !strings.Contains(m.View(), "PortAudio not initialized") {
		t.Errorf("view = %q", m.View())
	}
}
