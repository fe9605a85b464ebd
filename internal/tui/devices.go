// SPDX-License-Identifier: MIT
//
// Package tui holds the Bubble Tea front ends: a live level meter and an
// interactive device browser.
package tui

import (
	"fmt"
	"strings"

	"mixmon/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

var listKeys = struct {
	Quit   key.Binding
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
}{
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
}

// DeviceListModel represents the Bubble Tea model for browsing audio
// devices. Devices matching the mixer string are marked; Enter selects an
// input device and quits.
type DeviceListModel struct {
	devices       []audio.Device
	match         string
	selectedIndex int
	selected      *audio.Device
	viewport      viewport.Model
	ready         bool
	err           error
	fetch         func() ([]audio.Device, error)
}

// NewDeviceListModel creates a new device list model. match highlights
// devices whose name contains it; it may be empty.
func NewDeviceListModel(match string) DeviceListModel {
	return DeviceListModel{
		match: match,
		fetch: audio.HostDevices,
	}
}

// Init initializes the Bubble Tea model
func (m DeviceListModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{devices}
	}
}

// Selected returns the device chosen with Enter, if any.
func (m DeviceListModel) Selected() (audio.Device, bool) {
	if m.selected == nil {
		return audio.Device{}, false
	}
	return *m.selected, true
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.viewport.SetContent(m.renderDevices())

	case devicesMsg:
		m.devices = msg.devices
		m.selectedIndex = m.firstMatch()
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, listKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, listKeys.Up):
			if m.selectedIndex > 0 {
				m.selectedIndex--
				m.viewport.SetContent(m.renderDevices())
			}

		case key.Matches(msg, listKeys.Down):
			if m.selectedIndex < len(m.devices)-1 {
				m.selectedIndex++
				m.viewport.SetContent(m.renderDevices())
			}

		case key.Matches(msg, listKeys.Select):
			if m.selectedIndex < len(m.devices) && m.devices[m.selectedIndex].MaxInputChannels > 0 {
				d := m.devices[m.selectedIndex]
				m.selected = &d
				return m, tea.Quit
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the UI
func (m DeviceListModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render("Audio Device List")
	help := infoStyle.Render("↑/↓: Navigate • Enter: Monitor input • q: Quit")

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

// firstMatch returns the index of the first input device matching m.match,
// or 0.
func (m DeviceListModel) firstMatch() int {
	if m.match == "" {
		return 0
	}
	if d, err := audio.FindInputDevice(m.devices, m.match); err == nil {
		for i := range m.devices {
			if m.devices[i].ID == d.ID {
				return i
			}
		}
	}
	return 0
}

// renderDevices formats the device list
func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		marker := " "
		if m.match != "" && device.MaxInputChannels > 0 &&
			strings.Contains(strings.ToLower(device.Name), strings.ToLower(m.match)) {
			marker = "*"
		}

		deviceInfo := fmt.Sprintf("%s[%d] %s (%s)\n", marker, device.ID, device.Name, device.Direction())
		deviceInfo += fmt.Sprintf("    Input channels: %d (%s), Output channels: %d\n",
			device.MaxInputChannels, audio.ChannelMode(device.MaxInputChannels), device.MaxOutputChannels)
		deviceInfo += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}

	return sb.String()
}

// RunDeviceList launches the device browser and returns the chosen input
// device, if the user picked one.
func RunDeviceList(match string) (audio.Device, bool, error) {
	p := tea.NewProgram(
		NewDeviceListModel(match),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return audio.Device{}, false, err
	}
	d, ok := final.(DeviceListModel).Selected()
	return d, ok, nil
}
