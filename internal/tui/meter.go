// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"mixmon/internal/level"
	"mixmon/internal/transport"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// The meter scale, in dBu.
const (
	meterMin = -60.0
	meterMax = 12.0
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D7D7D"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB000")).
			Bold(true)
)

// EventMsg carries one classification event into the Bubble Tea program.
type EventMsg level.Event

type meterKeyMap struct {
	Quit  key.Binding
	Pause key.Binding
	Reset key.Binding
}

var meterKeys = meterKeyMap{
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Pause: key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause")),
	Reset: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset peak")),
}

// MeterModel is the Bubble Tea model for the live level meter.
type MeterModel struct {
	device     string
	channels   int
	thresholds level.Thresholds

	last   level.Event
	have   bool
	peak   float64
	counts [level.NoiseDetected + 1]int
	events int
	paused bool

	bar   progress.Model
	width int
}

// NewMeterModel creates a meter for the named device.
func NewMeterModel(device string, channels int, th level.Thresholds) MeterModel {
	return MeterModel{
		device:     device,
		channels:   channels,
		thresholds: th,
		peak:       th.SilenceLevel(),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width:      80,
	}
}

// Init initializes the Bubble Tea model
func (m MeterModel) Init() tea.Cmd {
	return nil
}

// Update handles events and key presses.
func (m MeterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case EventMsg:
		if m.paused {
			return m, nil
		}
		m.last = level.Event(msg)
		m.have = true
		m.events++
		if m.last.Level > m.peak {
			m.peak = m.last.Level
		}
		if int(m.last.Severity) < len(m.counts) {
			m.counts[m.last.Severity]++
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, meterKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, meterKeys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, meterKeys.Reset):
			m.peak = m.thresholds.SilenceLevel()
			m.counts = [len(m.counts)]int{}
			m.events = 0
		}
	}

	return m, nil
}

// View renders the meter.
func (m MeterModel) View() string {
	var sb strings.Builder

	title := titleStyle.Render("mixmon")
	info := infoStyle.Render(fmt.Sprintf(" %s, %d ch, max %+.1f dBu, noise floor %.1f dBu",
		m.device, m.channels, m.thresholds.MaxAllowedLevel, m.thresholds.NoiseFloor))
	sb.WriteString(title + info + "\n\n")

	if !m.have {
		sb.WriteString("Waiting for audio...\n")
		sb.WriteString("\n" + m.helpView())
		return sb.String()
	}

	barWidth := max(10, m.width-24)
	m.bar.Width = barWidth

	sb.WriteString(m.meterLine("Level", m.last.Level, m.last.Severity))
	for ch, g := range m.last.Gains {
		s := level.Unclassified
		if ch < len(m.last.Channels) {
			s = m.last.Channels[ch]
		}
		sb.WriteString(m.meterLine(fmt.Sprintf("Ch %d", ch+1), g, s))
	}

	sb.WriteString("\n")
	sb.WriteString(transport.SeverityStyle(m.last.Severity).Render(m.last.Message))
	sb.WriteString("\n")
	if m.last.Warning != "" {
		sb.WriteString(warningStyle.Render("⚠ " + m.last.Warning))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render(fmt.Sprintf("Peak %.2f dBu  Blocks %d  Nominal %d  Hot %d  Too hot %d  Noise %d",
		m.peak, m.events,
		m.counts[level.Nominal], m.counts[level.SlightlyHot],
		m.counts[level.TooHot], m.counts[level.NoiseDetected])))
	sb.WriteString("\n")

	if m.paused {
		sb.WriteString(highlightStyle.Render("PAUSED"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n" + m.helpView())
	return sb.String()
}

func (m MeterModel) meterLine(label string, lvl float64, s level.Severity) string {
	return fmt.Sprintf("%-6s %s %s\n",
		labelStyle.Render(label),
		m.bar.ViewAs(MeterPercent(lvl)),
		transport.SeverityStyle(s).Render(fmt.Sprintf("%8.2f", lvl)))
}

func (m MeterModel) helpView() string {
	return infoStyle.Render("q: Quit • p: Pause • r: Reset peak")
}

// MeterPercent maps a level onto the meter scale, clamped to [0, 1].
func MeterPercent(lvl float64) float64 {
	p := (lvl - meterMin) / (meterMax - meterMin)
	return max(0, min(1, p))
}

// Sink forwards events to a running Bubble Tea program. Program.Send blocks
// until the program reads the message, so Sink belongs behind a
// monitor.Dispatcher.
type Sink struct {
	program *tea.Program
}

// NewSink creates a Sink delivering to p.
func NewSink(p *tea.Program) *Sink {
	return &Sink{program: p}
}

// Handle sends ev to the program.
func (s *Sink) Handle(ev level.Event) {
	s.program.Send(EventMsg(ev))
}

// NewMeterProgram creates the full-screen meter program.
func NewMeterProgram(model MeterModel, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
}
