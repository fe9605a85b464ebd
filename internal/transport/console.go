// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"mixmon/internal/level"

	"github.com/charmbracelet/lipgloss"
)

var (
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D7D7D"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB000")).
			Bold(true)

	severityStyles = map[level.Severity]lipgloss.Style{
		level.Nominal:         lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")),
		level.SlightlyHot:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB000")),
		level.TooHot:          lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4040")).Bold(true),
		level.NoiseDetected:   lipgloss.NewStyle().Foreground(lipgloss.Color("#A070FF")),
		level.BelowNoiseFloor: lipgloss.NewStyle().Foreground(lipgloss.Color("#A070FF")),
		level.Unclassified:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")),
	}
)

// SeverityStyle returns the colour used for s on the console and in the TUI.
func SeverityStyle(s level.Severity) lipgloss.Style {
	if style, ok := severityStyles[s]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// ConsoleTransport prints one line per event, plus a warning line when the
// level is below the noise floor.
type ConsoleTransport struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleTransport creates a ConsoleTransport writing to w.
func NewConsoleTransport(w io.Writer) *ConsoleTransport {
	return &ConsoleTransport{w: w}
}

// Send writes the event to the console.
func (ct *ConsoleTransport) Send(ev level.Event) error {
	line := FormatEvent(ev)

	ct.mu.Lock()
	defer ct.mu.Unlock()
	_, err := io.WriteString(ct.w, line)
	return err
}

// Close is a no-op; the writer belongs to the caller.
func (ct *ConsoleTransport) Close() error {
	return nil
}

// FormatEvent renders ev as the console shows it, newline terminated.
func FormatEvent(ev level.Event) string {
	var sb strings.Builder

	if !ev.Time.IsZero() {
		sb.WriteString(timeStyle.Render(ev.Time.Format("15:04:05.000")))
		sb.WriteByte(' ')
	}
	sb.WriteString(SeverityStyle(ev.Severity).Render(ev.Message))

	if len(ev.Gains) > 0 {
		sb.WriteString("  [")
		for ch, g := range ev.Gains {
			if ch > 0 {
				sb.WriteByte(' ')
			}
			s := level.Unclassified
			if ch < len(ev.Channels) {
				s = ev.Channels[ch]
			}
			sb.WriteString(SeverityStyle(s).Render(fmt.Sprintf("ch%d %.2f", ch+1, g)))
		}
		sb.WriteByte(']')
	}
	sb.WriteByte('\n')

	if ev.Warning != "" {
		sb.WriteString(warningStyle.Render("  ⚠ " + ev.Warning))
		sb.WriteByte('\n')
	}
	return sb.String()
}

var _ Transport = (*ConsoleTransport)(nil)
