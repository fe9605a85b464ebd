// SPDX-License-Identifier: MIT
package transport

import (
	"mixmon/internal/level"
	applog "mixmon/internal/log"
)

// LoggingTransport implements the Transport interface by writing events to
// the application log. Alarming events are logged as warnings, the rest at
// debug level so a quiet log only shows problems.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the event.
func (lt *LoggingTransport) Send(ev level.Event) error {
	if ev.Severity.Alarming() {
		applog.Warnf("Level: %s", ev.Message)
	} else {
		applog.Debugf("Level: %s", ev.Message)
	}
	if ev.Warning != "" && ev.Severity != level.NoiseDetected {
		applog.Warnf("Level: %s", ev.Warning)
	}
	for ch, s := range ev.Channels {
		if s.Alarming() && ch < len(ev.Gains) {
			applog.Warnf("Level: channel %d %.2f dBu: %s", ch+1, ev.Gains[ch], s)
		}
	}
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
