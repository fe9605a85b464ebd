package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"mixmon/cmd"
	"mixmon/internal/audio"
	"mixmon/internal/config"
	"mixmon/internal/level"
	applog "mixmon/internal/log"
	"mixmon/internal/monitor"
	"mixmon/internal/transport"
	"mixmon/internal/transport/udp"
	"mixmon/internal/tui"
	"mixmon/pkg/build"

	tea "github.com/charmbracelet/bubbletea"
)

// main is the entry point for the level monitor.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and configuration
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Open the event outputs behind the dispatcher
//   - Start the input stream feeding the monitor
//   - Start recording if enabled
//   - Run the meter or wait for a signal
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the stream and any recording
//   - Drain queued events
//   - Close outputs and report stream status
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Initialize build information including version, commit hash, and build time.
	// Development builds run without ldflags.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v", err)
	}

	// Limit OS threads to optimize for real-time audio processing:
	// - One thread dedicated to audio engine (time-critical)
	// - One thread for outputs, UI and I/O operations
	runtime.GOMAXPROCS(2)

	// Parse command line arguments and build configuration
	cfg, err := cmd.ParseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg == nil {
		return // --help or --version
	}
	applog.SetLevelName(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Handle one-off commands that don't require the audio engine
	switch cfg.Command {
	case "config":
		err = printConfig(os.Stdout, cfg)
	case "analyze":
		err = analyzeFile(ctx, cfg, os.Stdout)
	case "list":
		var picked bool
		picked, err = listDevices(cfg)
		if err == nil && picked {
			err = runMonitor(ctx, cfg)
		}
	default:
		err = runMonitor(ctx, cfg)
	}
	if err != nil {
		applog.Fatalf("%v", err)
	}
}

func printConfig(w io.Writer, cfg *config.Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// listDevices prints the device list, or with --tui lets the user browse
// and pick an input. It reports whether a device was picked, in which case
// cfg is updated to monitor it.
func listDevices(cfg *config.Config) (bool, error) {
	if err := audio.Initialize(); err != nil {
		return false, err
	}
	defer audio.Terminate()

	if !cfg.Transport.TUI {
		return false, audio.ListDevices(os.Stdout)
	}

	device, ok, err := tui.RunDeviceList(cfg.Audio.Match)
	if err != nil || !ok {
		return false, err
	}
	cfg.Audio.InputDevice = device.ID
	cfg.Audio.Match = ""
	return true, nil
}

// analyzeFile runs a WAV file through the same pipeline as the live input.
// Events are delivered synchronously so none are dropped.
func analyzeFile(ctx context.Context, cfg *config.Config, w io.Writer) error {
	if len(cfg.Args) != 1 {
		return errors.New("analyze requires exactly one file")
	}

	src, err := audio.OpenFile(cfg.Args[0], cfg.Audio.FramesPerBuffer)
	if err != nil {
		return err
	}
	defer src.Close()

	duration, _ := src.Duration()
	applog.Infof("Analyze: %s (%d Hz, %d-bit, %s, %s)", cfg.Args[0],
		src.SampleRate(), src.BitDepth(), audio.ChannelMode(src.Channels()), duration.Round(time.Millisecond))

	var summary summarySink
	sinks := monitor.MultiSink{&summary}
	if cfg.Transport.Console {
		sinks = append(sinks, transport.AsSink("Console", transport.NewConsoleTransport(w)))
	} else {
		sinks = append(sinks, transport.AsSink("Log", transport.NewLoggingTransport()))
	}

	mon := monitor.New(cfg.Thresholds(), sinks, monitor.WithPerChannel(cfg.Levels.PerChannel))
	blocks, err := src.Run(ctx, mon)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	summary.write(w, blocks)
	return nil
}

// summarySink tallies severities for the analyze report. It is only used
// synchronously.
type summarySink struct {
	counts [level.NoiseDetected + 1]int
	peak   float64
	have   bool
}

func (s *summarySink) Handle(ev level.Event) {
	if !s.have || ev.Level > s.peak {
		s.peak = ev.Level
		s.have = true
	}
	if int(ev.Severity) < len(s.counts) {
		s.counts[ev.Severity]++
	}
}

func (s *summarySink) write(w io.Writer, blocks int) {
	fmt.Fprintf(w, "\n%d blocks", blocks)
	if s.have {
		fmt.Fprintf(w, ", peak %.2f dBu", s.peak)
	}
	fmt.Fprintln(w)
	for sev, n := range s.counts {
		if n > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", level.Severity(sev), n)
		}
	}
}

// runMonitor captures the configured input until interrupted.
func runMonitor(ctx context.Context, cfg *config.Config) error {
	// Initialize PortAudio subsystem
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	var (
		sinks   monitor.MultiSink
		closers []func() error
		program *tea.Program
	)
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				applog.Warnf("Shutdown: %v", err)
			}
		}
	}()

	switch {
	case cfg.Transport.TUI:
		// The meter owns the terminal; keep log lines off it.
		defer applog.SetOutput(os.Stderr)
		if cfg.Verbose {
			f, err := tea.LogToFile("mixmon.log", "")
			if err != nil {
				return err
			}
			closers = append(closers, f.Close)
			applog.SetOutput(f)
		} else {
			applog.SetOutput(io.Discard)
		}

		device, err := audio.ResolveInputDevice(cfg.Audio)
		if err != nil {
			return err
		}
		channels, err := audio.ResolveChannels(cfg.Audio.InputChannels, device.MaxInputChannels)
		if err != nil {
			return err
		}
		program = tui.NewMeterProgram(tui.NewMeterModel(device.Name, channels, cfg.Thresholds()))
		sinks = append(sinks, tui.NewSink(program))

	case cfg.Transport.Console:
		sinks = append(sinks, transport.AsSink("Console", transport.NewConsoleTransport(os.Stdout)))

	default:
		sinks = append(sinks, transport.AsSink("Log", transport.NewLoggingTransport()))
	}

	if cfg.Transport.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		if err != nil {
			return err
		}
		closers = append(closers, ws.Close)
		sinks = append(sinks, transport.AsSink("WebSocket", ws))
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return err
		}
		publisher, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			return err
		}
		publisher.Start()
		closers = append(closers, publisher.Close)
		sinks = append(sinks, publisher)
	}

	// Events leave the audio thread through the dispatcher; slow outputs
	// drop events instead of stalling the callback.
	dispatcher := monitor.NewDispatcher(sinks, cfg.Transport.QueueSize)
	closers = append([]func() error{dispatcher.Close}, closers...)

	mon := monitor.New(cfg.Thresholds(), dispatcher, monitor.WithPerChannel(cfg.Levels.PerChannel))

	engine, err := audio.NewEngine(cfg, mon)
	if err != nil {
		return err
	}

	// CRITICAL: Start of real-time audio processing
	// The first call to StartInputStream triggers PortAudio to begin
	// calling the callback function, marking the start of the hot path
	if err := engine.StartInputStream(); err != nil {
		return err
	}

	// The engine stops before the dispatcher drains.
	closers = append([]func() error{engine.Close}, closers...)

	// Start recording if enabled in configuration
	if cfg.Recording.Enabled {
		if err := engine.StartRecording(cfg.RecordingPath(time.Now()), cfg.Recording.BitDepth); err != nil {
			return err
		}
	}

	applog.Infof("Monitoring %s (%s, %s blocks). Press Ctrl+C to stop.",
		engine.DeviceName(), audio.ChannelMode(engine.Channels()), cfg.BlockDuration())

	if program != nil {
		go func() {
			<-ctx.Done()
			program.Quit()
		}()
		if _, err := program.Run(); err != nil {
			return err
		}
		applog.SetOutput(os.Stderr)
	} else {
		// Block until termination signal is received
		<-ctx.Done()
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	s := engine.Status()
	applog.Infof("Shutdown: %d blocks, %d overflows, %d underflows, %d events dropped",
		mon.Blocks(), s.Overflows, s.Underflows, dispatcher.Dropped())
	return nil
}
