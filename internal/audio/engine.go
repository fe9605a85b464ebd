// SPDX-License-Identifier: MIT
/*
Package audio implements live capture and offline decoding for the monitor:
- PortAudio input stream delivering interleaved float32 blocks
- Device discovery, mixer matching and channel resolution
- WAV recording of the monitored input
- WAV file playback through the same block pipeline

Thread Safety:
- The stream callback runs on PortAudio's audio thread
- Pre-allocates the sample block to avoid GC in hot path
- Recording state and stream status counters are atomic
*/
package audio

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"mixmon/internal/config"
	"mixmon/internal/level"
	applog "mixmon/internal/log"

	"github.com/gordonklaus/portaudio"
)

// BlockHandler consumes one block of interleaved samples. The block and its
// backing array are only valid for the duration of the call.
type BlockHandler interface {
	HandleBlock(block level.SampleBlock)
}

// BlockHandlerFunc adapts an ordinary function to BlockHandler.
type BlockHandlerFunc func(block level.SampleBlock)

// HandleBlock calls f(block).
func (f BlockHandlerFunc) HandleBlock(block level.SampleBlock) {
	f(block)
}

// StreamStatus counts callbacks and the status flags PortAudio reported.
type StreamStatus struct {
	Callbacks   uint64
	Overflows   uint64
	Underflows  uint64
	WriteErrors uint64
}

type Engine struct {
	handler BlockHandler

	// Audio input handling.
	channels        int
	framesPerBuffer int
	sampleRate      float64
	inputDevice     *portaudio.DeviceInfo
	inputLatency    time.Duration
	inputStream     *portaudio.Stream

	// Reused for every callback; handed to the handler as a SampleBlock.
	block []float64

	// Recording state.
	recorder atomic.Pointer[Recorder]

	callbacks   atomic.Uint64
	overflows   atomic.Uint64
	underflows  atomic.Uint64
	writeErrors atomic.Uint64
}

// NewEngine resolves the capture device from cfg and prepares an engine
// that feeds every captured block to handler.
func NewEngine(cfg *config.Config, handler BlockHandler) (*Engine, error) {
	inputDevice, err := ResolveInputDevice(cfg.Audio)
	if err != nil {
		return nil, err
	}
	return newEngine(cfg.Audio, inputDevice, handler)
}

func newEngine(cfg config.AudioConfig, inputDevice *portaudio.DeviceInfo, handler BlockHandler) (*Engine, error) {
	if inputDevice == nil {
		return nil, errors.New("no input device")
	}
	if handler == nil {
		return nil, errors.New("nil block handler")
	}

	channels, err := ResolveChannels(cfg.InputChannels, inputDevice.MaxInputChannels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inputDevice.Name, err)
	}

	engine := &Engine{
		handler:         handler,
		channels:        channels,
		framesPerBuffer: cfg.FramesPerBuffer,
		sampleRate:      cfg.SampleRate,
		inputDevice:     inputDevice,
		block:           make([]float64, cfg.FramesPerBuffer*channels),
	}

	if cfg.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return engine, nil
}

// StartInputStream opens and starts the PortAudio input stream.
func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.framesPerBuffer,
		SampleRate:      e.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream on %s: %w", e.inputDevice.Name, err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	applog.Infof("Engine: Capturing %s, %s, %.0f Hz, %d frames per buffer",
		e.inputDevice.Name, ChannelMode(e.channels), e.sampleRate, e.framesPerBuffer)
	return nil
}

// StopInputStream stops and closes the input stream if it is open.
func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the core audio processing callback.
// Performance Critical:
// - Runs on the PortAudio audio thread
// - Uses pre-allocated buffers only
// - Never returns errors, it counts them
func (e *Engine) processInputStream(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	e.callbacks.Add(1)
	if flags&portaudio.InputOverflow != 0 {
		e.overflows.Add(1)
	}
	if flags&portaudio.InputUnderflow != 0 {
		e.underflows.Add(1)
	}

	block := e.block
	if len(in) < len(block) {
		block = block[:len(in)]
	}
	for i := range block {
		block[i] = float64(in[i])
	}

	e.handler.HandleBlock(level.NewSampleBlock(block, e.channels))

	// Write to WAV file if recording
	if rec := e.recorder.Load(); rec != nil {
		if err := rec.Write(block); err != nil && !errors.Is(err, os.ErrClosed) {
			if e.writeErrors.Add(1) == 1 {
				applog.Errorf("Engine: Error writing to WAV file: %v", err)
			}
		}
	}
}

// Status returns a snapshot of the stream counters.
func (e *Engine) Status() StreamStatus {
	return StreamStatus{
		Callbacks:   e.callbacks.Load(),
		Overflows:   e.overflows.Load(),
		Underflows:  e.underflows.Load(),
		WriteErrors: e.writeErrors.Load(),
	}
}

// Channels returns the number of channels being captured.
func (e *Engine) Channels() int {
	return e.channels
}

// DeviceName returns the name of the capture device.
func (e *Engine) DeviceName() string {
	return e.inputDevice.Name
}

// Close stops any recording and the input stream.
func (e *Engine) Close() error {
	if err := e.StopRecording(); err != nil {
		return err
	}

	if err := e.StopInputStream(); err != nil {
		return err
	}

	if s := e.Status(); s.Overflows > 0 || s.Underflows > 0 {
		applog.Warnf("Engine: %d input overflows, %d underflows in %d callbacks",
			s.Overflows, s.Underflows, s.Callbacks)
	}
	return nil
}
