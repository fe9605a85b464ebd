// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"

	applog "mixmon/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrAlreadyRecording is returned by StartRecording while a recording is
// in progress.
var ErrAlreadyRecording = errors.New("already recording")

// wavFormatPCM is the WAVE_FORMAT_PCM audio format tag.
const wavFormatPCM = 1

// Recorder writes normalised float samples to a PCM WAV file.
type Recorder struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	encoder   *wav.Encoder
	sampleBuf *audio.IntBuffer // Reusable buffer for format conversion
	scale     float64
	frames    int64
	channels  int
}

// NewRecorder creates path and prepares a WAV encoder for the given stream
// layout. bitDepth must be 16 or 24.
func NewRecorder(path string, sampleRate, channels, bitDepth int) (*Recorder, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	sampleBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: bitDepth,
	}

	return &Recorder{
		path:      path,
		file:      file,
		encoder:   wav.NewEncoder(file, sampleRate, bitDepth, channels, wavFormatPCM),
		sampleBuf: sampleBuf,
		scale:     float64(int(1)<<(bitDepth-1) - 1),
		channels:  channels,
	}, nil
}

// Write converts samples to integer PCM and appends them to the file.
// Samples outside [-1, 1] are clipped.
func (r *Recorder) Write(samples []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return os.ErrClosed
	}

	if cap(r.sampleBuf.Data) < len(samples) {
		r.sampleBuf.Data = make([]int, len(samples))
	}
	data := r.sampleBuf.Data[:len(samples)]
	for i, s := range samples {
		s = max(-1, min(1, s))
		data[i] = int(s * r.scale)
	}
	r.sampleBuf.Data = data

	if err := r.encoder.Write(r.sampleBuf); err != nil {
		return err
	}
	r.frames += int64(len(samples) / r.channels)
	return nil
}

// Close finalises the WAV header and closes the file. Further calls are
// no-ops.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return nil
	}

	err := r.encoder.Close()
	r.encoder = nil
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	r.file = nil
	return err
}

// Path returns the file being written.
func (r *Recorder) Path() string {
	return r.path
}

// Frames returns the number of frames written so far.
func (r *Recorder) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// StartRecording begins writing the monitored input to filename at the
// given bit depth.
func (e *Engine) StartRecording(filename string, bitDepth int) error {
	if e.recorder.Load() != nil {
		return ErrAlreadyRecording
	}

	rec, err := NewRecorder(filename, int(e.sampleRate), e.channels, bitDepth)
	if err != nil {
		return err
	}

	if !e.recorder.CompareAndSwap(nil, rec) {
		rec.Close()
		os.Remove(filename)
		return ErrAlreadyRecording
	}

	applog.Infof("Engine: Recording to %s (%d-bit, %d channels)", filename, bitDepth, e.channels)
	return nil
}

// StopRecording finalises the current recording, if any.
func (e *Engine) StopRecording() error {
	rec := e.recorder.Swap(nil)
	if rec == nil {
		return nil
	}

	if err := rec.Close(); err != nil {
		return fmt.Errorf("failed to close recording %s: %w", rec.Path(), err)
	}
	applog.Infof("Engine: Recording saved to %s (%d frames)", rec.Path(), rec.Frames())
	return nil
}

// Recording reports whether a recording is in progress.
func (e *Engine) Recording() bool {
	return e.recorder.Load() != nil
}
