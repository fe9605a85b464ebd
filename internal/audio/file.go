// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"mixmon/internal/level"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned when a file is not a readable PCM WAV file.
var ErrInvalidWAV = errors.New("not a valid WAV file")

// WAV format tags accepted by OpenFile. Extensible files are decoded as
// integer PCM.
const (
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// FileSource replays a WAV file through the block pipeline, one block of
// framesPerBlock frames at a time.
type FileSource struct {
	file    *os.File
	decoder *wav.Decoder

	channels       int
	sampleRate     int
	bitDepth       int
	float          bool // 32-bit IEEE float samples
	framesPerBlock int
}

// OpenFile opens path for block-by-block analysis.
func OpenFile(path string, framesPerBlock int) (*FileSource, error) {
	if framesPerBlock <= 0 {
		return nil, fmt.Errorf("invalid frames per block: %d", framesPerBlock)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	if decoder.NumChans == 0 || decoder.BitDepth == 0 {
		file.Close()
		return nil, fmt.Errorf("%s: %w (channels %d, bit depth %d)", path, ErrInvalidWAV, decoder.NumChans, decoder.BitDepth)
	}

	var float bool
	switch decoder.WavAudioFormat {
	case wavFormatPCM, wavFormatExtensible:
	case wavFormatFloat:
		if decoder.BitDepth != 32 {
			file.Close()
			return nil, fmt.Errorf("%s: %w (%d-bit float)", path, ErrInvalidWAV, decoder.BitDepth)
		}
		float = true
	default:
		file.Close()
		return nil, fmt.Errorf("%s: %w (format tag %d)", path, ErrInvalidWAV, decoder.WavAudioFormat)
	}

	return &FileSource{
		file:           file,
		decoder:        decoder,
		channels:       int(decoder.NumChans),
		sampleRate:     int(decoder.SampleRate),
		bitDepth:       int(decoder.BitDepth),
		float:          float,
		framesPerBlock: framesPerBlock,
	}, nil
}

// Channels returns the number of interleaved channels in the file.
func (s *FileSource) Channels() int { return s.channels }

// SampleRate returns the file's sample rate in Hz.
func (s *FileSource) SampleRate() int { return s.sampleRate }

// BitDepth returns the file's PCM bit depth.
func (s *FileSource) BitDepth() int { return s.bitDepth }

// Duration returns the playing time of the file.
func (s *FileSource) Duration() (time.Duration, error) {
	return s.decoder.Duration()
}

// Run decodes the file and hands each block to handler until the data is
// exhausted or ctx is cancelled. The last block may be short. It returns
// the number of blocks delivered.
func (s *FileSource) Run(ctx context.Context, handler BlockHandler) (int, error) {
	buf := &audio.IntBuffer{
		Format:         s.decoder.Format(),
		Data:           make([]int, s.framesPerBlock*s.channels),
		SourceBitDepth: s.bitDepth,
	}
	samples := make([]float64, len(buf.Data))

	// 8-bit WAV data is unsigned; everything wider is signed.
	var bias float64
	scale := float64(int(1) << (s.bitDepth - 1))
	if s.bitDepth == 8 {
		bias = scale
	}

	blocks := 0
	for {
		if err := ctx.Err(); err != nil {
			return blocks, err
		}

		n, err := s.decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return blocks, fmt.Errorf("failed to decode block %d: %w", blocks, err)
		}
		if n == 0 {
			return blocks, nil
		}

		if s.float {
			// The decoder returns the raw bits of each float sample.
			for i, v := range buf.Data[:n] {
				samples[i] = float64(math.Float32frombits(uint32(int32(v))))
			}
		} else {
			for i, v := range buf.Data[:n] {
				samples[i] = (float64(v) - bias) / scale
			}
		}
		handler.HandleBlock(level.NewSampleBlock(samples[:n], s.channels))
		blocks++

		if n < len(buf.Data) {
			return blocks, nil
		}
	}
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}
