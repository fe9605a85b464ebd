// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the monitor.
const (
	// Audio source defaults
	DefaultChannels        = 0           // 0 = use the device's maximum input channels
	DefaultDeviceID        = MinDeviceID // Default to system default device
	DefaultDeviceMatch     = "USB"       // Substring used by --mixer to find the mixer
	DefaultFramesPerBuffer = 1024        // ~23ms blocks at 44.1kHz
	DefaultLowLatency      = false       // Standard latency mode
	DefaultSampleRate      = 44100       // CD-quality audio

	// Level defaults, see level.DefaultThresholds
	DefaultCalibrationOffset = -18.0
	DefaultMaxAllowedLevel   = 4.0
	DefaultNoiseFloor        = -60.0
	DefaultNominalTolerance  = 0.0
	DefaultPerChannel        = false

	// Recording defaults
	DefaultRecordInputStream = false // Don't record by default
	DefaultOutputDir         = "."   // Recordings land in the working directory
	DefaultBitDepth          = 16    // 16-bit PCM WAV
	DefaultFormat            = "wav" // WAV file format for recordings

	// Presentation defaults
	DefaultConsole          = true
	DefaultTUI              = false
	DefaultQueueSize        = 64 // Events buffered between the audio thread and sinks
	DefaultWebSocketAddress = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz

	DefaultLogLevel  = "info"
	DefaultVerbosity = false // Quiet operation

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
)

// Config represents the full runtime configuration, loaded from YAML and
// refined by environment variables and command line flags.
type Config struct {
	LogLevel  string          `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	Audio     AudioConfig     `yaml:"audio"`
	Levels    LevelsConfig    `yaml:"levels"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`

	// Command line only.
	Command string   `yaml:"-"` // One-off command to execute ("list", "analyze").
	Args    []string `yaml:"-"` // Positional arguments for Command.
	Verbose bool     `yaml:"-"` // Force debug logging.
}

// AudioConfig holds settings for the live input stream.
type AudioConfig struct {
	// InputDevice is the PortAudio device index, -1 for the system default.
	InputDevice int `yaml:"input_device" validate:"gte=-1"`

	// Match selects the first input device whose name contains it. It
	// takes precedence over InputDevice when set.
	Match           string  `yaml:"match"`
	SampleRate      float64 `yaml:"sample_rate" validate:"gte=8000,lte=192000"`
	FramesPerBuffer int     `yaml:"frames_per_buffer" validate:"gte=1,lte=8192"`

	// InputChannels is the number of channels to capture, 0 for the
	// device maximum.
	InputChannels int  `yaml:"input_channels" validate:"gte=0"`
	LowLatency    bool `yaml:"low_latency"`
}

// LevelsConfig holds the calibration and threshold set, all in dB.
type LevelsConfig struct {
	CalibrationOffset float64 `yaml:"calibration_offset" validate:"gte=-60,lte=60"`
	MaxAllowedLevel   float64 `yaml:"max_allowed_level"`
	NoiseFloor        float64 `yaml:"noise_floor" validate:"ltfield=MaxAllowedLevel"`
	NominalTolerance  float64 `yaml:"nominal_tolerance" validate:"gte=0,ltfield=MaxAllowedLevel"`

	// PerChannel adds per-channel RMS gains to every event.
	PerChannel bool `yaml:"per_channel"`
}

// RecordingConfig holds settings for writing the monitored input to disk.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`

	// OutputFile overrides the generated name in OutputDir.
	OutputFile string `yaml:"output_file"`
	BitDepth   int    `yaml:"bit_depth" validate:"oneof=16 24"`
}

// TransportConfig selects where classification events are delivered.
type TransportConfig struct {
	Console bool `yaml:"console"`
	TUI     bool `yaml:"tui"`

	// QueueSize is the number of events buffered between the audio thread
	// and the sinks before new events are dropped.
	QueueSize        int           `yaml:"queue_size" validate:"gte=1,lte=4096"`
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address" validate:"omitempty,hostname_port"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address" validate:"omitempty,hostname_port"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
}

// NewConfig creates a Config holding the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Verbose:  DefaultVerbosity,
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultChannels,
			LowLatency:      DefaultLowLatency,
		},
		Levels: LevelsConfig{
			CalibrationOffset: DefaultCalibrationOffset,
			MaxAllowedLevel:   DefaultMaxAllowedLevel,
			NoiseFloor:        DefaultNoiseFloor,
			NominalTolerance:  DefaultNominalTolerance,
			PerChannel:        DefaultPerChannel,
		},
		Recording: RecordingConfig{
			Enabled:   DefaultRecordInputStream,
			OutputDir: DefaultOutputDir,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			Console:          DefaultConsole,
			TUI:              DefaultTUI,
			QueueSize:        DefaultQueueSize,
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
	}
}
