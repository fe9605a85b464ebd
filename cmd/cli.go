// SPDX-License-Identifier: MIT
package cmd

import (
	"io"
	"strings"

	"mixmon/internal/config"
	"mixmon/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagValues receives the raw command line values. Only flags the user
// actually set are copied onto the loaded configuration, so file and
// environment settings survive unless overridden.
type flagValues struct {
	configPath string
	logLevel   string

	device          int
	mixer           string
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool

	calibrationOffset float64
	maxLevel          float64
	noiseFloor        float64
	nominalTolerance  float64
	perChannel        bool

	record     bool
	outputFile string
	bitDepth   int

	quiet     bool
	tui       bool
	websocket string
	udp       string
	queueSize int

	verbose bool
}

// ParseArgs parses args (without the program name) and returns the
// effective configuration. It returns nil and no error when cobra handled
// the invocation itself, e.g. for --help or --version.
func ParseArgs(args []string, out io.Writer) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		fv      flagValues
		options *config.Config
	)

	// resolve loads the config file, then layers the changed flags on top.
	resolve := func(cmd *cobra.Command, command string, cmdArgs []string) error {
		cfg, err := config.LoadConfig(fv.configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd.Flags(), &fv, cfg)

		cfg.Command = command
		cfg.Args = cmdArgs
		if err := cfg.Validate(); err != nil {
			return err
		}
		options = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolve(cmd, "", args)
		},
	}
	rootCmd.SetOut(out)

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolve(cmd, "list", args)
		},
	}
	rootCmd.AddCommand(listCmd)

	// Analyze command
	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Run the level pipeline over a WAV file, block by block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolve(cmd, "analyze", args)
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	// Config command
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolve(cmd, "config", args)
		},
	}
	rootCmd.AddCommand(configCmd)

	flags := rootCmd.PersistentFlags()

	// General Configuration
	flags.StringVarP(&fv.configPath, "config", "C", "",
		"Path to a YAML config file (default: mixmon.yaml or config.yaml if present)")
	flags.StringVar(&fv.logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")

	// Audio Device Configuration
	flags.IntVarP(&fv.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	flags.StringVarP(&fv.mixer, "mixer", "m", "",
		"Use the first input device whose name contains this text (bare --mixer matches \"USB\")")
	flags.Lookup("mixer").NoOptDefVal = config.DefaultDeviceMatch
	flags.IntVarP(&fv.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (0 = all device inputs)")
	flags.Float64VarP(&fv.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.IntVarP(&fv.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (one level per buffer)")
	flags.BoolVarP(&fv.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Level Configuration
	flags.Float64Var(&fv.calibrationOffset, "calibration-offset", config.DefaultCalibrationOffset,
		"dB added to dBFS to obtain dBu")
	flags.Float64Var(&fv.maxLevel, "max-level", config.DefaultMaxAllowedLevel,
		"Upper bound of the slightly hot band, in dBu")
	flags.Float64Var(&fv.noiseFloor, "noise-floor", config.DefaultNoiseFloor,
		"Levels below this are reported as noise, in dBu")
	flags.Float64Var(&fv.nominalTolerance, "nominal-tolerance", config.DefaultNominalTolerance,
		"Half-width of the nominal band around 0 dBu (0 = exact zero only)")
	flags.BoolVarP(&fv.perChannel, "per-channel", "p", config.DefaultPerChannel,
		"Report per-channel RMS gains")

	// Recording Configuration
	flags.BoolVarP(&fv.record, "record", "r", config.DefaultRecordInputStream,
		"Record audio from the specified input device")
	flags.StringVarP(&fv.outputFile, "output", "o", "",
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")
	flags.IntVar(&fv.bitDepth, "bit-depth", config.DefaultBitDepth,
		"Recording bit depth (16 or 24)")

	// Output Configuration
	flags.BoolVarP(&fv.quiet, "quiet", "q", false,
		"Do not print events to the console")
	flags.BoolVarP(&fv.tui, "tui", "t", config.DefaultTUI,
		"Show the live meter (with 'list': browse devices interactively)")
	flags.StringVar(&fv.websocket, "websocket", "",
		"Stream events as JSON over WebSocket on this address")
	flags.Lookup("websocket").NoOptDefVal = config.DefaultWebSocketAddress
	flags.StringVar(&fv.udp, "udp", "",
		"Send binary event packets to this UDP address")
	flags.Lookup("udp").NoOptDefVal = config.DefaultUDPTargetAddress
	flags.IntVar(&fv.queueSize, "queue-size", config.DefaultQueueSize,
		"Events buffered for slow outputs before dropping")

	// Debug Configuration
	flags.BoolVarP(&fv.verbose, "verbose", "v", config.DefaultVerbosity,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(flags *pflag.FlagSet, fv *flagValues, cfg *config.Config) {
	changed := flags.Changed

	if changed("log-level") {
		cfg.LogLevel = strings.ToLower(fv.logLevel)
	}
	if changed("verbose") {
		cfg.Verbose = fv.verbose
		if fv.verbose {
			cfg.LogLevel = "debug"
		}
	}

	if changed("device") {
		cfg.Audio.InputDevice = fv.device
	}
	if changed("mixer") {
		cfg.Audio.Match = fv.mixer
	}
	if changed("channels") {
		cfg.Audio.InputChannels = fv.channels
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = fv.sampleRate
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = fv.framesPerBuffer
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = fv.lowLatency
	}

	if changed("calibration-offset") {
		cfg.Levels.CalibrationOffset = fv.calibrationOffset
	}
	if changed("max-level") {
		cfg.Levels.MaxAllowedLevel = fv.maxLevel
	}
	if changed("noise-floor") {
		cfg.Levels.NoiseFloor = fv.noiseFloor
	}
	if changed("nominal-tolerance") {
		cfg.Levels.NominalTolerance = fv.nominalTolerance
	}
	if changed("per-channel") {
		cfg.Levels.PerChannel = fv.perChannel
	}

	if changed("record") {
		cfg.Recording.Enabled = fv.record
	}
	if changed("output") {
		cfg.Recording.OutputFile = fv.outputFile
	}
	if changed("bit-depth") {
		cfg.Recording.BitDepth = fv.bitDepth
	}

	if changed("quiet") {
		cfg.Transport.Console = !fv.quiet
	}
	if changed("tui") {
		cfg.Transport.TUI = fv.tui
	}
	if changed("websocket") {
		cfg.Transport.WebSocketEnabled = fv.websocket != ""
		cfg.Transport.WebSocketAddress = fv.websocket
	}
	if changed("udp") {
		cfg.Transport.UDPEnabled = fv.udp != ""
		cfg.Transport.UDPTargetAddress = fv.udp
	}
	if changed("queue-size") {
		cfg.Transport.QueueSize = fv.queueSize
	}
}
