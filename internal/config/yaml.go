// SPDX-License-Identifier: MIT
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	applog "mixmon/internal/log"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "MIXMON_"

// configCandidates are searched, in order, when no path is given.
var configCandidates = []string{
	"mixmon.yaml",
	"config.yaml",
}

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches configCandidates and falls back to built-in defaults
// when none exist. Environment overrides are applied after the file, then
// the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range configCandidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("Config: Loaded %s", path)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// decode strictly unmarshals YAML over the current values. Unknown keys are
// rejected so typos in threshold names do not silently fall back to
// defaults. An empty document leaves the defaults untouched.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Marshal renders the configuration as YAML. Used by the `config` command
// to print the effective settings.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// applyEnvOverrides reads MIXMON_* variables. Malformed values are errors
// rather than being ignored.
func (c *Config) applyEnvOverrides() error {
	// MIXMON_{...}
	// General and audio source overrides.

	if val, ok := lookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if err := envInt("DEVICE", &c.Audio.InputDevice); err != nil {
		return err
	}
	if val, ok := lookupEnv("MATCH"); ok {
		c.Audio.Match = val
	}
	if err := envInt("CHANNELS", &c.Audio.InputChannels); err != nil {
		return err
	}

	// MIXMON_{...}
	// Calibration. These are the values most often changed per deployment.

	if err := envFloat("CALIBRATION_OFFSET", &c.Levels.CalibrationOffset); err != nil {
		return err
	}
	if err := envFloat("MAX_ALLOWED_LEVEL", &c.Levels.MaxAllowedLevel); err != nil {
		return err
	}
	if err := envFloat("NOISE_FLOOR", &c.Levels.NoiseFloor); err != nil {
		return err
	}
	if err := envFloat("NOMINAL_TOLERANCE", &c.Levels.NominalTolerance); err != nil {
		return err
	}

	// MIXMON_{WS,UDP}_{...}
	// These are specific to the transport layer.

	if err := envBool("WS_ENABLED", &c.Transport.WebSocketEnabled); err != nil {
		return err
	}
	if val, ok := lookupEnv("WS_ADDRESS"); ok {
		c.Transport.WebSocketAddress = val
	}
	if err := envBool("UDP_ENABLED", &c.Transport.UDPEnabled); err != nil {
		return err
	}
	if val, ok := lookupEnv("UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
	if val, ok := lookupEnv("UDP_SEND_INTERVAL"); ok {
		dur, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%sUDP_SEND_INTERVAL: %w", EnvPrefix, err)
		}
		c.Transport.UDPSendInterval = dur
	}

	return nil
}

func lookupEnv(name string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if ok {
		applog.Infof("Config: Overriding %s from environment: %s", strings.ToLower(name), val)
	}
	return val, ok
}

func envInt(name string, dst *int) error {
	val, ok := lookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	*dst = n
	return nil
}

func envFloat(name string, dst *float64) error {
	val, ok := lookupEnv(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	*dst = f
	return nil
}

func envBool(name string, dst *bool) error {
	val, ok := lookupEnv(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	*dst = b
	return nil
}
