package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
// Fields absent from the document keep the [Default] values.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Audio.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must not be negative", cfg.Audio.SampleRate))
	} else if cfg.Audio.SampleRate != 0 && (cfg.Audio.SampleRate < 8000 || cfg.Audio.SampleRate > 192000) {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d is out of range [8000, 192000]", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FrameIntervalMS < 0 {
		errs = append(errs, fmt.Errorf("audio.frame_interval_ms %d must not be negative", cfg.Audio.FrameIntervalMS))
	} else if cfg.Audio.FrameIntervalMS > 1000 {
		errs = append(errs, fmt.Errorf("audio.frame_interval_ms %d is out of range [1, 1000]", cfg.Audio.FrameIntervalMS))
	}

	if cfg.TTS.Provider != "" && !cfg.TTS.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("tts.provider %q is invalid; valid values: deepgram, openai, none", cfg.TTS.Provider))
	}
	if cfg.TTS.Provider != "" && cfg.TTS.Provider != TTSNone {
		if cfg.TTS.APIKeyEnv == "" {
			errs = append(errs, fmt.Errorf("tts.api_key_env is required when tts.provider is %q", cfg.TTS.Provider))
		} else if os.Getenv(cfg.TTS.APIKeyEnv) == "" {
			slog.Warn("TTS API key environment variable is not set; narration will fall back to the host speech facility",
				"env", cfg.TTS.APIKeyEnv,
				"provider", cfg.TTS.Provider,
			)
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("metrics.listen_addr is required when metrics.enabled is true"))
	}

	return errors.Join(errs...)
}

// APIKey resolves the provider API key from the configured environment
// variable. Empty when unset or when no remote provider is configured.
func (c *TTSConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
