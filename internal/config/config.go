// Package config provides the configuration schema, loader, and validation
// for the Attune playback engine.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// TTSProviderName selects the remote synthesis backend.
type TTSProviderName string

const (
	// TTSDeepgram routes narration through the Deepgram speak API.
	TTSDeepgram TTSProviderName = "deepgram"

	// TTSOpenAI routes narration through the OpenAI speech endpoint.
	TTSOpenAI TTSProviderName = "openai"

	// TTSNone disables remote synthesis; narration falls back to the host
	// speech facility.
	TTSNone TTSProviderName = "none"
)

// IsValid reports whether p is a recognised provider name.
func (p TTSProviderName) IsValid() bool {
	switch p {
	case TTSDeepgram, TTSOpenAI, TTSNone:
		return true
	}
	return false
}

// Config is the root configuration structure for Attune.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	Audio   AudioConfig   `yaml:"audio"`
	Assets  AssetsConfig  `yaml:"assets"`
	TTS     TTSConfig     `yaml:"tts"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// AudioConfig holds playback graph settings.
type AudioConfig struct {
	// SampleRate is the graph's render rate in Hz. Zero means 48000.
	SampleRate int `yaml:"sample_rate"`

	// FrameIntervalMS is the scheduler tick period in milliseconds.
	// Zero means 16.
	FrameIntervalMS int `yaml:"frame_interval_ms"`
}

// AssetsConfig locates the bundled ambient sound files.
type AssetsConfig struct {
	// Dir is the directory containing the catalogue's WAV files.
	Dir string `yaml:"dir"`
}

// TTSConfig configures remote narration synthesis.
type TTSConfig struct {
	// Provider selects the synthesis backend.
	Provider TTSProviderName `yaml:"provider"`

	// APIKeyEnv names the environment variable holding the provider API key.
	// The key itself never appears in the config file.
	APIKeyEnv string `yaml:"api_key_env"`

	// Model is the provider-specific voice model used when a prompt does not
	// name one (e.g., "aura-2-thalia-en").
	Model string `yaml:"model"`

	// CacheDir is the synthesis cache directory. Empty disables the
	// persistent cache.
	CacheDir string `yaml:"cache_dir"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`
}

// MetricsConfig configures the optional Prometheus scrape endpoint.
type MetricsConfig struct {
	// Enabled turns the HTTP metrics listener on.
	Enabled bool `yaml:"enabled"`

	// ListenAddr is the TCP address the listener binds (e.g., ":9464").
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns a Config populated with the built-in defaults used when no
// config file is present.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Audio: AudioConfig{
			SampleRate:      48000,
			FrameIntervalMS: 16,
		},
		TTS: TTSConfig{
			Provider: TTSNone,
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9464",
		},
	}
}
