package config_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/attunelabs/attune/internal/config"
	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/provider/tts"
	ttsmock "github.com/attunelabs/attune/pkg/provider/tts/mock"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
log_level: info

audio:
  sample_rate: 44100
  frame_interval_ms: 20

assets:
  dir: ./assets/sounds

tts:
  provider: deepgram
  api_key_env: DEEPGRAM_API_KEY
  model: aura-2-thalia-en
  cache_dir: /tmp/attune-cache

metrics:
  enabled: true
  listen_addr: ":9464"
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-test")

	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LogLevel != config.LogInfo {
		t.Errorf("log_level: got %q, want %q", cfg.LogLevel, config.LogInfo)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("audio.sample_rate: got %d, want 44100", cfg.Audio.SampleRate)
	}
	if cfg.Audio.FrameIntervalMS != 20 {
		t.Errorf("audio.frame_interval_ms: got %d, want 20", cfg.Audio.FrameIntervalMS)
	}
	if cfg.Assets.Dir != "./assets/sounds" {
		t.Errorf("assets.dir: got %q", cfg.Assets.Dir)
	}
	if cfg.TTS.Provider != config.TTSDeepgram {
		t.Errorf("tts.provider: got %q, want deepgram", cfg.TTS.Provider)
	}
	if cfg.TTS.Model != "aura-2-thalia-en" {
		t.Errorf("tts.model: got %q", cfg.TTS.Model)
	}
	if got := cfg.TTS.APIKey(); got != "dg-test" {
		t.Errorf("tts api key: got %q, want dg-test", got)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics.enabled: got false, want true")
	}
}

func TestLoadFromReader_EmptyIsValid(t *testing.T) {
	// An empty config should succeed (no required top-level fields)
	// and keep the built-in defaults.
	cfg, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("default audio.sample_rate: got %d, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.FrameIntervalMS != 16 {
		t.Errorf("default audio.frame_interval_ms: got %d, want 16", cfg.Audio.FrameIntervalMS)
	}
	if cfg.TTS.Provider != config.TTSNone {
		t.Errorf("default tts.provider: got %q, want none", cfg.TTS.Provider)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	yaml := `
log_level: info
surprise: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

// ── validation ────────────────────────────────────────────────────────────────

func TestValidate_InvalidLogLevel(t *testing.T) {
	yaml := `
log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_InvalidProvider(t *testing.T) {
	yaml := `
tts:
  provider: acme
  api_key_env: ACME_KEY
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid provider, got nil")
	}
	if !strings.Contains(err.Error(), "tts.provider") {
		t.Errorf("error should mention tts.provider, got: %v", err)
	}
}

func TestValidate_ProviderRequiresAPIKeyEnv(t *testing.T) {
	yaml := `
tts:
  provider: deepgram
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing api_key_env, got nil")
	}
	if !strings.Contains(err.Error(), "api_key_env") {
		t.Errorf("error should mention api_key_env, got: %v", err)
	}
}

func TestValidate_SampleRateOutOfRange(t *testing.T) {
	yaml := `
audio:
  sample_rate: 1000
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range sample rate, got nil")
	}
}

func TestValidate_JoinsMultipleErrors(t *testing.T) {
	yaml := `
log_level: verbose
tts:
  provider: acme
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "log_level") || !strings.Contains(msg, "tts.provider") {
		t.Errorf("joined error should mention both failures, got: %v", err)
	}
}

// ── registry ──────────────────────────────────────────────────────────────────

func TestRegistry_CreateTTS(t *testing.T) {
	reg := config.NewRegistry()
	want := &ttsmock.Provider{FormatResult: audio.Format{SampleRate: 24000, Channels: 1}}
	reg.RegisterTTS(config.TTSDeepgram, func(config.TTSConfig) (tts.Provider, error) {
		return want, nil
	})

	got, err := reg.CreateTTS(config.TTSConfig{Provider: config.TTSDeepgram})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != tts.Provider(want) {
		t.Error("CreateTTS returned a different provider")
	}
}

func TestRegistry_CreateTTS_NotRegistered(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateTTS(config.TTSConfig{Provider: config.TTSOpenAI})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("err = %v, want ErrProviderNotRegistered", err)
	}
}
