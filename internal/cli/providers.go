package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/attunelabs/attune/internal/config"
	"github.com/attunelabs/attune/internal/resilience"
	"github.com/attunelabs/attune/pkg/provider/tts"
	"github.com/attunelabs/attune/pkg/provider/tts/cache"
	"github.com/attunelabs/attune/pkg/provider/tts/deepgram"
	"github.com/attunelabs/attune/pkg/provider/tts/openai"
)

// Both built-in providers are configured to emit 24 kHz mono PCM so their
// output is interchangeable: cached audio and failover audio always share one
// format.
const synthesisSampleRate = 24000

// conventionalKeyEnv is the environment variable each provider is normally
// keyed from. Used to pick up a failover provider without extra config.
var conventionalKeyEnv = map[config.TTSProviderName]string{
	config.TTSDeepgram: "DEEPGRAM_API_KEY",
	config.TTSOpenAI:   "OPENAI_API_KEY",
}

// registerBuiltinProviders wires the built-in synthesis backends into reg.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterTTS(config.TTSDeepgram, func(cfg config.TTSConfig) (tts.Provider, error) {
		opts := []deepgram.Option{deepgram.WithSampleRate(synthesisSampleRate)}
		if cfg.BaseURL != "" {
			opts = append(opts, deepgram.WithBaseURL(cfg.BaseURL))
		}
		return deepgram.New(cfg.APIKey(), opts...)
	})

	reg.RegisterTTS(config.TTSOpenAI, func(cfg config.TTSConfig) (tts.Provider, error) {
		var opts []openai.Option
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		return openai.New(cfg.APIKey(), opts...)
	})
}

// buildTTS constructs the configured synthesis stack: the primary provider,
// wrapped in a failover group when the other built-in provider's conventional
// API key is present, wrapped in the persistent cache when a cache directory
// is configured. The returned closer releases the cache database; it is nil
// when no cleanup is needed.
func (a *app) buildTTS() (provider tts.Provider, closer func() error, err error) {
	name := a.cfg.TTS.Provider
	if name == "" || name == config.TTSNone {
		return nil, nil, nil
	}

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	primary, err := reg.CreateTTS(a.cfg.TTS)
	if err != nil {
		return nil, nil, fmt.Errorf("create tts provider %q: %w", name, err)
	}
	a.log.Info("synthesis provider created", "provider", name, "model", a.cfg.TTS.Model)

	provider = primary
	if alt, altName := a.failoverProvider(reg, name); alt != nil {
		group := resilience.NewTTSFallback(primary, string(name), resilience.FallbackConfig{})
		group.AddFallback(string(altName), alt)
		provider = group
		a.log.Info("synthesis failover enabled", "fallback", altName)
	}

	if dir := a.cfg.TTS.CacheDir; dir != "" {
		cached, err := cache.New(provider, string(name), dir, cache.WithLogger(a.log))
		if err != nil {
			return nil, nil, fmt.Errorf("open synthesis cache: %w", err)
		}
		a.log.Info("synthesis cache enabled", "dir", dir)
		return cached, cached.Close, nil
	}
	return provider, nil, nil
}

// failoverProvider builds the other built-in provider when its conventional
// API key is set in the environment. A failed construction is logged and
// ignored; failover is opportunistic.
func (a *app) failoverProvider(reg *config.Registry, primary config.TTSProviderName) (tts.Provider, config.TTSProviderName) {
	var altName config.TTSProviderName
	switch primary {
	case config.TTSDeepgram:
		altName = config.TTSOpenAI
	case config.TTSOpenAI:
		altName = config.TTSDeepgram
	default:
		return nil, ""
	}

	keyEnv := conventionalKeyEnv[altName]
	if os.Getenv(keyEnv) == "" {
		return nil, ""
	}
	alt, err := reg.CreateTTS(config.TTSConfig{Provider: altName, APIKeyEnv: keyEnv})
	if err != nil {
		slog.Debug("failover provider unavailable", "provider", altName, "err", err)
		return nil, ""
	}
	return alt, altName
}
