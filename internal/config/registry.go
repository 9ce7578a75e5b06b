package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/attunelabs/attune/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by [Registry.CreateTTS] when no factory
// has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps synthesis provider names to their constructor functions. The
// CLI registers the built-in providers at startup; tests register mocks.
// It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	tts map[TTSProviderName]func(TTSConfig) (tts.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		tts: make(map[TTSProviderName]func(TTSConfig) (tts.Provider, error)),
	}
}

// RegisterTTS registers a synthesis provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterTTS(name TTSProviderName, factory func(TTSConfig) (tts.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// CreateTTS instantiates a synthesis provider using the factory registered
// under cfg.Provider. Returns [ErrProviderNotRegistered] if no factory has
// been registered for that name.
func (r *Registry) CreateTTS(cfg TTSConfig) (tts.Provider, error) {
	r.mu.RLock()
	factory, ok := r.tts[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tts/%q", ErrProviderNotRegistered, cfg.Provider)
	}
	return factory(cfg)
}
