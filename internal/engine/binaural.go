package engine

import (
	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/session"
)

// binauralVoice is the sounding binaural-beat pair: one oscillator hard-panned
// per ear, the right ear offset by the beat frequency, mixed through a shared
// gain. The pair runs for the whole playing interval.
type binauralVoice struct {
	left  *audio.Oscillator
	right *audio.Oscillator
	gain  *audio.Gain
}

// startBinauralLocked builds and starts the tone pair for the loaded session.
// No-op when the session has no binaural configuration or a pair is already
// sounding.
func (e *Engine) startBinauralLocked() {
	cfg := e.sess.Binaural
	if cfg == nil || e.binaural != nil {
		return
	}

	base, beat := binauralFrequencies(cfg)
	gain := e.graph.NewGain(cfg.Volume)
	gain.Connect(e.master)

	left := e.graph.NewOscillator(base, -1)
	right := e.graph.NewOscillator(base+beat, 1)
	left.Connect(gain)
	right.Connect(gain)

	if err := left.Start(); err != nil {
		left.Disconnect()
		right.Disconnect()
		return
	}
	if err := right.Start(); err != nil {
		left.Stop()
		left.Disconnect()
		right.Disconnect()
		return
	}

	e.binaural = &binauralVoice{left: left, right: right, gain: gain}
	e.log.Debug("binaural started", "base", base, "beat", beat, "volume", cfg.Volume)
}

func (e *Engine) stopBinauralLocked() {
	v := e.binaural
	if v == nil {
		return
	}
	v.left.Stop()
	v.right.Stop()
	v.left.Disconnect()
	v.right.Disconnect()
	e.binaural = nil
	e.log.Debug("binaural stopped")
}

// binauralFrequencies resolves the pair's base and beat frequency: presets
// take their canonical values, custom uses the configured ones.
func binauralFrequencies(cfg *session.BinauralConfig) (base, beat float64) {
	if f, ok := session.PresetFrequencies[cfg.Preset]; ok && cfg.Preset != session.PresetCustom {
		return f.BaseFrequency, f.BeatFrequency
	}
	return cfg.BaseFrequency, cfg.BeatFrequency
}
