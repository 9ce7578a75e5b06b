package tts

import "errors"

// Voice describes one entry in a provider's voice catalogue.
type Voice struct {
	// ID is the provider-specific voice identifier (e.g. "aura-2-athena-en").
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider identifies which TTS provider this voice belongs to.
	Provider string

	// Gender and Accent are catalogue attributes used by voice pickers.
	Gender string
	Accent string

	// Traits is a short free-text characterisation (e.g. "Calm, warm, wise").
	Traits string

	// Recommended marks voices curated for meditation narration.
	Recommended bool
}

// Sentinel errors shared by provider implementations.
var (
	// ErrNotConfigured indicates a missing provider credential. Fatal to the
	// synthesis call; surfaced to the user rather than retried.
	ErrNotConfigured = errors.New("tts: provider credential not configured")

	// ErrUnknownVoice indicates a voice ID outside the provider's allow-list.
	ErrUnknownVoice = errors.New("tts: unknown voice id")

	// ErrTextTooLong indicates prompt text exceeding the provider's limit.
	ErrTextTooLong = errors.New("tts: text exceeds maximum length")
)
