// Package session defines the meditation session document model: the timeline
// of spoken prompts, ambient sound beds, and the optional binaural-beat track
// that the playback engine schedules.
//
// A Session is an authored document. The engine treats a loaded Session as an
// immutable snapshot — edits happen in an external editor and are reloaded.
// This package therefore contains only value types, validation, and YAML
// (de)serialisation; no playback state lives here.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Lineage classifies a session by meditation tradition.
type Lineage string

const (
	LineageZazen       Lineage = "zazen"
	LineageRajaYoga    Lineage = "raja-yoga"
	LineageMindfulness Lineage = "mindfulness"
	LineageVipassana   Lineage = "vipassana"
)

// IsValid reports whether l is a recognised lineage.
func (l Lineage) IsValid() bool {
	switch l {
	case LineageZazen, LineageRajaYoga, LineageMindfulness, LineageVipassana:
		return true
	}
	return false
}

// Intent classifies what a session is for.
type Intent string

const (
	IntentSleep   Intent = "sleep"
	IntentAnxiety Intent = "anxiety"
	IntentFocus   Intent = "focus"
	IntentEnergy  Intent = "energy"
	IntentGeneral Intent = "general"
)

// IsValid reports whether i is a recognised intent.
func (i Intent) IsValid() bool {
	switch i {
	case IntentSleep, IntentAnxiety, IntentFocus, IntentEnergy, IntentGeneral:
		return true
	}
	return false
}

// VoiceConfig selects the voice used to narrate a prompt.
//
// Voice is either "default", a system voice name (matched fuzzily against the
// device's installed voices), or a provider voice ID (e.g. a Deepgram Aura-2
// model name) — the engine routes to remote synthesis when the ID belongs to
// the configured provider's catalogue.
type VoiceConfig struct {
	Voice string  `yaml:"voice"`
	Rate  float64 `yaml:"rate"`  // 0.5 – 2.0, 1.0 = normal
	Pitch float64 `yaml:"pitch"` // 0.5 – 2.0, 1.0 = normal
}

// DefaultVoice is the voice configuration applied to prompts that do not
// specify one.
var DefaultVoice = VoiceConfig{Voice: "default", Rate: 1.0, Pitch: 1.0}

// PromptItem is a scheduled spoken-text item on the session timeline.
type PromptItem struct {
	ID        string      `yaml:"id"`
	StartTime float64     `yaml:"start_time"` // seconds from session start, >= 0
	Duration  float64     `yaml:"duration"`   // estimated narration length in seconds
	Text      string      `yaml:"text"`
	Voice     VoiceConfig `yaml:"voice"`
}

// AmbientItem is a scheduled background sound bed with a linear fade envelope.
// SoundID references an entry in the static [Sounds] catalogue.
type AmbientItem struct {
	ID        string  `yaml:"id"`
	SoundID   string  `yaml:"sound_id"`
	Name      string  `yaml:"name"`
	StartTime float64 `yaml:"start_time"`
	EndTime   float64 `yaml:"end_time"` // must be > StartTime
	Volume    float64 `yaml:"volume"`   // 0 – 1
	FadeIn    float64 `yaml:"fade_in"`  // seconds, >= 0
	FadeOut   float64 `yaml:"fade_out"` // seconds, >= 0
}

// Span returns the item's scheduled duration in seconds.
func (a AmbientItem) Span() float64 { return a.EndTime - a.StartTime }

// BinauralPreset names a conventional brainwave-entrainment band.
type BinauralPreset string

const (
	PresetDelta  BinauralPreset = "delta"
	PresetTheta  BinauralPreset = "theta"
	PresetAlpha  BinauralPreset = "alpha"
	PresetBeta   BinauralPreset = "beta"
	PresetCustom BinauralPreset = "custom"
)

// PresetFrequencies maps each preset to its canonical base and beat frequency.
var PresetFrequencies = map[BinauralPreset]struct {
	BaseFrequency float64
	BeatFrequency float64
	Description   string
}{
	PresetDelta:  {200, 2, "Deep sleep (0.5-4 Hz)"},
	PresetTheta:  {200, 6, "Meditation, creativity (4-8 Hz)"},
	PresetAlpha:  {200, 10, "Relaxation, calm (8-13 Hz)"},
	PresetBeta:   {200, 20, "Focus, alertness (13-30 Hz)"},
	PresetCustom: {200, 10, "Custom frequencies"},
}

// BinauralConfig describes the session's binaural-beat track: two pure tones,
// one per ear, offset by BeatFrequency. At most one per session.
type BinauralConfig struct {
	Preset        BinauralPreset `yaml:"preset"`
	BaseFrequency float64        `yaml:"base_frequency"` // Hz, typically 100-500
	BeatFrequency float64        `yaml:"beat_frequency"` // Hz, the inter-aural difference (1-40)
	Volume        float64        `yaml:"volume"`         // 0 – 1
	StartTime     float64        `yaml:"start_time"`
	EndTime       float64        `yaml:"end_time"`
	FadeIn        float64        `yaml:"fade_in"`
	FadeOut       float64        `yaml:"fade_out"`
}

// SectionType labels a structural region of the session timeline.
type SectionType string

const (
	SectionOpening SectionType = "opening"
	SectionMain    SectionType = "main"
	SectionClosing SectionType = "closing"
)

// SectionMarker is an editor-facing structural annotation. The engine ignores
// sections; they are carried so that round-tripping a document is lossless.
type SectionMarker struct {
	ID        string      `yaml:"id"`
	Type      SectionType `yaml:"type"`
	StartTime float64     `yaml:"start_time"`
	EndTime   float64     `yaml:"end_time"`
	Label     string      `yaml:"label,omitempty"`
}

// Session is the persisted timeline document the engine plays back.
type Session struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Lineage     Lineage         `yaml:"lineage,omitempty"`
	Intent      Intent          `yaml:"intent,omitempty"`
	Duration    float64         `yaml:"duration"` // authoritative total length in seconds
	Version     int             `yaml:"version,omitempty"`
	Prompts     []PromptItem    `yaml:"prompts"`
	Ambients    []AmbientItem   `yaml:"ambients"`
	Binaural    *BinauralConfig `yaml:"binaural"`
	Sections    []SectionMarker `yaml:"sections,omitempty"`
	CreatedAt   time.Time       `yaml:"created_at,omitempty"`
	UpdatedAt   time.Time       `yaml:"updated_at,omitempty"`
}

// NewPrompt returns a PromptItem with a fresh ID and the default voice.
func NewPrompt(startTime float64, text string) PromptItem {
	return PromptItem{
		ID:        uuid.NewString(),
		StartTime: startTime,
		Duration:  5,
		Text:      text,
		Voice:     DefaultVoice,
	}
}

// NewAmbient returns an AmbientItem with a fresh ID and the catalogue name of
// the referenced sound (empty if the sound is unknown).
func NewAmbient(soundID string, startTime, endTime float64) AmbientItem {
	name := ""
	if s, ok := SoundByID(soundID); ok {
		name = s.Name
	}
	return AmbientItem{
		ID:        uuid.NewString(),
		SoundID:   soundID,
		Name:      name,
		StartTime: startTime,
		EndTime:   endTime,
		Volume:    0.5,
		FadeIn:    3,
		FadeOut:   3,
	}
}

// NewBinaural returns a BinauralConfig for the given preset spanning
// [startTime, endTime].
func NewBinaural(preset BinauralPreset, startTime, endTime float64) *BinauralConfig {
	f, ok := PresetFrequencies[preset]
	if !ok {
		preset = PresetCustom
		f = PresetFrequencies[PresetCustom]
	}
	return &BinauralConfig{
		Preset:        preset,
		BaseFrequency: f.BaseFrequency,
		BeatFrequency: f.BeatFrequency,
		Volume:        0.3,
		StartTime:     startTime,
		EndTime:       endTime,
		FadeIn:        5,
		FadeOut:       5,
	}
}
