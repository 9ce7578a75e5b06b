package session

import (
	"errors"
	"fmt"
)

// Validate checks that s is a coherent, playable session document.
// It returns a joined error listing every problem found, or nil.
//
// The playback engine tolerates some of these conditions at runtime (items
// beyond the session duration simply never trigger); Validate exists so that
// tooling can refuse to ship broken documents in the first place.
func Validate(s *Session) error {
	var errs []error

	if s.ID == "" {
		errs = append(errs, errors.New("session id must not be empty"))
	}
	if s.Duration <= 0 {
		errs = append(errs, fmt.Errorf("session duration must be > 0, got %g", s.Duration))
	}
	if s.Lineage != "" && !s.Lineage.IsValid() {
		errs = append(errs, fmt.Errorf("lineage %q is invalid", s.Lineage))
	}
	if s.Intent != "" && !s.Intent.IsValid() {
		errs = append(errs, fmt.Errorf("intent %q is invalid", s.Intent))
	}

	for i, p := range s.Prompts {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("prompt[%d]: id must not be empty", i))
		}
		if p.StartTime < 0 {
			errs = append(errs, fmt.Errorf("prompt %q: start_time must be >= 0, got %g", p.ID, p.StartTime))
		}
		if p.Text == "" {
			errs = append(errs, fmt.Errorf("prompt %q: text must not be empty", p.ID))
		}
		if p.Voice.Rate != 0 && (p.Voice.Rate < 0.5 || p.Voice.Rate > 2.0) {
			errs = append(errs, fmt.Errorf("prompt %q: voice rate %g outside [0.5, 2.0]", p.ID, p.Voice.Rate))
		}
		if p.Voice.Pitch != 0 && (p.Voice.Pitch < 0.5 || p.Voice.Pitch > 2.0) {
			errs = append(errs, fmt.Errorf("prompt %q: voice pitch %g outside [0.5, 2.0]", p.ID, p.Voice.Pitch))
		}
	}

	for i, a := range s.Ambients {
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("ambient[%d]: id must not be empty", i))
		}
		if _, ok := SoundByID(a.SoundID); !ok {
			errs = append(errs, fmt.Errorf("ambient %q: unknown sound id %q", a.ID, a.SoundID))
		}
		if a.EndTime <= a.StartTime {
			errs = append(errs, fmt.Errorf("ambient %q: end_time %g must be > start_time %g", a.ID, a.EndTime, a.StartTime))
		}
		if a.Volume < 0 || a.Volume > 1 {
			errs = append(errs, fmt.Errorf("ambient %q: volume %g outside [0, 1]", a.ID, a.Volume))
		}
		if a.FadeIn < 0 {
			errs = append(errs, fmt.Errorf("ambient %q: fade_in must be >= 0, got %g", a.ID, a.FadeIn))
		}
		if a.FadeOut < 0 {
			errs = append(errs, fmt.Errorf("ambient %q: fade_out must be >= 0, got %g", a.ID, a.FadeOut))
		}
	}

	if b := s.Binaural; b != nil {
		if _, ok := PresetFrequencies[b.Preset]; !ok {
			errs = append(errs, fmt.Errorf("binaural: unknown preset %q", b.Preset))
		}
		// Non-custom presets carry their own frequencies.
		if b.Preset == PresetCustom {
			if b.BaseFrequency <= 0 {
				errs = append(errs, fmt.Errorf("binaural: base_frequency must be > 0, got %g", b.BaseFrequency))
			}
			if b.BeatFrequency <= 0 {
				errs = append(errs, fmt.Errorf("binaural: beat_frequency must be > 0, got %g", b.BeatFrequency))
			}
		}
		if b.Volume < 0 || b.Volume > 1 {
			errs = append(errs, fmt.Errorf("binaural: volume %g outside [0, 1]", b.Volume))
		}
		if b.EndTime <= b.StartTime {
			errs = append(errs, fmt.Errorf("binaural: end_time %g must be > start_time %g", b.EndTime, b.StartTime))
		}
	}

	return errors.Join(errs...)
}
