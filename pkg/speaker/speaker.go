// Package speaker abstracts local text-to-speech output.
//
// A Speaker renders narration through the host machine's speech facility and
// serves as the fallback when no remote synthesis provider is configured or
// reachable. Unlike tts.Provider it produces no audio bytes; speech goes
// straight to the host audio device and callers only observe start and end.
package speaker

import (
	"context"
	"strings"

	"github.com/antzucaro/matchr"
)

// Voice describes one installed speech voice.
type Voice struct {
	// ID is the identifier passed back to the Speaker.
	ID string
	// Name is the human-readable voice name.
	Name string
	// Language is a BCP 47 tag such as "en-US".
	Language string
}

// Utterance is one piece of narration to render.
type Utterance struct {
	// Text is the narration text.
	Text string
	// Voice is the preferred voice. It may name a voice only partially;
	// MatchVoice resolves it against the installed set.
	Voice string
	// Rate is the speed multiplier, 1.0 meaning the voice's natural pace.
	Rate float64
	// Pitch is the pitch multiplier, 1.0 meaning the voice's natural pitch.
	Pitch float64
}

// Events carries the callbacks invoked around an utterance. Either field may
// be nil.
type Events struct {
	// OnStart is called once when audible speech begins.
	OnStart func()
	// OnEnd is called exactly once when speech finishes, fails, or is
	// cancelled.
	OnEnd func()
}

// Speaker renders utterances on the host audio device.
type Speaker interface {
	// Available reports whether the speech facility is usable on this host.
	Available() bool

	// Voices lists the installed voices.
	Voices(ctx context.Context) ([]Voice, error)

	// Speak begins rendering the utterance and returns immediately. The
	// returned cancel function stops speech early; Events.OnEnd fires either
	// way.
	Speak(ctx context.Context, u Utterance, ev Events) (cancel func(), err error)
}

// jaroWinklerFloor is the minimum similarity for a fuzzy voice match.
const jaroWinklerFloor = 0.85

// MatchVoice resolves a requested voice name against the installed set:
// exact name match first, then case-insensitive substring, then the closest
// Jaro-Winkler candidate above a similarity floor. It returns false when
// want is empty or nothing matches, in which case callers should use the
// speaker's default voice.
func MatchVoice(voices []Voice, want string) (Voice, bool) {
	if want == "" {
		return Voice{}, false
	}
	for _, v := range voices {
		if v.Name == want || v.ID == want {
			return v, true
		}
	}

	lower := strings.ToLower(want)
	for _, v := range voices {
		if strings.Contains(strings.ToLower(v.Name), lower) {
			return v, true
		}
	}

	var (
		best      Voice
		bestScore float64
	)
	for _, v := range voices {
		score := matchr.JaroWinkler(strings.ToLower(v.Name), lower, false)
		if score > bestScore {
			best, bestScore = v, score
		}
	}
	if bestScore >= jaroWinklerFloor {
		return best, true
	}
	return Voice{}, false
}
