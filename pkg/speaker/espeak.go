package speaker

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Compile-time interface assertion.
var _ Speaker = (*ESpeak)(nil)

const (
	// espeakBaseWPM is espeak-ng's default speaking rate in words per minute;
	// Utterance.Rate scales it.
	espeakBaseWPM = 175

	// espeakBasePitch is espeak-ng's default pitch on its 0-99 scale;
	// Utterance.Pitch scales it.
	espeakBasePitch = 50
)

// ESpeak is a Speaker backed by the espeak-ng command line tool.
type ESpeak struct {
	binary string

	mu     sync.Mutex
	voices []Voice
}

// ESpeakOption is a functional option for configuring ESpeak.
type ESpeakOption func(*ESpeak)

// WithBinary overrides the espeak-ng binary name or path.
func WithBinary(path string) ESpeakOption {
	return func(e *ESpeak) { e.binary = path }
}

// NewESpeak creates an espeak-ng backed Speaker. It does not verify the
// binary exists; use Available for that.
func NewESpeak(opts ...ESpeakOption) *ESpeak {
	e := &ESpeak{binary: "espeak-ng"}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Available reports whether the espeak-ng binary is on PATH.
func (e *ESpeak) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// Voices lists the voices espeak-ng reports, caching the result.
func (e *ESpeak) Voices(ctx context.Context) ([]Voice, error) {
	e.mu.Lock()
	if e.voices != nil {
		cached := e.voices
		e.mu.Unlock()
		return cached, nil
	}
	e.mu.Unlock()

	out, err := exec.CommandContext(ctx, e.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("speaker: list voices: %w", err)
	}
	voices := parseVoices(out)

	e.mu.Lock()
	e.voices = voices
	e.mu.Unlock()
	return voices, nil
}

// Speak renders the utterance through espeak-ng. OnStart fires once the
// process is running, OnEnd once it exits for any reason.
func (e *ESpeak) Speak(ctx context.Context, u Utterance, ev Events) (func(), error) {
	if u.Text == "" {
		return nil, fmt.Errorf("speaker: text must not be empty")
	}

	args := []string{
		"-s", fmt.Sprintf("%d", scaleRate(u.Rate)),
		"-p", fmt.Sprintf("%d", scalePitch(u.Pitch)),
	}
	if u.Voice != "" {
		voices, err := e.Voices(ctx)
		if err == nil {
			if v, ok := MatchVoice(voices, u.Voice); ok {
				args = append(args, "-v", v.ID)
			}
		}
	}
	args = append(args, u.Text)

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, e.binary, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("speaker: start %s: %w", e.binary, err)
	}
	if ev.OnStart != nil {
		ev.OnStart()
	}

	go func() {
		defer cancel()
		_ = cmd.Wait()
		if ev.OnEnd != nil {
			ev.OnEnd()
		}
	}()
	return cancel, nil
}

// scaleRate maps an Utterance rate multiplier onto espeak-ng's words per
// minute flag, clamped to the tool's accepted range.
func scaleRate(rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	wpm := int(espeakBaseWPM * rate)
	if wpm < 80 {
		wpm = 80
	}
	if wpm > 450 {
		wpm = 450
	}
	return wpm
}

// scalePitch maps an Utterance pitch multiplier onto espeak-ng's 0-99 scale.
func scalePitch(pitch float64) int {
	if pitch <= 0 {
		pitch = 1
	}
	p := int(espeakBasePitch * pitch)
	if p < 0 {
		p = 0
	}
	if p > 99 {
		p = 99
	}
	return p
}

// parseVoices reads the table emitted by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-US           --/M      English (America)  gmw/en-US
func parseVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			// Header row.
			first = false
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		// VoiceName may contain spaces; it spans fields[3] up to the file
		// column, which is the last field. The file column doubles as the
		// identifier accepted by -v.
		fileIdx := len(fields) - 1
		name := strings.Join(fields[3:fileIdx], " ")
		voices = append(voices, Voice{
			ID:       fields[fileIdx],
			Name:     name,
			Language: fields[1],
		})
	}
	return voices
}
