package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/attunelabs/attune/pkg/audio"
	"github.com/attunelabs/attune/pkg/session"
)

// ambientVoice is a sounding ambient bed: a buffer source feeding a dedicated
// gain that carries the item's fade envelope.
type ambientVoice struct {
	item      session.AmbientItem
	src       *audio.BufferSource
	gain      *audio.Gain
	fadingOut bool
}

// preloadAmbients decodes every sound referenced by the session in parallel.
// Each successful load yields an ambient-loaded event; failures yield error
// events and mark the sound as unavailable for the rest of the session.
func (e *Engine) preloadAmbients(ctx context.Context, sess *session.Session) []Event {
	ids := make([]string, 0, len(sess.Ambients))
	seen := make(map[string]bool)
	for _, a := range sess.Ambients {
		if !seen[a.SoundID] {
			seen[a.SoundID] = true
			ids = append(ids, a.SoundID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	var (
		mu   sync.Mutex
		evs  []Event
		bad  []string
		now  = e.clock.Now()
		g, _ = errgroup.WithContext(ctx)
	)
	for _, id := range ids {
		g.Go(func() error {
			start := time.Now()
			_, err := e.store.Load(id)
			e.metrics.AssetLoadDuration.Record(ctx, time.Since(start).Seconds(),
				metric.WithAttributes(attribute.String("sound", id)),
			)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				evs = append(evs, e.errorEvent(now, "ambient-load", err))
				bad = append(bad, id)
				return nil
			}
			evs = append(evs, Event{Type: EventAmbientLoaded, Payload: AmbientPayload{SoundID: id}, Timestamp: now})
			return nil
		})
	}
	_ = g.Wait()

	e.mu.Lock()
	for _, id := range bad {
		e.badSounds[id] = true
	}
	e.mu.Unlock()

	e.log.Debug("ambient preload complete", "sounds", len(ids), "failed", len(bad))
	return evs
}

// syncAmbientsLocked reconciles sounding voices with the timeline at position
// t: items whose window contains t get a voice, items whose window has passed
// are torn down, and fade-out ramps are armed as items approach their end.
func (e *Engine) syncAmbientsLocked(now time.Time, t float64) []Event {
	var evs []Event
	active := make(map[string]bool, len(e.sess.Ambients))

	for i := range e.sess.Ambients {
		item := e.sess.Ambients[i]
		inWindow := t >= item.StartTime && t < item.EndTime
		v := e.ambients[item.ID]

		switch {
		case inWindow && v == nil:
			if e.badSounds[item.SoundID] {
				break
			}
			voice, err := e.startAmbientLocked(now, t, item)
			if err != nil {
				e.badSounds[item.SoundID] = true
				evs = append(evs, e.errorEvent(now, "ambient-start", err))
				break
			}
			e.ambients[item.ID] = voice

		case inWindow && v != nil:
			e.armFadeOutLocked(now, t, v)
		}
		if inWindow {
			active[item.ID] = true
		}
	}

	for id, v := range e.ambients {
		if !active[id] {
			e.stopAmbientLocked(v)
			delete(e.ambients, id)
		}
	}
	return evs
}

// startAmbientLocked builds a voice for item at position t and applies the
// fade-in envelope. Joining mid-fade starts the ramp from the envelope value
// at t, so a seek lands on the same gain a straight play-through would have.
func (e *Engine) startAmbientLocked(now time.Time, t float64, item session.AmbientItem) (*ambientVoice, error) {
	buf, err := e.store.Load(item.SoundID)
	if err != nil {
		return nil, err
	}
	loop := false
	if sound, ok := session.SoundByID(item.SoundID); ok {
		loop = sound.Loopable
	}

	src := e.graph.NewBufferSource(buf, loop)
	gain := e.graph.NewGain(0)
	src.Connect(gain)
	gain.Connect(e.master)

	fadeIn, _ := clampFades(item)
	fadeEnd := item.StartTime + fadeIn
	switch {
	case fadeIn > 0 && t < fadeEnd:
		gain.SetValue(item.Volume * (t - item.StartTime) / fadeIn)
		gain.RampTo(item.Volume, now, wallTime(now, t, fadeEnd))
	default:
		gain.SetValue(item.Volume)
	}

	v := &ambientVoice{item: item, src: src, gain: gain}
	e.armFadeOutLocked(now, t, v)

	if err := src.Start(); err != nil {
		src.Disconnect()
		return nil, err
	}

	e.metrics.AmbientStarts.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("sound", item.SoundID)),
	)
	e.metrics.ActiveAmbients.Add(context.Background(), 1)
	e.log.Debug("ambient started", "ambient", item.ID, "sound", item.SoundID, "position", t)
	return v, nil
}

// armFadeOutLocked schedules the fade-out ramp once the position enters the
// item's tail. Idempotent per voice.
func (e *Engine) armFadeOutLocked(now time.Time, t float64, v *ambientVoice) {
	if v.fadingOut {
		return
	}
	_, fadeOut := clampFades(v.item)
	if fadeOut <= 0 || t < v.item.EndTime-fadeOut {
		return
	}
	v.gain.RampTo(0, now, wallTime(now, t, v.item.EndTime))
	v.fadingOut = true
}

func (e *Engine) stopAmbientLocked(v *ambientVoice) {
	v.src.Stop()
	v.src.Disconnect()
	e.metrics.ActiveAmbients.Add(context.Background(), -1)
	e.log.Debug("ambient stopped", "ambient", v.item.ID, "sound", v.item.SoundID)
}

func (e *Engine) stopAllAmbientsLocked() {
	for id, v := range e.ambients {
		e.stopAmbientLocked(v)
		delete(e.ambients, id)
	}
}

// clampFades limits each fade to half the item's span so the two ramps never
// overlap, mirroring how the envelopes are validated on load.
func clampFades(item session.AmbientItem) (fadeIn, fadeOut float64) {
	half := item.Span() / 2
	fadeIn = item.FadeIn
	if fadeIn > half {
		fadeIn = half
	}
	fadeOut = item.FadeOut
	if fadeOut > half {
		fadeOut = half
	}
	return fadeIn, fadeOut
}

// wallTime converts a timeline position target to a wall-clock instant,
// given that position t corresponds to instant now.
func wallTime(now time.Time, t, target float64) time.Time {
	return now.Add(time.Duration((target - t) * float64(time.Second)))
}
