package engine

import (
	"sync"
	"time"

	"github.com/attunelabs/attune/pkg/session"
)

// EventType identifies what a playback [Event] reports.
type EventType string

const (
	// EventTransportChange fires when the transport enters a new state.
	EventTransportChange EventType = "transport-change"

	// EventTimeUpdate fires every scheduler tick while playing.
	EventTimeUpdate EventType = "time-update"

	// EventPromptStart fires when narration of a prompt begins.
	EventPromptStart EventType = "prompt-start"

	// EventPromptEnd fires when narration of a prompt finishes or is
	// cancelled.
	EventPromptEnd EventType = "prompt-end"

	// EventAmbientLoaded fires once per ambient sound when its asset has been
	// decoded and is ready to play.
	EventAmbientLoaded EventType = "ambient-loaded"

	// EventError fires when a recoverable runtime failure occurred. Playback
	// continues without the failed element.
	EventError EventType = "error"
)

// Event is one notification from the playback engine. Payload is one of the
// *Payload types in this package, keyed by Type.
type Event struct {
	Type      EventType
	Payload   any
	Timestamp time.Time
}

// TransportPayload accompanies [EventTransportChange].
type TransportPayload struct {
	State TransportState
	Time  float64
}

// TimePayload accompanies [EventTimeUpdate].
type TimePayload struct {
	Time float64
}

// PromptRoute tells which narration path delivered a prompt.
type PromptRoute string

const (
	RouteRemote PromptRoute = "remote"
	RouteNative PromptRoute = "native"
)

// PromptPayload accompanies [EventPromptStart] and [EventPromptEnd].
type PromptPayload struct {
	Prompt session.PromptItem
	Route  PromptRoute
}

// AmbientPayload accompanies [EventAmbientLoaded].
type AmbientPayload struct {
	SoundID string
}

// ErrorPayload accompanies [EventError].
type ErrorPayload struct {
	Op  string
	Err error
}

// Bus fans events out to subscribers. Delivery is synchronous and in
// subscription order; a slow subscriber delays the tick that published, so
// handlers should hand work off quickly. Bus is safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []busSub
}

type busSub struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every subsequent event and returns an
// unsubscribe function. Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, busSub{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers ev to every subscriber in subscription order.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := make([]busSub, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
