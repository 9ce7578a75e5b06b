// Package mock provides a test double for the speaker.Speaker interface.
//
// Use Speaker to observe utterances without touching a host audio device and
// to drive start/end callbacks from tests. By default an utterance "speaks"
// instantly: OnStart and OnEnd fire synchronously inside Speak. Set Manual to
// hold utterances open until the test finishes or cancels them.
package mock

import (
	"context"
	"sync"

	"github.com/attunelabs/attune/pkg/speaker"
)

// SpeakCall records a single invocation of Speak.
type SpeakCall struct {
	// Ctx is the context passed to Speak.
	Ctx context.Context
	// Utterance is the utterance passed to Speak.
	Utterance speaker.Utterance
	// Cancelled reports whether the caller cancelled this utterance.
	Cancelled bool

	ev   speaker.Events
	done bool
	mu   *sync.Mutex
}

// Speaker is a mock implementation of speaker.Speaker.
type Speaker struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// AvailableResult is returned by Available. Defaults to false; most tests
	// want true.
	AvailableResult bool

	// VoicesResult is returned by Voices.
	VoicesResult []speaker.Voice

	// VoicesErr, if non-nil, is returned as the error from Voices.
	VoicesErr error

	// SpeakErr, if non-nil, is returned as the error from Speak.
	SpeakErr error

	// Manual, if true, keeps utterances open after Speak returns. Only
	// OnStart fires; the test completes them with FinishAll or cancels them
	// through the returned cancel function.
	Manual bool

	// --- Call records ---

	// SpeakCalls records every call to Speak in order.
	SpeakCalls []*SpeakCall
}

// Available returns AvailableResult.
func (s *Speaker) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.AvailableResult
}

// Voices records nothing and returns VoicesResult, VoicesErr.
func (s *Speaker) Voices(context.Context) ([]speaker.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.VoicesResult, s.VoicesErr
}

// Speak records the call. Unless Manual is set, OnStart and OnEnd both fire
// before Speak returns.
func (s *Speaker) Speak(ctx context.Context, u speaker.Utterance, ev speaker.Events) (func(), error) {
	s.mu.Lock()
	if s.SpeakErr != nil {
		err := s.SpeakErr
		s.mu.Unlock()
		return nil, err
	}
	call := &SpeakCall{Ctx: ctx, Utterance: u, ev: ev, mu: &s.mu}
	s.SpeakCalls = append(s.SpeakCalls, call)
	manual := s.Manual
	s.mu.Unlock()

	if ev.OnStart != nil {
		ev.OnStart()
	}
	if !manual {
		call.finish(false)
		return func() {}, nil
	}
	return func() { call.finish(true) }, nil
}

// finish fires OnEnd once and marks the call done.
func (c *SpeakCall) finish(cancelled bool) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.done = true
	c.Cancelled = cancelled
	end := c.ev.OnEnd
	c.mu.Unlock()

	if end != nil {
		end()
	}
}

// FinishAll completes every open utterance, firing its OnEnd callback.
func (s *Speaker) FinishAll() {
	s.mu.Lock()
	calls := make([]*SpeakCall, len(s.SpeakCalls))
	copy(calls, s.SpeakCalls)
	s.mu.Unlock()

	for _, c := range calls {
		c.finish(false)
	}
}

// Reset clears all recorded calls. Thread-safe.
func (s *Speaker) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpeakCalls = nil
}

// Ensure Speaker implements speaker.Speaker at compile time.
var _ speaker.Speaker = (*Speaker)(nil)
