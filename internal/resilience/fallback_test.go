package resilience

import (
	"errors"
	"testing"
	"time"
)

func newStringGroup(t *testing.T) *FallbackGroup[string] {
	t.Helper()
	fg := NewFallbackGroup("deepgram", "deepgram", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fg.AddFallback("openai", "openai")
	return fg
}

func TestFallbackGroup_PrimaryServes(t *testing.T) {
	t.Parallel()
	fg := newStringGroup(t)

	var served string
	if err := fg.Execute(func(v string) error { served = v; return nil }); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if served != "deepgram" {
		t.Fatalf("served by %q, want the primary", served)
	}
}

func TestFallbackGroup_FailoverToSecondary(t *testing.T) {
	t.Parallel()
	fg := newStringGroup(t)

	var served string
	err := fg.Execute(func(v string) error {
		if v == "deepgram" {
			return errSynth
		}
		served = v
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if served != "openai" {
		t.Fatalf("served by %q, want the fallback", served)
	}
}

func TestFallbackGroup_AllFail(t *testing.T) {
	t.Parallel()
	fg := newStringGroup(t)

	err := fg.Execute(func(string) error { return errSynth })
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestFallbackGroup_OpenBreakerSkipsPrimary(t *testing.T) {
	t.Parallel()
	fg := NewFallbackGroup("deepgram", "deepgram", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures:  2,
			ResetTimeout: time.Hour,
		},
	})
	fg.AddFallback("openai", "openai")

	// Trip the primary's breaker.
	for i := 0; i < 2; i++ {
		_ = fg.Execute(func(v string) error {
			if v == "deepgram" {
				return errSynth
			}
			return nil
		})
	}

	var served string
	fn := func(v string) error { served = v; return nil }
	if err := fg.Execute(fn); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if served != "openai" {
		t.Fatalf("served by %q, want the fallback while the primary's circuit is open", served)
	}
}

func TestExecuteWithResult(t *testing.T) {
	t.Parallel()
	fg := newStringGroup(t)

	got, err := ExecuteWithResult(fg, func(v string) ([]byte, error) {
		return []byte("pcm from " + v), nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if string(got) != "pcm from deepgram" {
		t.Fatalf("result = %q, want the primary's", got)
	}
}

func TestExecuteWithResult_Failover(t *testing.T) {
	t.Parallel()
	fg := newStringGroup(t)

	got, err := ExecuteWithResult(fg, func(v string) ([]byte, error) {
		if v == "deepgram" {
			return nil, errSynth
		}
		return []byte("pcm from " + v), nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if string(got) != "pcm from openai" {
		t.Fatalf("result = %q, want the fallback's", got)
	}
}

func TestExecuteWithResult_AllFail(t *testing.T) {
	t.Parallel()
	fg := NewFallbackGroup("deepgram", "deepgram", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})

	_, err := ExecuteWithResult(fg, func(string) ([]byte, error) {
		return nil, errSynth
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}
