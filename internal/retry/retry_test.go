package retry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/voxweave/voxweave/internal/retry"
)

func TestDoSucceedsFirstTry(t *testing.T) {
	var slept []time.Duration
	p := retry.Policy{Attempts: 3, Delay: time.Second, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	calls := 0
	err := p.Do(func() error { calls++; return nil })
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
	if len(slept) != 0 {
		t.Errorf("slept %d times, want 0", len(slept))
	}
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	var slept []time.Duration
	p := retry.Policy{Attempts: 3, Delay: 2 * time.Second, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	calls := 0
	err := p.Do(func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
	if len(slept) != 2 {
		t.Fatalf("slept %d times, want 2", len(slept))
	}
	for i, d := range slept {
		if d != 2*time.Second {
			t.Errorf("sleep %d: got %v, want 2s", i, d)
		}
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("boom")
	var slept []time.Duration
	p := retry.Policy{Attempts: 3, Delay: time.Second, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	calls := 0
	err := p.Do(func() error { calls++; return sentinel })
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error chain lost: %v", err)
	}
	// No sleep after the final attempt.
	if len(slept) != 2 {
		t.Errorf("slept %d times, want 2", len(slept))
	}
}

func TestZeroPolicyUsesDefaults(t *testing.T) {
	var slept []time.Duration
	p := retry.Policy{Sleep: func(d time.Duration) { slept = append(slept, d) }}

	calls := 0
	_ = p.Do(func() error { calls++; return errors.New("nope") })
	if calls != retry.DefaultAttempts {
		t.Errorf("calls: got %d, want %d", calls, retry.DefaultAttempts)
	}
	for i, d := range slept {
		if d != retry.DefaultDelay {
			t.Errorf("sleep %d: got %v, want %v", i, d, retry.DefaultDelay)
		}
	}
}

func TestDoValue(t *testing.T) {
	p := retry.Policy{Attempts: 2, Delay: time.Millisecond, Sleep: func(time.Duration) {}}

	calls := 0
	got, err := retry.DoValue(p, func() (string, error) {
		calls++
		if calls == 1 {
			return "partial", errors.New("transient")
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("DoValue: %v", err)
	}
	if got != "done" {
		t.Errorf("value: got %q, want done", got)
	}

	got, err = retry.DoValue(p, func() (string, error) { return "junk", errors.New("always") })
	if err == nil {
		t.Fatal("expected error")
	}
	if got != "" {
		t.Errorf("failed DoValue should return zero value, got %q", got)
	}
}
