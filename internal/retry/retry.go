// Package retry implements the bounded fixed-delay retry policy used around
// vendor API calls. The policy is deliberately simple — a fixed number of
// attempts with a constant delay between them — and the sleep function is
// injectable so tests can script outcomes without waiting.
package retry

import (
	"fmt"
	"time"
)

// Default policy values, matching the generation retry behaviour expected of
// provider adapters.
const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// Policy describes a bounded retry loop. The zero value is usable and
// behaves like [New]().
type Policy struct {
	// Attempts is the maximum number of tries. Values < 1 mean DefaultAttempts.
	Attempts int

	// Delay is the fixed pause between consecutive tries. Values <= 0 mean
	// DefaultDelay.
	Delay time.Duration

	// Sleep is called to wait between tries. Nil means [time.Sleep]; tests
	// inject a recorder here.
	Sleep func(time.Duration)
}

// New returns a Policy with the default attempt count and delay.
func New() Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay}
}

// Do runs fn until it succeeds or the attempt budget is exhausted. The error
// from the final attempt is returned, annotated with the attempt count. No
// delay follows the last attempt.
func (p Policy) Do(fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < attempts {
			sleep(delay)
		}
	}
	return fmt.Errorf("retry: %d attempts exhausted: %w", attempts, err)
}

// DoValue is like [Policy.Do] for operations returning a value. On failure
// the zero value is returned alongside the annotated final error.
func DoValue[T any](p Policy, fn func() (T, error)) (T, error) {
	var out T
	err := p.Do(func() error {
		var err error
		out, err = fn()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
