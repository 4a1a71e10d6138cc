package stream

import (
	"math/rand"
	"time"
)

// Retry delay defaults for failing stream reads.
const (
	DefaultRetryInitial = 10 * time.Millisecond
	DefaultRetryMax     = time.Second

	retryMultiplier = 2.0
	retryJitter     = 0.25
)

// BackoffConfig configures the delay between failing reads. Zero fields
// select the defaults.
type BackoffConfig struct {
	Initial time.Duration
	Max     time.Duration

	// Jitter is the maximum extra delay as a fraction of the base delay.
	// Negative disables jitter.
	Jitter float64
}

// Backoff computes exponential retry delays with jitter. It is owned by
// one reader and not safe for concurrent use.
type Backoff struct {
	current  time.Duration
	initial  time.Duration
	max      time.Duration
	jitter   float64
	attempts int
	rng      *rand.Rand
}

// NewBackoff creates a backoff from cfg.
func NewBackoff(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = DefaultRetryInitial
	}
	if cfg.Max <= 0 {
		cfg.Max = DefaultRetryMax
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = cfg.Initial
	}
	switch {
	case cfg.Jitter == 0:
		cfg.Jitter = retryJitter
	case cfg.Jitter < 0:
		cfg.Jitter = 0
	}
	return &Backoff{
		current: cfg.Initial,
		initial: cfg.Initial,
		max:     cfg.Max,
		jitter:  cfg.Jitter,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the delay before the next attempt and advances.
func (b *Backoff) Next() time.Duration {
	delay := b.current
	if b.jitter > 0 {
		delay += time.Duration(float64(delay) * b.jitter * b.rng.Float64())
	}

	b.attempts++
	b.current = min(time.Duration(float64(b.current)*retryMultiplier), b.max)
	return delay
}

// Reset returns to the initial delay after a successful read.
func (b *Backoff) Reset() {
	b.current = b.initial
	b.attempts = 0
}

// Attempts returns the number of delays since the last reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// Current returns the base delay of the next attempt, without jitter.
func (b *Backoff) Current() time.Duration {
	return b.current
}
