package content

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Rand is the randomness source for generation. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRand returns the process-wide source.
func DefaultRand() Rand { return globalRand{} }

// Between returns a uniform integer in [lo, hi].
func Between(r Rand, lo, hi int) int { return between(r, lo, hi) }

// between returns a uniform integer in [lo, hi].
func between(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

type settings struct {
	rng      Rand
	logger   *zap.Logger
	fallback bool
	now      func() time.Time
}

func newSettings(opts []Option) settings {
	s := settings{rng: globalRand{}, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures an Engine or Simulator.
type Option func(*settings)

// WithRand replaces the randomness source.
func WithRand(r Rand) Option {
	return func(s *settings) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTemplateFallback makes comment generation use the catalog's fallback
// template when text generation fails, instead of skipping the slot.
func WithTemplateFallback(enabled bool) Option {
	return func(s *settings) { s.fallback = enabled }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
