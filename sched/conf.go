package sched

import (
	"github.com/sirupsen/logrus"
)

const (
	// mlfqLevels is the number of feedback levels; level 0 has the highest priority.
	mlfqLevels = 5

	defaultSemaphoreCount = 10
)

var defaultQuanta = [mlfqLevels]int{5, 10, 15, 20, 25}

// Option is a functional option for configuring an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	semaphoreCount int
	semaphoreInit  map[int]int
	quanta         [mlfqLevels]int
	logger         *logrus.Logger
	observer       func(Event)
}

func newConfig(opts ...Option) *engineConfig {
	cfg := &engineConfig{
		semaphoreCount: defaultSemaphoreCount,
		semaphoreInit:  make(map[int]int),
		quanta:         defaultQuanta,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = newDefaultLogger()
	}
	return cfg
}

// WithSemaphoreCount sets how many semaphores the bank holds.
// Semaphore ids run from 0 to n-1. Defaults to 10.
func WithSemaphoreCount(n int) Option {
	return func(cfg *engineConfig) {
		if n > 0 {
			cfg.semaphoreCount = n
		}
	}
}

// WithSemaphoreValue sets the initial counter of semaphore id.
// Every semaphore starts at 0 unless configured otherwise.
func WithSemaphoreValue(id, value int) Option {
	return func(cfg *engineConfig) {
		if id >= 0 && value >= 0 {
			cfg.semaphoreInit[id] = value
		}
	}
}

// WithMLFQQuanta sets the quantum, in ticks, of each of the five MLFQ levels.
// The call is ignored unless exactly five positive values are given.
//
// Example:
//
//	WithMLFQQuanta(2, 4, 8, 16, 32)
func WithMLFQQuanta(quanta ...int) Option {
	return func(cfg *engineConfig) {
		if len(quanta) != mlfqLevels {
			return
		}
		for _, q := range quanta {
			if q <= 0 {
				return
			}
		}
		copy(cfg.quanta[:], quanta)
	}
}

// WithLogger routes engine trace output to logger.
// Scheduling decisions are logged at trace level.
func WithLogger(logger *logrus.Logger) Option {
	return func(cfg *engineConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithObserver installs a hook called for every completed operation.
// The hook runs while the engine lock is held: it must be fast and must not
// call back into the engine.
func WithObserver(fn func(Event)) Option {
	return func(cfg *engineConfig) {
		cfg.observer = fn
	}
}
