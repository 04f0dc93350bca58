package scheduler

import "github.com/jonboulle/clockwork"

type Option func(k *Kernel)

// WithClock sets the clock driving the tick source.
func WithClock(clock clockwork.Clock) Option {
	return func(k *Kernel) {
		k.clock = clock
	}
}

// WithHalt replaces the default halt, which panics with the fault.
func WithHalt(halt func(f *Fault)) Option {
	return func(k *Kernel) {
		k.halt = halt
	}
}
