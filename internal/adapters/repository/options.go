package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithPriorities sets the source of treap node priorities. Tests use it to
// build reproducible tree shapes.
func WithPriorities(next func() uint64) Option {
	return func(s *TreapStore) {
		if next != nil {
			s.nextPrio = next
		}
	}
}
