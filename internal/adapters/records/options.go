package records

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithClock sets the time source for assessment timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the generator used for records submitted without an id.
func WithIDGenerator(gen func() string) Option {
	return func(s *MemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithHistoryLimit caps the stored assessments per candidate; oldest are dropped.
func WithHistoryLimit(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}
