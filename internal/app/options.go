package service

import (
	"github.com/okian/placement/internal/adapters/records"
	"github.com/okian/placement/internal/domain/dedupe"
	"github.com/okian/placement/internal/domain/normalize"
	"github.com/okian/placement/internal/domain/scoring"
	"github.com/okian/placement/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of screening workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending applications.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDeduper replaces the in-memory application deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithRecords replaces the in-memory record store.
func WithRecords(r records.Store) Option {
	return func(s *Service) {
		if r != nil {
			s.records = r
		}
	}
}

// WithNormalizer sets the normalizer used for every assessment.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithPresets sets the preset registry.
func WithPresets(p *scoring.Presets) Option {
	return func(s *Service) {
		if p != nil {
			s.presets = p
		}
	}
}

// WithDefaultTopN sets how many deficits are explained when a request omits it.
func WithDefaultTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultTopN = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
