package api

import (
	"golang.org/x/time/rate"

	"github.com/okian/placement/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLimit caps the shortlist limit a client may request.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithRateLimit throttles application intake. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets a custom logger for request logging.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
