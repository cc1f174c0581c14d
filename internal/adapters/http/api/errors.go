package api

import (
	"errors"
	"net/http"

	"github.com/okian/placement/internal/adapters/mq/queue"
	"github.com/okian/placement/internal/adapters/records"
	"github.com/okian/placement/internal/adapters/repository"
	service "github.com/okian/placement/internal/app"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrBackpressure  = errors.New("backpressure")
	ErrRateLimited   = errors.New("rate limited")
	ErrLimitExceeded = errors.New("limit exceeded")
)

// Error records the handler operation and the kind of failure.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap attaches op to err. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind attaches op and a sentinel kind to err.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// statusFor maps an error onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, scoring.ErrUnknownFactor):
		return http.StatusUnprocessableEntity, "unknown_factor"
	case errors.Is(err, scoring.ErrEmptyCriteria):
		return http.StatusUnprocessableEntity, "empty_criteria"
	case errors.Is(err, model.ErrInvalidArgument),
		errors.Is(err, records.ErrInvalidRecord),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, repository.ErrInvalidEntry):
		return http.StatusUnprocessableEntity, "invalid_argument"
	case errors.Is(err, scoring.ErrUnknownPreset),
		errors.Is(err, records.ErrNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrJobClosed):
		return http.StatusConflict, "job_closed"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}
