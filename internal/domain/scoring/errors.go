package scoring

import (
	"errors"
	"fmt"

	"github.com/okian/placement/internal/domain/model"
)

// Sentinel errors for criteria and scoring inputs.
var (
	ErrUnknownFactor   = errors.New("unknown factor")
	ErrEmptyCriteria   = errors.New("empty criteria")
	ErrUnknownPreset   = errors.New("unknown preset")
	ErrInvalidArgument = model.ErrInvalidArgument
)

// UnknownFactorError reports a weight or threshold naming a factor that the
// features do not carry.
type UnknownFactorError struct {
	Criteria  string
	Factor    model.Factor
	Threshold bool
}

func (e *UnknownFactorError) Error() string {
	kind := "weight"
	if e.Threshold {
		kind = "threshold"
	}
	return fmt.Sprintf("criteria %q: %s references unknown factor %q", e.Criteria, kind, e.Factor)
}

// Is makes errors.Is(err, ErrUnknownFactor) match.
func (e *UnknownFactorError) Is(target error) bool {
	return target == ErrUnknownFactor
}
