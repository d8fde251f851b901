package meshtomesh

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the root of every construction time configuration
	// failure
	ErrConfiguration = errors.New("invalid mesh to mesh configuration")
	ErrInvalidMethod = fmt.Errorf("%w: unknown interpolation method", ErrConfiguration)
	// ErrDistribution is matched by every *DistributionError
	ErrDistribution = errors.New("mesh distribution failed")
)

// DistributionError reports a failure while planning, exchanging or merging
// mesh fragments between processors
type DistributionError struct {
	Stage string
	Proc  int
	Err   error
}

func (e *DistributionError) Error() string {
	return fmt.Sprintf("mesh distribution failed on processor %d during %s: %v", e.Proc, e.Stage, e.Err)
}

func (e *DistributionError) Unwrap() error { return e.Err }

func (e *DistributionError) Is(target error) bool { return target == ErrDistribution }

func distributionError(stage string, proc int, err error) error {
	if err == nil {
		return nil
	}
	var de *DistributionError
	if errors.As(err, &de) {
		return err
	}
	return &DistributionError{Stage: stage, Proc: proc, Err: err}
}
