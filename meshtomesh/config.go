package meshtomesh

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultTolerance is the relative overlap below which a cell pair is
// treated as not intersecting, and the slack allowed on normalised row sums
const DefaultTolerance = 1e-6

// Config holds the tunables of the addressing computation
type Config struct {
	Tolerance float64
	Logger    logrus.FieldLogger
}

// DefaultConfig returns default addressing configuration
func DefaultConfig() *Config {
	return &Config{
		Tolerance: DefaultTolerance,
		Logger:    logrus.StandardLogger(),
	}
}

func (cfg *Config) validate() error {
	if !(cfg.Tolerance > 0 && cfg.Tolerance < 1) {
		return fmt.Errorf("%w: tolerance %g must lie in (0, 1)", ErrConfiguration, cfg.Tolerance)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return nil
}
