package solver

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/voltforge/voltc/logger"
)

// Option defines option for altering the behavior of the constraint solver
// (Solve() method). See the descriptions of functions returning instances of
// this type for implemented options.
type Option func(*Config) error

// Config is the configuration for the solver with the options applied.
type Config struct {
	Logger  zerolog.Logger // defaults to voltc logger
	NbTasks int            // defaults to runtime.NumCPU()
}

// WithLogger specifies a zerolog.Logger as a destination for solver logs.
// zerolog.Nop() will disable logging.
func WithLogger(l zerolog.Logger) Option {
	return func(opt *Config) error {
		opt.Logger = l
		return nil
	}
}

// WithNbTasks sets the number of independent connected components of the
// dependency graph solved in parallel. If not set, defaults to
// runtime.NumCPU(). Each component's worklist is privately owned, so the
// output does not depend on this setting.
func WithNbTasks(nbTasks int) Option {
	return func(opt *Config) error {
		if nbTasks <= 0 {
			return fmt.Errorf("invalid number of threads: %d", nbTasks)
		}
		opt.NbTasks = nbTasks
		return nil
	}
}

// NewConfig returns a default SolverConfig with the options applied.
func NewConfig(opts ...Option) (Config, error) {
	config := Config{
		Logger:  logger.Logger(),
		NbTasks: runtime.NumCPU(),
	}
	for _, option := range opts {
		if err := option(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}
