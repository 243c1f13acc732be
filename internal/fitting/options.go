package fitting

// Levenberg-Marquardt constants. Engines start from these unless overridden.
const (
	DefaultMaxIterations  = 200
	DefaultTolerance      = 1e-10
	DefaultInitialDamping = 1e-3
	DampingIncrease       = 10.0
	DampingDecrease       = 10.0
	MaxDamping            = 1e16
	minDamping            = 1e-12
)

// Config holds the optimizer settings.
type Config struct {
	MaxIterations  int
	Tolerance      float64
	InitialDamping float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the named defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  DefaultMaxIterations,
		Tolerance:      DefaultTolerance,
		InitialDamping: DefaultInitialDamping,
	}
}

// WithMaxIterations caps the number of outer iterations.
func WithMaxIterations(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxIterations = n
		}
	}
}

// WithTolerance sets both the parameter-change and the relative residual
// improvement tolerance.
func WithTolerance(tol float64) Option {
	return func(cfg *Config) {
		if tol > 0 {
			cfg.Tolerance = tol
		}
	}
}

// WithInitialDamping sets the starting damping factor.
func WithInitialDamping(lambda float64) Option {
	return func(cfg *Config) {
		if lambda > 0 {
			cfg.InitialDamping = lambda
		}
	}
}

func applyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
