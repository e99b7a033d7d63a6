package optifa

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// LengthMode selects how the length abstraction is decided.
type LengthMode int

const (
	// LengthExact decides equal run lengths in closed form.
	LengthExact LengthMode = iota
	// LengthSMT asks the solver instead.
	LengthSMT
)

func (m LengthMode) String() string {
	switch m {
	case LengthExact:
		return "exact"
	case LengthSMT:
		return "smt"
	}
	return fmt.Sprintf("LengthMode(%d)", int(m))
}

// ParseLengthMode parses "exact" or "smt".
func ParseLengthMode(s string) (LengthMode, error) {
	switch s {
	case "exact", "":
		return LengthExact, nil
	case "smt":
		return LengthSMT, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLengthMode, s)
}

// Abstraction selects which filters guard the expansion of a product state.
type Abstraction int

const (
	// AbstractionCombined runs the length abstraction, then the Parikh image.
	AbstractionCombined Abstraction = iota
	AbstractionLength
	AbstractionParikh
	// AbstractionNone explores the plain product.
	AbstractionNone
)

func (a Abstraction) String() string {
	switch a {
	case AbstractionCombined:
		return "combined"
	case AbstractionLength:
		return "length"
	case AbstractionParikh:
		return "parikh"
	case AbstractionNone:
		return "none"
	}
	return fmt.Sprintf("Abstraction(%d)", int(a))
}

// ParseAbstraction parses one of combined, length, parikh or none.
func ParseAbstraction(s string) (Abstraction, error) {
	switch s {
	case "combined", "":
		return AbstractionCombined, nil
	case "length":
		return AbstractionLength, nil
	case "parikh":
		return AbstractionParikh, nil
	case "none":
		return AbstractionNone, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAbstraction, s)
}

func (a Abstraction) useLength() bool {
	return a == AbstractionCombined || a == AbstractionLength
}

func (a Abstraction) useParikh() bool {
	return a == AbstractionCombined || a == AbstractionParikh
}

// Config controls an exploration.
type Config struct {
	LengthMode LengthMode
	// ReverseLengths orients the connectivity constraints backwards from the accepting state, which
	// lets them live in the persistent part of the constraint system.
	ReverseLengths  bool
	UseZConstraints bool
	BreakWhenFinal  bool
	// SolverTimeout bounds every solver query; 0 means no bound. A query that runs out of time counts
	// as satisfiable and marks the result as best effort.
	SolverTimeout time.Duration

	Abstraction Abstraction
	// SkipSingleSuccessors accepts a pair without running the filters when it is the only successor
	// of its parent. Verdicts and final pairs are unchanged, but Reached may then hold pairs that the
	// filters would have pruned.
	SkipSingleSuccessors bool
	UseMinterms          bool
	BuildProduct         bool

	// UnifySymbols merges the listed symbols into one before the Parikh abstraction counts them.
	// KeepSymbols is the complement form: every symbol of either automaton except the listed ones is
	// merged. At most one of the two may be set.
	UnifySymbols []int
	KeepSymbols  []int

	// DeterminizeWorkLimit bounds the subset construction behind the length abstraction.
	DeterminizeWorkLimit int

	Logger *slog.Logger
}

// Option modifies a Config.
type Option func(*Config)

// DefaultConfig returns exact lengths, reverse connectivity constraints and the skip heuristic, all
// filters on.
func DefaultConfig() *Config {
	return &Config{
		LengthMode:           LengthExact,
		ReverseLengths:       true,
		UseZConstraints:      true,
		Abstraction:          AbstractionCombined,
		SkipSingleSuccessors: true,
		Logger:               slog.New(slog.DiscardHandler),
	}
}

// NewConfig returns DefaultConfig with opts applied.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return cfg
}

// Apply applies opts to c.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithLengthMode selects how the length abstraction is decided.
func WithLengthMode(m LengthMode) Option { return func(c *Config) { c.LengthMode = m } }

// WithReverseLengths sets Config.ReverseLengths.
func WithReverseLengths(v bool) Option { return func(c *Config) { c.ReverseLengths = v } }

// WithZConstraints switches the connectivity constraints of the Parikh abstraction.
func WithZConstraints(v bool) Option { return func(c *Config) { c.UseZConstraints = v } }

// WithBreakWhenFinal stops the exploration at the first accepting pair.
func WithBreakWhenFinal(v bool) Option { return func(c *Config) { c.BreakWhenFinal = v } }

// WithSolverTimeout bounds every solver query.
func WithSolverTimeout(d time.Duration) Option { return func(c *Config) { c.SolverTimeout = d } }

// WithAbstraction selects the filters.
func WithAbstraction(a Abstraction) Option { return func(c *Config) { c.Abstraction = a } }

// WithSkipSingleSuccessors sets Config.SkipSingleSuccessors.
func WithSkipSingleSuccessors(v bool) Option {
	return func(c *Config) { c.SkipSingleSuccessors = v }
}

// WithMinterms compresses the alphabet to minterms before exploring.
func WithMinterms(v bool) Option { return func(c *Config) { c.UseMinterms = v } }

// WithBuildProduct materializes the trimmed product in Result.Product.
func WithBuildProduct(v bool) Option { return func(c *Config) { c.BuildProduct = v } }

// WithUnifySymbols sets Config.UnifySymbols.
func WithUnifySymbols(symbols ...int) Option {
	return func(c *Config) { c.UnifySymbols = symbols }
}

// WithKeepSymbols sets Config.KeepSymbols.
func WithKeepSymbols(symbols ...int) Option {
	return func(c *Config) { c.KeepSymbols = symbols }
}

// WithDeterminizeWorkLimit bounds the subset construction; 0 means the default limit.
func WithDeterminizeWorkLimit(n int) Option {
	return func(c *Config) { c.DeterminizeWorkLimit = n }
}

// WithLogger sets the logger; nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		c.Logger = l
	}
}

// fileConfig is the YAML form of Config. Absent keys keep their defaults.
type fileConfig struct {
	LengthMode           *string `yaml:"lengthMode"`
	ReverseLengths       *bool   `yaml:"reverseLengths"`
	UseZConstraints      *bool   `yaml:"useZConstraints"`
	BreakWhenFinal       *bool   `yaml:"breakWhenFinal"`
	SolverTimeoutMs      *int64  `yaml:"solverTimeoutMs"`
	Abstraction          *string `yaml:"abstraction"`
	SkipSingleSuccessors *bool   `yaml:"skipSingleSuccessors"`
	UseMinterms          *bool   `yaml:"useMinterms"`
	BuildProduct         *bool   `yaml:"buildProduct"`
	DeterminizeWorkLimit *int    `yaml:"determinizeWorkLimit"`
	UnifySymbols         []int   `yaml:"unifySymbols"`
	KeepSymbols          []int   `yaml:"keepSymbols"`
}

// ParseConfig reads YAML options on top of DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	cfg := DefaultConfig()
	if fc.LengthMode != nil {
		m, err := ParseLengthMode(*fc.LengthMode)
		if err != nil {
			return nil, err
		}
		cfg.LengthMode = m
	}
	if fc.Abstraction != nil {
		a, err := ParseAbstraction(*fc.Abstraction)
		if err != nil {
			return nil, err
		}
		cfg.Abstraction = a
	}
	if fc.SolverTimeoutMs != nil {
		if *fc.SolverTimeoutMs < 0 {
			return nil, fmt.Errorf("negative solverTimeoutMs %d", *fc.SolverTimeoutMs)
		}
		cfg.SolverTimeout = time.Duration(*fc.SolverTimeoutMs) * time.Millisecond
	}
	setBool(&cfg.ReverseLengths, fc.ReverseLengths)
	setBool(&cfg.UseZConstraints, fc.UseZConstraints)
	setBool(&cfg.BreakWhenFinal, fc.BreakWhenFinal)
	setBool(&cfg.SkipSingleSuccessors, fc.SkipSingleSuccessors)
	setBool(&cfg.UseMinterms, fc.UseMinterms)
	setBool(&cfg.BuildProduct, fc.BuildProduct)
	if fc.DeterminizeWorkLimit != nil {
		cfg.DeterminizeWorkLimit = *fc.DeterminizeWorkLimit
	}
	cfg.UnifySymbols, cfg.KeepSymbols = fc.UnifySymbols, fc.KeepSymbols
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.UnifySymbols) > 0 && len(c.KeepSymbols) > 0 {
		return ErrConflictingSymbols
	}
	return nil
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
