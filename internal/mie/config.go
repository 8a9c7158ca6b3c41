package mie

import (
	"fmt"
	"math"
)

// Defaults used when a Config field is left at its zero value.
const (
	// DefaultWaveSpeed is the rounded propagation speed used by the reference
	// tables; it is deliberately not the exact speed of light.
	DefaultWaveSpeed = 3e8
	// DefaultStep is the sweep spacing in Hz.
	DefaultStep = 1e6
	// DefaultNMax is the partial-wave truncation order. It covers k·r up to
	// roughly 60 by the Wiscombe bound; use SuggestOrder for larger spheres.
	DefaultNMax = 80
	// DefaultMaxSamples bounds the number of frequencies in one sweep.
	DefaultMaxSamples = 1 << 22
	// DefaultConvergenceTolerance is the relative term size below which the
	// series is considered converged.
	DefaultConvergenceTolerance = 1e-6
)

// Config carries the tunables of an RCS computation. Zero fields take the
// package defaults; negative or non-finite values are rejected by Compute.
type Config struct {
	WaveSpeed            float64 // m/s
	Step                 float64 // Hz, used by Sweep
	NMax                 int     // highest partial-wave order summed
	Workers              int     // goroutines sharing the frequency samples
	MaxSamples           int
	ConvergenceTolerance float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		WaveSpeed:            DefaultWaveSpeed,
		Step:                 DefaultStep,
		NMax:                 DefaultNMax,
		Workers:              1,
		MaxSamples:           DefaultMaxSamples,
		ConvergenceTolerance: DefaultConvergenceTolerance,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.WaveSpeed == 0 {
		c.WaveSpeed = def.WaveSpeed
	}
	if c.Step == 0 {
		c.Step = def.Step
	}
	if c.NMax == 0 {
		c.NMax = def.NMax
	}
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
	if c.MaxSamples == 0 {
		c.MaxSamples = def.MaxSamples
	}
	if c.ConvergenceTolerance == 0 {
		c.ConvergenceTolerance = def.ConvergenceTolerance
	}
	return c
}

func (c Config) validate() error {
	if !positiveFinite(c.WaveSpeed) {
		return &InvalidParameterError{Field: "wave speed", Value: c.WaveSpeed, Reason: "must be positive and finite"}
	}
	if c.NMax < 1 {
		return &InvalidParameterError{Field: "nMax", Value: float64(c.NMax), Reason: "must be at least 1"}
	}
	if c.Workers < 1 {
		return &InvalidParameterError{Field: "workers", Value: float64(c.Workers), Reason: "must be at least 1"}
	}
	if c.MaxSamples < 1 {
		return &InvalidParameterError{Field: "max samples", Value: float64(c.MaxSamples), Reason: "must be at least 1"}
	}
	if !positiveFinite(c.ConvergenceTolerance) {
		return &InvalidParameterError{Field: "convergence tolerance", Value: c.ConvergenceTolerance, Reason: "must be positive and finite"}
	}
	return nil
}

// Sweep builds the frequency sweep [fmin, fmax] with the configured step.
func (c Config) Sweep(fmin, fmax float64) FrequencySweep {
	return FrequencySweep{Min: fmin, Max: fmax, Step: c.withDefaults().Step}
}

// SuggestOrder returns the Wiscombe truncation bound for x = k·r.
func SuggestOrder(x float64) int {
	if !(x > 0) {
		return 1
	}
	return int(math.Ceil(x + 4*math.Cbrt(x) + 2))
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// InvalidParameterError reports a target, sweep or configuration value that
// makes the computation meaningless. It is raised before any evaluation.
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %g: %s", e.Field, e.Value, e.Reason)
}
