package mie

import (
	"context"
	"math"
	"sync"
)

// SphereTarget is a perfectly conducting sphere.
type SphereTarget struct {
	Radius float64 // m
}

// FrequencySweep samples Min, Min+Step, ... up to and including Max.
type FrequencySweep struct {
	Min  float64 // Hz
	Max  float64 // Hz
	Step float64 // Hz
}

// Len returns floor((Max-Min)/Step) + 1.
func (s FrequencySweep) Len() int {
	return int(math.Floor((s.Max-s.Min)/s.Step)) + 1
}

// Frequency returns sample i. Samples are computed by multiplication so long
// sweeps do not drift.
func (s FrequencySweep) Frequency(i int) float64 {
	return s.Min + float64(i)*s.Step
}

func (s FrequencySweep) validate(maxSamples int) error {
	if !positiveFinite(s.Min) {
		return &InvalidParameterError{Field: "fmin", Value: s.Min, Reason: "must be positive and finite"}
	}
	if math.IsNaN(s.Max) || math.IsInf(s.Max, 0) || s.Max < s.Min {
		return &InvalidParameterError{Field: "fmax", Value: s.Max, Reason: "must be finite and not below fmin"}
	}
	if !positiveFinite(s.Step) {
		return &InvalidParameterError{Field: "step", Value: s.Step, Reason: "must be positive and finite"}
	}
	if n := math.Floor((s.Max-s.Min)/s.Step) + 1; n > float64(maxSamples) {
		return &InvalidParameterError{Field: "sample count", Value: n, Reason: "sweep exceeds the configured maximum"}
	}
	return nil
}

// Record is the RCS of the target at one frequency.
type Record struct {
	Frequency  float64 `json:"frequency"`  // Hz
	Wavelength float64 `json:"wavelength"` // m
	RCS        float64 `json:"rcs"`        // m^2
}

// Curve is the ordered result of a sweep. Records are in ascending
// frequency; Warnings follow the same order.
type Curve struct {
	Records  []Record
	Warnings []Warning
}

// Len returns the number of records.
func (c Curve) Len() int { return len(c.Records) }

// Frequencies returns the sampled frequencies in order.
func (c Curve) Frequencies() []float64 {
	out := make([]float64, len(c.Records))
	for i, r := range c.Records {
		out[i] = r.Frequency
	}
	return out
}

// RCS returns the RCS values in frequency order.
func (c Curve) RCS() []float64 {
	out := make([]float64, len(c.Records))
	for i, r := range c.Records {
		out[i] = r.RCS
	}
	return out
}

// Compute evaluates the monostatic RCS of target at every frequency of sweep.
//
// Invalid input fails with *InvalidParameterError before any evaluation; a
// degenerate special-function argument fails with *special.DomainError
// wrapped with the offending frequency. If ctx is cancelled, Compute returns
// the longest completed prefix of the curve together with ctx.Err().
//
// Each frequency is an independent fold over orders 1..NMax, so the result is
// bit-identical for any cfg.Workers.
func Compute(ctx context.Context, target SphereTarget, sweep FrequencySweep, cfg Config) (Curve, error) {
	cfg = cfg.withDefaults()
	if !positiveFinite(target.Radius) {
		return Curve{}, &InvalidParameterError{Field: "radius", Value: target.Radius, Reason: "must be positive and finite"}
	}
	if err := cfg.validate(); err != nil {
		return Curve{}, err
	}
	if err := sweep.validate(cfg.MaxSamples); err != nil {
		return Curve{}, err
	}

	count := sweep.Len()
	workers := cfg.Workers
	if workers > count {
		workers = count
	}
	if workers <= 1 {
		return computeSequential(ctx, target, sweep, cfg, count)
	}
	return computeParallel(ctx, target, sweep, cfg, count, workers)
}

func computeSequential(ctx context.Context, target SphereTarget, sweep FrequencySweep, cfg Config, count int) (Curve, error) {
	curve := Curve{Records: make([]Record, 0, count)}
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return curve, err
		}
		res, err := computeSample(sweep.Frequency(i), target.Radius, cfg)
		if err != nil {
			return Curve{}, err
		}
		curve.Records = append(curve.Records, res.record)
		curve.Warnings = append(curve.Warnings, res.warnings...)
	}
	return curve, nil
}

// computeParallel hands sample indices to a fixed set of workers. Each
// worker writes only the slots it was given, so no locking is needed on
// results.
func computeParallel(parent context.Context, target SphereTarget, sweep FrequencySweep, cfg Config, count, workers int) (Curve, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	results := make([]sampleResult, count)
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				res, err := computeSample(sweep.Frequency(i), target.Radius, cfg)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				results[i] = res
			}
		}()
	}

feed:
	for i := 0; i < count; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return Curve{}, firstErr
	}

	curve := Curve{Records: make([]Record, 0, count)}
	for _, res := range results {
		if !res.done {
			break
		}
		curve.Records = append(curve.Records, res.record)
		curve.Warnings = append(curve.Warnings, res.warnings...)
	}
	if len(curve.Records) < count {
		return curve, parent.Err()
	}
	return curve, nil
}
