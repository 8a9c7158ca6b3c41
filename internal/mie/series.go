package mie

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/rjboer/GoRCS/internal/special"
)

// unreachable is the |y_n| past which a partial wave no longer contributes
// at double precision (|a_n|, |b_n| < 1e-300).
const unreachable = 1e290

// MieTerm is one partial wave of the scattering sum at a fixed k·r.
type MieTerm struct {
	Order        int
	A            complex128
	B            complex128
	Contribution complex128 // (-1)^n (n+0.5) (B - A)
}

// Term evaluates partial wave n >= 1 at x = k·r.
func Term(n int, x float64) (MieTerm, error) {
	if n < 1 {
		return MieTerm{}, &InvalidParameterError{Field: "order", Value: float64(n), Reason: "must be at least 1"}
	}
	tab, err := special.Orders(n, x)
	if err != nil {
		return MieTerm{}, err
	}
	term, _ := termAt(tab, n)
	return term, nil
}

// termAt builds term n from a precomputed table. ok is false when the order
// is beyond double precision reach; the zero term is returned then.
func termAt(tab special.Table, n int) (term MieTerm, ok bool) {
	if math.Abs(tab.Y[n]) > unreachable {
		return MieTerm{Order: n}, false
	}
	x := tab.X
	fn := float64(n)
	h, hPrev := tab.H2(n), tab.H2(n-1)

	a := complex(tab.J[n], 0) / h
	b := complex(x*tab.J[n-1]-fn*tab.J[n], 0) / (complex(x, 0)*hPrev - complex(fn, 0)*h)

	weight := fn + 0.5
	if n%2 == 1 {
		weight = -weight
	}
	return MieTerm{
		Order:        n,
		A:            a,
		B:            b,
		Contribution: complex(weight, 0) * (b - a),
	}, true
}

// sampleResult is the outcome of one frequency of the sweep.
type sampleResult struct {
	record   Record
	warnings []Warning
	done     bool
}

// computeSample folds the partial waves 1..NMax in order for frequency f.
func computeSample(f, radius float64, cfg Config) (sampleResult, error) {
	lambda := cfg.WaveSpeed / f
	k := 2 * math.Pi / lambda
	x := k * radius

	tab, err := special.Orders(cfg.NMax, x)
	if err != nil {
		return sampleResult{}, fmt.Errorf("frequency %e Hz: %w", f, err)
	}

	var (
		sum      complex128
		lastMag  float64
		complete = true
		warnings []Warning
	)
	terms := make([]complex128, 0, cfg.NMax)
	for n := 1; n <= cfg.NMax; n++ {
		term, ok := termAt(tab, n)
		if !ok {
			complete = false
			break
		}
		sum += term.Contribution
		terms = append(terms, term.Contribution)
		lastMag = cmplx.Abs(term.Contribution)
	}

	if g, found := tailGrowth(terms, x, cfg.ConvergenceTolerance); found {
		warnings = append(warnings, Warning{
			Kind:           WarnNonMonotonicTail,
			Frequency:      f,
			Arg:            x,
			Order:          g.order,
			TermMagnitude:  g.termMag,
			SumMagnitude:   g.sumMag,
			SuggestedOrder: SuggestOrder(x),
		})
	}

	amp := cmplx.Abs(sum)
	if complete && lastMag > cfg.ConvergenceTolerance*amp {
		warnings = append(warnings, Warning{
			Kind:           WarnTruncated,
			Frequency:      f,
			Arg:            x,
			Order:          cfg.NMax,
			TermMagnitude:  lastMag,
			SumMagnitude:   amp,
			SuggestedOrder: SuggestOrder(x),
		})
	}

	return sampleResult{
		record: Record{
			Frequency:  f,
			Wavelength: lambda,
			RCS:        lambda * lambda * (amp * amp) / math.Pi,
		},
		warnings: warnings,
		done:     true,
	}, nil
}

// tailStart is the order past which the terms at x = k·r are evanescent and
// should only shrink.
func tailStart(x float64) float64 {
	return x + 2*math.Cbrt(x) + 2
}

type growth struct {
	order   int
	termMag float64
	sumMag  float64
}

// tailGrowth finds the first order past tailStart(x) whose term grew over
// its predecessor while still above tol·|partial sum|. terms[i] is the
// contribution of order i+1.
func tailGrowth(terms []complex128, x, tol float64) (growth, bool) {
	tail := tailStart(x)
	var (
		sum     complex128
		prevMag float64
	)
	for i, c := range terms {
		n := i + 1
		sum += c
		mag := cmplx.Abs(c)
		if float64(n) > tail && mag > prevMag && mag > tol*cmplx.Abs(sum) {
			return growth{order: n, termMag: mag, sumMag: cmplx.Abs(sum)}, true
		}
		prevMag = mag
	}
	return growth{}, false
}
