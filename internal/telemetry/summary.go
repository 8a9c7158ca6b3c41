package telemetry

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rjboer/GoRCS/internal/mie"
)

// Summary condenses one computed curve for history and live views.
type Summary struct {
	Timestamp     time.Time     `json:"timestamp"`
	Label         string        `json:"label"`
	Radius        float64       `json:"radius"`
	FMin          float64       `json:"fmin"`
	FMax          float64       `json:"fmax"`
	NMax          int           `json:"nMax"`
	Samples       int           `json:"samples"`
	MinRCS        float64       `json:"minRcs"`
	MaxRCS        float64       `json:"maxRcs"`
	MeanRCS       float64       `json:"meanRcs"`
	PeakFrequency float64       `json:"peakFrequency"`
	Warnings      int           `json:"warnings"`
	Elapsed       time.Duration `json:"elapsedNs"`
}

// Summarize computes the curve statistics. An empty curve yields zero
// statistics.
func Summarize(label string, target mie.SphereTarget, nMax int, curve mie.Curve, elapsed time.Duration) Summary {
	s := Summary{
		Timestamp: time.Now(),
		Label:     label,
		Radius:    target.Radius,
		NMax:      nMax,
		Samples:   curve.Len(),
		Warnings:  len(curve.Warnings),
		Elapsed:   elapsed,
	}
	if curve.Len() == 0 {
		return s
	}
	rcs := curve.RCS()
	peak := floats.MaxIdx(rcs)
	s.FMin = curve.Records[0].Frequency
	s.FMax = curve.Records[curve.Len()-1].Frequency
	s.MinRCS = floats.Min(rcs)
	s.MaxRCS = rcs[peak]
	s.MeanRCS = stat.Mean(rcs, nil)
	s.PeakFrequency = curve.Records[peak].Frequency
	return s
}
