package mie

import "fmt"

// WarningKind classifies a non-fatal numeric diagnostic.
type WarningKind string

const (
	// WarnNonMonotonicTail: past the turning point a term grew again while
	// still significant.
	WarnNonMonotonicTail WarningKind = "non-monotonic-tail"
	// WarnTruncated: the last summed term is still significant, NMax is too
	// small for this k·r.
	WarnTruncated WarningKind = "truncated"
)

// Warning is a numeric-instability diagnostic for one frequency sample. It
// never aborts the computation.
type Warning struct {
	Kind           WarningKind `json:"kind"`
	Frequency      float64     `json:"frequency"`
	Arg            float64     `json:"kr"`
	Order          int         `json:"order"`
	TermMagnitude  float64     `json:"termMagnitude"`
	SumMagnitude   float64     `json:"sumMagnitude"`
	SuggestedOrder int         `json:"suggestedOrder"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s at %e Hz (kr=%.4g): |term %d|=%.3e, |sum|=%.3e, suggested nMax %d",
		w.Kind, w.Frequency, w.Arg, w.Order, w.TermMagnitude, w.SumMagnitude, w.SuggestedOrder)
}
