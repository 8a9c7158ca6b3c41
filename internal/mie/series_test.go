package mie

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func alternating(mags ...float64) []complex128 {
	out := make([]complex128, len(mags))
	for i, m := range mags {
		if i%2 == 0 {
			m = -m
		}
		out[i] = complex(m, 0)
	}
	return out
}

func TestTailGrowth(t *testing.T) {
	// at x = 1 the tail starts past order 5
	tests := []struct {
		name      string
		terms     []complex128
		tol       float64
		wantFound bool
		wantOrder int
		wantMag   float64
	}{
		{
			name:  "decaying tail",
			terms: alternating(1, 0.5, 0.1, 1e-2, 1e-3, 1e-4, 1e-5, 1e-6, 1e-7),
			tol:   1e-6,
		},
		{
			name:      "growth past turning point",
			terms:     alternating(1, 0.5, 0.1, 1e-2, 1e-3, 1e-4, 1e-3, 1e-5),
			tol:       1e-6,
			wantFound: true,
			wantOrder: 7,
			wantMag:   1e-3,
		},
		{
			name:      "first of several growths",
			terms:     alternating(1, 0.5, 0.1, 1e-2, 1e-3, 1e-4, 2e-4, 1e-5, 3e-5),
			tol:       1e-6,
			wantFound: true,
			wantOrder: 7,
			wantMag:   2e-4,
		},
		{
			name:  "growth before turning point",
			terms: alternating(1, 2, 0.1, 1e-2, 1e-3, 1e-4, 1e-5, 1e-6),
			tol:   1e-6,
		},
		{
			name:  "growth below tolerance",
			terms: alternating(1, 0.5, 0.1, 1e-2, 1e-3, 1e-12, 1e-10, 1e-14),
			tol:   1e-6,
		},
		{
			name:  "no terms",
			terms: nil,
			tol:   1e-6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, found := tailGrowth(tt.terms, 1, tt.tol)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v (%+v)", found, tt.wantFound, g)
			}
			if !found {
				return
			}
			if g.order != tt.wantOrder || g.termMag != tt.wantMag {
				t.Fatalf("got order %d |term| %g, want order %d |term| %g", g.order, g.termMag, tt.wantOrder, tt.wantMag)
			}
			if !(g.sumMag > 0) {
				t.Fatalf("partial sum magnitude not reported: %+v", g)
			}
		})
	}
}

func TestTailStartGrowsWithArgument(t *testing.T) {
	for _, tt := range []struct{ x, want float64 }{{1, 5}, {64, 74}} {
		if got := tailStart(tt.x); !scalar.EqualWithinAbs(got, tt.want, 1e-12) {
			t.Fatalf("tailStart(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}
