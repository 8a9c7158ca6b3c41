package special

import (
	"fmt"
	"math"
)

const (
	// seriesLimit is the argument below which the ascending power series is
	// used for every order.
	seriesLimit = 1.0
	// Downward recurrence values are rescaled once they grow past this
	// magnitude so the run never overflows.
	rescaleAbove = 1e250
	rescaleBy    = 1e-250
)

// DomainError reports an order or argument outside the domain of the
// spherical Bessel functions (n >= 0, finite x > 0).
type DomainError struct {
	Order int
	Arg   float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("spherical bessel: order %d, argument %g outside domain (n >= 0, 0 < x < inf)", e.Order, e.Arg)
}

func checkDomain(n int, x float64) error {
	if n < 0 || !(x > 0) || math.IsInf(x, 1) {
		return &DomainError{Order: n, Arg: x}
	}
	return nil
}

// Table holds j_k(x) and y_k(x) for k = 0..len(J)-1 at a single argument.
type Table struct {
	X float64
	J []float64
	Y []float64
}

// MaxOrder returns the highest order held by the table.
func (t Table) MaxOrder() int { return len(t.J) - 1 }

// H2 pairs the two kinds as complex(J_n, Y_n).
//
// Under the usual sign convention this pairing is the spherical Hankel
// function of the first kind. The scattering coefficients are written
// against this exact pairing, so the name and sign are kept as they are.
func (t Table) H2(n int) complex128 {
	return complex(t.J[n], t.Y[n])
}

// Orders evaluates j_k(x) and y_k(x) for every order 0..nMax in one pass.
func Orders(nMax int, x float64) (Table, error) {
	if err := checkDomain(nMax, x); err != nil {
		return Table{}, err
	}
	// order 1 is always needed for normalisation
	size := nMax
	if size < 1 {
		size = 1
	}
	j := besselJ(size, x)
	y := besselY(size, x)
	return Table{X: x, J: j[:nMax+1], Y: y[:nMax+1]}, nil
}

// SphericalJ returns the spherical Bessel function of the first kind j_n(x).
func SphericalJ(n int, x float64) (float64, error) {
	t, err := Orders(n, x)
	if err != nil {
		return 0, err
	}
	return t.J[n], nil
}

// SphericalY returns the spherical Bessel function of the second kind y_n(x).
// Values beyond float64 range come back as -Inf.
func SphericalY(n int, x float64) (float64, error) {
	t, err := Orders(n, x)
	if err != nil {
		return 0, err
	}
	return t.Y[n], nil
}

// SphericalH2 returns complex(j_n(x), y_n(x)). See Table.H2 for the sign
// convention.
func SphericalH2(n int, x float64) (complex128, error) {
	t, err := Orders(n, x)
	if err != nil {
		return 0, err
	}
	return t.H2(n), nil
}

// besselJ fills j_0..j_nMax, nMax >= 1.
func besselJ(nMax int, x float64) []float64 {
	j := make([]float64, nMax+1)
	switch {
	case x < seriesLimit:
		seriesJ(j, x)
	case x > float64(nMax):
		upwardJ(j, x)
	default:
		downwardJ(j, x)
	}
	return j
}

// seriesJ uses the ascending series
// j_n(x) = x^n/(2n+1)!! * sum_k (-x^2/2)^k / (k! (2n+3)(2n+5)...(2n+2k+1)).
// Every term ratio is below 1/6 for x < 1, so there is no cancellation.
func seriesJ(j []float64, x float64) {
	x2 := x * x
	prefactor := 1.0
	for n := range j {
		if n > 0 {
			prefactor *= x / float64(2*n+1)
		}
		if prefactor == 0 {
			// every higher order underflows as well
			break
		}
		sum, term := 1.0, 1.0
		for k := 1; k < 64; k++ {
			term *= -x2 / float64(2*k*(2*n+2*k+1))
			sum += term
			if math.Abs(term) < 1e-17*math.Abs(sum) {
				break
			}
		}
		j[n] = prefactor * sum
	}
}

// upwardJ is stable while every order stays below x.
func upwardJ(j []float64, x float64) {
	s, c := math.Sincos(x)
	j[0] = s / x
	j[1] = (j[0] - c) / x
	for k := 1; k < len(j)-1; k++ {
		j[k+1] = float64(2*k+1)/x*j[k] - j[k-1]
	}
}

// downwardJ runs Miller's recurrence from well above the highest wanted
// order and normalises the result against the closed forms of j_0 and j_1.
func downwardJ(j []float64, x float64) {
	nMax := len(j) - 1
	start := nMax + 16 + int(math.Sqrt(40*float64(nMax)))

	upper, cur := 0.0, 1.0 // j_{k+1}, j_k
	for k := start; k > 0; k-- {
		lower := float64(2*k+1)/x*cur - upper
		upper, cur = cur, lower
		if k-1 <= nMax {
			j[k-1] = cur
		}
		if math.Abs(cur) > rescaleAbove {
			upper *= rescaleBy
			cur *= rescaleBy
			for i := k - 1; i <= nMax; i++ {
				j[i] *= rescaleBy
			}
		}
	}

	s, c := math.Sincos(x)
	j0 := s / x
	j1 := (j0 - c) / x
	// j_0 and j_1 never vanish together; use the larger one
	norm := j0 / j[0]
	if math.Abs(j1) > math.Abs(j0) {
		norm = j1 / j[1]
	}
	for i := range j {
		j[i] *= norm
	}
}

// besselY fills y_0..y_nMax by upward recurrence, which is stable for the
// second kind. Once the recurrence leaves float64 range the remaining
// orders are -Inf.
func besselY(nMax int, x float64) []float64 {
	y := make([]float64, nMax+1)
	s, c := math.Sincos(x)
	y[0] = -c / x
	y[1] = (y[0] - s) / x
	for k := 1; k < nMax; k++ {
		next := float64(2*k+1)/x*y[k] - y[k-1]
		if math.IsInf(next, 0) || math.IsNaN(next) {
			for i := k + 1; i <= nMax; i++ {
				y[i] = math.Inf(-1)
			}
			break
		}
		y[k+1] = next
	}
	return y
}
