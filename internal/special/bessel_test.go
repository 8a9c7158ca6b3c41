package special

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func closedJ(n int, x float64) float64 {
	s, c := math.Sin(x), math.Cos(x)
	switch n {
	case 0:
		return s / x
	case 1:
		return s/(x*x) - c/x
	default:
		return (3/(x*x*x)-1/x)*s - 3*c/(x*x)
	}
}

func closedY(n int, x float64) float64 {
	s, c := math.Sin(x), math.Cos(x)
	switch n {
	case 0:
		return -c / x
	case 1:
		return -c/(x*x) - s/x
	default:
		return (-3/(x*x*x)+1/x)*c - 3*s/(x*x)
	}
}

func TestKnownValuesAtOne(t *testing.T) {
	tests := []struct {
		n    int
		j, y float64
	}{
		{n: 0, j: 0.8414709848078965, y: -0.5403023058681398},
		{n: 1, j: 0.30116867893975674, y: -1.3817732906760363},
		{n: 2, j: 0.06203505201137386, y: -3.605017566159969},
	}
	for _, tt := range tests {
		j, err := SphericalJ(tt.n, 1)
		if err != nil {
			t.Fatalf("j_%d: %v", tt.n, err)
		}
		y, err := SphericalY(tt.n, 1)
		if err != nil {
			t.Fatalf("y_%d: %v", tt.n, err)
		}
		if !scalar.EqualWithinRel(j, tt.j, 1e-13) {
			t.Errorf("j_%d(1) = %.16g, want %.16g", tt.n, j, tt.j)
		}
		if !scalar.EqualWithinRel(y, tt.y, 1e-13) {
			t.Errorf("y_%d(1) = %.16g, want %.16g", tt.n, y, tt.y)
		}
	}
}

func TestClosedFormsLowOrders(t *testing.T) {
	for _, x := range []float64{1, 1.5, 2.5, 7.3, 10.5, 40, 1e4} {
		for n := 0; n <= 2; n++ {
			j, err := SphericalJ(n, x)
			if err != nil {
				t.Fatalf("j_%d(%g): %v", n, x, err)
			}
			y, err := SphericalY(n, x)
			if err != nil {
				t.Fatalf("y_%d(%g): %v", n, x, err)
			}
			if want := closedJ(n, x); !scalar.EqualWithinAbsOrRel(j, want, 1e-14, 1e-11) {
				t.Errorf("j_%d(%g) = %.16g, want %.16g", n, x, j, want)
			}
			if want := closedY(n, x); !scalar.EqualWithinAbsOrRel(y, want, 1e-14, 1e-11) {
				t.Errorf("y_%d(%g) = %.16g, want %.16g", n, x, y, want)
			}
		}
	}
}

func TestSmallArgumentLimit(t *testing.T) {
	x := 0.01
	doubleFactorial := 1.0
	for n := 0; n <= 10; n++ {
		if n > 0 {
			doubleFactorial *= float64(2*n + 1)
		}
		want := math.Pow(x, float64(n)) / doubleFactorial * (1 - x*x/float64(2*(2*n+3)))
		got, err := SphericalJ(n, x)
		if err != nil {
			t.Fatalf("j_%d: %v", n, err)
		}
		if !scalar.EqualWithinRel(got, want, 1e-8) {
			t.Errorf("j_%d(%g) = %g, want %g", n, x, got, want)
		}
	}
}

func TestWronskian(t *testing.T) {
	for _, x := range []float64{0.5, 3, 10.5, 50} {
		tab, err := Orders(30, x)
		if err != nil {
			t.Fatalf("orders at %g: %v", x, err)
		}
		want := 1 / (x * x)
		for n := 0; n < 30; n++ {
			if math.IsInf(tab.Y[n+1], 0) {
				break
			}
			got := tab.J[n+1]*tab.Y[n] - tab.J[n]*tab.Y[n+1]
			if !scalar.EqualWithinRel(got, want, 1e-10) {
				t.Errorf("x=%g n=%d: wronskian %.16g, want %.16g", x, n, got, want)
			}
		}
	}
}

func TestRecurrenceBranchesAgree(t *testing.T) {
	x := 20.5
	down, err := Orders(30, x) // n >= x: downward
	if err != nil {
		t.Fatal(err)
	}
	up, err := Orders(20, x) // x > n: upward
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n <= 20; n++ {
		if !scalar.EqualWithinAbsOrRel(down.J[n], up.J[n], 1e-12, 1e-10) {
			t.Errorf("order %d: downward %.16g vs upward %.16g", n, down.J[n], up.J[n])
		}
		if down.Y[n] != up.Y[n] {
			t.Errorf("order %d: y differs between table sizes", n)
		}
	}
}

func TestH2Pairing(t *testing.T) {
	for n := 0; n < 5; n++ {
		h, err := SphericalH2(n, 2.2)
		if err != nil {
			t.Fatal(err)
		}
		j, _ := SphericalJ(n, 2.2)
		y, _ := SphericalY(n, 2.2)
		if real(h) != j || imag(h) != y {
			t.Fatalf("order %d: h=%v, want (%g, %g)", n, h, j, y)
		}
	}
}

func TestOverflowAndUnderflow(t *testing.T) {
	y, err := SphericalY(200, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(y, -1) {
		t.Fatalf("expected -Inf for y_200(0.01), got %g", y)
	}
	j, err := SphericalJ(200, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(j) || j < 0 || j > 1e-300 {
		t.Fatalf("expected underflow towards zero for j_200(0.01), got %g", j)
	}
	j, err = SphericalJ(300, 5)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(j) || math.IsInf(j, 0) {
		t.Fatalf("j_300(5) not finite: %g", j)
	}
}

func TestDomainErrors(t *testing.T) {
	tests := []struct {
		n int
		x float64
	}{
		{n: -1, x: 1},
		{n: 0, x: 0},
		{n: 2, x: -3},
		{n: 1, x: math.NaN()},
		{n: 1, x: math.Inf(1)},
	}
	for _, tt := range tests {
		for name, fn := range map[string]func(int, float64) error{
			"j": func(n int, x float64) error { _, err := SphericalJ(n, x); return err },
			"y": func(n int, x float64) error { _, err := SphericalY(n, x); return err },
			"h": func(n int, x float64) error { _, err := SphericalH2(n, x); return err },
		} {
			err := fn(tt.n, tt.x)
			var de *DomainError
			if !errors.As(err, &de) {
				t.Fatalf("%s(%d, %g): expected DomainError, got %v", name, tt.n, tt.x, err)
			}
			if de.Order != tt.n {
				t.Fatalf("%s: order %d recorded as %d", name, tt.n, de.Order)
			}
		}
	}
}

func BenchmarkOrders(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := Orders(80, 10.5); err != nil {
			b.Fatal(err)
		}
	}
}
