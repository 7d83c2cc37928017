package climate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Default Savitzky-Golay parameters used for the Smoothed distribution.
const (
	DefaultWindow = 51
	DefaultOrder  = 3
)

// Smooth applies a Savitzky-Golay filter of the given window length and
// polynomial order to each statistic column of t independently. The first
// and last window/2 rows take the value of the polynomial fitted to the
// first and last full window. An undefined cell leaves every output whose
// window covers it undefined.
//
// t must hold consecutive days (February 29 is never a row, so February 28
// followed by March 1 counts as consecutive). The input is not modified.
func Smooth(t Table, window, order int) (Table, error) {
	if window <= 0 || window%2 == 0 || order < 0 || order >= window {
		return nil, fmt.Errorf("%w: window=%d order=%d", ErrInvalidWindow, window, order)
	}
	if len(t) < window {
		return nil, fmt.Errorf("%w: %d rows, window %d", ErrInsufficientSamples, len(t), window)
	}
	if err := checkDailySpacing(t); err != nil {
		return nil, err
	}

	hat, err := savgolProjection(window, order)
	if err != nil {
		return nil, err
	}

	out := make(Table, len(t))
	copy(out, t)

	col := make([]float64, len(t))
	for c := range len(Statistics) {
		for i := range t {
			col[i] = valueOrNaN(*t[i].columns()[c])
		}
		smoothed := applyFilter(hat, col)
		for i := range out {
			*out[i].columns()[c] = nanToNil(smoothed[i])
		}
	}

	return out, nil
}

// savgolProjection returns the window x window matrix that maps samples to
// the values of their least-squares polynomial fit. Row window/2 holds the
// classic convolution coefficients; the other rows evaluate the fit at the
// off-centre positions used for the edges.
func savgolProjection(window, order int) (*mat.Dense, error) {
	half := window / 2
	scale := float64(max(half, 1))

	a := mat.NewDense(window, order+1, nil)
	for i := range window {
		x := float64(i-half) / scale
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("savgol normal equations: %w", err)
	}

	var pinv mat.Dense
	pinv.Mul(&inv, a.T())

	hat := mat.NewDense(window, window, nil)
	hat.Mul(a, &pinv)
	return hat, nil
}

func applyFilter(hat *mat.Dense, col []float64) []float64 {
	window, _ := hat.Dims()
	half := window / 2
	n := len(col)

	out := make([]float64, n)
	for i := range n {
		row, lo := half, i-half
		switch {
		case i < half:
			row, lo = i, 0
		case i >= n-half:
			row, lo = i-(n-window), n-window
		}

		var sum float64
		for k := range window {
			sum += hat.At(row, k) * col[lo+k]
		}
		out[i] = sum
	}
	return out
}

func checkDailySpacing(t Table) error {
	for i := 1; i < len(t); i++ {
		next := t[i-1].Date.AddDays(1)
		if next.IsLeapDay() {
			next = next.AddDays(1)
		}
		if !t[i].Date.Equal(next.Time) {
			return fmt.Errorf("%w: %s follows %s", ErrNonUniformSpacing, t[i].Date, t[i-1].Date)
		}
	}
	return nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func nanToNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return ptr(v)
}
