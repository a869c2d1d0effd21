// Package regression fits the single-regressor OLS used to relate
// normalized order flow imbalance to mid-price changes, with
// heteroskedasticity-robust (HC1) standard errors.
package regression

import (
	"errors"
	"fmt"
	"math"
)

const (
	// NoteInsufficient marks a result with too few paired observations
	NoteInsufficient = "insufficient observations"
	// NoteErrorPrefix prefixes the message of a failed fit
	NoteErrorPrefix = "ols_error:"
)

// ErrSingular is returned when the design matrix cannot be inverted
var ErrSingular = errors.New("singular design matrix: regressor has zero variance")

// Result holds one regression. Coefficients are NaN for degenerate fits.
type Result struct {
	Alpha  float64
	Beta   float64
	SEBeta float64
	R2     float64
	N      int
	Note   string
}

// Degenerate reports whether no coefficients were estimated
func (r Result) Degenerate() bool {
	return math.IsNaN(r.Beta)
}

// Outcome classifies the result as ok, insufficient or error
func (r Result) Outcome() string {
	switch {
	case !r.Degenerate():
		return "ok"
	case r.Note == NoteInsufficient:
		return "insufficient"
	default:
		return "error"
	}
}

func degenerate(n int, note string) Result {
	nan := math.NaN()
	return Result{Alpha: nan, Beta: nan, SEBeta: nan, R2: nan, N: n, Note: note}
}

// FitOLS regresses y on x plus an intercept. Pairs where either value is
// not finite are dropped first. Fewer than minObs remaining pairs, or a
// numerical failure, yield a degenerate Result; FitOLS never fails.
func FitOLS(x, y []float64, minObs int) Result {
	xs, ys := pairs(x, y)
	n := len(xs)
	if n < minObs {
		return degenerate(n, NoteInsufficient)
	}

	res, err := Fit(xs, ys)
	if err != nil {
		return degenerate(n, NoteErrorPrefix+err.Error())
	}
	return res
}

// Fit runs OLS on already-clean pairs and returns an error when the fit
// is not identified.
func Fit(x, y []float64) (Result, error) {
	if len(x) != len(y) {
		return Result{}, fmt.Errorf("length mismatch: %d regressors, %d responses", len(x), len(y))
	}
	n := len(x)
	if n <= 2 {
		return Result{}, fmt.Errorf("need more than 2 observations, got %d", n)
	}

	fn := float64(n)
	var xbar, ybar float64
	for i := range x {
		xbar += x[i]
		ybar += y[i]
	}
	xbar /= fn
	ybar /= fn

	var sxx, sxy, syy float64
	for i := range x {
		dx, dy := x[i]-xbar, y[i]-ybar
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 || math.IsNaN(sxx) || math.IsInf(sxx, 0) {
		return Result{}, ErrSingular
	}

	beta := sxy / sxx
	alpha := ybar - beta*xbar

	// HC1 sandwich; for the slope it reduces to Σ(dx·e)² / Sxx² scaled by n/(n-k)
	var ssr, meat float64
	for i := range x {
		e := y[i] - alpha - beta*x[i]
		dx := x[i] - xbar
		ssr += e * e
		meat += dx * dx * e * e
	}
	varBeta := fn / (fn - 2) * meat / (sxx * sxx)

	r2 := math.NaN()
	if syy > 0 {
		r2 = 1 - ssr/syy
	}

	return Result{
		Alpha:  alpha,
		Beta:   beta,
		SEBeta: math.Sqrt(varBeta),
		R2:     r2,
		N:      n,
	}, nil
}

func pairs(x, y []float64) ([]float64, []float64) {
	n := min(len(x), len(y))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if finite(x[i]) && finite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
