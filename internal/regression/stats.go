package regression

import "math"

// Mean is the mean of the finite values of xs, or NaN when there are none
func Mean(xs []float64) float64 {
	var sum float64
	n := 0
	for _, v := range xs {
		if finite(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// PopStd is the population (ddof=0) standard deviation of the finite values
func PopStd(xs []float64) float64 {
	mean := Mean(xs)
	if math.IsNaN(mean) {
		return math.NaN()
	}
	var ss float64
	n := 0
	for _, v := range xs {
		if finite(v) {
			d := v - mean
			ss += d * d
			n++
		}
	}
	return math.Sqrt(ss / float64(n))
}

// Pearson is the correlation of the pairs where both values are finite.
// It is NaN with fewer than two pairs or when either side is constant.
func Pearson(x, y []float64) float64 {
	xs, ys := pairs(x, y)
	n := len(xs)
	if n < 2 {
		return math.NaN()
	}

	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// Ratio divides num by den, returning NaN when den is zero or either is NaN
func Ratio(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) || math.IsNaN(num) {
		return math.NaN()
	}
	return num / den
}
