package view

import "math"

// epsilon is the gap between 1 and the next float64.
const epsilon = 0x1p-52

// roundHalfUp rounds to the nearest integer, ties toward positive infinity.
func roundHalfUp(x float64) float64 {
	f := math.Floor(x)
	if x-f >= 0.5 {
		return f + 1
	}
	return f
}

// averageDegree returns total/n rounded to two decimals, or 0 for n == 0.
func averageDegree(total, n int) float64 {
	if n == 0 {
		return 0
	}
	avg := float64(total) / float64(n)
	return roundHalfUp(float64(avg*100)) / 100
}

// density returns relations/(n(n-1)) rounded to three decimals, or 0 for
// n <= 1. The ratio is nudged by epsilon so values such as 0.0005 that are
// stored just below the midpoint still round up.
func density(relations, n int) float64 {
	if n <= 1 {
		return 0
	}
	d := float64(relations)/(float64(n)*float64(n-1)) + epsilon
	return roundHalfUp(float64(d*1000)) / 1000
}
