package similarity

import (
	"image"
	"math"
)

// Histogram counts pixels per gray level.
func Histogram(g *image.Gray) [256]float64 {
	var hist [256]float64
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[g.PixOffset(b.Min.X, y) : g.PixOffset(b.Min.X, y)+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist
}

// Correlation returns the Pearson correlation of two histograms over their
// bins, in [-1, 1]. Flat histograms, where the correlation is undefined,
// score 1.
func Correlation(h1, h2 [256]float64) float64 {
	const n = 256.0
	var sum1, sum2 float64
	for i := range h1 {
		sum1 += h1[i]
		sum2 += h2[i]
	}
	mean1, mean2 := sum1/n, sum2/n

	var s12, s11, s22 float64
	for i := range h1 {
		d1 := h1[i] - mean1
		d2 := h2[i] - mean2
		s12 += d1 * d2
		s11 += d1 * d1
		s22 += d2 * d2
	}

	denom := s11 * s22
	if math.Abs(denom) <= epsilon {
		return 1
	}
	return s12 / math.Sqrt(denom)
}

// HistogramCorrelation compares the gray level distributions of two planes.
func HistogramCorrelation(a, b *image.Gray) float64 {
	return Correlation(Histogram(a), Histogram(b))
}

// machine epsilon for float64
const epsilon = 2.220446049250313e-16
