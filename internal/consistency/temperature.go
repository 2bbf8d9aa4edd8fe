// Package consistency reconciles several sampled answers to one question into
// a single answer whose citations the samples agree on.
package consistency

// GenerateTemperatures spreads n sampling temperatures symmetrically around
// base, one variance step apart, clamped to [0,1]. Sample i gets
// base + (i - (n-1)/2) * variance.
func GenerateTemperatures(base float64, n int, variance float64) []float64 {
	if n <= 0 {
		return nil
	}
	temps := make([]float64, n)
	mid := float64(n-1) / 2
	for i := range temps {
		temps[i] = clamp01(base + (float64(i)-mid)*variance)
	}
	return temps
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
