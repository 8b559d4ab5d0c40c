package reembed

import "math"

// NormalizeVector scales a vector to unit length so dot products against it
// behave as cosine similarity. Returns a new slice; a zero vector normalizes
// to a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sumSquares float32
	for _, val := range v {
		sumSquares += val * val
	}
	magnitude := float32(math.Sqrt(float64(sumSquares)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}
