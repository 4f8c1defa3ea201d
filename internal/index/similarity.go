package index

import "math"

// Cosine returns the cosine similarity of two vectors. If either vector has
// zero magnitude, or the lengths differ, it returns exactly 0.0 rather than
// NaN so callers can compare the result against thresholds directly.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Scored pairs a retrieved chunk with its similarity to the query.
type Scored struct {
	Chunk      Chunk
	Similarity float64
}

// FilterRelevant keeps the results whose similarity meets the threshold,
// preserving order. It returns nil when nothing qualifies.
func FilterRelevant(results []Scored, threshold float64) []Scored {
	var kept []Scored
	for _, r := range results {
		if r.Similarity >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}

// MaxSimilarity returns the highest similarity among the results, or 0.0
// for an empty slice.
func MaxSimilarity(results []Scored) float64 {
	max := 0.0
	for _, r := range results {
		if r.Similarity > max {
			max = r.Similarity
		}
	}
	return max
}
