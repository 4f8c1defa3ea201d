package index

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1.0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1.0},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0.0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0.0},
		{name: "both zero", a: []float32{0, 0}, b: []float32{0, 0}, want: 0.0},
		{name: "length mismatch", a: []float32{1, 2}, b: []float32{1, 2, 3}, want: 0.0},
		{name: "empty", a: nil, b: nil, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineScaleInvariant(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5}
	b := []float32{0.6, -2.4, 9.0} // a scaled by 2

	if got := Cosine(a, b); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("Cosine(a, 2a) = %v, want 1.0", got)
	}
}

func TestFilterRelevant(t *testing.T) {
	results := []Scored{
		{Chunk: Chunk{Text: "a"}, Similarity: 0.9},
		{Chunk: Chunk{Text: "b"}, Similarity: 0.7},
		{Chunk: Chunk{Text: "c"}, Similarity: 0.69},
	}

	kept := FilterRelevant(results, 0.7)

	if len(kept) != 2 {
		t.Fatalf("len(kept) = %d, want 2", len(kept))
	}
	if kept[0].Chunk.Text != "a" || kept[1].Chunk.Text != "b" {
		t.Errorf("kept = %q, %q; want a, b", kept[0].Chunk.Text, kept[1].Chunk.Text)
	}

	if got := FilterRelevant(results, 0.95); got != nil {
		t.Errorf("FilterRelevant above all scores = %v, want nil", got)
	}
}

func TestMaxSimilarity(t *testing.T) {
	if got := MaxSimilarity(nil); got != 0.0 {
		t.Errorf("MaxSimilarity(nil) = %v, want 0.0", got)
	}

	results := []Scored{{Similarity: 0.2}, {Similarity: 0.85}, {Similarity: 0.5}}
	if got := MaxSimilarity(results); got != 0.85 {
		t.Errorf("MaxSimilarity() = %v, want 0.85", got)
	}
}
