package facematch

import (
	"errors"
	"math"
	"testing"
)

func TestSimilarity_SelfIsOne(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5, 0.01}

	score, err := Similarity(a, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-1.0) > 1e-9 {
		t.Errorf("Similarity(a, a) = %v, want 1.0", score)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 7}

	ab, err := Similarity(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := Similarity(b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("Similarity(a, b) = %v but Similarity(b, a) = %v", ab, ba)
	}
}

func TestSimilarity_Values(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 1},
			b:        []float32{-1, -1},
			expected: -1.0,
		},
		{
			name:     "zero vector left",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "zero vector right",
			a:        []float32{1, 2, 3},
			b:        []float32{0, 0, 0},
			expected: 0.0,
		},
		{
			name:     "scaled vectors are identical",
			a:        []float32{1, 2, 3},
			b:        []float32{2, 4, 6},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := Similarity(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(score-tt.expected) > 1e-6 {
				t.Errorf("Similarity(%v, %v) = %v, want %v", tt.a, tt.b, score, tt.expected)
			}
		})
	}
}

func TestSimilarity_DimensionMismatch(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
	}{
		{"different lengths", []float32{1, 2, 3}, []float32{1, 2}},
		{"empty left", nil, []float32{1, 2}},
		{"both empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Similarity(tt.a, tt.b)
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("expected ErrDimensionMismatch, got %v", err)
			}
		})
	}
}

func TestMatcher_IsMatch(t *testing.T) {
	m := NewMatcher(0.60)

	if !m.IsMatch(0.60) {
		t.Error("score equal to threshold should match")
	}
	if !m.IsMatch(0.95) {
		t.Error("score above threshold should match")
	}
	if m.IsMatch(0.59) {
		t.Error("score below threshold should not match")
	}
}

func TestMatcher_ZeroVectorNeverMatches(t *testing.T) {
	m := NewMatcher(0.60)

	zero := make([]float32, 8)
	other := []float32{1, 1, 1, 1, 1, 1, 1, 1}

	score, match, err := m.Compare(zero, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0.0 {
		t.Errorf("expected similarity 0.0 for zero vector, got %v", score)
	}
	if match {
		t.Error("zero vector must never match at the default threshold")
	}
}
