// Package facematch provides face matching utilities shared between the
// resolution engine, the duplicate report, and the web handlers.
package facematch

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch indicates two embeddings of different dimensions were
// compared. That means the registry and the embedding model disagree, which
// is a deployment defect rather than a "no match".
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Similarity computes the cosine similarity between two embedding vectors.
// Returns a value between -1 and 1, where 1 means identical. A zero vector
// has similarity 0 with everything: it can never match, which is the safe
// default.
func Similarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors.
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return similarity, nil
}

// Matcher turns similarity scores into same-person verdicts against a
// configured threshold. The threshold lives here and nowhere else.
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a matcher with the given similarity threshold.
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{Threshold: threshold}
}

// IsMatch reports whether a similarity score counts as the same person.
func (m *Matcher) IsMatch(score float64) bool {
	return score >= m.Threshold
}

// Compare computes similarity and the match verdict in one step.
func (m *Matcher) Compare(a, b []float32) (float64, bool, error) {
	score, err := Similarity(a, b)
	if err != nil {
		return 0, false, err
	}
	return score, m.IsMatch(score), nil
}
