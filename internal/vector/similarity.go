// Package vector ranks stored chunks against a query embedding.
package vector

import (
	"fmt"
	"math"
	"sort"

	"kbase/internal/model"
)

// CosineSimilarity returns a value in [-1, 1], where 1 means identical direction.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have same length: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("vector norm cannot be zero")
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Clamp to [-1, 1] to handle floating point errors
	return math.Max(-1, math.Min(1, similarity)), nil
}

// TopK scores every candidate against query and returns the k best, highest first.
// Candidates whose embedding cannot be compared (other dimension, zero vector) are skipped.
// Ties keep the candidates' original order.
func TopK(query []float32, candidates []model.ScoredChunk, k int) []model.ScoredChunk {
	if k <= 0 {
		return nil
	}

	scored := make([]model.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		score, err := CosineSimilarity(query, c.Embedding)
		if err != nil {
			continue
		}
		c.Score = score
		scored = append(scored, c)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
