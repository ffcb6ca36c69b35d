// Package similarity compares face embeddings and turns the distance into a
// match decision.
package similarity

import (
	"math"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// DefaultThreshold is the largest cosine distance still accepted as a match.
const DefaultThreshold = 0.40

// Distance returns the cosine distance 1 - cos(a, b), in [0, 2].
// Vectors of different or zero length, with non-finite components, or with
// zero norm are rejected with INVALID_EMBEDDING.
func Distance(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, domain.ErrInvalidEmbedding.WithMessage("Embedding must not be empty")
	}
	if len(a) != len(b) {
		return 0, domain.ErrInvalidEmbedding.WithMessage(
			"Embedding dimension mismatch: %d vs %d", len(a), len(b))
	}

	var maxA, maxB float64
	for i := range a {
		if !finite(a[i]) || !finite(b[i]) {
			return 0, domain.ErrInvalidEmbedding.WithMessage("Embedding contains non-finite values")
		}
		maxA = math.Max(maxA, math.Abs(a[i]))
		maxB = math.Max(maxB, math.Abs(b[i]))
	}

	if maxA == 0 || maxB == 0 {
		return 0, domain.ErrInvalidEmbedding.WithMessage("Embedding has zero norm")
	}

	// Components are divided by the largest magnitude so every term lies in
	// [-1, 1]: the sums cannot overflow and each norm is at least 1.
	var dot, normA, normB float64
	for i := range a {
		x, y := a[i]/maxA, b[i]/maxB
		dot += x * y
		normA += x * x
		normB += y * y
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(cos) {
		return 0, domain.ErrInvalidEmbedding.WithMessage("Embedding distance is undefined")
	}
	cos = math.Max(-1, math.Min(1, cos))

	return 1 - cos, nil
}

// Decide maps a distance to a decision. Confidence is a linear UX signal,
// (1 - d) * 100 clamped to [0, 100]; it is not a calibrated probability.
func Decide(d, threshold float64) domain.VerificationDecision {
	confidence := (1 - d) * 100
	if math.IsNaN(confidence) {
		confidence = 0
	}

	return domain.VerificationDecision{
		IsMatch:       d <= threshold,
		Confidence:    math.Max(0, math.Min(100, confidence)),
		Distance:      d,
		ThresholdUsed: threshold,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
