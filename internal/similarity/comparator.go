package similarity

import (
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Comparator validates embeddings against the model dimension before deciding.
type Comparator struct {
	Dimension int
	Threshold float64
}

func NewComparator(dimension int, threshold float64) *Comparator {
	return &Comparator{Dimension: dimension, Threshold: threshold}
}

// Validate checks a caller-supplied embedding: expected length and finite
// values. A zero Dimension disables the length check.
func (c *Comparator) Validate(embedding []float64) error {
	if len(embedding) == 0 {
		return domain.ErrInvalidEmbedding.WithMessage("Embedding must not be empty")
	}
	if c.Dimension > 0 && len(embedding) != c.Dimension {
		return domain.ErrInvalidEmbedding.WithMessage(
			"Embedding has %d dimensions, expected %d", len(embedding), c.Dimension)
	}
	for _, v := range embedding {
		if !finite(v) {
			return domain.ErrInvalidEmbedding.WithMessage("Embedding contains non-finite values")
		}
	}
	return nil
}

// Compare decides whether current matches stored.
func (c *Comparator) Compare(current, stored []float64) (domain.VerificationDecision, error) {
	if err := c.Validate(current); err != nil {
		return domain.VerificationDecision{}, err
	}
	if err := c.Validate(stored); err != nil {
		return domain.VerificationDecision{}, err
	}

	d, err := Distance(current, stored)
	if err != nil {
		return domain.VerificationDecision{}, err
	}

	return Decide(d, c.Threshold), nil
}
