package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

// jpegQuality keeps re-encoding loss well below what the detector notices.
const jpegQuality = 95

// noFaceMarker is how the API words a rejected enforce_detection call.
const noFaceMarker = "could not be detected"

// Provider implements provider.Engine using DeepFace API
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

func (p *Provider) Name() string {
	return "deepface"
}

// Ping reports whether the DeepFace API is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Detect runs /represent without enforcement so that an image with no face
// yields low-confidence candidates instead of an error.
func (p *Provider) Detect(ctx context.Context, img *pixel.Buffer) ([]provider.Detection, error) {
	encoded, err := encode(img)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	resp, err := p.client.Represent(ctx, encoded, false)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.Detection, 0, len(resp.Results))
	for _, result := range resp.Results {
		faces = append(faces, provider.Detection{
			Region:     result.FacialArea.Region(),
			Confidence: result.FaceConfidence,
		})
	}

	return faces, nil
}

// Represent runs /represent with enforcement on. A "face could not be
// detected" rejection is reported as an empty result.
func (p *Provider) Represent(ctx context.Context, img *pixel.Buffer) ([]provider.Representation, error) {
	encoded, err := encode(img)
	if err != nil {
		return nil, fmt.Errorf("represent face: %w", err)
	}

	resp, err := p.client.Represent(ctx, encoded, true)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.ClientError() &&
			strings.Contains(strings.ToLower(statusErr.Body), noFaceMarker) {
			return nil, nil
		}
		return nil, fmt.Errorf("represent face: %w", err)
	}

	reps := make([]provider.Representation, 0, len(resp.Results))
	for _, result := range resp.Results {
		if len(result.Embedding) == 0 {
			return nil, fmt.Errorf("represent face: %w", ErrNoFaceInResponse)
		}
		reps = append(reps, provider.Representation{
			Embedding: result.Embedding,
			Region:    result.FacialArea.Region(),
		})
	}

	return reps, nil
}

func encode(img *pixel.Buffer) (string, error) {
	data, err := img.EncodeJPEG(jpegQuality)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

var _ provider.Engine = (*Provider)(nil)
