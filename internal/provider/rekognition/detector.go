package rekognition

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

const (
	// maxImageBytes is the largest inline image DetectFaces accepts (5MB)
	maxImageBytes = 5 * 1024 * 1024

	jpegQuality = 90
)

const (
	errCodeAccessDenied        = "AccessDeniedException"
	errCodeInvalidParameter    = "InvalidParameterException"
	errCodeInvalidImageFormat  = "InvalidImageFormatException"
	errCodeImageTooLarge       = "ImageTooLargeException"
	errCodeThrottling          = "ThrottlingException"
	errCodeThroughputExceeded  = "ProvisionedThroughputExceededException"
	errCodeInternalServerError = "InternalServerError"
)

// DetectFacesAPI is the slice of the Rekognition client the detector needs.
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Detector implements provider.Detector with AWS Rekognition DetectFaces.
// Rekognition does not expose embeddings, so it is paired with another
// backend through provider.Composite.
type Detector struct {
	api DetectFacesAPI
}

var _ provider.Detector = (*Detector)(nil)

// NewDetector loads AWS credentials from the default chain.
func NewDetector(ctx context.Context, cfg Config) (*Detector, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, awsconfig.WithRetryMaxAttempts(cfg.MaxAttempts))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := rekognition.NewFromConfig(awsCfg, func(o *rekognition.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewDetectorWithAPI(client), nil
}

func NewDetectorWithAPI(api DetectFacesAPI) *Detector {
	return &Detector{api: api}
}

func (d *Detector) Name() string {
	return "rekognition"
}

// Detect returns every face Rekognition reports, with boxes scaled from
// image ratios to pixels and confidence scaled to [0, 1].
func (d *Detector) Detect(ctx context.Context, img *pixel.Buffer) ([]provider.Detection, error) {
	data, err := img.EncodeJPEG(jpegQuality)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("%w: encoded image is %d bytes, maximum %d", ErrImageRejected, len(data), maxImageBytes)
	}

	output, err := d.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: data},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", classify(err))
	}

	width, height := float64(img.Width()), float64(img.Height())

	faces := make([]provider.Detection, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil || detail.Confidence == nil {
			continue
		}
		faces = append(faces, provider.Detection{
			Region:     toRegion(detail.BoundingBox, width, height),
			Confidence: float64(*detail.Confidence) / 100,
		})
	}

	return faces, nil
}

// toRegion converts a ratio box to pixels, clipped to the image.
func toRegion(box *types.BoundingBox, width, height float64) domain.FaceRegion {
	left := clamp01(deref(box.Left))
	top := clamp01(deref(box.Top))
	right := clamp01(deref(box.Left) + deref(box.Width))
	bottom := clamp01(deref(box.Top) + deref(box.Height))

	x := int(math.Round(left * width))
	y := int(math.Round(top * height))

	return domain.FaceRegion{
		X: x,
		Y: y,
		W: int(math.Round(right*width)) - x,
		H: int(math.Round(bottom*height)) - y,
	}
}

func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied:
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	case errCodeInvalidParameter, errCodeInvalidImageFormat, errCodeImageTooLarge:
		return fmt.Errorf("%w: %v", ErrImageRejected, err)
	case errCodeThrottling, errCodeThroughputExceeded, errCodeInternalServerError:
		return fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	return err
}

func deref(v *float32) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
