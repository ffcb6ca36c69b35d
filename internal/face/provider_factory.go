package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/rekognition"
)

// EngineType defines supported embedding engine types
type EngineType string

const (
	// EngineTypeDeepFace talks to a DeepFace API server
	EngineTypeDeepFace EngineType = "deepface"
	// EngineTypeMock is deterministic and needs no model (dev/test)
	EngineTypeMock EngineType = "mock"
)

// DetectorRekognition selects AWS Rekognition for detection while embeddings
// still come from DeepFace.
const DetectorRekognition = "rekognition"

// NewEngine returns the configured engine behind a lazy handle: nothing is
// constructed or contacted until the first call. Calls into the engine are
// bounded by ENGINE_MAX_CONCURRENCY.
//
// Environment variables:
//   - EMBEDDING_ENGINE: "deepface" or "mock" (default: "deepface")
//   - DETECTOR_BACKEND: DeepFace detector name, or "rekognition"
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ENDPOINT_URL: Rekognition endpoint override (LocalStack)
func NewEngine(cfg *config.Config) (*provider.Lazy, error) {
	engineType := EngineType(cfg.EmbeddingEngine)

	switch engineType {
	case EngineTypeDeepFace, EngineTypeMock, "":
	default:
		return nil, fmt.Errorf("unknown engine type: %s (supported: %s, %s)",
			cfg.EmbeddingEngine, EngineTypeDeepFace, EngineTypeMock)
	}

	lazy := provider.NewLazy(engineName(cfg), func(ctx context.Context) (provider.Engine, error) {
		engine, err := buildEngine(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return provider.NewLimited(engine, cfg.EngineMaxConcurrency), nil
	})

	return lazy, nil
}

func engineName(cfg *config.Config) string {
	if EngineType(cfg.EmbeddingEngine) == EngineTypeMock {
		return string(EngineTypeMock)
	}
	if cfg.DetectorBackend == DetectorRekognition {
		return "rekognition+deepface"
	}
	return string(EngineTypeDeepFace)
}

func buildEngine(ctx context.Context, cfg *config.Config) (provider.Engine, error) {
	if EngineType(cfg.EmbeddingEngine) == EngineTypeMock {
		return mock.New(mock.WithDimension(cfg.EmbeddingDimension)), nil
	}

	if cfg.DetectorBackend == DetectorRekognition {
		return createRekognitionComposite(ctx, cfg)
	}

	return createDeepFaceProvider(cfg, cfg.DetectorBackend), nil
}

// createRekognitionComposite pairs the Rekognition detector with DeepFace
// embeddings
func createRekognitionComposite(ctx context.Context, cfg *config.Config) (provider.Engine, error) {
	detector, err := rekognition.NewDetector(ctx, rekognitionConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create rekognition detector: %w", err)
	}

	representer := createDeepFaceProvider(cfg, deepface.DefaultConfig().Detector)

	return provider.NewComposite(detector, representer), nil
}

// rekognitionConfig overlays the configured AWS settings on the detector
// defaults.
func rekognitionConfig(cfg *config.Config) rekognition.Config {
	rekognitionConfig := rekognition.DefaultConfig()

	if cfg.AWSRegion != "" {
		rekognitionConfig.Region = cfg.AWSRegion
	}
	if cfg.AWSMaxAttempts > 0 {
		rekognitionConfig.MaxAttempts = cfg.AWSMaxAttempts
	}
	rekognitionConfig.Endpoint = cfg.AWSEndpoint

	return rekognitionConfig
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config, detector string) *deepface.Provider {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceTimeout > 0 {
		deepfaceConfig.Timeout = cfg.DeepFaceTimeout
	}
	if cfg.ModelName != "" {
		deepfaceConfig.Model = cfg.ModelName
	}
	if detector != "" {
		deepfaceConfig.Detector = detector
	}
	deepfaceConfig.RetryCount = cfg.DeepFaceRetryCount

	return deepface.NewProvider(deepfaceConfig)
}
