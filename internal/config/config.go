package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port           int           `envconfig:"PORT" default:"8000"`
	Environment    string        `envconfig:"ENV" default:"development"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	MaxUploadBytes int           `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	// Embedding engine
	EmbeddingEngine      string        `envconfig:"EMBEDDING_ENGINE" default:"deepface"`
	ModelName            string        `envconfig:"MODEL_NAME" default:"Facenet512"`
	DetectorBackend      string        `envconfig:"DETECTOR_BACKEND" default:"opencv"`
	EmbeddingDimension   int           `envconfig:"EMBEDDING_DIMENSION" default:"512"`
	EngineMaxConcurrency int           `envconfig:"ENGINE_MAX_CONCURRENCY" default:"1"`
	DeepFaceURL          string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceTimeout      time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	DeepFaceRetryCount   int           `envconfig:"DEEPFACE_RETRY_COUNT" default:"2"`
	AWSRegion            string        `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSEndpoint          string        `envconfig:"AWS_ENDPOINT_URL"`
	AWSMaxAttempts       int           `envconfig:"AWS_MAX_ATTEMPTS" default:"3"`

	// Quality gate and decision thresholds
	MinFaceSize           int     `envconfig:"MIN_FACE_SIZE" default:"80"`
	MinImageSize          int     `envconfig:"MIN_IMAGE_SIZE" default:"150"`
	MaxImageSize          int     `envconfig:"MAX_IMAGE_SIZE" default:"4096"`
	QualityThreshold      float64 `envconfig:"QUALITY_THRESHOLD" default:"30.0"`
	VerificationThreshold float64 `envconfig:"VERIFICATION_THRESHOLD" default:"0.40"`
	DetectionConfidence   float64 `envconfig:"DETECTION_CONFIDENCE" default:"0.9"`

	// Audit store
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	AuditDBEnabled bool   `envconfig:"AUDIT_DB_ENABLED" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects combinations that would make the quality gate or the
// decision logic meaningless.
func (c *Config) Validate() error {
	var errs []error

	if c.MinImageSize <= 0 || c.MaxImageSize <= 0 {
		errs = append(errs, errors.New("image size limits must be positive"))
	} else if c.MinImageSize > c.MaxImageSize {
		errs = append(errs, fmt.Errorf("MIN_IMAGE_SIZE (%d) exceeds MAX_IMAGE_SIZE (%d)", c.MinImageSize, c.MaxImageSize))
	}
	if c.MinFaceSize <= 0 {
		errs = append(errs, errors.New("MIN_FACE_SIZE must be positive"))
	}
	if c.QualityThreshold < 0 || c.QualityThreshold > 100 {
		errs = append(errs, fmt.Errorf("QUALITY_THRESHOLD %.2f outside [0,100]", c.QualityThreshold))
	}
	if c.VerificationThreshold < 0 || c.VerificationThreshold > 2 {
		errs = append(errs, fmt.Errorf("VERIFICATION_THRESHOLD %.2f outside [0,2]", c.VerificationThreshold))
	}
	if c.DetectionConfidence < 0 || c.DetectionConfidence > 1 {
		errs = append(errs, fmt.Errorf("DETECTION_CONFIDENCE %.2f outside [0,1]", c.DetectionConfidence))
	}
	if c.EmbeddingDimension <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIMENSION must be positive"))
	}
	if c.EngineMaxConcurrency <= 0 {
		errs = append(errs, errors.New("ENGINE_MAX_CONCURRENCY must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.AuditDBEnabled && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required when AUDIT_DB_ENABLED is set"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
