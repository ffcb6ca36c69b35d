package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const (
	EndpointEnroll = "/enroll"
	EndpointVerify = "/verify"
)

// Pipeline is satisfied by *service.Pipeline
type Pipeline interface {
	Enroll(ctx context.Context, image []byte) (*domain.Enrollment, error)
	Verify(ctx context.Context, image []byte, stored []float64) (*domain.Verification, error)
	Threshold() float64
}

// FaceHandler serves enrollment and verification
type FaceHandler struct {
	pipeline Pipeline
	auditor  audit.Logger
	logger   *slog.Logger
}

func NewFaceHandler(pipeline Pipeline, auditor audit.Logger, logger *slog.Logger) *FaceHandler {
	if auditor == nil {
		auditor = &audit.NoOpLogger{}
	}
	return &FaceHandler{
		pipeline: pipeline,
		auditor:  auditor,
		logger:   logger.With(slog.String("component", "face_handler")),
	}
}

// EnrollResponse response for enroll endpoint. Embedding and quality_score
// are null when no face was found.
type EnrollResponse struct {
	Success      bool             `json:"success"`
	Embedding    []float64        `json:"embedding"`
	Message      string           `json:"message"`
	FaceDetected bool             `json:"face_detected"`
	QualityScore *float64         `json:"quality_score"`
	FaceSize     *domain.FaceSize `json:"face_size,omitempty"`
	Timestamp    string           `json:"timestamp"`
}

// VerifyResponse response for verify endpoint. similarity_score is the cosine
// distance; lower is more similar.
type VerifyResponse struct {
	Success         bool     `json:"success"`
	Match           bool     `json:"match"`
	Confidence      float64  `json:"confidence"`
	Message         string   `json:"message"`
	SimilarityScore *float64 `json:"similarity_score"`
	ThresholdUsed   float64  `json:"threshold_used"`
	QualityScore    *float64 `json:"quality_score,omitempty"`
	Timestamp       string   `json:"timestamp"`
}

// Enroll POST /enroll - produce the embedding of the single face in image
func (h *FaceHandler) Enroll(c *fiber.Ctx) error {
	imageBytes, err := h.readImage(c, EndpointEnroll)
	if err != nil {
		return err
	}

	enrollment, err := h.pipeline.Enroll(c.UserContext(), imageBytes)
	if err != nil {
		h.reject(c, EndpointEnroll, err)

		if errors.Is(err, domain.ErrNoFaceDetected) {
			return c.JSON(EnrollResponse{
				Success:      false,
				Message:      messageOf(err),
				FaceDetected: false,
				Timestamp:    middleware.Timestamp(time.Now()),
			})
		}
		return err
	}

	quality := enrollment.QualityScore
	return c.JSON(EnrollResponse{
		Success:      true,
		Embedding:    enrollment.Embedding,
		Message:      "Face enrolled successfully",
		FaceDetected: true,
		QualityScore: &quality,
		FaceSize:     &enrollment.FaceSize,
		Timestamp:    middleware.Timestamp(time.Now()),
	})
}

// Verify POST /verify - compare the face in image with stored_embedding
func (h *FaceHandler) Verify(c *fiber.Ctx) error {
	stored, err := parseEmbedding(c.FormValue("stored_embedding"))
	if err != nil {
		return err
	}

	imageBytes, err := h.readImage(c, EndpointVerify)
	if err != nil {
		return err
	}

	verification, err := h.pipeline.Verify(c.UserContext(), imageBytes, stored)
	if err != nil {
		h.reject(c, EndpointVerify, err)

		if errors.Is(err, domain.ErrNoFaceDetected) {
			return c.JSON(VerifyResponse{
				Success:       false,
				Match:         false,
				Confidence:    0,
				Message:       messageOf(err),
				ThresholdUsed: h.pipeline.Threshold(),
				Timestamp:     middleware.Timestamp(time.Now()),
			})
		}
		return err
	}

	confidence := round(verification.Confidence, 2)
	if !verification.IsMatch {
		h.record(c, EndpointVerify, audit.ReasonVerificationFailed,
			fmt.Sprintf("Confidence: %.2f%%, Threshold: %v", confidence, verification.ThresholdUsed))
	}

	distance := round(verification.Distance, 4)
	quality := verification.QualityScore
	return c.JSON(VerifyResponse{
		Success:         true,
		Match:           verification.IsMatch,
		Confidence:      confidence,
		Message:         "Verification completed successfully",
		SimilarityScore: &distance,
		ThresholdUsed:   verification.ThresholdUsed,
		QualityScore:    &quality,
		Timestamp:       middleware.Timestamp(time.Now()),
	})
}

// readImage extracts the image part. Anything not declared image/* is
// rejected and audited before its bytes are read.
func (h *FaceHandler) readImage(c *fiber.Ctx, endpoint string) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithMessage("image is required").WithError(err)
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		if contentType == "" {
			contentType = "None"
		}
		h.record(c, endpoint, audit.ReasonInvalidFileType, "content_type="+contentType)
		return nil, domain.ErrInvalidFileType
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}

func parseEmbedding(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrValidationFailed.WithMessage("stored_embedding is required")
	}

	var embedding []float64
	if err := json.Unmarshal([]byte(raw), &embedding); err != nil {
		return nil, domain.ErrValidationFailed.
			WithMessage("Invalid stored_embedding format. Must be valid JSON array.").
			WithError(err)
	}

	return embedding, nil
}

// reject audits a pipeline failure when it is a caller-actionable rejection
func (h *FaceHandler) reject(c *fiber.Ctx, endpoint string, err error) {
	reason, ok := audit.ReasonFor(err)
	if !ok {
		return
	}
	h.record(c, endpoint, reason, messageOf(err))
}

func (h *FaceHandler) record(c *fiber.Ctx, endpoint string, reason audit.ReasonCode, details string) {
	event := audit.Event{
		Endpoint:   endpoint,
		ReasonCode: reason,
		Details:    details,
		RequestID:  c.GetRespHeader(fiber.HeaderXRequestID),
		ClientIP:   c.IP(),
	}

	if err := h.auditor.Log(c.UserContext(), event); err != nil {
		h.logger.WarnContext(c.UserContext(), "failed to record audit event",
			slog.String("reason", string(reason)),
			slog.String("error", err.Error()),
		)
	}
}

func messageOf(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return domain.ErrInternal.Message
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
