package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
)

// FaceSize is the width and height of the accepted face box
type FaceSize struct {
	Width  int `json:"width" example:"182"`
	Height int `json:"height" example:"214"`
}

// EnrollResponse represents the response for an enrollment attempt
type EnrollResponse struct {
	Success      bool      `json:"success" example:"true"`
	Embedding    []float64 `json:"embedding"`
	Message      string    `json:"message" example:"Face enrolled successfully"`
	FaceDetected bool      `json:"face_detected" example:"true"`
	QualityScore float64   `json:"quality_score" example:"71.35"`
	FaceSize     FaceSize  `json:"face_size"`
	Timestamp    string    `json:"timestamp" example:"2024-01-01T00:00:00Z"`
}

// VerifyResponse represents the response for a verification attempt
type VerifyResponse struct {
	Success         bool    `json:"success" example:"true"`
	Match           bool    `json:"match" example:"true"`
	Confidence      float64 `json:"confidence" example:"87.5"`
	Message         string  `json:"message" example:"Verification completed successfully"`
	SimilarityScore float64 `json:"similarity_score" example:"0.125"`
	ThresholdUsed   float64 `json:"threshold_used" example:"0.4"`
	QualityScore    float64 `json:"quality_score" example:"64.2"`
	Timestamp       string  `json:"timestamp" example:"2024-01-01T00:00:00Z"`
}

// InfoResponse represents the service descriptor returned at the root path
type InfoResponse struct {
	Service   string            `json:"service" example:"facegate"`
	Version   string            `json:"version" example:"1.0.0"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse represents the liveness response
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	Service   string `json:"service" example:"facegate"`
	Timestamp string `json:"timestamp" example:"2024-01-01T00:00:00Z"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Status    string            `json:"status" example:"ready"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp" example:"2024-01-01T00:00:00Z"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger(host string) *swagno.Swagger {
	if host == "" {
		host = "localhost:8000"
	}

	sw := swagno.New(swagno.Config{
		Title:       "Facegate Face Verification API",
		Version:     "v1.0.0",
		Description: "Quality-gated face enrollment and 1:1 verification. Embeddings are returned to the caller and never stored.",
		Host:        host,
	})

	endpoints := []*endpoint.EndPoint{
		// POST /enroll
		endpoint.New(
			endpoint.POST,
			"/enroll",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Enroll a face"),
			endpoint.WithDescription("Accepts a multipart field image (image/*). Runs the pixel, detection and quality gates and returns the embedding of the single accepted face. No face is reported with success=false and HTTP 200."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResponse{}, "200", "Enrollment attempt completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "image is required"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_FILE_TYPE", Message: "Invalid file type. Only image files are accepted."}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected (2). Please provide image with single face."}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "LOW_QUALITY_IMAGE", Message: "Image quality too low for reliable recognition"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Request Entity Too Large"}, "413", "Payload Too Large"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
				response.New(ErrorResponse{Code: "SERVICE_UNAVAILABLE", Message: "Face recognition engine unavailable, please retry"}, "503", "Service Unavailable"),
			}),
		),

		// POST /verify
		endpoint.New(
			endpoint.POST,
			"/verify",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Verify a face against a stored embedding"),
			endpoint.WithDescription("Accepts multipart fields image (image/*) and stored_embedding (JSON array of numbers). similarity_score is the cosine distance; a match means distance <= threshold_used."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerifyResponse{}, "200", "Verification attempt completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid stored_embedding format. Must be valid JSON array."}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_FILE_TYPE", Message: "Invalid file type. Only image files are accepted."}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_EMBEDDING", Message: "Embedding has 128 dimensions, expected 512"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected (2). Please provide image with single face."}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "LOW_QUALITY_IMAGE", Message: "Image quality too low for reliable recognition"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
				response.New(ErrorResponse{Code: "SERVICE_UNAVAILABLE", Message: "Face recognition engine unavailable, please retry"}, "503", "Service Unavailable"),
			}),
		),

		// GET /
		endpoint.New(
			endpoint.GET,
			"/",
			endpoint.WithTags("Service"),
			endpoint.WithSummary("Service descriptor"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(InfoResponse{}, "200", "OK"),
			}),
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Service"),
			endpoint.WithSummary("Liveness check"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "OK"),
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Service"),
			endpoint.WithSummary("Readiness check"),
			endpoint.WithDescription("Probes the embedding engine and, when enabled, the audit database."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ReadyResponse{}, "200", "Ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ReadyResponse{Status: "not_ready"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
