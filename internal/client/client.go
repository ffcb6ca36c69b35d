// Package client is a thin HTTP client for the facegate API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultBaseURL = "http://localhost:8000"

// APIError is a non-2xx response decoded from the service error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("facegate: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("facegate: %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

type FaceSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type EnrollResponse struct {
	Success      bool      `json:"success"`
	Embedding    []float64 `json:"embedding"`
	Message      string    `json:"message"`
	FaceDetected bool      `json:"face_detected"`
	QualityScore *float64  `json:"quality_score"`
	FaceSize     *FaceSize `json:"face_size,omitempty"`
	Timestamp    string    `json:"timestamp"`
}

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

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var out HealthResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Enroll uploads the image at path. A response with Success false is not an
// error: the service reports "no face" that way.
func (c *Client) Enroll(ctx context.Context, path string) (*EnrollResponse, error) {
	req, err := c.imageRequest(ctx, "/enroll", path, nil)
	if err != nil {
		return nil, err
	}

	var out EnrollResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Verify(ctx context.Context, path string, stored []float64) (*VerifyResponse, error) {
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}

	req, err := c.imageRequest(ctx, "/verify", path, map[string]string{"stored_embedding": string(raw)})
	if err != nil {
		return nil, err
	}

	var out VerifyResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) imageRequest(ctx context.Context, endpoint, path string, fields map[string]string) (*http.Request, error) {
	contentType, err := ContentTypeFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Code = envelope.Error.Code
	apiErr.Message = envelope.Error.Message
	if apiErr.Message == "" {
		apiErr.Message = envelope.Message
	}
	return apiErr
}

var ErrUnsupportedExtension = errors.New("unsupported image extension")

// ContentTypeFor maps an image file extension to the part content type.
func ContentTypeFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".png":
		return "image/png", nil
	case ".gif":
		return "image/gif", nil
	case ".bmp":
		return "image/bmp", nil
	case ".webp":
		return "image/webp", nil
	case ".tif", ".tiff":
		return "image/tiff", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(path))
}

// ReadEmbedding loads an embedding saved by enroll. It accepts
// {"embedding": [...]} or a bare JSON array.
func ReadEmbedding(path string) ([]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embedding: %w", err)
	}

	var wrapped struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Embedding) > 0 {
		return wrapped.Embedding, nil
	}

	var bare []float64
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("decode embedding %s: %w", path, err)
	}
	if len(bare) == 0 {
		return nil, fmt.Errorf("decode embedding %s: empty", path)
	}
	return bare, nil
}

// WriteEmbedding saves an embedding as {"embedding": [...]}.
func WriteEmbedding(path string, embedding []float64) error {
	raw, err := json.Marshal(struct {
		Embedding []float64 `json:"embedding"`
	}{Embedding: embedding})
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write embedding: %w", err)
	}
	return nil
}
