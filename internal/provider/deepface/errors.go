package deepface

import (
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

var (
	ErrDeepFaceUnavailable = fmt.Errorf("deepface service unavailable: %w", provider.ErrUnavailable)
	ErrInvalidResponse     = errors.New("invalid response from deepface")
	ErrNoFaceInResponse    = errors.New("no face data in deepface response")
)

// StatusError is a non-2xx answer from the DeepFace API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.StatusCode, e.Body)
}

// ClientError reports whether the request itself was rejected (4xx), in which
// case retrying cannot help.
func (e *StatusError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
