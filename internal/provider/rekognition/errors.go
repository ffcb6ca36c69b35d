package rekognition

import "errors"

var (
	// ErrInvalidCredentials is returned when AWS refuses the caller's credentials.
	ErrInvalidCredentials = errors.New("rekognition: invalid or missing AWS credentials")

	// ErrImageRejected is returned when Rekognition cannot process the encoded
	// frame (format, size or parameters). It is not retried.
	ErrImageRejected = errors.New("rekognition: image rejected")
)
