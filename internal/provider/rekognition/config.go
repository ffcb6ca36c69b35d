package rekognition

// Config selects the AWS region and client behaviour for DetectFaces.
type Config struct {
	Region string

	// Endpoint overrides the service URL, e.g. a LocalStack container.
	// Empty uses the regional AWS endpoint.
	Endpoint string

	// MaxAttempts bounds SDK-level retries of throttled or 5xx calls.
	// Zero keeps the SDK default.
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{
		Region:      "us-east-1",
		MaxAttempts: 3,
	}
}
