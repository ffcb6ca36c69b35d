package domain

// FaceRegion is a face bounding box in pixel coordinates of the decoded image.
type FaceRegion struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Area returns the box area in pixels.
func (r FaceRegion) Area() int {
	return r.W * r.H
}

// FaceSize is the width and height of an accepted face.
type FaceSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Size returns the box dimensions.
func (r FaceRegion) Size() FaceSize {
	return FaceSize{Width: r.W, Height: r.H}
}

// Enrollment is the result of a successful enrollment. The embedding belongs to
// the caller once returned; nothing here is persisted.
type Enrollment struct {
	Embedding    []float64 `json:"embedding"`
	QualityScore float64   `json:"quality_score"`
	FaceSize     FaceSize  `json:"face_size"`
}

// VerificationDecision is the outcome of comparing two embeddings.
type VerificationDecision struct {
	IsMatch       bool    `json:"match"`
	Confidence    float64 `json:"confidence"`
	Distance      float64 `json:"distance"`
	ThresholdUsed float64 `json:"threshold_used"`
}

// Verification is the result of a completed verify call: the decision plus
// what the quality gate measured on the live image.
type Verification struct {
	VerificationDecision
	QualityScore float64  `json:"quality_score"`
	FaceSize     FaceSize `json:"face_size"`
}
