package deepface

import "github.com/saturnino-fabrica-de-software/facegate/internal/domain"

// RepresentRequest is the body of POST /represent. Img carries a base64
// JPEG data URI.
type RepresentRequest struct {
	Img              string `json:"img"`
	Model            string `json:"model_name"`
	Detector         string `json:"detector_backend"`
	EnforceDetection bool   `json:"enforce_detection"`
	Align            bool   `json:"align"`
}

type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

// RepresentResult is one detected face. Embedding is empty when the
// server only ran detection.
type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence float64    `json:"face_confidence"`
}

// FacialArea is a bounding box in pixels of the submitted image.
type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (a FacialArea) Region() domain.FaceRegion {
	return domain.FaceRegion{X: a.X, Y: a.Y, W: a.W, H: a.H}
}
