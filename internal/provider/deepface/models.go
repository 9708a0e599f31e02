package deepface

import "github.com/saturnino-fabrica-de-software/vigia/internal/domain"

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`      // base64 encoded image
	Model            string `json:"model"`    // "Dlib", "Facenet512", etc
	Detector         string `json:"detector"` // "dlib", "retinaface", etc
	EnforceDetection bool   `json:"enforce_detection"`
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence *float64   `json:"face_confidence,omitempty"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Box converts the x/y/w/h area to a pixel BoundingBox
func (a FacialArea) Box() domain.BoundingBox {
	return domain.BoundingBox{
		Left:   float64(a.X),
		Top:    float64(a.Y),
		Right:  float64(a.X + a.W),
		Bottom: float64(a.Y + a.H),
	}
}

// AnalyzeRequest for POST /analyze
type AnalyzeRequest struct {
	Img              string   `json:"img"`
	Actions          []string `json:"actions"`
	Detector         string   `json:"detector"`
	EnforceDetection bool     `json:"enforce_detection"`
}

// AnalyzeResponse from POST /analyze
type AnalyzeResponse struct {
	Results []AnalyzeResult `json:"results"`
}

type AnalyzeResult struct {
	Region         FacialArea `json:"region"`
	FaceConfidence *float64   `json:"face_confidence,omitempty"`
}

// detected reports whether the backend actually found a face. With enforce_detection off
// DeepFace answers with the whole frame and a zero confidence when there is none.
func detected(confidence *float64) bool {
	return confidence == nil || *confidence > 0
}
