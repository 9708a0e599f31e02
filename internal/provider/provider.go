package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// DescriptorSource define a interface para detectores/extratores de descriptor facial.
// Implementações não guardam estado entre chamadas.
type DescriptorSource interface {
	// DetectFaces detecta faces na imagem; zero faces não é erro
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)

	// ComputeDescriptor extrai o descriptor da face informada (detectada na mesma imagem)
	ComputeDescriptor(ctx context.Context, image []byte, face DetectedFace) (domain.Descriptor, error)
}

// Detector is the detection half of a DescriptorSource.
type Detector interface {
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox domain.BoundingBox `json:"bounding_box"`
	Confidence  float64            `json:"confidence"`
}

// Split pairs a Detector with the descriptor half of another source.
// Used when boxes come from one backend and descriptors from another.
type Split struct {
	Detector  Detector
	Describer DescriptorSource
}

func (s Split) DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error) {
	return s.Detector.DetectFaces(ctx, image)
}

func (s Split) ComputeDescriptor(ctx context.Context, image []byte, face DetectedFace) (domain.Descriptor, error) {
	return s.Describer.ComputeDescriptor(ctx, image, face)
}

var _ DescriptorSource = Split{}
