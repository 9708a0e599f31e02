package rekognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/imaging"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
const maxImageSize = 5 * 1024 * 1024

// Detector implements provider.Detector using AWS Rekognition DetectFaces.
// Rekognition does not expose embeddings, so it is paired with another
// DescriptorSource through provider.Split.
type Detector struct {
	api    DetectFacesAPI
	config Config
}

// NewDetector creates a detector backed by a real Rekognition client
func NewDetector(ctx context.Context, cfg Config) (*Detector, error) {
	api, err := NewAPI(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewDetectorWithAPI(api, cfg), nil
}

// NewDetectorWithAPI creates a detector over any DetectFacesAPI implementation
func NewDetectorWithAPI(api DetectFacesAPI, cfg Config) *Detector {
	return &Detector{api: api, config: cfg}
}

// DetectFaces returns pixel-space boxes. Rekognition answers in ratios of the image
// size, so the image header is decoded to scale them back.
func (d *Detector) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) > maxImageSize {
		return nil, invalidImage(fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize))
	}

	info, err := imaging.DecodeConfig(image)
	if err != nil {
		return nil, invalidImage(fmt.Errorf("%w: %v", ErrInvalidImage, err))
	}

	output, err := d.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", mapAPIError(err))
	}

	width, height := float64(info.Width), float64(info.Height)
	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		confidence := float64(aws.ToFloat32(detail.Confidence))
		if confidence < d.config.MinConfidence {
			continue
		}

		box := detail.BoundingBox
		left := float64(aws.ToFloat32(box.Left)) * width
		top := float64(aws.ToFloat32(box.Top)) * height
		faces = append(faces, provider.DetectedFace{
			BoundingBox: domain.BoundingBox{
				Left:   left,
				Top:    top,
				Right:  left + float64(aws.ToFloat32(box.Width))*width,
				Bottom: top + float64(aws.ToFloat32(box.Height))*height,
			},
			Confidence: confidence / 100,
		})
	}

	return faces, nil
}

var _ provider.Detector = (*Detector)(nil)
