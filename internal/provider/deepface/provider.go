package deepface

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

// minMatchIoU is the minimum overlap between a requested box and a /represent facial area
const minMatchIoU = 0.3

// Provider implements provider.DescriptorSource using DeepFace API
type Provider struct {
	client *Client

	// last /represent response, so N faces of one frame cost one call
	mu        sync.Mutex
	lastImage [sha256.Size]byte
	lastResp  *RepresentResponse
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// DetectFaces locates faces via /analyze without computing descriptors
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	resp, err := p.client.Analyze(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		if !detected(result.FaceConfidence) {
			continue
		}
		confidence := 1.0
		if result.FaceConfidence != nil {
			confidence = *result.FaceConfidence
		}
		faces = append(faces, provider.DetectedFace{
			BoundingBox: result.Region.Box(),
			Confidence:  confidence,
		})
	}

	return faces, nil
}

// ComputeDescriptor returns the embedding of the /represent face that best overlaps face
func (p *Provider) ComputeDescriptor(ctx context.Context, image []byte, face provider.DetectedFace) (domain.Descriptor, error) {
	resp, err := p.represent(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("compute descriptor: %w", err)
	}

	best := -1
	bestIoU := 0.0
	for i, result := range resp.Results {
		if !detected(result.FaceConfidence) {
			continue
		}
		iou := result.FacialArea.Box().IoU(face.BoundingBox)
		if iou > bestIoU {
			best, bestIoU = i, iou
		}
	}

	if best < 0 || bestIoU < minMatchIoU {
		return nil, ErrNoFaceInResponse
	}

	embedding := resp.Results[best].Embedding
	if len(embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}

	return domain.Descriptor(embedding).Clone(), nil
}

func (p *Provider) represent(ctx context.Context, image []byte) (*RepresentResponse, error) {
	key := sha256.Sum256(image)

	p.mu.Lock()
	if p.lastResp != nil && bytes.Equal(p.lastImage[:], key[:]) {
		resp := p.lastResp
		p.mu.Unlock()
		return resp, nil
	}
	p.mu.Unlock()

	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.lastImage = key
	p.lastResp = resp
	p.mu.Unlock()

	return resp, nil
}

// Ensure Provider implements provider.DescriptorSource
var _ provider.DescriptorSource = (*Provider)(nil)
