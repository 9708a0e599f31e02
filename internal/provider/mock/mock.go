package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

const (
	defaultDimension = 128
	minImageSize     = 1000

	frameWidth  = 640
	frameHeight = 480
)

// Provider implementa provider.DescriptorSource para testes e desenvolvimento.
// Mesma imagem e mesma face sempre geram o mesmo descriptor.
type Provider struct {
	dimension int
	faceCount int
}

type Option func(*Provider)

// WithDimension sets the descriptor length (default 128).
func WithDimension(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.dimension = n
		}
	}
}

// WithFaceCount sets how many faces every valid image contains (default 1).
func WithFaceCount(n int) Option {
	return func(p *Provider) {
		if n >= 0 {
			p.faceCount = n
		}
	}
}

// New cria uma nova instância do MockProvider
func New(opts ...Option) *Provider {
	p := &Provider{
		dimension: defaultDimension,
		faceCount: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DetectFaces simula detecção: faces lado a lado num frame 640x480
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}
	if p.faceCount == 0 {
		return []provider.DetectedFace{}, nil
	}

	slot := float64(frameWidth) / float64(p.faceCount)
	faces := make([]provider.DetectedFace, 0, p.faceCount)
	for i := 0; i < p.faceCount; i++ {
		left := slot*float64(i) + slot*0.1
		faces = append(faces, provider.DetectedFace{
			BoundingBox: domain.BoundingBox{
				Left:   left,
				Top:    frameHeight * 0.2,
				Right:  left + slot*0.8,
				Bottom: frameHeight * 0.8,
			},
			Confidence: 0.99,
		})
	}
	return faces, nil
}

// ComputeDescriptor gera descriptor determinístico a partir do hash da imagem e da caixa
func (p *Provider) ComputeDescriptor(ctx context.Context, image []byte, face provider.DetectedFace) (domain.Descriptor, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrInvalidImage
	}
	return generateDescriptor(image, face.BoundingBox, p.dimension), nil
}

// generateDescriptor gera um vetor unitário determinístico
func generateDescriptor(image []byte, box domain.BoundingBox, dimension int) domain.Descriptor {
	h := sha256.New()
	h.Write(image)
	var buf [8]byte
	for _, v := range []float64{box.Left, box.Top, box.Right, box.Bottom} {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	hash := h.Sum(nil)
	hashLen := len(hash)

	descriptor := make(domain.Descriptor, dimension)
	for i := 0; i < dimension; i++ {
		idx := i % hashLen
		// mix the position in so that dimensions past 32 are not a plain repeat
		b := hash[idx] ^ byte(i/hashLen*31)
		descriptor[i] = (float64(b)/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range descriptor {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		descriptor[0] = 1
		return descriptor
	}

	for i := range descriptor {
		descriptor[i] /= norm
	}

	return descriptor
}

var _ provider.DescriptorSource = (*Provider)(nil)
