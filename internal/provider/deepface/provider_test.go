package deepface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
)

func ptr(f float64) *float64 { return &f }

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewProvider(testConfig(server.URL))
}

func TestProvider_DetectFaces(t *testing.T) {
	tests := []struct {
		name      string
		results   []AnalyzeResult
		wantBoxes []domain.BoundingBox
	}{
		{
			name: "two faces",
			results: []AnalyzeResult{
				{Region: FacialArea{X: 10, Y: 20, W: 100, H: 100}, FaceConfidence: ptr(0.98)},
				{Region: FacialArea{X: 200, Y: 20, W: 80, H: 90}},
			},
			wantBoxes: []domain.BoundingBox{
				{Left: 10, Top: 20, Right: 110, Bottom: 120},
				{Left: 200, Top: 20, Right: 280, Bottom: 110},
			},
		},
		{
			name: "whole frame with zero confidence means no face",
			results: []AnalyzeResult{
				{Region: FacialArea{X: 0, Y: 0, W: 640, H: 480}, FaceConfidence: ptr(0)},
			},
			wantBoxes: []domain.BoundingBox{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/analyze", r.URL.Path)
				_ = json.NewEncoder(w).Encode(AnalyzeResponse{Results: tt.results})
			})

			faces, err := p.DetectFaces(context.Background(), []byte("frame"))
			require.NoError(t, err)

			boxes := make([]domain.BoundingBox, 0, len(faces))
			for _, f := range faces {
				boxes = append(boxes, f.BoundingBox)
			}
			assert.Equal(t, tt.wantBoxes, boxes)
		})
	}
}

func TestProvider_DetectFaces_Error(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.DetectFaces(context.Background(), []byte("frame"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeepFaceUnavailable)
	assert.Contains(t, err.Error(), "detect faces")
}

func TestProvider_ComputeDescriptor_PicksOverlappingFace(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(RepresentResponse{Results: []RepresentResult{
			{Embedding: []float64{1, 0, 0}, FacialArea: FacialArea{X: 0, Y: 0, W: 100, H: 100}},
			{Embedding: []float64{0, 1, 0}, FacialArea: FacialArea{X: 300, Y: 0, W: 100, H: 100}},
		}})
	})

	face := provider.DetectedFace{BoundingBox: domain.BoundingBox{Left: 305, Top: 5, Right: 400, Bottom: 100}}
	d, err := p.ComputeDescriptor(context.Background(), []byte("frame"), face)

	require.NoError(t, err)
	assert.Equal(t, domain.Descriptor{0, 1, 0}, d)
}

func TestProvider_ComputeDescriptor_NoOverlap(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(RepresentResponse{Results: []RepresentResult{
			{Embedding: []float64{1, 0, 0}, FacialArea: FacialArea{X: 0, Y: 0, W: 50, H: 50}},
		}})
	})

	face := provider.DetectedFace{BoundingBox: domain.BoundingBox{Left: 400, Top: 400, Right: 450, Bottom: 450}}
	_, err := p.ComputeDescriptor(context.Background(), []byte("frame"), face)

	assert.ErrorIs(t, err, ErrNoFaceInResponse)
}

func TestProvider_ComputeDescriptor_EmptyEmbedding(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(RepresentResponse{Results: []RepresentResult{
			{FacialArea: FacialArea{X: 0, Y: 0, W: 50, H: 50}},
		}})
	})

	face := provider.DetectedFace{BoundingBox: domain.BoundingBox{Left: 0, Top: 0, Right: 50, Bottom: 50}}
	_, err := p.ComputeDescriptor(context.Background(), []byte("frame"), face)

	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestProvider_ComputeDescriptor_ReusesResponseForSameFrame(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(RepresentResponse{Results: []RepresentResult{
			{Embedding: []float64{1, 0}, FacialArea: FacialArea{X: 0, Y: 0, W: 100, H: 100}},
			{Embedding: []float64{0, 1}, FacialArea: FacialArea{X: 200, Y: 0, W: 100, H: 100}},
		}})
	})

	ctx := context.Background()
	left := provider.DetectedFace{BoundingBox: domain.BoundingBox{Left: 0, Top: 0, Right: 100, Bottom: 100}}
	right := provider.DetectedFace{BoundingBox: domain.BoundingBox{Left: 200, Top: 0, Right: 300, Bottom: 100}}

	_, err := p.ComputeDescriptor(ctx, []byte("frame-1"), left)
	require.NoError(t, err)
	_, err = p.ComputeDescriptor(ctx, []byte("frame-1"), right)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	_, err = p.ComputeDescriptor(ctx, []byte("frame-2"), left)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestProviderImplementsInterface(t *testing.T) {
	var _ provider.DescriptorSource = (*Provider)(nil)
}
