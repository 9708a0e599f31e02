// Package face builds the configured descriptor source.
package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/vigia/internal/config"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/vigia/internal/provider/rekognition"
)

// NewDescriptorSource creates a DescriptorSource based on configuration.
//
// Environment variables:
//   - PROVIDER_TYPE: "deepface", "rekognition" or "mock" (default: "deepface")
//   - DEEPFACE_URL, DEEPFACE_MODEL, DEEPFACE_DETECTOR: DeepFace API and models
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - DESCRIPTOR_DIM: descriptor length produced by the mock source
//
// Rekognition only detects faces; descriptors still come from DeepFace, so the
// rekognition type needs DEEPFACE_URL as well.
func NewDescriptorSource(ctx context.Context, cfg *config.Config) (provider.DescriptorSource, error) {
	switch cfg.ProviderType {
	case config.ProviderRekognition:
		return createRekognitionSource(ctx, cfg)

	case config.ProviderDeepFace, "":
		return createDeepFaceProvider(cfg), nil

	case config.ProviderMock:
		return mock.New(mock.WithDimension(cfg.DescriptorDim)), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ProviderType, config.ProviderDeepFace, config.ProviderRekognition, config.ProviderMock)
	}
}

// createRekognitionSource pairs the Rekognition detector with DeepFace descriptors
func createRekognitionSource(ctx context.Context, cfg *config.Config) (provider.DescriptorSource, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	detector, err := rekognition.NewDetector(ctx, rekogConfig)
	if err != nil {
		return nil, fmt.Errorf("create rekognition detector in %s: %w", rekogConfig.Region, err)
	}

	return provider.Split{
		Detector:  detector,
		Describer: createDeepFaceProvider(cfg),
	}, nil
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config) *deepface.Provider {
	deepfaceConfig := deepface.DefaultConfig()

	// Use defaults for fields left empty (timeout and retry always come from defaults)
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}

	return deepface.NewProvider(deepfaceConfig)
}
