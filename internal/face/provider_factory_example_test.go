package face_test

import (
	"context"
	"fmt"
	"log"

	"github.com/saturnino-fabrica-de-software/vigia/internal/config"
	"github.com/saturnino-fabrica-de-software/vigia/internal/face"
)

// ExampleNewDescriptorSource_mock demonstrates the deterministic source used in development
func ExampleNewDescriptorSource_mock() {
	ctx := context.Background()

	cfg := &config.Config{
		ProviderType:  config.ProviderMock,
		DescriptorDim: 128,
	}

	source, err := face.NewDescriptorSource(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to create source: %v", err)
	}

	image := make([]byte, 4096) // any payload of at least 1KB
	faces, err := source.DetectFaces(ctx, image)
	if err != nil {
		log.Fatalf("failed to detect faces: %v", err)
	}

	descriptor, err := source.ComputeDescriptor(ctx, image, faces[0])
	if err != nil {
		log.Fatalf("failed to compute descriptor: %v", err)
	}

	fmt.Printf("detected %d face, descriptor length %d\n", len(faces), len(descriptor))
	// Output: detected 1 face, descriptor length 128
}

// ExampleNewDescriptorSource_deepface shows the production configuration
func ExampleNewDescriptorSource_deepface() {
	cfg := &config.Config{
		ProviderType:     config.ProviderDeepFace,
		DeepFaceURL:      "http://deepface:5000",
		DeepFaceModel:    "Dlib",
		DeepFaceDetector: "dlib",
	}

	if _, err := face.NewDescriptorSource(context.Background(), cfg); err != nil {
		log.Fatalf("failed to create source: %v", err)
	}
}
