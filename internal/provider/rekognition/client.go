package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

const (
	errCodeAccessDenied       = "AccessDeniedException"
	errCodeInvalidImageFormat = "InvalidImageFormatException"
	errCodeImageTooLarge      = "ImageTooLargeException"
	errCodeInvalidParameter   = "InvalidParameterException"
	errCodeThroughput         = "ProvisionedThroughputExceededException"
	errCodeThrottling         = "ThrottlingException"
)

// DetectFacesAPI is the slice of the Rekognition client the detector needs
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// NewAPI creates a Rekognition client using the AWS default credential chain
func NewAPI(ctx context.Context, cfg Config) (*rekognition.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return rekognition.NewFromConfig(awsCfg), nil
}

// mapAPIError translates smithy API error codes into package errors
func mapAPIError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied:
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.ErrorMessage())
	case errCodeInvalidImageFormat, errCodeImageTooLarge, errCodeInvalidParameter:
		return invalidImage(fmt.Errorf("%w: %s", ErrInvalidImage, apiErr.ErrorMessage()))
	case errCodeThroughput, errCodeThrottling:
		return fmt.Errorf("%w: %s", ErrThrottled, apiErr.ErrorMessage())
	}
	return err
}

// invalidImage tags err with the domain code so callers report a client error
func invalidImage(err error) error {
	return domain.ErrInvalidImage.WithError(err)
}
