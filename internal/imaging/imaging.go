// Package imaging validates uploaded images and splits MJPEG streams into frames.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedImage = errors.New("unsupported or corrupted image")

// Info is the decoded image header.
type Info struct {
	Format string
	Width  int
	Height int
}

// DecodeConfig reads only the image header. Accepts jpeg, png, gif, bmp, tiff and webp.
func DecodeConfig(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrUnsupportedImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, ErrUnsupportedImage
	}

	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
