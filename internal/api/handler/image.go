package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
	"github.com/saturnino-fabrica-de-software/vigia/internal/imaging"
)

const DefaultMaxImageBytes = 10 * 1024 * 1024 // 10MB

// readImage loads one uploaded file and checks that it decodes as an image
func readImage(file *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithMessage("Image file is empty")
	}
	if file.Size > maxBytes {
		return nil, domain.ErrInvalidImage.WithMessage(fmt.Sprintf("Image exceeds %d bytes", maxBytes))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return checkImage(data, maxBytes)
}

func checkImage(data []byte, maxBytes int64) ([]byte, error) {
	if int64(len(data)) > maxBytes {
		return nil, domain.ErrInvalidImage.WithMessage(fmt.Sprintf("Image exceeds %d bytes", maxBytes))
	}
	if _, err := imaging.DecodeConfig(data); err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return data, nil
}

// formImages collects every file sent under "images" or "image", in form order
func formImages(c *fiber.Ctx, maxBytes int64) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.ErrValidationFailed.WithMessage("Expected a multipart form with image files").WithError(err)
	}

	var files []*multipart.FileHeader
	files = append(files, form.File["images"]...)
	files = append(files, form.File["image"]...)
	if len(files) == 0 {
		return nil, domain.ErrValidationFailed.WithMessage("At least one image is required")
	}

	images := make([][]byte, 0, len(files))
	for i, file := range files {
		img, err := readImage(file, maxBytes)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// singleImage accepts either a multipart "image" field or a raw image body
func singleImage(c *fiber.Ctx, maxBytes int64) ([]byte, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		file, err := c.FormFile("image")
		if err != nil {
			return nil, domain.ErrValidationFailed.WithMessage("Field \"image\" is required").WithError(err)
		}
		return readImage(file, maxBytes)
	}

	body := c.Body()
	if len(body) == 0 {
		return nil, domain.ErrValidationFailed.WithMessage("Request body must be an image")
	}
	// o body do fasthttp é reaproveitado depois do handler, copia antes de guardar
	data := make([]byte, len(body))
	copy(data, body)
	return checkImage(data, maxBytes)
}
