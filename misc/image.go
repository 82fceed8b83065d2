package misc

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// GrayImage wraps a row major buffer of 8-bit intensities without copying it.
func GrayImage(pixels []byte, width int, height int) (*image.Gray, error) {
	if width < 1 || height < 1 || len(pixels) != width*height {
		return nil, fmt.Errorf("buffer of %d pixels does not match %dx%d", len(pixels), width, height)
	}
	return &image.Gray{
		Pix:    pixels,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// EncodeImage writes the grayscale image in the format named by ext (".png", ".jpg", ".bmp", ".tiff", ...).
// Unknown extensions are written as png.
func EncodeImage(w io.Writer, img *image.Gray, ext string) error {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, img)
	}
}

// WriteImage saves pixels as a grayscale image at fileName, picking the format from the file extension.
func WriteImage(fileName string, pixels []byte, width int, height int) (err error) {
	if fileName == "" {
		return errors.New("no filename supplied")
	}
	img, err := GrayImage(pixels, width, height)
	if err != nil {
		return err
	}

	file, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("unable to create image %s - %w", fileName, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("unable to close image %s - %w", fileName, closeErr)
		}
	}()

	if err = EncodeImage(file, img, filepath.Ext(fileName)); err != nil {
		return fmt.Errorf("unable to encode image %s - %w", fileName, err)
	}
	return nil
}
