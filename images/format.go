// Package images - Image decoding, encoding and the detection overlay.
package images

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/chai2010/webp"
	"github.com/nvr-ai/shroomguard/common"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// ImageFormat represents supported image formats.
type ImageFormat string

// ImageFormat constants
const (
	// FormatUnknown is any payload whose signature is not recognised.
	FormatUnknown ImageFormat = ""
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatGIF is the GIF image format. Only the first frame is used.
	FormatGIF ImageFormat = "gif"
)

// Extension returns the conventional file extension, including the dot.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatWebP:
		return ".webp"
	case FormatPNG:
		return ".png"
	case FormatGIF:
		return ".gif"
	default:
		return ""
	}
}

// DetectFormat identifies the format from the leading signature bytes.
func DetectFormat(data []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return FormatGIF
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP
	default:
		return FormatUnknown
	}
}

// Decode decodes an encoded image of any supported format.
//
// Arguments:
//   - data: The encoded image.
//
// Returns:
//   - image.Image: The decoded image.
//   - ImageFormat: The detected format.
//   - error: If the data is empty, of an unsupported format, or corrupt.
func Decode(data []byte) (image.Image, ImageFormat, error) {
	if len(data) == 0 {
		return nil, FormatUnknown, errors.New("empty image data")
	}

	format := DetectFormat(data)
	r := bytes.NewReader(data)

	var (
		img image.Image
		err error
	)
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(r)
	case FormatPNG:
		img, err = png.Decode(r)
	case FormatGIF:
		img, err = gif.Decode(r)
	case FormatWebP:
		img, err = webp.Decode(r)
	default:
		return nil, format, errors.New("unsupported image format")
	}
	if err != nil {
		return nil, format, errors.Wrapf(err, "failed to decode %s image", format)
	}
	return img, format, nil
}

// DecodeFile reads and decodes the image at path.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: A *common.ImageProcessingError if the file cannot be read or decoded.
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewImageProcessingError(err, "read image")
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, common.NewImageProcessingError(err, "cannot identify image file")
	}
	return img, nil
}

// ToRGBA converts img to RGBA with an alpha channel and its origin moved to (0, 0). The source is
// never modified.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
