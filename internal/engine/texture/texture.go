// Package texture provides image decoding and texture processing utilities.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// ErrUnknownFormat is returned for data no decoder accepts.
var ErrUnknownFormat = errors.New("texture: unknown image format")

// Format identifies an image encoding.
type Format string

// Supported formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatWebP Format = "webp"
	FormatTGA  Format = "tga"
)

// Extensions lists the file extensions Load accepts, in lookup order.
var Extensions = []string{".png", ".jpg", ".jpeg", ".tga", ".bmp", ".webp", ".gif"}

// Sniff detects the format of data from its magic bytes. TGA has no
// signature, so hint (a file extension or MIME type) is used as a fallback.
func Sniff(data []byte, hint string) (Format, error) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG, nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG, nil
	case bytes.HasPrefix(data, []byte("GIF8")):
		return FormatGIF, nil
	case bytes.HasPrefix(data, []byte("BM")):
		return FormatBMP, nil
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP, nil
	}

	hint = strings.ToLower(hint)
	if strings.HasSuffix(hint, ".tga") || strings.HasSuffix(hint, "tga") {
		return FormatTGA, nil
	}
	return "", ErrUnknownFormat
}

// Decode decodes an image of any supported format into RGBA.
func Decode(data []byte, hint string) (*image.RGBA, error) {
	format, err := Sniff(data, hint)
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(data)
	var img image.Image
	switch format {
	case FormatPNG:
		img, err = png.Decode(r)
	case FormatJPEG:
		img, err = jpeg.Decode(r)
	case FormatGIF:
		img, err = gif.Decode(r)
	case FormatBMP:
		img, err = bmp.Decode(r)
	case FormatWebP:
		img, err = webp.Decode(r)
	case FormatTGA:
		img, err = tga.Decode(r)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	return ToRGBA(img), nil
}

// Load reads and decodes an image file.
func Load(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// ToRGBA converts any image.Image to *image.RGBA with its origin at (0,0).
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && bounds.Min == (image.Point{}) {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// Resize scales img to w x h with bilinear filtering.
func Resize(img *image.RGBA, w, h int) *image.RGBA {
	if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// FlipVertical mirrors img top to bottom in place.
func FlipVertical(img *image.RGBA) {
	h := img.Bounds().Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}
