package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// tgaRGB builds an uncompressed top-to-bottom 24-bit TGA.
func tgaRGB(w, h int, px []color.RGBA) []byte {
	data := make([]byte, 18)
	data[2] = 2
	data[12], data[13] = byte(w), byte(w>>8)
	data[14], data[15] = byte(h), byte(h>>8)
	data[16] = 24
	data[17] = 0x20
	for _, c := range px {
		data = append(data, c.B, c.G, c.R)
	}
	data = append(data, make([]byte, 8)...)
	return append(data, "TRUEVISION-XFILE.\x00"...)
}

func TestSniff(t *testing.T) {
	var bmpBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, checker(2, 2)))

	tests := []struct {
		name string
		data []byte
		hint string
		want Format
	}{
		{"png", encodePNG(t, checker(2, 2)), "", FormatPNG},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "", FormatJPEG},
		{"gif", []byte("GIF89a"), "", FormatGIF},
		{"bmp", bmpBuf.Bytes(), "", FormatBMP},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "", FormatWebP},
		{"tga by extension", []byte{0, 0, 2}, ".TGA", FormatTGA},
		{"tga by mime", []byte{0, 0, 2}, "image/x-tga", FormatTGA},
		{"magic wins over hint", encodePNG(t, checker(1, 1)), ".tga", FormatPNG},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sniff(tt.data, tt.hint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Sniff([]byte("nope"), ".txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecodePNG(t *testing.T) {
	img, err := Decode(encodePNG(t, checker(3, 2)), "")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(1, 0))
}

func TestDecodeBMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, checker(2, 2)))

	img, err := Decode(buf.Bytes(), ".bmp")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, img.RGBAAt(0, 1))
}

func TestDecodeTGA(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 200, A: 255}
	img, err := Decode(tgaRGB(2, 1, []color.RGBA{red, green}), "face.tga")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
	assert.Equal(t, red, img.RGBAAt(0, 0))
	assert.Equal(t, green, img.RGBAAt(1, 0))
}

func TestDecodeCorrupt(t *testing.T) {
	data := encodePNG(t, checker(4, 4))
	_, err := Decode(data[:20], "")
	assert.Error(t, err)
}

func TestToRGBAResetsOrigin(t *testing.T) {
	src := checker(4, 4).SubImage(image.Rect(1, 1, 3, 3))
	img := ToRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(0, 0))

	same := checker(2, 2)
	assert.Same(t, same, ToRGBA(same))
}

func TestResizeAndFlip(t *testing.T) {
	img := checker(2, 2)
	assert.Same(t, img, Resize(img, 2, 2))
	assert.Equal(t, image.Rect(0, 0, 8, 4), Resize(img, 8, 4).Bounds())

	tall := image.NewRGBA(image.Rect(0, 0, 1, 3))
	tall.SetRGBA(0, 0, color.RGBA{R: 1, A: 255})
	tall.SetRGBA(0, 2, color.RGBA{R: 3, A: 255})
	FlipVertical(tall)
	assert.Equal(t, uint8(3), tall.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(1), tall.RGBAAt(0, 2).R)
}

func TestLoadCube(t *testing.T) {
	dir := t.TempDir()
	for i, face := range CubeFaces {
		size := 4
		if i == 3 {
			size = 2
		}
		path := filepath.Join(dir, face+".png")
		require.NoError(t, os.WriteFile(path, encodePNG(t, checker(size, size)), 0644))
	}

	cube, err := LoadCube(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, cube.Size)
	for i, face := range cube.Faces {
		assert.Equal(t, image.Rect(0, 0, 4, 4), face.Bounds(), CubeFaces[i])
	}
}

func TestLoadCubeMissingFace(t *testing.T) {
	dir := t.TempDir()
	for _, face := range CubeFaces[:5] {
		path := filepath.Join(dir, face+".png")
		require.NoError(t, os.WriteFile(path, encodePNG(t, checker(1, 1)), 0644))
	}

	_, err := LoadCube(dir)
	assert.ErrorIs(t, err, ErrMissingFace)
}

func TestFindFacePrefersPNG(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.jpg"), []byte{0xFF, 0xD8, 0xFF}, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.png"), encodePNG(t, checker(1, 1)), 0644))

	path, err := FindFace(dir, "top")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "top.png"), path)
}
