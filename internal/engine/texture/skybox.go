package texture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/skinview/internal/logger"
)

// ErrMissingFace is returned when a skybox directory lacks a face image.
var ErrMissingFace = errors.New("texture: skybox face not found")

// CubeFaces names the six skybox images in GL cube map order
// (+X, -X, +Y, -Y, +Z, -Z).
var CubeFaces = [6]string{"right", "left", "top", "bottom", "front", "back"}

// Cube holds six square faces of equal size.
type Cube struct {
	Faces [6]*image.RGBA
	Size  int
}

// FindFace returns the path of the image named face in dir, trying each of
// Extensions in order.
func FindFace(dir, face string) (string, error) {
	for _, ext := range Extensions {
		path := filepath.Join(dir, face+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s in %s: %w", face, dir, ErrMissingFace)
}

// LoadCube loads the six faces of a skybox from dir. Faces that are not
// square or differ in size from the first face are resampled to match it.
func LoadCube(dir string) (*Cube, error) {
	cube := &Cube{}
	for i, face := range CubeFaces {
		path, err := FindFace(dir, face)
		if err != nil {
			return nil, err
		}
		img, err := Load(path)
		if err != nil {
			return nil, err
		}
		cube.Faces[i] = img
	}

	first := cube.Faces[0].Bounds()
	cube.Size = max(first.Dx(), first.Dy())
	for i, img := range cube.Faces {
		b := img.Bounds()
		if b.Dx() != cube.Size || b.Dy() != cube.Size {
			logger.Warn("resampling skybox face",
				zap.String("face", CubeFaces[i]),
				zap.Int("width", b.Dx()),
				zap.Int("height", b.Dy()),
				zap.Int("size", cube.Size))
			cube.Faces[i] = Resize(img, cube.Size, cube.Size)
		}
	}

	logger.Info("skybox loaded", zap.String("dir", dir), zap.Int("size", cube.Size))
	return cube, nil
}
