package glrender

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Texture is a texture object uploaded to the device.
type Texture struct {
	dev    *Device
	name   uint32
	target TextureTarget
	width  int
	height int
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(rgba, image.Point{}, img, b, draw.Src, nil)
	return rgba
}

// NewTexture uploads img as a 2D texture.
func NewTexture(dev *Device, img image.Image) (*Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("empty texture image")
	}
	rgba := toRGBA(img)
	name, err := dev.gl.CreateTexture(Texture2D, b.Dx(), b.Dy(), [][]byte{rgba.Pix})
	if err != nil {
		return nil, err
	}
	return &Texture{dev: dev, name: name, target: Texture2D, width: b.Dx(), height: b.Dy()}, nil
}

// LoadTexture decodes the image file at path and uploads it as a 2D texture.
// Rows are flipped so the first row of the file ends up at v=1. When maxSize
// is positive images larger than maxSize in either dimension are scaled down
// preserving aspect ratio.
func LoadTexture(dev *Device, path string, maxSize int) (*Texture, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("loading texture: %w", err)
	}
	b := img.Bounds()
	if maxSize > 0 && (b.Dx() > maxSize || b.Dy() > maxSize) {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}
	return NewTexture(dev, imaging.FlipV(img))
}

// NewCubeTexture uploads the six square faces of a cube map in the order
// +X, -X, +Y, -Y, +Z, -Z.
func NewCubeTexture(dev *Device, faces [6]image.Image) (*Texture, error) {
	size := faces[0].Bounds().Size()
	if size.X != size.Y || size.X == 0 {
		return nil, fmt.Errorf("cube face must be square and non empty, got %v", size)
	}
	pix := make([][]byte, len(faces))
	for i, face := range faces {
		if face.Bounds().Size() != size {
			return nil, fmt.Errorf("cube face %d size %v differs from %v", i, face.Bounds().Size(), size)
		}
		pix[i] = toRGBA(face).Pix
	}
	name, err := dev.gl.CreateTexture(TextureCubeMap, size.X, size.Y, pix)
	if err != nil {
		return nil, err
	}
	return &Texture{dev: dev, name: name, target: TextureCubeMap, width: size.X, height: size.Y}, nil
}

// TextureName returns the texture object name.
func (t *Texture) TextureName() uint32 { return t.name }

// TextureTarget returns whether t is a 2D or cube map texture.
func (t *Texture) TextureTarget() TextureTarget { return t.target }

// Size returns the dimensions of the texture, of a single face for cube maps.
func (t *Texture) Size() (width, height int) { return t.width, t.height }

// Dispose queues deletion of the texture.
func (t *Texture) Dispose() {
	name := t.name
	t.dev.Invoke(func(gl GL) { gl.DeleteTexture(name) })
}
