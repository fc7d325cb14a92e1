package glrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glshade/gleval"
	"github.com/soypat/glshade/glexpr"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// PreviewRenderer shades a unit sphere on the host, seen along -Z from Camera,
// to preview lights and materials without a graphics context.
type PreviewRenderer struct {
	Camera     ms3.Vec
	Background color.Color
	surfs      []gleval.Surface
	colors     []glexpr.Vec4
	hit        []bool
}

// NewPreviewRenderer instances a [PreviewRenderer] shading up to evalBufferSize
// pixels per evaluation batch.
func NewPreviewRenderer(evalBufferSize int) (*PreviewRenderer, error) {
	if evalBufferSize <= 64 {
		return nil, errors.New("too small evaluation buffer size")
	}
	return &PreviewRenderer{
		Camera:     ms3.Vec{Z: 3},
		Background: color.Black,
		surfs:      make([]gleval.Surface, evalBufferSize),
		colors:     make([]glexpr.Vec4, evalBufferSize),
		hit:        make([]bool, evalBufferSize),
	}, nil
}

// Render shades sh onto img one row at a time.
func (pr *PreviewRenderer) Render(sh *gleval.Shader, img setImage) error {
	imgBB := img.Bounds()
	dxi, dyi := imgBB.Dx(), imgBB.Dy()
	if len(pr.surfs) < dxi {
		return fmt.Errorf("require evaluation buffer (%d) to be at least of length of image rows (%d)", len(pr.surfs), dxi)
	}
	// Map the image onto [-1,1] keeping the sphere round.
	scale := 2 / float32(min(dxi, dyi))
	for j := 0; j < dyi; j++ {
		y := (float32(dyi)/2 - float32(j) - 0.5) * scale
		err := pr.renderRow(sh, j, y, scale, imgBB, img)
		if err != nil {
			return err
		}
	}
	return nil
}

func (pr *PreviewRenderer) renderRow(sh *gleval.Shader, row int, y, scale float32, imgBB image.Rectangle, img setImage) error {
	dxi := imgBB.Dx()
	n := 0
	for i := 0; i < dxi; i++ {
		x := (float32(i) - float32(dxi)/2 + 0.5) * scale
		r2 := x*x + y*y
		pr.hit[i] = r2 <= 1
		if !pr.hit[i] {
			continue
		}
		p := ms3.Vec{X: x, Y: y, Z: math32.Sqrt(1 - r2)}
		pr.surfs[n] = gleval.Surface{
			Position:  p,
			Normal:    p,
			TextureUv: ms2.Vec{X: 0.5 + math32.Atan2(p.X, p.Z)/(2*math32.Pi), Y: 0.5 + math32.Asin(p.Y)/math32.Pi},
			Camera:    pr.Camera,
		}
		n++
	}
	if n > 0 {
		err := sh.Evaluate(pr.surfs[:n], pr.colors[:n])
		if err != nil {
			return err
		}
	}
	k := 0
	for i := 0; i < dxi; i++ {
		var c color.Color = pr.Background
		if pr.hit[i] {
			c = toNRGBA(pr.colors[k])
			k++
		}
		img.Set(i+imgBB.Min.X, row+imgBB.Min.Y, c)
	}
	return nil
}

func toNRGBA(v glexpr.Vec4) color.NRGBA {
	conv := func(f float32) uint8 {
		switch {
		case math32.IsNaN(f) || f <= 0:
			return 0
		case f >= 1:
			return 255
		}
		return uint8(f*255 + 0.5)
	}
	return color.NRGBA{R: conv(v.X), G: conv(v.Y), B: conv(v.Z), A: conv(v.W)}
}
