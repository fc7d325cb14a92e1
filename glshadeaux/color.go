package glshadeaux

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/glshade/glexpr"
)

// Color conversions adapted from Esme Lamb's (@dedelala) color manipulation
// work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

// ColorVec converts c to the [0,1] RGB components materials and lights take.
func ColorVec(c color.Color) ms3.Vec {
	v := ColorVec4(c)
	return ms3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// ColorVec4 converts c to non premultiplied [0,1] RGBA components.
func ColorVec4(c color.Color) glexpr.Vec4 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return glexpr.Vec4{
		X: float32(n.R) / math.MaxUint8,
		Y: float32(n.G) / math.MaxUint8,
		Z: float32(n.B) / math.MaxUint8,
		W: float32(n.A) / math.MaxUint8,
	}
}

// Palette returns n colors going from c0 to c1 through the hue circle the short way.
// It is handy to tell materials apart.
func Palette(n int, c0, c1 color.Color) []ms3.Vec {
	if n <= 0 {
		return nil
	}
	a, b := ColorVec(c0), ColorVec(c1)
	h0, s0, v0 := rgbToHSV(a.X, a.Y, a.Z)
	h1, s1, v1 := rgbToHSV(b.X, b.Y, b.Z)
	colors := make([]ms3.Vec, n)
	for i := range colors {
		var t float32
		if n > 1 {
			t = float32(i) / float32(n-1)
		}
		r, g, b := hsvToRGB(interpHSV(h0, s0, v0, h1, s1, v1, t))
		colors[i] = ms3.Vec{X: ms1.Clamp(r, 0, 1), Y: ms1.Clamp(g, 0, 1), Z: ms1.Clamp(b, 0, 1)}
	}
	return colors
}

func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	switch {
	case h1-h0 > 0.5:
		h0 += 1.0
	case h1-h0 < -0.5:
		h1 += 1.0
	}
	h = ms1.Interp(h0, h1, t)
	if h > 1 {
		h -= 1
	}
	s = ms1.Interp(s0, s1, t)
	v = ms1.Interp(v0, v1, t)
	return h, s, v
}

// hsvToRGB converts hue, saturation and brightness in [0,1] to RGB in [0,1].
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	var (
		c = s * v
		x = c * (1 - math.Abs(math.Mod(h*6, 2)-1))
		m = v - c
	)
	switch {
	case h <= 1.0/6:
		r, g, b = c, x, 0
	case h <= 2.0/6:
		r, g, b = x, c, 0
	case h <= 3.0/6:
		r, g, b = 0, c, x
	case h <= 4.0/6:
		r, g, b = 0, x, c
	case h <= 5.0/6:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

func rgbToHSV(r, g, b float32) (h, s, v float32) {
	var (
		xmax = max(r, g, b)
		xmin = min(r, g, b)
		c    = xmax - xmin
	)
	v = xmax
	switch {
	case c == 0:
		h = 0
	case v == r:
		h = (g - b) / (c * 6)
	case v == g:
		h = 1.0/3 + (b-r)/(c*6)
	case v == b:
		h = 2.0/3 + (r-g)/(c*6)
	}
	if h < 0 {
		h += 1
	}
	if xmax > 0 {
		s = c / xmax
	}
	return h, s, v
}
