package glshadeaux

import (
	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

// Matrices built here follow the row vector convention of the generated vertex
// shader, p' = p * M, and are laid out row major.

// OrbitCamera looks at Target from Distance away, rotated by Yaw around the
// vertical axis and Pitch above the horizon. It implements glrender.Camera.
type OrbitCamera struct {
	Target   ms3.Vec
	Yaw      float32
	Pitch    float32
	Distance float32
	// FieldOfView is the vertical field of view in radians.
	FieldOfView float32
	Near, Far   float32
	MinDistance float32
	MaxDistance float32
}

// NewOrbitCamera returns a camera at distance looking at the origin.
func NewOrbitCamera(distance float32) *OrbitCamera {
	return &OrbitCamera{
		Distance:    distance,
		FieldOfView: math.Pi / 3,
		Near:        distance * 0.01,
		Far:         distance * 100,
		MinDistance: distance * 1e-5,
		MaxDistance: distance * 10,
	}
}

const maxPitch = math.Pi/2 - 0.01

// Orbit rotates the camera by the cursor displacement in pixels.
func (c *OrbitCamera) Orbit(dx, dy float32) {
	const sensitivity = 0.005
	c.Yaw += dx * sensitivity
	c.Pitch = ms1.Clamp(c.Pitch-dy*sensitivity, -maxPitch, maxPitch)
}

// Zoom moves the camera closer for positive scroll offsets.
func (c *OrbitCamera) Zoom(offset float32) {
	c.Distance -= offset * (c.Distance*.1 + .01)
	c.Distance = ms1.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// Position returns the camera position in world coordinates.
func (c *OrbitCamera) Position() ms3.Vec {
	sy, cy := math.Sincos(c.Yaw)
	sp, cp := math.Sincos(c.Pitch)
	dir := ms3.Vec{X: cp * sy, Y: sp, Z: cp * cy}
	return ms3.Add(c.Target, ms3.Scale(c.Distance, dir))
}

// View returns the world to camera transform.
func (c *OrbitCamera) View() ms3.Mat4 {
	eye := c.Position()
	z := ms3.Unit(ms3.Sub(eye, c.Target))
	x := ms3.Unit(cross(ms3.Vec{Y: 1}, z))
	y := cross(z, x)
	return ms3.NewMat4([]float32{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		-ms3.Dot(x, eye), -ms3.Dot(y, eye), -ms3.Dot(z, eye), 1,
	})
}

// Projection returns the perspective projection for the viewport aspect ratio.
func (c *OrbitCamera) Projection(aspect float32) ms3.Mat4 {
	f := 1 / math.Tan(c.FieldOfView/2)
	n, fr := c.Near, c.Far
	return ms3.NewMat4([]float32{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (fr + n) / (n - fr), -1,
		0, 0, 2 * fr * n / (n - fr), 0,
	})
}

// ModelMatrix scales by scale, rotates by yaw radians around the vertical axis
// and then translates by offset.
func ModelMatrix(scale, yaw float32, offset ms3.Vec) ms3.Mat4 {
	s, c := math.Sincos(yaw)
	return ms3.NewMat4([]float32{
		scale * c, 0, -scale * s, 0,
		0, scale, 0, 0,
		scale * s, 0, scale * c, 0,
		offset.X, offset.Y, offset.Z, 1,
	})
}

func cross(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}
