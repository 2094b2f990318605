package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Projection uint8

const (
	ProjectionPerspective Projection = iota
	ProjectionOrthographic
)

func (p Projection) String() string {
	switch p {
	case ProjectionPerspective:
		return "perspective"
	case ProjectionOrthographic:
		return "orthographic"
	default:
		return "unknown"
	}
}

// Camera holds projection parameters and the matrix derived from them.
// Clip space is left-handed with depth in [0, 1].
type Camera struct {
	projection Projection
	fov        float32 // vertical, degrees
	size       float32 // orthographic half height
	near, far  float32
	aspect     float32
	matrix     mgl32.Mat4
}

// NewPerspectiveCamera builds a camera with a vertical field of view in degrees.
func NewPerspectiveCamera(fovDegrees, near, far float32) Camera {
	c := Camera{projection: ProjectionPerspective, fov: fovDegrees, near: near, far: far, aspect: 1}
	c.recalculate()
	return c
}

// NewOrthographicCamera builds a camera showing size units above and below
// the view axis.
func NewOrthographicCamera(size, near, far float32) Camera {
	c := Camera{projection: ProjectionOrthographic, size: size, near: near, far: far, aspect: 1}
	c.recalculate()
	return c
}

func (c *Camera) Projection() Projection { return c.projection }
func (c *Camera) Aspect() float32        { return c.aspect }
func (c *Camera) Matrix() mgl32.Mat4     { return c.matrix }

// SetViewportSize updates the aspect ratio. A zero-area viewport is ignored.
func (c *Camera) SetViewportSize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
	c.recalculate()
}

func (c *Camera) recalculate() {
	switch c.projection {
	case ProjectionOrthographic:
		w := c.size * c.aspect
		c.matrix = MakeOrthographic(-w, w, -c.size, c.size, c.near, c.far)
	default:
		c.matrix = MakePerspective(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far)
	}
}

// MakePerspective returns a left-handed perspective projection mapping view
// depth [near, far] to [0, 1]. fov is the vertical field of view in radians.
func MakePerspective(fov, aspect, near, far float32) mgl32.Mat4 {
	y := float32(1 / math.Tan(float64(fov)*0.5))
	x := y / aspect
	z := far / (far - near)

	var m mgl32.Mat4
	m.Set(0, 0, x)
	m.Set(1, 1, y)
	m.Set(2, 2, z)
	m.Set(2, 3, -near*z)
	m.Set(3, 2, 1)
	return m
}

// MakeOrthographic returns a left-handed orthographic projection mapping the
// box to x, y in [-1, 1] and z in [0, 1].
func MakeOrthographic(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	m := mgl32.Ident4()
	m.Set(0, 0, 2/(right-left))
	m.Set(0, 3, (left+right)/(left-right))
	m.Set(1, 1, 2/(top-bottom))
	m.Set(1, 3, (bottom+top)/(bottom-top))
	m.Set(2, 2, 1/(far-near))
	m.Set(2, 3, near/(near-far))
	return m
}
