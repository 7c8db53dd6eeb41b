package viewport

import "math"

// Default zoom range and step used by the zoom controls.
const (
	DefaultMinZoom  = 1.0
	DefaultMaxZoom  = 5.0
	DefaultZoomStep = 0.1
)

// Point is a position or offset in surface-local pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Distance returns the euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// ZoomState is the zoom factor and pan offset applied to the rendered frame.
// Pan is stored in surface-pixel space.
type ZoomState struct {
	Level float64 `json:"level"`
	Pan   Point   `json:"pan"`
}

// Transform is the 2D affine transform (scale then translate) handed to the
// rendering surface.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// Surface is the rendering surface the transform is applied to.
type Surface interface {
	// Size returns the current pixel width and height. Zero or negative
	// values mean the surface has not been measured yet.
	Size() (width, height float64)
	Apply(t Transform)
}

// Cursor is the pointer affordance shown over the surface.
type Cursor string

const (
	CursorAuto     Cursor = "auto"
	CursorGrab     Cursor = "grab"
	CursorGrabbing Cursor = "grabbing"
)

// Config bounds the zoom range. Zero fields fall back to the defaults.
type Config struct {
	MinZoom  float64
	MaxZoom  float64
	ZoomStep float64
}

func (c Config) withDefaults() Config {
	if c.MinZoom <= 0 {
		c.MinZoom = DefaultMinZoom
	}
	if c.MaxZoom <= 0 {
		c.MaxZoom = DefaultMaxZoom
	}
	if c.MaxZoom < c.MinZoom {
		c.MaxZoom = c.MinZoom
	}
	if c.ZoomStep <= 0 {
		c.ZoomStep = DefaultZoomStep
	}
	return c
}
