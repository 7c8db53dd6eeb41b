package player

import "live-player/internal/viewport"

// Frame is the rendering surface as reported by the client: its measured
// size and the last transform pushed to it.
type Frame struct {
	width, height float64
	transform     viewport.Transform
}

// NewFrame returns a frame of the given size. Zero means not yet measured.
func NewFrame(width, height float64) *Frame {
	return &Frame{width: width, height: height, transform: viewport.Transform{Scale: 1}}
}

// Size implements viewport.Surface.
func (f *Frame) Size() (float64, float64) {
	return f.width, f.height
}

// Apply implements viewport.Surface.
func (f *Frame) Apply(t viewport.Transform) {
	f.transform = t
}

// SetSize records a new measured size.
func (f *Frame) SetSize(width, height float64) {
	f.width, f.height = width, height
}

// Transform returns the last applied transform.
func (f *Frame) Transform() viewport.Transform {
	return f.transform
}
