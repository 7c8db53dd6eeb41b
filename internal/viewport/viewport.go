// Package viewport converts pointer and touch gestures into the clamped
// scale and pan applied to the rendered video frame.
package viewport

import (
	"fmt"
	"math"
)

// Engine owns the zoom level, the pan offset and the open gesture session.
// It is not safe for concurrent use; callers serialize events.
type Engine struct {
	cfg     Config
	surface Surface
	state   ZoomState
	session gesture
}

// New returns an Engine at rest zoom (level 1, pan origin) clamped into
// cfg's range. surface may be nil, in which case pan is never allowed.
func New(cfg Config, surface Surface) *Engine {
	e := &Engine{cfg: cfg.withDefaults(), surface: surface}
	e.state.Level = clamp(1, e.cfg.MinZoom, e.cfg.MaxZoom)
	e.apply()
	return e
}

// State returns the current zoom state.
func (e *Engine) State() ZoomState {
	return e.state
}

// Config returns the effective zoom range.
func (e *Engine) Config() Config {
	return e.cfg
}

// Transform returns the transform matching the current state.
func (e *Engine) Transform() Transform {
	return Transform{Scale: e.state.Level, TranslateX: e.state.Pan.X, TranslateY: e.state.Pan.Y}
}

// SetZoom clamps requested into [MinZoom, MaxZoom] and commits it. At or
// below level 1 the pan is reset to the origin, otherwise the existing pan is
// re-clamped against the new level's bounds. NaN requests are ignored.
func (e *Engine) SetZoom(requested float64) ZoomState {
	if math.IsNaN(requested) {
		return e.state
	}
	e.state.Level = clamp(requested, e.cfg.MinZoom, e.cfg.MaxZoom)
	if e.state.Level <= 1 {
		e.state.Pan = Point{}
		// A pan session at rest zoom would only produce jitter.
		if _, ok := e.session.(panSession); ok {
			e.session = nil
		}
	} else {
		e.state.Pan = e.clampPan(e.state.Pan)
	}
	e.apply()
	return e.state
}

// ZoomIn raises the level by one step.
func (e *Engine) ZoomIn() ZoomState {
	return e.SetZoom(e.state.Level + e.cfg.ZoomStep)
}

// ZoomOut lowers the level by one step.
func (e *Engine) ZoomOut() ZoomState {
	return e.SetZoom(e.state.Level - e.cfg.ZoomStep)
}

// ResetZoom returns to level 1.
func (e *Engine) ResetZoom() ZoomState {
	return e.SetZoom(1)
}

// CanZoomIn reports whether the level is below MaxZoom.
func (e *Engine) CanZoomIn() bool {
	return e.state.Level < e.cfg.MaxZoom
}

// CanZoomOut reports whether the level is above MinZoom.
func (e *Engine) CanZoomOut() bool {
	return e.state.Level > e.cfg.MinZoom
}

// IsZoomed reports whether panning is enabled.
func (e *Engine) IsZoomed() bool {
	return e.state.Level > 1
}

// Label formats the level for display, e.g. "2.5x".
func (e *Engine) Label() string {
	return fmt.Sprintf("%.1fx", e.state.Level)
}

// Cursor returns the pointer affordance for the current state.
func (e *Engine) Cursor() Cursor {
	if e.Panning() {
		return CursorGrabbing
	}
	if e.IsZoomed() {
		return CursorGrab
	}
	return CursorAuto
}

// Panning reports whether a pan session is open.
func (e *Engine) Panning() bool {
	_, ok := e.session.(panSession)
	return ok
}

// Pinching reports whether a pinch session is open.
func (e *Engine) Pinching() bool {
	_, ok := e.session.(pinchSession)
	return ok
}

// Resize re-clamps the pan after the surface dimensions changed.
func (e *Engine) Resize() ZoomState {
	e.state.Pan = e.clampPan(e.state.Pan)
	e.apply()
	return e.state
}

// BeginPan opens a pan session at pointer. It is a no-op at rest zoom.
// An open pinch session is closed first.
func (e *Engine) BeginPan(pointer Point) {
	if !e.IsZoomed() {
		return
	}
	e.session = panSession{origin: pointer, basePan: e.state.Pan}
}

// MovePan moves the pan by the pointer's displacement since BeginPan,
// clamped per axis. ok is false when no pan session is open.
func (e *Engine) MovePan(pointer Point) (pan Point, ok bool) {
	s, open := e.session.(panSession)
	if !open {
		return e.state.Pan, false
	}
	candidate := s.basePan.Add(pointer.Sub(s.origin))
	e.state.Pan = e.clampPan(candidate)
	e.apply()
	return e.state.Pan, true
}

// EndPan closes the pan session, if any.
func (e *Engine) EndPan() {
	if _, ok := e.session.(panSession); ok {
		e.session = nil
	}
}

// BeginPinch opens a pinch session from two touch points. An open pan
// session is closed first.
func (e *Engine) BeginPinch(a, b Point) {
	e.session = pinchSession{baseDistance: Distance(a, b), baseZoom: e.state.Level}
}

// MovePinch returns the zoom requested by the current touch points:
// baseZoom scaled by the ratio of current to initial finger distance. The
// result is not committed; feed it to SetZoom. ok is false when no pinch
// session is open.
func (e *Engine) MovePinch(a, b Point) (requested float64, ok bool) {
	s, open := e.session.(pinchSession)
	if !open {
		return e.state.Level, false
	}
	if s.baseDistance <= 0 {
		return s.baseZoom, true
	}
	return s.baseZoom * (Distance(a, b) / s.baseDistance), true
}

// EndPinch closes the pinch session, if any.
func (e *Engine) EndPinch() {
	if _, ok := e.session.(pinchSession); ok {
		e.session = nil
	}
}

// MaxPan returns the largest pan magnitude allowed along each axis at level
// z: (size·z − size)/2. Unmeasured axes allow no pan.
func (e *Engine) MaxPan(z float64) Point {
	var w, h float64
	if e.surface != nil {
		w, h = e.surface.Size()
	}
	if w <= 0 || h <= 0 {
		return Point{}
	}
	return Point{X: axisBound(w, z), Y: axisBound(h, z)}
}

func (e *Engine) clampPan(p Point) Point {
	if !e.IsZoomed() {
		return Point{}
	}
	bound := e.MaxPan(e.state.Level)
	return Point{
		X: clamp(p.X, -bound.X, bound.X),
		Y: clamp(p.Y, -bound.Y, bound.Y),
	}
}

func (e *Engine) apply() {
	if e.surface != nil {
		e.surface.Apply(e.Transform())
	}
}

func axisBound(size, z float64) float64 {
	if z <= 1 {
		return 0
	}
	return (size*z - size) / 2
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
