package player

import (
	"live-player/internal/rendition"
	"live-player/internal/viewport"
)

// ZoomView is the zoom control state.
type ZoomView struct {
	Level      float64        `json:"level"`
	Label      string         `json:"label"`
	Pan        viewport.Point `json:"pan"`
	Min        float64        `json:"min"`
	Max        float64        `json:"max"`
	Step       float64        `json:"step"`
	CanZoomIn  bool           `json:"can_zoom_in"`
	CanZoomOut bool           `json:"can_zoom_out"`
	CanReset   bool           `json:"can_reset"`
}

// QualityView is the quality selector state.
type QualityView struct {
	Phase     rendition.Phase      `json:"phase"`
	Requested int                  `json:"requested"`
	Label     string               `json:"label"`
	Active    *rendition.Rendition `json:"active,omitempty"`
	Options   []rendition.Option   `json:"options"`
	Enabled   bool                 `json:"enabled"`
	MenuOpen  bool                 `json:"menu_open"`
}

// Snapshot is everything a client needs to render the player.
type Snapshot struct {
	Source          string             `json:"source"`
	Zoom            ZoomView           `json:"zoom"`
	Transform       viewport.Transform `json:"transform"`
	Cursor          viewport.Cursor    `json:"cursor"`
	Quality         QualityView        `json:"quality"`
	Fullscreen      bool               `json:"fullscreen"`
	ControlsVisible bool               `json:"controls_visible"`
	Playback        Playback           `json:"playback"`
	StreamError     string             `json:"stream_error,omitempty"`
}

// Snapshot returns the current render state.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	zs := p.view.State()
	cfg := p.view.Config()
	q := p.quality.State()

	snap := Snapshot{
		Source: p.source,
		Zoom: ZoomView{
			Level:      zs.Level,
			Label:      p.view.Label(),
			Pan:        zs.Pan,
			Min:        cfg.MinZoom,
			Max:        cfg.MaxZoom,
			Step:       cfg.ZoomStep,
			CanZoomIn:  p.view.CanZoomIn(),
			CanZoomOut: p.view.CanZoomOut(),
			CanReset:   zs.Level != 1,
		},
		Transform: p.frame.Transform(),
		Cursor:    p.view.Cursor(),
		Quality: QualityView{
			Phase:     q.Phase(),
			Requested: q.Requested(),
			Label:     q.Label(),
			Options:   q.Options(),
			Enabled:   len(q.Renditions()) > 0,
			MenuOpen:  p.menuOpen,
		},
		Fullscreen:      p.fullscreen,
		ControlsVisible: p.controls.isVisible(),
		Playback:        p.playback,
	}
	if r, ok := q.Active(); ok {
		snap.Quality.Active = &r
	}
	if p.streamErr != nil {
		snap.StreamError = p.streamErr.Error()
	}
	return snap
}
