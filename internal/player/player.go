// Package player composes the viewport engine and the rendition controller
// around one scoped stream engine attachment.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"live-player/internal/engine"
	"live-player/internal/platform/metrics"
	"live-player/internal/rendition"
	"live-player/internal/viewport"
)

var (
	// ErrNoSource is returned by Load and Reload without a source URL.
	ErrNoSource = errors.New("no stream source")

	// ErrNoStream is returned by Play when no engine is attached.
	ErrNoStream = errors.New("no stream attached")

	// ErrClosed is returned by operations on a closed player.
	ErrClosed = errors.New("player closed")

	// ErrSuperseded is returned by Load when a newer load replaced it before
	// the attachment completed.
	ErrSuperseded = errors.New("load superseded")
)

// Playback is the coarse playback status.
type Playback string

const (
	PlaybackIdle    Playback = "idle"
	PlaybackPaused  Playback = "paused"
	PlaybackPlaying Playback = "playing"
)

// Config configures a Player.
type Config struct {
	Viewport viewport.Config
	// ControlsHideAfter hides the controls after this much inactivity.
	// Zero keeps them visible.
	ControlsHideAfter time.Duration
	Width             float64
	Height            float64
}

// Player is one viewer's player state. Every external event (client input,
// engine events, timers) is serialized behind mu so each runs to completion
// before the next.
type Player struct {
	mu        sync.Mutex
	log       *slog.Logger
	metrics   *metrics.Metrics
	newEngine engine.Factory

	frame    *Frame
	view     *viewport.Engine
	quality  *rendition.Controller
	controls *controls

	eng       engine.Engine
	gen       uint64
	source    string
	streamErr error

	playback   Playback
	fullscreen bool
	menuOpen   bool
	lastActive time.Time
	closed     bool
}

// New returns a Player with no stream attached. m may be nil.
func New(cfg Config, newEngine engine.Factory, log *slog.Logger, m *metrics.Metrics) *Player {
	if log == nil {
		log = slog.Default()
	}
	p := &Player{
		log:        log,
		metrics:    m,
		newEngine:  newEngine,
		frame:      NewFrame(cfg.Width, cfg.Height),
		controls:   newControls(cfg.ControlsHideAfter),
		playback:   PlaybackIdle,
		lastActive: time.Now(),
	}
	p.view = viewport.New(cfg.Viewport, p.frame)
	p.quality = rendition.NewController(rendition.SwitcherFunc(p.switchRenditionLocked), log)
	return p
}

// Load attaches a new stream engine for src. Any previous engine is
// destroyed first and the rendition state is reset. If the attachment fails
// the new engine is destroyed as well and the player stays usable in a
// degraded state with no renditions.
func (p *Player) Load(ctx context.Context, src string) error {
	if src == "" {
		return ErrNoSource
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.releaseLocked()
	p.quality.Reset()
	p.source = src
	p.streamErr = nil
	p.playback = PlaybackIdle
	p.menuOpen = false
	gen := p.gen
	p.touchLocked()
	p.mu.Unlock()

	eng := p.newEngine()
	kept := false
	defer func() {
		if !kept {
			eng.Destroy()
		}
	}()

	// Attach may block on the network; gestures stay responsive meanwhile.
	err := eng.Attach(ctx, src)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if gen != p.gen {
		return ErrSuperseded
	}
	if err != nil {
		p.streamErr = err
		p.log.Warn("stream attach failed",
			slog.String("source", src),
			slog.String("error", err.Error()))
		if p.metrics != nil {
			p.metrics.IncAttachFailures()
		}
		return fmt.Errorf("attach %s: %w", src, err)
	}

	kept = true
	p.eng = eng
	go p.pump(gen, eng.Events())
	p.log.Info("stream attached", slog.String("source", src))
	return nil
}

// Reload tears down and reattaches the current source.
func (p *Player) Reload(ctx context.Context) error {
	p.mu.Lock()
	src := p.source
	p.mu.Unlock()
	if src == "" {
		return ErrNoSource
	}
	return p.Load(ctx, src)
}

// Close releases the stream engine and stops the controls timer.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.releaseLocked()
	p.quality.Reset()
	p.controls.stop()
}

// pump delivers engine events for one attachment until its channel closes.
func (p *Player) pump(gen uint64, events <-chan engine.Event) {
	for ev := range events {
		p.handleEvent(gen, ev)
	}
}

func (p *Player) handleEvent(gen uint64, ev engine.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.closed {
		return
	}

	switch ev.Kind {
	case engine.RenditionsDiscovered:
		list := make([]rendition.Rendition, len(ev.Levels))
		for i, l := range ev.Levels {
			list[i] = rendition.Rendition{Index: i, Height: l.Height, Bitrate: l.Bitrate}
		}
		st := p.quality.Discover(list)
		p.log.Debug("renditions discovered", slog.Int("count", len(st.Renditions())))
	case engine.ActiveRenditionChanged:
		p.quality.ActiveChanged(ev.Index)
	case engine.MediaAttached:
		p.startPlaybackLocked()
	default:
		p.log.Debug("ignoring engine event", slog.String("kind", ev.Kind.String()))
	}
}

// startPlaybackLocked tries to play. A refusal (e.g. autoplay policy) is
// not fatal: the player stays paused until the user asks again.
func (p *Player) startPlaybackLocked() error {
	if p.eng == nil {
		return ErrNoStream
	}
	if err := p.eng.Play(); err != nil {
		p.playback = PlaybackPaused
		p.log.Warn("playback start was prevented",
			slog.String("source", p.source),
			slog.String("error", err.Error()))
		if p.metrics != nil {
			p.metrics.IncPlaybackBlocked()
		}
		return err
	}
	p.playback = PlaybackPlaying
	return nil
}

// Play starts playback on user request.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touchLocked()
	return p.startPlaybackLocked()
}

func (p *Player) switchRenditionLocked(index int) {
	if p.eng == nil {
		return
	}
	p.eng.SetRendition(index)
	if p.metrics != nil {
		p.metrics.IncRenditionSwitches(index == rendition.Auto)
	}
}

func (p *Player) releaseLocked() {
	p.gen++
	if p.eng != nil {
		p.eng.Destroy()
		p.eng = nil
	}
}

func (p *Player) touchLocked() {
	p.lastActive = time.Now()
}

// LastActive returns the time of the last client interaction.
func (p *Player) LastActive() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastActive
}

// SetZoom commits a zoom request from the zoom slider.
func (p *Player) SetZoom(level float64) viewport.ZoomState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	return p.view.SetZoom(level)
}

// ZoomIn raises the zoom by one step.
func (p *Player) ZoomIn() viewport.ZoomState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	return p.view.ZoomIn()
}

// ZoomOut lowers the zoom by one step.
func (p *Player) ZoomOut() viewport.ZoomState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	return p.view.ZoomOut()
}

// ResetZoom returns to level 1.
func (p *Player) ResetZoom() viewport.ZoomState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	return p.view.ResetZoom()
}

// Resize records the surface's measured size.
func (p *Player) Resize(width, height float64) viewport.ZoomState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touchLocked()
	p.frame.SetSize(width, height)
	return p.view.Resize()
}

// PointerDown starts a mouse drag.
func (p *Player) PointerDown(pt viewport.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	p.view.BeginPan(pt)
}

// PointerMove continues a mouse drag.
func (p *Player) PointerMove(pt viewport.Point) viewport.ZoomState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	p.view.MovePan(pt)
	return p.view.State()
}

// PointerUp ends a mouse drag. Leaving the surface is treated the same.
func (p *Player) PointerUp() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touchLocked()
	p.view.EndPan()
}

// TouchStart begins a one-finger pan (only when zoomed) or a two-finger
// pinch. Other touch counts are ignored.
func (p *Player) TouchStart(touches []viewport.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	switch len(touches) {
	case 1:
		if p.view.IsZoomed() {
			p.view.EndPinch()
			p.view.BeginPan(touches[0])
		}
	case 2:
		p.view.BeginPinch(touches[0], touches[1])
	}
}

// TouchMove pans or pinch-zooms depending on the open gesture.
func (p *Player) TouchMove(touches []viewport.Point) viewport.ZoomState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	switch {
	case len(touches) == 1 && p.view.Panning():
		p.view.MovePan(touches[0])
	case len(touches) == 2 && p.view.Pinching():
		if z, ok := p.view.MovePinch(touches[0], touches[1]); ok {
			p.view.SetZoom(z)
		}
	}
	return p.view.State()
}

// TouchEnd closes any open gesture. A finger left on the surface after a
// pinch does not start a pan; a fresh TouchStart is required.
func (p *Player) TouchEnd(remaining int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touchLocked()
	p.view.EndPinch()
	p.view.EndPan()
}

// SelectRendition applies the user's quality choice and closes the menu.
func (p *Player) SelectRendition(index int) (rendition.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	st, err := p.quality.Select(index)
	if err != nil {
		return st, err
	}
	p.menuOpen = false
	return st, nil
}

// ToggleQualityMenu opens or closes the quality menu. The menu stays closed
// while no renditions are known.
func (p *Player) ToggleQualityMenu() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	if len(p.quality.State().Renditions()) == 0 {
		p.menuOpen = false
		return false
	}
	p.menuOpen = !p.menuOpen
	return p.menuOpen
}

// SetFullscreen mirrors the platform's fullscreen state.
func (p *Player) SetFullscreen(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
	p.fullscreen = active
}

// Activity shows the controls and restarts the hide timer.
func (p *Player) Activity() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interactLocked()
}

func (p *Player) interactLocked() {
	p.touchLocked()
	p.controls.activity()
}
