// Package engine defines the stream engine the player drives and an HLS
// implementation of it.
package engine

import (
	"context"
	"errors"
)

// Auto asks the engine to choose the rendition itself.
const Auto = -1

var (
	// ErrDestroyed is returned by operations on a destroyed engine.
	ErrDestroyed = errors.New("engine destroyed")

	// ErrNotAttached is returned by Play before a source is attached.
	ErrNotAttached = errors.New("engine not attached")

	// ErrPlaybackBlocked is returned by Play when the platform refuses to
	// start playback without a user gesture.
	ErrPlaybackBlocked = errors.New("playback blocked")
)

// EventKind identifies an engine event.
type EventKind int

const (
	// MediaAttached fires once the source is bound to the surface.
	MediaAttached EventKind = iota + 1
	// RenditionsDiscovered fires once after the manifest is parsed.
	RenditionsDiscovered
	// ActiveRenditionChanged fires whenever the playing rendition switches.
	ActiveRenditionChanged
)

func (k EventKind) String() string {
	switch k {
	case MediaAttached:
		return "media_attached"
	case RenditionsDiscovered:
		return "renditions_discovered"
	case ActiveRenditionChanged:
		return "active_rendition_changed"
	default:
		return "unknown"
	}
}

// Level is a rendition as the engine sees it. Its index is its position in
// the discovered list.
type Level struct {
	Height  int
	Bitrate int
}

// Event is a notification from the engine. Levels is set for
// RenditionsDiscovered, Index for ActiveRenditionChanged.
type Event struct {
	Kind   EventKind
	Levels []Level
	Index  int
}

// Engine is one stream attachment. It is acquired by Attach and must be
// released with Destroy, which also closes the Events channel.
type Engine interface {
	Attach(ctx context.Context, sourceURL string) error
	Events() <-chan Event
	SetRendition(index int)
	Play() error
	Destroy()
}

// Factory creates a fresh, unattached engine.
type Factory func() Engine
