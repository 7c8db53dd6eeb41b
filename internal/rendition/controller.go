// Package rendition tracks the available quality variants of a stream, the
// user's choice between them and the variant actually playing.
package rendition

import (
	"log/slog"
)

// Switcher receives the rendition command. Auto means the engine decides.
type Switcher interface {
	SetRendition(index int)
}

// SwitcherFunc adapts a function to Switcher.
type SwitcherFunc func(index int)

// SetRendition implements Switcher.
func (f SwitcherFunc) SetRendition(index int) { f(index) }

// Controller mediates between user intent and the stream engine. It holds
// the current State and sends exactly one command to the switcher each time
// the requested selection changes. Commands are fire-and-forget; the engine
// reports the outcome through ActiveChanged.
type Controller struct {
	state    State
	switcher Switcher
	log      *slog.Logger
}

// NewController returns a Controller in the Unavailable state. switcher may
// be nil until a stream is attached.
func NewController(switcher Switcher, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{state: Initial(), switcher: switcher, log: log}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// SetSwitcher replaces the command target, e.g. after a new engine has been
// attached.
func (c *Controller) SetSwitcher(s Switcher) {
	c.switcher = s
}

// Reset clears everything when the engine is torn down or reattached. No
// command is sent: a fresh attachment starts in automatic mode.
func (c *Controller) Reset() State {
	c.state = c.state.Reset()
	return c.state
}

// Discover installs the renditions parsed from a new manifest and returns
// to automatic selection.
func (c *Controller) Discover(list []Rendition) State {
	return c.transition(c.state.Discover(list))
}

// Select applies the user's choice. Unknown indices are rejected with
// ErrUnknownRendition and leave the state untouched.
func (c *Controller) Select(index int) (State, error) {
	next, err := c.state.Select(index)
	if err != nil {
		c.log.Warn("rendition selection rejected",
			slog.Int("index", index),
			slog.Int("available", len(c.state.renditions)))
		return c.state, err
	}
	return c.transition(next), nil
}

// ActiveChanged records the rendition the engine switched to.
func (c *Controller) ActiveChanged(index int) State {
	c.state = c.state.ActiveChanged(index)
	if _, ok := c.state.Active(); !ok {
		c.log.Debug("active rendition not in set", slog.Int("index", index))
	}
	return c.state
}

// Label renders the current selection for display.
func (c *Controller) Label() string {
	return c.state.Label()
}

func (c *Controller) transition(next State) State {
	prev := c.state.Requested()
	c.state = next
	if req := next.Requested(); req != prev && c.switcher != nil {
		c.log.Debug("rendition requested", slog.Int("index", req))
		c.switcher.SetRendition(req)
	}
	return c.state
}
