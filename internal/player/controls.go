package player

import (
	"sync"
	"time"
)

// controls tracks whether the on-screen controls are visible. Each activity
// shows them and reschedules a single hide timer; a pending timer is always
// stopped first so callbacks never stack.
type controls struct {
	mu      sync.Mutex
	after   time.Duration
	visible bool
	timer   *time.Timer
	// gen invalidates a timer that already fired but lost the race for mu.
	gen uint64
}

func newControls(after time.Duration) *controls {
	return &controls{after: after, visible: true}
}

func (c *controls) activity() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = true
	c.stopLocked()
	if c.after <= 0 {
		return
	}
	gen := c.gen
	c.timer = time.AfterFunc(c.after, func() { c.hide(gen) })
}

func (c *controls) hide(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.visible = false
	c.timer = nil
}

func (c *controls) isVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

func (c *controls) pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

func (c *controls) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *controls) stopLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
