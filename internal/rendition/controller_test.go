package rendition

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

type recordingSwitcher struct {
	calls []int
}

func (s *recordingSwitcher) SetRendition(index int) { s.calls = append(s.calls, index) }

func newTestController() (*Controller, *recordingSwitcher) {
	sw := &recordingSwitcher{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewController(sw, log), sw
}

func TestController_Select_sends_one_command_per_change(t *testing.T) {
	c, sw := newTestController()
	c.Discover([]Rendition{{Index: 0, Height: 1080}, {Index: 1, Height: 720}})
	if len(sw.calls) != 0 {
		t.Fatalf("discovery from Auto should not command, got %v", sw.calls)
	}

	if _, err := c.Select(1); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if _, err := c.Select(1); err != nil {
		t.Fatalf("Select again: %v", err)
	}
	c.Select(Auto)
	c.Select(Auto)

	want := []int{1, Auto}
	if len(sw.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", sw.calls, want)
	}
	for i := range want {
		if sw.calls[i] != want[i] {
			t.Errorf("calls = %v, want %v", sw.calls, want)
		}
	}
}

func TestController_Select_rejected_sends_nothing(t *testing.T) {
	c, sw := newTestController()
	c.Discover([]Rendition{{Index: 0, Height: 1080}})
	before := c.State()

	_, err := c.Select(5)
	if !errors.Is(err, ErrUnknownRendition) {
		t.Errorf("expected ErrUnknownRendition, got %v", err)
	}
	if len(sw.calls) != 0 {
		t.Errorf("rejected select sent %v", sw.calls)
	}
	if !c.State().Equal(before) {
		t.Error("rejected select mutated state")
	}
}

func TestController_Discover_after_selection_commands_auto(t *testing.T) {
	c, sw := newTestController()
	c.Discover([]Rendition{{Index: 0, Height: 1080}, {Index: 1, Height: 720}})
	c.Select(0)
	c.Discover([]Rendition{{Index: 0, Height: 540}})

	if c.State().Requested() != Auto {
		t.Errorf("requested = %d, want Auto", c.State().Requested())
	}
	if got := sw.calls[len(sw.calls)-1]; got != Auto {
		t.Errorf("last command = %d, want Auto", got)
	}
}

func TestController_Reset_sends_nothing(t *testing.T) {
	c, sw := newTestController()
	c.Discover([]Rendition{{Index: 0, Height: 1080}})
	c.Select(0)
	sw.calls = nil

	s := c.Reset()
	if s.Phase() != Unavailable || s.Requested() != Auto || len(s.Renditions()) != 0 {
		t.Errorf("unexpected state after reset: %v", s.Phase())
	}
	if len(sw.calls) != 0 {
		t.Errorf("reset sent %v", sw.calls)
	}
}

func TestController_label_follows_active(t *testing.T) {
	c, _ := newTestController()
	c.Discover([]Rendition{{Index: 0, Height: 1080}, {Index: 1, Height: 720}})
	c.ActiveChanged(1)
	if got := c.Label(); got != "Auto (720p)" {
		t.Errorf("Label() = %q", got)
	}
}

func TestController_nil_switcher(t *testing.T) {
	c := NewController(nil, nil)
	c.Discover([]Rendition{{Index: 3, Height: 720}})
	if _, err := c.Select(3); err != nil {
		t.Fatalf("Select: %v", err)
	}

	var got []int
	c.SetSwitcher(SwitcherFunc(func(i int) { got = append(got, i) }))
	c.Select(Auto)
	if len(got) != 1 || got[0] != Auto {
		t.Errorf("calls = %v", got)
	}
}
