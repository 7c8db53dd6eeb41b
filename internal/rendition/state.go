package rendition

import (
	"fmt"
	"sort"
)

// State is an immutable snapshot of the selection state machine. Transition
// methods return a new State and never modify the receiver. The zero value
// is Unavailable with automatic selection.
type State struct {
	phase      Phase
	renditions []Rendition
	// selected is meaningful only in UserSelected.
	selected int
	active   *Rendition
}

// Initial returns the Unavailable state.
func Initial() State {
	return State{}
}

// Phase returns the coarse state.
func (s State) Phase() Phase { return s.phase }

// Requested returns the user's choice: Auto or a rendition index.
func (s State) Requested() int {
	if s.phase != UserSelected {
		return Auto
	}
	return s.selected
}

// Active returns the rendition the engine reports as playing.
func (s State) Active() (Rendition, bool) {
	if s.active == nil {
		return Rendition{}, false
	}
	return *s.active, true
}

// Renditions returns a copy of the current set, highest first.
func (s State) Renditions() []Rendition {
	out := make([]Rendition, len(s.renditions))
	copy(out, s.renditions)
	return out
}

// Lookup returns the rendition with the given index.
func (s State) Lookup(index int) (Rendition, bool) {
	for _, r := range s.renditions {
		if r.Index == index {
			return r, true
		}
	}
	return Rendition{}, false
}

// Reset returns the Unavailable state. Indices from the old attachment are
// meaningless, so the selection goes back to Auto.
func (s State) Reset() State {
	return Initial()
}

// Discover installs a new rendition set: audio-only entries (height 0) are
// dropped and the rest ordered by height descending. Any explicit selection
// is cleared.
func (s State) Discover(list []Rendition) State {
	set := make([]Rendition, 0, len(list))
	for _, r := range list {
		if r.Height > 0 {
			set = append(set, r)
		}
	}
	sort.SliceStable(set, func(i, j int) bool {
		if set[i].Height != set[j].Height {
			return set[i].Height > set[j].Height
		}
		if set[i].Bitrate != set[j].Bitrate {
			return set[i].Bitrate > set[j].Bitrate
		}
		return set[i].Index < set[j].Index
	})
	return State{phase: Ready, renditions: set}
}

// Select records the user's choice. Auto always succeeds; any other index
// must be in the current set, otherwise ErrUnknownRendition is returned and
// the receiver is returned unchanged.
func (s State) Select(index int) (State, error) {
	if index == Auto {
		next := s
		next.selected = 0
		if s.phase == UserSelected {
			next.phase = Ready
		}
		return next, nil
	}
	if _, ok := s.Lookup(index); !ok || s.phase == Unavailable {
		return s, fmt.Errorf("select %d: %w", index, ErrUnknownRendition)
	}
	next := s
	next.selected = index
	next.phase = UserSelected
	return next, nil
}

// ActiveChanged records the rendition the engine switched to. It never
// changes the requested selection. An index outside the set clears active.
func (s State) ActiveChanged(index int) State {
	next := s
	if r, ok := s.Lookup(index); ok {
		next.active = &r
	} else {
		next.active = nil
	}
	return next
}

// Label renders the current selection, e.g. "Auto", "Auto (720p)" or
// "1080p". A requested index missing from the set renders Placeholder.
func (s State) Label() string {
	if s.Requested() == Auto {
		if r, ok := s.Active(); ok {
			return fmt.Sprintf("Auto (%s)", r.Label())
		}
		return "Auto"
	}
	if r, ok := s.Lookup(s.selected); ok {
		return r.Label()
	}
	return Placeholder
}

// Options returns the quality menu: Auto first, then every rendition.
func (s State) Options() []Option {
	requested := s.Requested()
	opts := make([]Option, 0, len(s.renditions)+1)
	opts = append(opts, Option{Index: Auto, Label: "Auto", Selected: requested == Auto})
	for _, r := range s.renditions {
		opts = append(opts, Option{Index: r.Index, Label: r.Label(), Selected: requested == r.Index})
	}
	return opts
}

// Equal reports whether two states are indistinguishable.
func (s State) Equal(o State) bool {
	if s.phase != o.phase || s.Requested() != o.Requested() || len(s.renditions) != len(o.renditions) {
		return false
	}
	for i := range s.renditions {
		if s.renditions[i] != o.renditions[i] {
			return false
		}
	}
	a, aok := s.Active()
	b, bok := o.Active()
	return aok == bok && a == b
}
