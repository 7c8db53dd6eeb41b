package rendition

import (
	"errors"
	"fmt"
)

// Auto is the selection sentinel that lets the stream engine pick the
// rendition.
const Auto = -1

// Placeholder is shown when the requested rendition is not in the set.
const Placeholder = "—"

// ErrUnknownRendition is returned when a selection names an index that is
// not in the current rendition set.
var ErrUnknownRendition = errors.New("rendition not in current set")

// Rendition is one selectable quality variant of the stream. Index is the
// stream engine's identity for it and stays stable for one attachment.
type Rendition struct {
	Index   int `json:"index"`
	Height  int `json:"height"`
	Bitrate int `json:"bitrate,omitempty"`
}

// Label returns the height label, e.g. "1080p".
func (r Rendition) Label() string {
	return fmt.Sprintf("%dp", r.Height)
}

// Phase is the controller's coarse state.
type Phase int

const (
	// Unavailable means no renditions are known yet.
	Unavailable Phase = iota
	// Ready means renditions are known and selection is automatic.
	Ready
	// UserSelected means the user picked an explicit rendition.
	UserSelected
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "ready"
	case UserSelected:
		return "user_selected"
	default:
		return "unavailable"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Option is one entry of the quality menu.
type Option struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}
