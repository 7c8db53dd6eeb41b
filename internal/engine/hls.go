package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/grafov/m3u8"
)

const eventBuffer = 32

// HLS is an Engine backed by an HLS manifest fetched over HTTP. A master
// playlist yields a rendition list; a media playlist is played natively
// with no rendition list.
type HLS struct {
	client *http.Client
	log    *slog.Logger

	mu         sync.Mutex
	events     chan Event
	destroyed  bool
	attached   bool
	native     bool
	levels     []Level
	startLevel int
	current    int
}

// NewHLS returns an unattached engine. A nil client uses http.DefaultClient.
func NewHLS(client *http.Client, log *slog.Logger) *HLS {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &HLS{
		client: client,
		log:    log,
		events: make(chan Event, eventBuffer),
	}
}

// NewHLSFactory returns a Factory producing HLS engines that share client.
func NewHLSFactory(client *http.Client, log *slog.Logger) Factory {
	return func() Engine { return NewHLS(client, log) }
}

// Attach fetches and decodes the manifest at sourceURL.
func (h *HLS) Attach(ctx context.Context, sourceURL string) error {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return ErrDestroyed
	}
	h.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build manifest request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch manifest: unexpected status %d", resp.StatusCode)
	}

	pl, listType, err := m3u8.DecodeFrom(resp.Body, false)
	if err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return ErrDestroyed
	}
	h.attached = true

	switch listType {
	case m3u8.MASTER:
		master, ok := pl.(*m3u8.MasterPlaylist)
		if !ok {
			return fmt.Errorf("decode manifest: unexpected playlist type %T", pl)
		}
		h.levels = levelsFromMaster(master)
		h.startLevel = firstVideoLevel(h.levels)
		h.current = h.startLevel
		h.log.Debug("manifest parsed",
			slog.String("source", sourceURL),
			slog.Int("levels", len(h.levels)))
		h.emitLocked(Event{Kind: RenditionsDiscovered, Levels: h.levelsLocked()})
		h.emitLocked(Event{Kind: MediaAttached})
		if len(h.levels) > 0 {
			h.emitLocked(Event{Kind: ActiveRenditionChanged, Index: h.current})
		}
	default:
		h.native = true
		h.log.Debug("media playlist, native playback", slog.String("source", sourceURL))
		h.emitLocked(Event{Kind: MediaAttached})
	}
	return nil
}

// Events returns the event channel. It is closed by Destroy.
func (h *HLS) Events() <-chan Event {
	return h.events
}

// Levels returns a copy of the discovered levels.
func (h *HLS) Levels() []Level {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.levelsLocked()
}

func (h *HLS) levelsLocked() []Level {
	out := make([]Level, len(h.levels))
	copy(out, h.levels)
	return out
}

// Native reports whether the source was a media playlist.
func (h *HLS) Native() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.native
}

// SetRendition pins playback to index, or hands the choice back to the
// engine for Auto. Out-of-range indices are ignored.
func (h *HLS) SetRendition(index int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed || h.native || len(h.levels) == 0 {
		return
	}
	next := h.startLevel
	if index != Auto {
		if index < 0 || index >= len(h.levels) {
			h.log.Warn("ignoring out of range rendition", slog.Int("index", index))
			return
		}
		next = index
	}
	if next == h.current {
		return
	}
	h.current = next
	h.emitLocked(Event{Kind: ActiveRenditionChanged, Index: next})
}

// Play starts playback of the attached source.
func (h *HLS) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return ErrDestroyed
	}
	if !h.attached {
		return ErrNotAttached
	}
	return nil
}

// Destroy releases the engine. It is safe to call more than once.
func (h *HLS) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return
	}
	h.destroyed = true
	close(h.events)
}

// emitLocked queues ev without blocking. Caller must hold h.mu.
func (h *HLS) emitLocked(ev Event) {
	if h.destroyed {
		return
	}
	select {
	case h.events <- ev:
	default:
		h.log.Warn("engine event dropped", slog.String("kind", ev.Kind.String()))
	}
}

func levelsFromMaster(master *m3u8.MasterPlaylist) []Level {
	levels := make([]Level, 0, len(master.Variants))
	for _, v := range master.Variants {
		if v == nil || v.Iframe {
			continue
		}
		levels = append(levels, Level{
			Height:  parseHeight(v.Resolution),
			Bitrate: int(v.Bandwidth),
		})
	}
	return levels
}

// parseHeight extracts the height from a RESOLUTION attribute ("1280x720").
// Missing or malformed values yield 0.
func parseHeight(resolution string) int {
	_, h, ok := strings.Cut(strings.ToLower(resolution), "x")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func firstVideoLevel(levels []Level) int {
	for i, l := range levels {
		if l.Height > 0 {
			return i
		}
	}
	return 0
}
