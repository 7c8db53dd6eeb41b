package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"live-player/internal/platform/metrics"
	"live-player/internal/player"
	"live-player/internal/rendition"
	"live-player/internal/viewport"

	"github.com/go-chi/chi/v5"
)

// Handler exposes player sessions over HTTP using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Routes mounts the session endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{session_id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/source", h.LoadSource)
		r.Post("/reload", h.Reload)
		r.Post("/play", h.Play)
		r.Post("/surface", h.Resize)
		r.Post("/zoom", h.SetZoom)
		r.Post("/zoom/in", h.ZoomIn)
		r.Post("/zoom/out", h.ZoomOut)
		r.Post("/zoom/reset", h.ResetZoom)
		r.Post("/pointer/down", h.PointerDown)
		r.Post("/pointer/move", h.PointerMove)
		r.Post("/pointer/up", h.PointerUp)
		r.Post("/touch/start", h.TouchStart)
		r.Post("/touch/move", h.TouchMove)
		r.Post("/touch/end", h.TouchEnd)
		r.Post("/rendition", h.SelectRendition)
		r.Post("/quality-menu", h.ToggleQualityMenu)
		r.Post("/fullscreen", h.SetFullscreen)
		r.Post("/activity", h.Activity)
	})
}

type createRequest struct {
	Source string  `json:"source"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type sourceRequest struct {
	Source string `json:"source"`
}

type surfaceRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type zoomRequest struct {
	Level *float64 `json:"level"`
}

type touchRequest struct {
	Touches   []viewport.Point `json:"touches"`
	Remaining int              `json:"remaining"`
}

type renditionRequest struct {
	Index *int `json:"index"`
}

type fullscreenRequest struct {
	Active *bool `json:"active"`
}

type sessionResponse struct {
	ID SessionID `json:"id"`
	player.Snapshot
}

// CreateSession handles POST /sessions.
// Body: { "source": "https://.../master.m3u8", "width": 1280, "height": 720 }.
// A stream that cannot be attached still yields a session; its snapshot
// carries stream_error.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sess, err := h.svc.Create(r.Context(), req.Source, req.Width, req.Height)
	if sess == nil {
		h.log.Error("create session failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if err != nil {
		h.log.Warn("session created without stream",
			slog.String("session_id", string(sess.ID)),
			slog.String("error", err.Error()))
	}
	h.writeSession(w, http.StatusCreated, sess)
}

// GetSession handles GET /sessions/{session_id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /sessions/{session_id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))
	if err := h.svc.Delete(id); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.log.Error("delete session failed", slog.String("session_id", string(id)), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadSource handles POST /sessions/{session_id}/source.
// Body: { "source": "https://.../master.m3u8" }.
func (h *Handler) LoadSource(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req sourceRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Source == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.svc.Load(r.Context(), sess.ID, req.Source); err != nil && !h.degraded(w, sess, err) {
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

// Reload handles POST /sessions/{session_id}/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.svc.Reload(r.Context(), sess.ID); err != nil && !h.degraded(w, sess, err) {
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

// Play handles POST /sessions/{session_id}/play. A refused start leaves the
// player paused and is reported in the snapshot, not as an error.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Player.Play(); err != nil {
		if errors.Is(err, player.ErrNoStream) {
			w.WriteHeader(http.StatusConflict)
			return
		}
		h.log.Info("play refused", slog.String("session_id", string(sess.ID)), slog.String("error", err.Error()))
	}
	h.writeSession(w, http.StatusOK, sess)
}

// Resize handles POST /sessions/{session_id}/surface.
// Body: { "width": 400, "height": 225 }.
func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req surfaceRequest
	if !h.decode(w, r, &req) {
		return
	}
	sess.Player.Resize(req.Width, req.Height)
	h.writeSession(w, http.StatusOK, sess)
}

// SetZoom handles POST /sessions/{session_id}/zoom. Body: { "level": 2.5 }.
// Out-of-range levels are clamped, never rejected.
func (h *Handler) SetZoom(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req zoomRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Level == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	sess.Player.SetZoom(*req.Level)
	h.writeSession(w, http.StatusOK, sess)
}

// ZoomIn handles POST /sessions/{session_id}/zoom/in.
func (h *Handler) ZoomIn(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(p *player.Player) { p.ZoomIn() })
}

// ZoomOut handles POST /sessions/{session_id}/zoom/out.
func (h *Handler) ZoomOut(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(p *player.Player) { p.ZoomOut() })
}

// ResetZoom handles POST /sessions/{session_id}/zoom/reset.
func (h *Handler) ResetZoom(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(p *player.Player) { p.ResetZoom() })
}

// PointerDown handles POST /sessions/{session_id}/pointer/down. Body: { "x": 0, "y": 0 }.
func (h *Handler) PointerDown(w http.ResponseWriter, r *http.Request) {
	h.pointer(w, r, func(p *player.Player, pt viewport.Point) { p.PointerDown(pt) })
}

// PointerMove handles POST /sessions/{session_id}/pointer/move.
func (h *Handler) PointerMove(w http.ResponseWriter, r *http.Request) {
	h.pointer(w, r, func(p *player.Player, pt viewport.Point) { p.PointerMove(pt) })
}

// PointerUp handles POST /sessions/{session_id}/pointer/up.
func (h *Handler) PointerUp(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(p *player.Player) { p.PointerUp() })
}

// TouchStart handles POST /sessions/{session_id}/touch/start.
// Body: { "touches": [{ "x": 0, "y": 0 }, { "x": 100, "y": 0 }] }.
func (h *Handler) TouchStart(w http.ResponseWriter, r *http.Request) {
	h.touch(w, r, func(p *player.Player, req touchRequest) { p.TouchStart(req.Touches) })
}

// TouchMove handles POST /sessions/{session_id}/touch/move.
func (h *Handler) TouchMove(w http.ResponseWriter, r *http.Request) {
	h.touch(w, r, func(p *player.Player, req touchRequest) { p.TouchMove(req.Touches) })
}

// TouchEnd handles POST /sessions/{session_id}/touch/end. Body: { "remaining": 1 }.
func (h *Handler) TouchEnd(w http.ResponseWriter, r *http.Request) {
	h.touch(w, r, func(p *player.Player, req touchRequest) { p.TouchEnd(req.Remaining) })
}

// SelectRendition handles POST /sessions/{session_id}/rendition.
// Body: { "index": 2 }, or { "index": -1 } for automatic selection.
func (h *Handler) SelectRendition(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req renditionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Index == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if _, err := sess.Player.SelectRendition(*req.Index); err != nil {
		if errors.Is(err, rendition.ErrUnknownRendition) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		h.log.Error("select rendition failed", slog.String("session_id", string(sess.ID)), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.writeSession(w, http.StatusOK, sess)
}

// ToggleQualityMenu handles POST /sessions/{session_id}/quality-menu.
func (h *Handler) ToggleQualityMenu(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(p *player.Player) { p.ToggleQualityMenu() })
}

// SetFullscreen handles POST /sessions/{session_id}/fullscreen. Body: { "active": true }.
func (h *Handler) SetFullscreen(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req fullscreenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Active == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	sess.Player.SetFullscreen(*req.Active)
	h.writeSession(w, http.StatusOK, sess)
}

// Activity handles POST /sessions/{session_id}/activity.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(p *player.Player) { p.Activity() })
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn func(*player.Player)) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	fn(sess.Player)
	h.writeSession(w, http.StatusOK, sess)
}

func (h *Handler) pointer(w http.ResponseWriter, r *http.Request, fn func(*player.Player, viewport.Point)) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var pt viewport.Point
	if !h.decode(w, r, &pt) {
		return
	}
	fn(sess.Player, pt)
	h.writeSession(w, http.StatusOK, sess)
}

func (h *Handler) touch(w http.ResponseWriter, r *http.Request, fn func(*player.Player, touchRequest)) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req touchRequest
	if !h.decode(w, r, &req) {
		return
	}
	fn(sess.Player, req)
	h.writeSession(w, http.StatusOK, sess)
}

// session resolves the {session_id} URL parameter, writing 404 if unknown.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := SessionID(chi.URLParam(r, "session_id"))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	sess, err := h.svc.Get(id)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Debug("invalid request body", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	return true
}

// degraded decides whether a stream error still allows a snapshot response.
// Attach failures do: the player keeps working without renditions.
func (h *Handler) degraded(w http.ResponseWriter, sess *Session, err error) bool {
	switch {
	case errors.Is(err, player.ErrNoSource):
		w.WriteHeader(http.StatusConflict)
		return false
	case errors.Is(err, player.ErrClosed), errors.Is(err, ErrSessionNotFound):
		w.WriteHeader(http.StatusNotFound)
		return false
	case errors.Is(err, player.ErrSuperseded):
		w.WriteHeader(http.StatusConflict)
		return false
	}
	h.log.Warn("stream degraded", slog.String("session_id", string(sess.ID)), slog.String("error", err.Error()))
	return true
}

func (h *Handler) writeSession(w http.ResponseWriter, status int, sess *Session) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(sessionResponse{ID: sess.ID, Snapshot: sess.Player.Snapshot()}); err != nil {
		h.log.Debug("write response failed", slog.String("error", err.Error()))
	}
}
