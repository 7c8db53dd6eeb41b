package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"live-player/internal/engine"
	"live-player/internal/platform/metrics"
	"live-player/internal/player"
)

// DefaultEngineTimeout bounds a stream attachment when Options leaves it unset.
const DefaultEngineTimeout = 10 * time.Second

// Options configures the Service.
type Options struct {
	Player        player.Config
	EngineTimeout time.Duration
	IdleTTL       time.Duration
}

// Service creates, looks up and retires player sessions.
type Service struct {
	repo      Repository
	newEngine engine.Factory
	opts      Options
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// NewService returns a Service storing sessions in repo and attaching streams
// with engines from newEngine. m may be nil.
func NewService(repo Repository, newEngine engine.Factory, opts Options, log *slog.Logger, m *metrics.Metrics) *Service {
	if opts.EngineTimeout <= 0 {
		opts.EngineTimeout = DefaultEngineTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, newEngine: newEngine, opts: opts, log: log, metrics: m}
}

// Create opens a session sized width×height and attaches source to it. The
// session is returned even when the attachment fails; the error then
// describes the degraded stream.
func (s *Service) Create(ctx context.Context, source string, width, height float64) (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	cfg := s.opts.Player
	cfg.Width, cfg.Height = width, height
	sess := &Session{
		ID:        id,
		Player:    player.New(cfg, s.newEngine, s.log.With(slog.String("session_id", string(id))), s.metrics),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Add(sess); err != nil {
		sess.Player.Close()
		return nil, err
	}
	s.log.Info("session created", slog.String("session_id", string(id)), slog.String("source", source))

	if source == "" {
		return sess, nil
	}
	attachCtx, cancel := context.WithTimeout(ctx, s.opts.EngineTimeout)
	defer cancel()
	if err := sess.Player.Load(attachCtx, source); err != nil {
		return sess, err
	}
	return sess, nil
}

// Get returns the session with the given ID.
func (s *Service) Get(id SessionID) (*Session, error) {
	sess, ok := s.repo.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Load attaches a new source to an existing session.
func (s *Service) Load(ctx context.Context, id SessionID, source string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	attachCtx, cancel := context.WithTimeout(ctx, s.opts.EngineTimeout)
	defer cancel()
	return sess.Player.Load(attachCtx, source)
}

// Reload tears down and reattaches the session's current source.
func (s *Service) Reload(ctx context.Context, id SessionID) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	attachCtx, cancel := context.WithTimeout(ctx, s.opts.EngineTimeout)
	defer cancel()
	return sess.Player.Reload(attachCtx)
}

// Delete closes the session and releases its stream engine.
func (s *Service) Delete(id SessionID) error {
	sess, ok := s.repo.Remove(id)
	if !ok {
		return ErrSessionNotFound
	}
	sess.Player.Close()
	s.log.Info("session closed", slog.String("session_id", string(id)))
	return nil
}

// Reap closes every session idle for longer than IdleTTL as of now and
// returns how many were closed. A zero IdleTTL disables reaping.
func (s *Service) Reap(now time.Time) int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	idle := s.repo.Idle(now.Add(-s.opts.IdleTTL))
	for _, sess := range idle {
		sess.Player.Close()
		s.log.Info("session reaped", slog.String("session_id", string(sess.ID)))
	}
	if s.metrics != nil && len(idle) > 0 {
		s.metrics.AddSessionsReaped(len(idle))
	}
	return len(idle)
}

// RunReaper calls Reap every interval until ctx is done.
func (s *Service) RunReaper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("reap interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Reap(now)
		}
	}
}

// Close closes every session.
func (s *Service) Close() {
	for _, sess := range s.repo.Drain() {
		sess.Player.Close()
	}
}

// ActiveSessionCount returns the number of open sessions.
func (s *Service) ActiveSessionCount() int {
	return s.repo.Count()
}
