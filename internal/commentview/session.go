package commentview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/villagegov/portal/internal/auth"
	"github.com/villagegov/portal/internal/comment"
)

// Config describes a viewing session.
type Config struct {
	Transport Transport
	Target    comment.TargetRef
	// Identity supplies the viewer; nil means anonymous.
	Identity auth.Identity
	// Interval between poll ticks; DefaultInterval when zero.
	Interval time.Duration
	Logger   *slog.Logger
	// OnChange, if set, is called after a sync changes the visible list.
	// It runs on the syncing goroutine and must not block.
	OnChange func()
	// RequireInitialLoad makes Open fail when the first list fetch fails.
	RequireInitialLoad bool
}

// Session is one viewer looking at one target's comments. Its poller runs
// from Open until Close or until the context passed to Open is cancelled.
type Session struct {
	id       string
	target   comment.TargetRef
	identity auth.Identity
	store    *Store
	poller   *Poller
	coord    *Coordinator
	logger   *slog.Logger

	closeOnce sync.Once
	closed    atomic.Bool
}

// Open loads the current list and starts polling. A failed initial load
// is logged and retried on the first tick, unless cfg.RequireInitialLoad
// is set. Callers must Close the session.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if err := cfg.Target.Validate(); err != nil {
		return nil, fmt.Errorf("invalid target: %w", err)
	}

	identity := cfg.Identity
	if identity == nil {
		identity = auth.StaticIdentity{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	logger = logger.With("session", id, "target", cfg.Target.String())

	store := NewStore()
	poller := NewPoller(cfg.Transport, cfg.Target, store, cfg.Interval, logger)
	poller.onChange = cfg.OnChange

	s := &Session{
		id:       id,
		target:   cfg.Target,
		identity: identity,
		store:    store,
		poller:   poller,
		coord:    NewCoordinator(cfg.Transport, cfg.Target, store, poller.Sync, logger),
		logger:   logger,
	}

	if err := poller.Sync(ctx); err != nil {
		if cfg.RequireInitialLoad {
			return nil, fmt.Errorf("loading comments: %w", err)
		}
		logger.Debug("initial comment load failed", "error", err)
	}
	if err := poller.Start(ctx); err != nil {
		return nil, err
	}

	logger.Debug("comment session opened")
	return s, nil
}

// Close stops polling. It blocks until the poller has exited and is safe
// to call more than once. Afterwards every action that would reach the
// server fails with ErrSessionClosed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.poller.Stop()
		s.logger.Debug("comment session closed")
	})
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Target returns the ref being viewed.
func (s *Session) Target() comment.TargetRef { return s.target }

// Store exposes the session's comment store.
func (s *Session) Store() *Store { return s.store }

// Principal returns the viewer as of now.
func (s *Session) Principal() *auth.Principal {
	return s.identity.CurrentPrincipal()
}

// View returns the entries with permissions evaluated for the current principal.
func (s *Session) View() []Entry {
	p := s.Principal()
	entries := s.store.Entries()
	for i := range entries {
		c := &entries[i].Comment
		entries[i].CanEdit = comment.CanEdit(p, c)
		entries[i].CanDelete = comment.CanDelete(p, c)
	}
	return entries
}

// Refresh syncs immediately, outside the poll schedule.
func (s *Session) Refresh(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.poller.Sync(ctx)
}

// BeginEdit opens an editor on id seeded with its current server content.
func (s *Session) BeginEdit(id int64) error {
	c, ok := s.store.Comment(id)
	if !ok {
		return ErrNotFound
	}
	if !comment.CanEdit(s.Principal(), &c) {
		return ErrForbidden
	}
	s.store.BeginEdit(id, c.Content)
	return nil
}

// CancelEdit discards the draft for id.
func (s *Session) CancelEdit(id int64) {
	s.store.CancelEdit(id)
}

// Create submits the compose text (or content, when non-empty) as the current principal.
func (s *Session) Create(ctx context.Context, content string) (*comment.Comment, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if content == "" {
		content = s.store.Compose()
	} else {
		s.store.SetCompose(content)
	}
	return s.coord.SubmitCreate(ctx, content, s.Principal())
}

// Save submits the open draft for id as the current principal.
func (s *Session) Save(ctx context.Context, id int64) (*comment.Comment, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	draft, ok := s.store.CurrentDraft(id)
	if !ok {
		return nil, newError(KindValidation, fmt.Sprintf("comment %d is not being edited", id), nil)
	}
	return s.coord.SubmitUpdate(ctx, id, draft, s.Principal())
}

// Update submits draft as the new content of id as the current principal.
func (s *Session) Update(ctx context.Context, id int64, draft string) (*comment.Comment, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	return s.coord.SubmitUpdate(ctx, id, draft, s.Principal())
}

// Delete removes id as the current principal.
func (s *Session) Delete(ctx context.Context, id int64) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.coord.SubmitDelete(ctx, id, s.Principal())
}
