package commentview

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/villagegov/portal/internal/auth"
	"github.com/villagegov/portal/internal/comment"
)

// Transport is the comment REST API as seen by the coordinator.
type Transport interface {
	Lister
	CreateComment(ctx context.Context, ref comment.TargetRef, content string) (*comment.Comment, error)
	UpdateComment(ctx context.Context, id int64, content string) (*comment.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// Coordinator is the only component that mutates comments on the server.
// Mutations are serialized; every success triggers an immediate re-sync.
type Coordinator struct {
	mu        sync.Mutex
	transport Transport
	ref       comment.TargetRef
	store     *Store
	resync    func(ctx context.Context) error
	logger    *slog.Logger
}

// NewCoordinator creates a coordinator for ref. resync is called after
// every successful mutation and after NOT_FOUND failures.
func NewCoordinator(t Transport, ref comment.TargetRef, store *Store, resync func(ctx context.Context) error, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		transport: t,
		ref:       ref,
		store:     store,
		resync:    resync,
		logger:    logger,
	}
}

// SubmitCreate posts content as a new comment by p. Anonymous callers get
// UNAUTHENTICATED without any request being made. On success the compose
// field is cleared and the list re-synced.
func (c *Coordinator) SubmitCreate(ctx context.Context, content string, p *auth.Principal) (*comment.Comment, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrValidation
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	created, err := c.transport.CreateComment(ctx, c.ref, content)
	if err != nil {
		ce := translate(err)
		c.logger.Warn("creating comment failed", "kind", ce.Kind, "error", err)
		return nil, ce
	}

	c.logger.Info("comment created", "comment_id", created.ID, "author_id", p.ID)
	c.store.SetCompose("")
	c.refresh(ctx)
	return created, nil
}

// SubmitUpdate saves draft as the new content of comment id. The draft is
// kept in the store's edit state until the server accepts it, so a
// failed save loses nothing.
func (c *Coordinator) SubmitUpdate(ctx context.Context, id int64, draft string, p *auth.Principal) (*comment.Comment, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}
	current, ok := c.store.Comment(id)
	if !ok {
		return nil, ErrNotFound
	}
	if !comment.CanEdit(p, &current) {
		return nil, ErrForbidden
	}

	if !c.store.SetDraft(id, draft) {
		c.store.BeginEdit(id, draft)
	}

	content := strings.TrimSpace(draft)
	if content == "" {
		return nil, ErrValidation
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	updated, err := c.transport.UpdateComment(ctx, id, content)
	if err != nil {
		ce := translate(err)
		c.logger.Warn("updating comment failed", "comment_id", id, "kind", ce.Kind, "error", err)
		if ce.Kind == KindNotFound {
			c.refresh(ctx)
		}
		return nil, ce
	}

	c.logger.Info("comment updated", "comment_id", id, "author_id", p.ID)
	c.store.CancelEdit(id)
	c.refresh(ctx)
	return updated, nil
}

// SubmitDelete removes comment id. The comment stays in the store until
// the re-sync confirms it is gone.
func (c *Coordinator) SubmitDelete(ctx context.Context, id int64, p *auth.Principal) error {
	if p == nil {
		return ErrUnauthenticated
	}
	current, ok := c.store.Comment(id)
	if !ok {
		return ErrNotFound
	}
	if !comment.CanDelete(p, &current) {
		return ErrForbidden
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transport.DeleteComment(ctx, id); err != nil {
		ce := translate(err)
		c.logger.Warn("deleting comment failed", "comment_id", id, "kind", ce.Kind, "error", err)
		if ce.Kind == KindNotFound {
			c.refresh(ctx)
		}
		return ce
	}

	c.logger.Info("comment deleted", "comment_id", id, "actor_id", p.ID, "admin", p.IsAdmin())
	c.refresh(ctx)
	return nil
}

// refresh re-syncs after a mutation. Its failure does not undo the
// mutation; the next poll tick catches up.
func (c *Coordinator) refresh(ctx context.Context) {
	if c.resync == nil {
		return
	}
	if err := c.resync(ctx); err != nil {
		c.logger.Debug("re-sync after mutation failed", "error", err)
	}
}
