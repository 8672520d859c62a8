package commentview

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/villagegov/portal/internal/auth"
	"github.com/villagegov/portal/internal/client"
	"github.com/villagegov/portal/internal/comment"
)

var (
	newsRef = comment.TargetRef{Type: comment.TargetNews, ID: "12"}
	alice   = &auth.Principal{ID: 1, DisplayName: "Alice", Role: auth.RoleUser}
	bob     = &auth.Principal{ID: 2, DisplayName: "Bob", Role: auth.RoleUser}
	admin   = &auth.Principal{ID: 9, DisplayName: "Admin", Role: auth.RoleAdmin}
	epoch   = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTransport is an in-memory comment server.
type fakeTransport struct {
	mu       sync.Mutex
	comments []*comment.Comment
	nextID   int64
	caller   *auth.Principal

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	lists   atomic.Int64
	creates atomic.Int64
	updates atomic.Int64
	deletes atomic.Int64
}

func newFakeTransport(seed ...*comment.Comment) *fakeTransport {
	f := &fakeTransport{nextID: 100}
	for _, c := range seed {
		cp := *c
		f.comments = append(f.comments, &cp)
	}
	return f
}

func (f *fakeTransport) mutations() int64 {
	return f.creates.Load() + f.updates.Load() + f.deletes.Load()
}

func (f *fakeTransport) ListComments(ctx context.Context, ref comment.TargetRef) ([]*comment.Comment, error) {
	f.lists.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*comment.Comment, 0, len(f.comments))
	for _, c := range f.comments {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeTransport) CreateComment(ctx context.Context, ref comment.TargetRef, content string) (*comment.Comment, error) {
	f.creates.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	c := &comment.Comment{
		ID: f.nextID, TargetType: ref.Type, TargetID: ref.ID,
		Content: content, CreatedAt: epoch, UpdatedAt: epoch,
	}
	if f.caller != nil {
		c.AuthorID = f.caller.ID
		c.AuthorName = f.caller.DisplayName
	}
	f.comments = append(f.comments, c)
	cp := *c
	return &cp, nil
}

func (f *fakeTransport) UpdateComment(ctx context.Context, id int64, content string) (*comment.Comment, error) {
	f.updates.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for _, c := range f.comments {
		if c.ID == id {
			c.Content = content
			c.UpdatedAt = c.UpdatedAt.Add(time.Minute)
			cp := *c
			return &cp, nil
		}
	}
	return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "comment not found"}
}

func (f *fakeTransport) DeleteComment(ctx context.Context, id int64) error {
	f.deletes.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, c := range f.comments {
		if c.ID == id {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			return nil
		}
	}
	return &client.APIError{StatusCode: http.StatusNotFound, Message: "comment not found"}
}

// serverEdit changes a comment as if another client had saved it.
func (f *fakeTransport) serverEdit(id int64, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.comments {
		if c.ID == id {
			c.Content = content
			c.UpdatedAt = c.UpdatedAt.Add(time.Hour)
		}
	}
}

// serverDelete removes a comment as if another client had deleted it.
func (f *fakeTransport) serverDelete(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.comments {
		if c.ID == id {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			return
		}
	}
}

func mkComment(id, authorID int64, content string) *comment.Comment {
	return &comment.Comment{
		ID: id, TargetType: newsRef.Type, TargetID: newsRef.ID,
		AuthorID: authorID, AuthorName: "user", Content: content,
		CreatedAt: epoch, UpdatedAt: epoch,
	}
}
