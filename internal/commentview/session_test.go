package commentview

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagegov/portal/internal/auth"
	"github.com/villagegov/portal/internal/comment"
)

// switchableIdentity lets a test log in and out mid-session.
type switchableIdentity struct {
	p atomic.Pointer[auth.Principal]
}

func (s *switchableIdentity) CurrentPrincipal() *auth.Principal {
	return s.p.Load()
}

func openTestSession(t *testing.T, ft *fakeTransport, identity auth.Identity) *Session {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Transport: ft,
		Target:    newsRef,
		Identity:  identity,
		Interval:  time.Hour,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestOpenValidatesConfig(t *testing.T) {
	_, err := Open(context.Background(), Config{Target: newsRef})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{
		Transport: newFakeTransport(),
		Target:    comment.TargetRef{Type: "BLOG", ID: "1"},
	})
	assert.Error(t, err)
}

func TestOpenLoadsList(t *testing.T) {
	ft := newFakeTransport(mkComment(1, 1, "a"), mkComment(2, 2, "b"))
	s := openTestSession(t, ft, nil)

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, newsRef, s.Target())
	assert.Equal(t, 2, s.Store().Len())
	assert.Nil(t, s.Principal())
}

func TestOpenSurvivesInitialLoadFailure(t *testing.T) {
	ft := newFakeTransport(mkComment(1, 1, "a"))
	ft.listErr = assert.AnError
	s := openTestSession(t, ft, nil)

	assert.Equal(t, 0, s.Store().Len())

	ft.mu.Lock()
	ft.listErr = nil
	ft.mu.Unlock()
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 1, s.Store().Len())
}

func TestSessionCloseStopsPolling(t *testing.T) {
	ft := newFakeTransport(mkComment(1, 1, "a"))
	s, err := Open(context.Background(), Config{
		Transport: ft,
		Target:    newsRef,
		Interval:  5 * time.Millisecond,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return ft.lists.Load() >= 3 }, time.Second, time.Millisecond)

	s.Close()
	calls := ft.lists.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, ft.lists.Load())

	s.Close()
}

func TestClosedSessionMakesNoCalls(t *testing.T) {
	ft := newFakeTransport(mkComment(1, 1, "alice's"))
	s := openTestSession(t, ft, auth.StaticIdentity{Principal: alice})
	ctx := context.Background()
	require.NoError(t, s.BeginEdit(1))

	s.Close()
	lists := ft.lists.Load()

	_, err := s.Create(ctx, "after close")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, KindTransport, KindOf(err))

	_, err = s.Save(ctx, 1)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Update(ctx, 1, "edited")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.Delete(ctx, 1), ErrSessionClosed)
	assert.ErrorIs(t, s.Refresh(ctx), ErrSessionClosed)

	assert.Equal(t, lists, ft.lists.Load())
	assert.Equal(t, int64(0), ft.creates.Load())
	assert.Equal(t, int64(0), ft.mutations())
}

func TestOpenRequireInitialLoad(t *testing.T) {
	ft := newFakeTransport(mkComment(1, 1, "a"))
	ft.listErr = assert.AnError

	_, err := Open(context.Background(), Config{
		Transport:          ft,
		Target:             newsRef,
		Interval:           time.Hour,
		Logger:             quietLogger(),
		RequireInitialLoad: true,
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(1), ft.lists.Load())

	ft.mu.Lock()
	ft.listErr = nil
	ft.mu.Unlock()

	s, err := Open(context.Background(), Config{
		Transport:          ft,
		Target:             newsRef,
		Interval:           time.Hour,
		Logger:             quietLogger(),
		RequireInitialLoad: true,
	})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 1, s.Store().Len())
	assert.Equal(t, int64(2), ft.lists.Load(), "one fetch per open")
}

func TestViewPermissionsFollowIdentity(t *testing.T) {
	ft := newFakeTransport(mkComment(1, 1, "alice's"), mkComment(2, 2, "bob's"))
	id := &switchableIdentity{}
	s := openTestSession(t, ft, id)

	for _, e := range s.View() {
		assert.False(t, e.CanEdit)
		assert.False(t, e.CanDelete)
	}

	id.p.Store(alice)
	view := s.View()
	require.Len(t, view, 2)
	assert.True(t, view[0].CanEdit)
	assert.True(t, view[0].CanDelete)
	assert.False(t, view[1].CanEdit)
	assert.False(t, view[1].CanDelete)

	id.p.Store(&auth.Principal{ID: 1, Role: auth.RoleAdmin})
	view = s.View()
	assert.True(t, view[0].CanEdit)
	assert.False(t, view[1].CanEdit)
	assert.True(t, view[1].CanDelete)

	id.p.Store(nil)
	_, err := s.Create(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, int64(0), ft.mutations())
}

func TestSessionOnChange(t *testing.T) {
	ft := newFakeTransport(mkComment(1, 1, "a"))
	changed := make(chan struct{}, 10)
	s, err := Open(context.Background(), Config{
		Transport: ft,
		Target:    newsRef,
		Interval:  5 * time.Millisecond,
		Logger:    quietLogger(),
		OnChange:  func() { changed <- struct{}{} },
	})
	require.NoError(t, err)
	defer s.Close()

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("no change reported for initial load")
	}

	ft.serverEdit(1, "edited elsewhere")
	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("no change reported after server edit")
	}
	require.Eventually(t, func() bool {
		c, _ := s.Store().Comment(1)
		return c.Content == "edited elsewhere"
	}, time.Second, time.Millisecond)
}

func TestSessionCreateUsesCompose(t *testing.T) {
	ft := newFakeTransport()
	ft.caller = alice
	s := openTestSession(t, ft, auth.StaticIdentity{Principal: alice})

	s.Store().SetCompose("from the compose box")
	created, err := s.Create(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "from the compose box", created.Content)
	assert.Equal(t, "", s.Store().Compose())
	assert.Equal(t, 1, s.Store().Len())
}

func TestSessionEditFlow(t *testing.T) {
	ft := newFakeTransport(mkComment(42, 1, "original"))
	s := openTestSession(t, ft, auth.StaticIdentity{Principal: alice})
	ctx := context.Background()

	require.NoError(t, s.BeginEdit(42))
	draft, ok := s.Store().CurrentDraft(42)
	require.True(t, ok)
	assert.Equal(t, "original", draft)

	// a poll in the middle of typing keeps the draft
	s.Store().SetDraft(42, "half typed")
	ft.serverEdit(42, "changed by moderator")
	require.NoError(t, s.Refresh(ctx))
	draft, _ = s.Store().CurrentDraft(42)
	assert.Equal(t, "half typed", draft)
	assert.True(t, s.View()[0].Stale)

	s.Store().SetDraft(42, "final")
	updated, err := s.Save(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.False(t, s.Store().Editing(42))

	_, err = s.Save(ctx, 42)
	assert.Equal(t, KindValidation, KindOf(err), "nothing open to save")
}

func TestSessionBeginEditChecks(t *testing.T) {
	ft := newFakeTransport(mkComment(42, 2, "bob's"))
	s := openTestSession(t, ft, auth.StaticIdentity{Principal: alice})

	assert.ErrorIs(t, s.BeginEdit(42), ErrForbidden)
	assert.ErrorIs(t, s.BeginEdit(99), ErrNotFound)

	s.CancelEdit(42)
	assert.False(t, s.Store().Editing(42))
}

func TestSessionUpdateAndDelete(t *testing.T) {
	ft := newFakeTransport(mkComment(42, 1, "original"), mkComment(43, 2, "bob's"))
	s := openTestSession(t, ft, auth.StaticIdentity{Principal: alice})
	ctx := context.Background()

	_, err := s.Update(ctx, 42, "rewritten")
	require.NoError(t, err)
	c, _ := s.Store().Comment(42)
	assert.Equal(t, "rewritten", c.Content)

	assert.ErrorIs(t, s.Delete(ctx, 43), ErrForbidden)
	require.NoError(t, s.Delete(ctx, 42))
	assert.Equal(t, 1, s.Store().Len())
}
