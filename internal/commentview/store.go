// Package commentview keeps one target's comment list in sync with the
// server while the viewer reads, composes and edits comments.
//
// A Session owns a Store, a Poller that refreshes it on a fixed interval,
// and a Coordinator that performs create/update/delete on the viewer's
// behalf. Drafts of comments being edited are never replaced by polled
// server content.
package commentview

import (
	"sync"
	"time"

	"github.com/villagegov/portal/internal/comment"
)

// Entry is one comment as the viewer should see it.
type Entry struct {
	// Comment is the latest server copy.
	Comment comment.Comment
	// Editing is set while a local edit is open; Draft holds its text.
	Editing bool
	Draft   string
	// Stale is set when the server copy changed after the edit began.
	Stale bool
	// CanEdit and CanDelete are only filled in by Session.View.
	CanEdit   bool
	CanDelete bool
}

// Display returns the text to render: the draft while editing, else the server content.
func (e Entry) Display() string {
	if e.Editing {
		return e.Draft
	}
	return e.Comment.Content
}

type editState struct {
	draft    string
	baseline time.Time
}

// Store holds the server's comment list for one target plus local edit
// state. It never talks to the network.
type Store struct {
	mu       sync.RWMutex
	comments []comment.Comment
	index    map[int64]int
	edits    map[int64]*editState
	compose  string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		index: make(map[int64]int),
		edits: make(map[int64]*editState),
	}
}

// ReplaceServerList sets the authoritative list. Nil entries are skipped
// and repeated IDs keep the last copy. Edit state survives for every ID
// still present and is dropped for IDs that disappeared. Reports whether
// the visible list changed.
func (s *Store) ReplaceServerList(list []*comment.Comment) bool {
	next := make([]comment.Comment, 0, len(list))
	index := make(map[int64]int, len(list))
	for _, c := range list {
		if c == nil {
			continue
		}
		if i, dup := index[c.ID]; dup {
			next[i] = *c
			continue
		}
		index[c.ID] = len(next)
		next = append(next, *c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := !sameComments(s.comments, next)
	s.comments = next
	s.index = index
	for id := range s.edits {
		if _, ok := index[id]; !ok {
			delete(s.edits, id)
			changed = true
		}
	}
	return changed
}

// BeginEdit opens a local edit for id seeded with initialDraft. It is a
// no-op returning false if id is not in the current list.
func (s *Store) BeginEdit(id int64, initialDraft string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	if e, editing := s.edits[id]; editing {
		e.draft = initialDraft
		return true
	}
	s.edits[id] = &editState{draft: initialDraft, baseline: s.comments[i].UpdatedAt}
	return true
}

// SetDraft replaces the draft of an open edit. Returns false if id is not being edited.
func (s *Store) SetDraft(id int64, draft string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.edits[id]
	if !ok {
		return false
	}
	e.draft = draft
	return true
}

// CancelEdit clears the edit state for id.
func (s *Store) CancelEdit(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edits, id)
}

// CurrentDraft returns the draft for id and whether an edit is open.
func (s *Store) CurrentDraft(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.edits[id]
	if !ok {
		return "", false
	}
	return e.draft, true
}

// Editing reports whether id has an open edit.
func (s *Store) Editing(id int64) bool {
	_, ok := s.CurrentDraft(id)
	return ok
}

// Comment returns a copy of the known-server comment id.
func (s *Store) Comment(id int64) (comment.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return comment.Comment{}, false
	}
	return s.comments[i], true
}

// Snapshot returns a copy of the server list in server order.
func (s *Store) Snapshot() []comment.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]comment.Comment, len(s.comments))
	copy(out, s.comments)
	return out
}

// Len returns the number of comments in the list.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.comments)
}

// Entries returns the merged view of server copies and local edits.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.comments))
	for i, c := range s.comments {
		out[i] = Entry{Comment: c}
		if e, ok := s.edits[c.ID]; ok {
			out[i].Editing = true
			out[i].Draft = e.draft
			out[i].Stale = !c.UpdatedAt.Equal(e.baseline)
		}
	}
	return out
}

// SetCompose stores the text of the new-comment field.
func (s *Store) SetCompose(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compose = text
}

// Compose returns the text of the new-comment field.
func (s *Store) Compose() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compose
}

func sameComments(a, b []comment.Comment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID ||
			a[i].Content != b[i].Content ||
			a[i].AuthorName != b[i].AuthorName ||
			!a[i].UpdatedAt.Equal(b[i].UpdatedAt) {
			return false
		}
	}
	return true
}
