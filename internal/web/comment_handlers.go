package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/villagegov/portal/internal/auth"
	"github.com/villagegov/portal/internal/comment"
)

type listCommentsResponse struct {
	Comments []*comment.Comment `json:"comments"`
}

// handleListComments serves GET /comments/{id}. target_type narrows the
// match; without it every target with that ID is returned.
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	ref := comment.TargetRef{ID: chi.URLParam(r, "id")}

	if raw := r.URL.Query().Get("target_type"); raw != "" {
		tt, err := comment.ParseTargetType(raw)
		if err != nil {
			apiFieldErrors(w, []fieldError{{Path: "target_type", Message: "must be one of NEWS, AGENDA, PRODUCT, ACHIEVEMENT"}})
			return
		}
		ref.Type = tt
	}

	comments, err := s.comments.ListByTarget(ref)
	if err != nil {
		slog.Error("listing comments", "target", ref.String(), "error", err)
		apiError(w, "failed to list comments", http.StatusInternalServerError)
		return
	}

	apiJSON(w, listCommentsResponse{Comments: comments}, http.StatusOK)
}

// handleCreateComment serves POST /comments/create/{id}.
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		apiError(w, "authorization required", http.StatusUnauthorized)
		return
	}

	var req createCommentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	ref := comment.TargetRef{Type: comment.TargetType(req.TargetType), ID: chi.URLParam(r, "id")}
	c, err := s.comments.Add(ref, p.ID, p.DisplayName, req.Content)
	if errors.Is(err, comment.ErrContentEmpty) {
		apiFieldErrors(w, []fieldError{{Path: "content", Message: "is required"}})
		return
	}
	if err != nil {
		slog.Error("adding comment", "target", ref.String(), "error", err)
		apiError(w, "failed to add comment", http.StatusInternalServerError)
		return
	}

	slog.Info("comment created", "comment_id", c.ID, "target", ref.String(), "author_id", p.ID)
	apiJSON(w, c, http.StatusCreated)
}

// handleUpdateComment serves PATCH /comments/{id}. Only the author may edit.
func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	p, existing, ok := s.loadForMutation(w, r)
	if !ok {
		return
	}
	if !comment.CanEdit(p, existing) {
		apiError(w, "only the author can edit this comment", http.StatusForbidden)
		return
	}

	var req updateCommentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	updated, err := s.comments.Update(existing.ID, req.Content)
	if errors.Is(err, comment.ErrNotFound) {
		apiError(w, "comment not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, comment.ErrContentEmpty) {
		apiFieldErrors(w, []fieldError{{Path: "content", Message: "is required"}})
		return
	}
	if err != nil {
		slog.Error("updating comment", "comment_id", existing.ID, "error", err)
		apiError(w, "failed to update comment", http.StatusInternalServerError)
		return
	}

	slog.Info("comment updated", "comment_id", updated.ID, "author_id", p.ID)
	apiJSON(w, updated, http.StatusOK)
}

// handleDeleteComment serves DELETE /comments/{id}. The author or an admin may delete.
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	p, existing, ok := s.loadForMutation(w, r)
	if !ok {
		return
	}
	if !comment.CanDelete(p, existing) {
		apiError(w, "not allowed to delete this comment", http.StatusForbidden)
		return
	}

	err := s.comments.Delete(existing.ID)
	if errors.Is(err, comment.ErrNotFound) {
		apiError(w, "comment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("deleting comment", "comment_id", existing.ID, "error", err)
		apiError(w, "failed to delete comment", http.StatusInternalServerError)
		return
	}

	slog.Info("comment deleted", "comment_id", existing.ID, "actor_id", p.ID, "admin", p.IsAdmin())
	w.WriteHeader(http.StatusNoContent)
}

// loadForMutation resolves the caller and the comment named in the URL.
func (s *Server) loadForMutation(w http.ResponseWriter, r *http.Request) (*auth.Principal, *comment.Comment, bool) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		apiError(w, "authorization required", http.StatusUnauthorized)
		return nil, nil, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apiError(w, "invalid comment ID", http.StatusBadRequest)
		return nil, nil, false
	}

	c, err := s.comments.Get(id)
	if errors.Is(err, comment.ErrNotFound) {
		apiError(w, "comment not found", http.StatusNotFound)
		return nil, nil, false
	}
	if err != nil {
		slog.Error("loading comment", "comment_id", id, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return nil, nil, false
	}

	return p, c, true
}
