package comment

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a comment ID does not exist.
var ErrNotFound = errors.New("comment not found")

// ErrContentEmpty is returned when comment content is blank.
var ErrContentEmpty = errors.New("comment content is required")

const selectColumns = "id, target_type, target_id, author_id, author_name, content, created_at, updated_at"

// Repository provides CRUD operations for comments.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a comment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Add creates a new comment on a target.
func (r *Repository) Add(ref TargetRef, authorID int64, authorName, content string) (*Comment, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentEmpty
	}

	now := r.now().UTC()
	result, err := r.db.Exec(
		"INSERT INTO comments (target_type, target_id, author_id, author_name, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		string(ref.Type), ref.ID, authorID, authorName, content, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.Get(id)
}

// Get returns a comment by ID.
func (r *Repository) Get(id int64) (*Comment, error) {
	row := r.db.QueryRow("SELECT "+selectColumns+" FROM comments WHERE id = ?", id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading comment %d: %w", id, err)
	}
	return c, nil
}

// ListByTarget returns all comments for a target, oldest first.
// An empty ref.Type matches the ID under every target type.
func (r *Repository) ListByTarget(ref TargetRef) (comments []*Comment, err error) {
	query := "SELECT " + selectColumns + " FROM comments WHERE target_id = ?"
	args := []interface{}{ref.ID}
	if ref.Type != "" {
		query += " AND target_type = ?"
		args = append(args, string(ref.Type))
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	comments = make([]*Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// Update replaces a comment's content and bumps updated_at.
func (r *Repository) Update(id int64, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentEmpty
	}

	result, err := r.db.Exec(
		"UPDATE comments SET content = ?, updated_at = ? WHERE id = ?",
		content, r.now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	return r.Get(id)
}

// Delete removes a comment by ID.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanComment(s scanner) (*Comment, error) {
	var c Comment
	var targetType string
	if err := s.Scan(&c.ID, &targetType, &c.TargetID, &c.AuthorID, &c.AuthorName, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.TargetType = TargetType(targetType)
	return &c, nil
}
