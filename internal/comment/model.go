// Package comment provides the comment domain model, moderation rules and
// data access.
package comment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TargetType is the kind of content a comment is attached to.
type TargetType string

const (
	TargetNews        TargetType = "NEWS"
	TargetAgenda      TargetType = "AGENDA"
	TargetProduct     TargetType = "PRODUCT"
	TargetAchievement TargetType = "ACHIEVEMENT"
)

// TargetTypes lists every known target type.
var TargetTypes = []TargetType{TargetNews, TargetAgenda, TargetProduct, TargetAchievement}

// ParseTargetType converts a tag such as "news" or "NEWS" to a TargetType.
func ParseTargetType(s string) (TargetType, error) {
	t := TargetType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid target type %q (must be one of NEWS, AGENDA, PRODUCT, ACHIEVEMENT)", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known target types.
func (t TargetType) Valid() bool {
	for _, known := range TargetTypes {
		if t == known {
			return true
		}
	}
	return false
}

// UnmarshalJSON rejects unknown tags so a typo cannot create an orphaned comment.
// An empty string decodes to the zero value.
func (t *TargetType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("target type must be a string: %w", err)
	}
	if s == "" {
		*t = ""
		return nil
	}
	parsed, err := ParseTargetType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TargetRef identifies the content entity a comment belongs to.
type TargetRef struct {
	Type TargetType `json:"target_type"`
	ID   string     `json:"target_id"`
}

// Validate checks that the ref names a known type and a non-empty ID.
func (r TargetRef) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("invalid target type %q", r.Type)
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("target id is required")
	}
	return nil
}

func (r TargetRef) String() string {
	return string(r.Type) + "/" + r.ID
}

// Comment is a user remark on a target.
type Comment struct {
	ID         int64      `json:"id"`
	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id"`
	AuthorID   int64      `json:"author_id"`
	AuthorName string     `json:"author_name"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Target returns the ref this comment is attached to.
func (c *Comment) Target() TargetRef {
	return TargetRef{Type: c.TargetType, ID: c.TargetID}
}
