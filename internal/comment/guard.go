package comment

import "github.com/villagegov/portal/internal/auth"

// CanEdit reports whether p may change c's content. Editing is owner-only;
// admins cannot edit other people's comments.
func CanEdit(p *auth.Principal, c *Comment) bool {
	return p != nil && c != nil && p.ID == c.AuthorID
}

// CanDelete reports whether p may remove c: its author or any admin.
func CanDelete(p *auth.Principal, c *Comment) bool {
	if p == nil || c == nil {
		return false
	}
	return p.ID == c.AuthorID || p.Role == auth.RoleAdmin
}
