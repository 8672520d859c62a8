package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/villagegov/portal/internal/comment"
	"github.com/villagegov/portal/internal/commentview"
)

const timeLayout = "2006-01-02 15:04"

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// entryJSON is the --format json shape of one comment in a listing.
type entryJSON struct {
	comment.Comment
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func entriesJSON(entries []commentview.Entry) []entryJSON {
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON{Comment: e.Comment, CanEdit: e.CanEdit, CanDelete: e.CanDelete})
	}
	return out
}

// printEntries prints a comment listing in text format.
func printEntries(w io.Writer, entries []commentview.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No comments.")
		return
	}

	for _, e := range entries {
		c := e.Comment
		fmt.Fprintf(w, "[%s] #%d (%s)%s\n  %s\n\n",
			c.CreatedAt.Local().Format(timeLayout), c.ID, authorName(c), entryTags(e), indent(e.Display()))
	}
}

// printCommentSingle prints a single comment after a create or update.
func printCommentSingle(w io.Writer, verb string, c *comment.Comment) {
	fmt.Fprintf(w, "Comment #%d %s.\n  %s\n", c.ID, verb, indent(c.Content))
}

func authorName(c comment.Comment) string {
	if c.AuthorName == "" {
		return "anonymous"
	}
	return c.AuthorName
}

// entryTags renders the edited marker and the viewer's permissions.
func entryTags(e commentview.Entry) string {
	var tags []string
	if !e.Comment.UpdatedAt.Equal(e.Comment.CreatedAt) {
		tags = append(tags, "edited")
	}
	switch {
	case e.CanEdit:
		tags = append(tags, "yours")
	case e.CanDelete:
		tags = append(tags, "can moderate")
	}
	if len(tags) == 0 {
		return ""
	}
	return " [" + strings.Join(tags, ", ") + "]"
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n  ")
}
