package cli

import (
	"fmt"
	"strconv"

	"github.com/villagegov/portal/internal/comment"
)

// parseTarget builds a target ref from "<type> <id>" arguments.
func parseTarget(typeArg, idArg string) (comment.TargetRef, error) {
	tt, err := comment.ParseTargetType(typeArg)
	if err != nil {
		return comment.TargetRef{}, err
	}
	ref := comment.TargetRef{Type: tt, ID: idArg}
	if err := ref.Validate(); err != nil {
		return comment.TargetRef{}, err
	}
	return ref, nil
}

func parseCommentID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid comment ID: %s", s)
	}
	return id, nil
}
