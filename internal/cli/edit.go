package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/villagegov/portal/internal/commentview"
)

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `edit <type> <id> <comment-id> "text"`,
		Short: "Edit one of your comments",
		Long:  "Replace the text of a comment you wrote. Only the author can edit a comment.",
		Args:  cobra.MinimumNArgs(4),
		RunE:  runEdit,
	}
}

func runEdit(cmd *cobra.Command, args []string) error {
	ref, err := parseTarget(args[0], args[1])
	if err != nil {
		return err
	}
	id, err := parseCommentID(args[2])
	if err != nil {
		return err
	}

	text := strings.Join(args[3:], " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment text is required")
	}

	sess, err := openSession(cmd.Context(), ref, commentview.DefaultInterval, nil, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	c, err := sess.Update(cmd.Context(), id, text)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), c)
	}

	printCommentSingle(cmd.OutOrStdout(), "updated", c)
	return nil
}
