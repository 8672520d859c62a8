package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/villagegov/portal/internal/commentview"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id> <comment-id>",
		Short: "Delete a comment",
		Long:  "Delete a comment. Authors can delete their own comments; admins can delete any comment.",
		Args:  cobra.ExactArgs(3),
		RunE:  runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	ref, err := parseTarget(args[0], args[1])
	if err != nil {
		return err
	}
	id, err := parseCommentID(args[2])
	if err != nil {
		return err
	}

	sess, err := openSession(cmd.Context(), ref, commentview.DefaultInterval, nil, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Delete(cmd.Context(), id); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{"deleted": id})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Comment #%d deleted.\n", id)
	return nil
}
