package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/villagegov/portal/internal/commentview"
)

func newCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <type> <id>",
		Short: "List comments on a target",
		Long:  "List all comments on a news item, agenda, product or achievement, oldest first.",
		Args:  cobra.ExactArgs(2),
		RunE:  runComments,
	}
}

func runComments(cmd *cobra.Command, args []string) error {
	ref, err := parseTarget(args[0], args[1])
	if err != nil {
		return err
	}

	sess, err := openSession(cmd.Context(), ref, commentview.DefaultInterval, nil, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	entries := sess.View()
	out := cmd.OutOrStdout()

	if isJSON() {
		return printJSON(out, entriesJSON(entries))
	}

	fmt.Fprintf(out, "Comments on %s:\n\n", ref)
	printEntries(out, entries)
	return nil
}
