package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/villagegov/portal/internal/commentview"
)

func newCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `comment <type> <id> "text"`,
		Short: "Post a comment on a target",
		Long:  "Post a text comment on a news item, agenda, product or achievement. Requires login.",
		Args:  cobra.MinimumNArgs(3),
		RunE:  runComment,
	}
}

func runComment(cmd *cobra.Command, args []string) error {
	ref, err := parseTarget(args[0], args[1])
	if err != nil {
		return err
	}

	text := strings.Join(args[2:], " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment text is required")
	}

	sess, err := openSession(cmd.Context(), ref, commentview.DefaultInterval, nil, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	c, err := sess.Create(cmd.Context(), text)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), c)
	}

	printCommentSingle(cmd.OutOrStdout(), "added", c)
	return nil
}
