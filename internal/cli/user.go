package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/villagegov/portal/internal/auth"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users on the local server database",
		Long:  "Create and list users directly in the server's SQLite database. Run on the server host.",
	}
	cmd.AddCommand(newUserAddCmd(), newUserListCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var admin bool

	cmd := &cobra.Command{
		Use:   `add "display name"`,
		Short: "Create a user and print an API key for it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := auth.RoleUser
			if admin {
				role = auth.RoleAdmin
			}
			return runUserAdd(cmd.OutOrStdout(), strings.Join(args, " "), role)
		},
	}

	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role (may delete any comment)")

	return cmd
}

func runUserAdd(out io.Writer, name string, role auth.Role) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("display name is required")
	}

	database, err := openDB("")
	if err != nil {
		return err
	}
	defer closeDB(database)

	u, err := auth.NewUserStore(database).Add(name, role)
	if err != nil {
		return err
	}

	rawKey, _, err := auth.NewAPIKeyStore(database).Create("cli", u.ID)
	if err != nil {
		return fmt.Errorf("creating API key: %w", err)
	}

	if isJSON() {
		return printJSON(out, map[string]interface{}{"user": u, "api_key": rawKey})
	}

	fmt.Fprintf(out, "User #%d %s (%s) created.\n", u.ID, u.DisplayName, u.Role)
	fmt.Fprintf(out, "API key (shown once): %s\n", rawKey)
	fmt.Fprintln(out, "\nGive it to the user to run 'vp login --key <key>'.")
	return nil
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd.OutOrStdout())
		},
	}
}

func runUserList(out io.Writer) error {
	database, err := openDB("")
	if err != nil {
		return err
	}
	defer closeDB(database)

	users, err := auth.NewUserStore(database).List()
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(out, users)
	}

	if len(users) == 0 {
		fmt.Fprintln(out, "No users.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tROLE\tCREATED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, u := range users {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.DisplayName, u.Role, u.CreatedAt.Local().Format(timeLayout)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}
