// Package cli defines the cobra command tree for village portal.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/villagegov/portal/internal/client"
	"github.com/villagegov/portal/internal/db"
	"github.com/villagegov/portal/internal/logging"
)

var (
	flagFormat  string
	flagDB      string
	flagVerbose bool
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vp",
		Short:         "Read and write comments on the village portal",
		Long:          "A tool for the village portal comment API. Read, post, edit and moderate comments on news, agendas, products and achievements, or run the API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(flagVerbose)
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.village-portal/portal.db)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newCommentsCmd(),
		newCommentCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newWatchCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newServeCmd(),
		newUserCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database at path, or the --db flag, or the default path.
func openDB(path string) (*sql.DB, error) {
	if path == "" {
		path = flagDB
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the comment API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
