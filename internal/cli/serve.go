package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/villagegov/portal/internal/db"
	"github.com/villagegov/portal/internal/logging"
	"github.com/villagegov/portal/internal/web"
)

const checkpointInterval = time.Hour

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the comment API server",
		Long:  "Start an HTTP server for the comment API. Reads VP_PORT, VP_DB and VP_DEV_MODE; flags take precedence.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: VP_PORT or 8080)")

	return cmd
}

func runServe(ctx context.Context, port int) error {
	cfg, err := web.LoadConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Port = port
	}
	logging.Setup(cfg.DevMode || flagVerbose)

	path := flagDB
	if path == "" {
		path = cfg.DBPath
	}
	database, err := openDB(path)
	if err != nil {
		return err
	}
	defer closeDB(database)

	srv, err := web.NewServer(database)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.Addr())
	})
	g.Go(func() error {
		return db.RunCheckpoints(gctx, database, checkpointInterval)
	})
	return g.Wait()
}
