package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/villagegov/portal/internal/comment"
	"github.com/villagegov/portal/internal/commentview"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <type> <id>",
		Short: "Follow comments on a target",
		Long:  "Print the comments on a target and reprint them whenever they change. Polls every 5s by default (poll_interval in config or VP_POLL_INTERVAL). Stop with Ctrl-C.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseTarget(args[0], args[1])
			if err != nil {
				return err
			}
			interval, err := getPollInterval()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmd.OutOrStdout(), ref, interval)
		},
	}
}

// runWatch renders the list on open and after every change until ctx ends.
func runWatch(ctx context.Context, w io.Writer, ref comment.TargetRef, interval time.Duration) error {
	changes := make(chan struct{}, 1)
	notify := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}

	sess, err := openSession(ctx, ref, interval, notify, false)
	if err != nil {
		return err
	}

	if !isJSON() {
		fmt.Fprintf(w, "Watching %s every %s. Press Ctrl-C to stop.\n\n", ref, interval)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		sess.Close()
		return nil
	})

	g.Go(func() error {
		// The initial load may already have queued a change.
		select {
		case <-changes:
		default:
		}
		if err := renderWatch(w, sess); err != nil {
			return err
		}
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-changes:
				if err := renderWatch(w, sess); err != nil {
					return err
				}
			}
		}
	})

	return g.Wait()
}

func renderWatch(w io.Writer, sess *commentview.Session) error {
	entries := sess.View()
	if isJSON() {
		// one compact document per refresh
		return json.NewEncoder(w).Encode(entriesJSON(entries))
	}

	fmt.Fprintf(w, "── %s · %d comments ──\n\n", time.Now().Format("15:04:05"), len(entries))
	printEntries(w, entries)
	return nil
}
