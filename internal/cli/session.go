package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/villagegov/portal/internal/auth"
	"github.com/villagegov/portal/internal/client"
	"github.com/villagegov/portal/internal/comment"
	"github.com/villagegov/portal/internal/commentview"
)

// resolvePrincipal asks the server who owns the configured API key.
// No key, or a key the server rejects, means anonymous.
func resolvePrincipal(ctx context.Context, c *client.Client) (*auth.Principal, error) {
	if getAPIKey() == "" {
		return nil, nil
	}

	p, err := c.Me(ctx)
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		slog.Debug("stored API key rejected, continuing anonymously")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving current user: %w", err)
	}
	return p, nil
}

// openSession opens a viewing session on ref as the configured user.
// When mustLoad is set the first list fetch has to succeed.
func openSession(ctx context.Context, ref comment.TargetRef, interval time.Duration, onChange func(), mustLoad bool) (*commentview.Session, error) {
	c := newAPIClient()

	p, err := resolvePrincipal(ctx, c)
	if err != nil {
		return nil, err
	}

	return commentview.Open(ctx, commentview.Config{
		Transport:          c,
		Target:             ref,
		Identity:           auth.StaticIdentity{Principal: p},
		Interval:           interval,
		Logger:             slog.Default(),
		OnChange:           onChange,
		RequireInitialLoad: mustLoad,
	})
}
