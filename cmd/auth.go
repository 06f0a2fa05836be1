package main

import (
	"context"
	"fmt"

	"github.com/spinsync/spinsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthURL prints the login URL of a running server, optionally opening it in
// the default browser. The server's /login route owns the OAuth state
// handshake, so the printed URL is the right entry point for a new session.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/login", config.Server.Addr())

	if err := r.writePlain("%s\n", url); err != nil {
		return err
	}

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return nil
}
