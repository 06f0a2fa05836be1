package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spinsync/spinsync/internal/repositories"
	"github.com/urfave/cli/v3"
)

// SessionsPurge removes session records that have been idle longer than the
// --older-than window.
func (r *Runner) SessionsPurge(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd)
	if err != nil {
		return err
	}

	store, closeStore, err := r.newSessionStore(config)
	if err != nil {
		return err
	}
	defer closeStore()

	purger, ok := store.(repositories.Purger)
	if !ok {
		// Redis records carry their own TTL and expire without help.
		return r.writePlain("Sessions on the %s backend expire automatically; nothing to purge\n", config.Sessions.Backend)
	}

	olderThan := cmd.Duration("older-than")
	if olderThan <= 0 {
		olderThan = time.Duration(config.Sessions.TTLHours) * time.Hour
	}

	cutoff := time.Now().Add(-olderThan).UTC()
	purged, err := purger.PurgeExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge sessions: %w", err)
	}

	r.logger.Info("purge complete", "purged", purged, "cutoff", cutoff)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]int{"purged": purged}, cmd.Bool("pretty"))
	}

	return r.writePlain("✓ Purged %d expired sessions\n", purged)
}
