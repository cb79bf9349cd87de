package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DeadRowStore deletes rows that can no longer authenticate anything:
// expired or revoked refresh tokens, expired or consumed setup tokens.
type DeadRowStore interface {
	DeleteDead(ctx context.Context, now time.Time) (int64, error)
}

// Cleaner purges dead token rows. Run from the cleanup subcommand, typically
// on a cron.
type Cleaner struct {
	tokens DeadRowStore
	setups DeadRowStore
	log    zerolog.Logger
	now    func() time.Time
}

func NewCleaner(tokens, setups DeadRowStore, log zerolog.Logger) *Cleaner {
	return &Cleaner{tokens: tokens, setups: setups, log: log, now: time.Now}
}

// Run deletes dead refresh and setup tokens and logs the counts.
func (c *Cleaner) Run(ctx context.Context) error {
	now := c.now()

	refresh, err := c.tokens.DeleteDead(ctx, now)
	if err != nil {
		return err
	}
	setup, err := c.setups.DeleteDead(ctx, now)
	if err != nil {
		return err
	}

	c.log.Info().
		Int64("refresh_tokens", refresh).
		Int64("setup_tokens", setup).
		Msg("dead token rows purged")
	return nil
}
