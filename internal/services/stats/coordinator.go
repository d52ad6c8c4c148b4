// Package stats applies win/loss updates to profiles, either directly or as
// the participant side of a prepare/commit/rollback transaction.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/battleship-go/internal/dependencies/clock"
	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/storage"
)

// Config holds coordinator settings
type Config struct {
	// SnapshotTTL is how long a prepared transaction waits for its commit or
	// rollback before it is discarded
	SnapshotTTL time.Duration
}

// DefaultConfig returns default coordinator configuration
func DefaultConfig() Config {
	return Config{
		SnapshotTTL: 5 * time.Minute,
	}
}

// snapshot is a prepared, not yet resolved transaction on one profile
type snapshot struct {
	txID       string
	playerID   model.PlayerID
	change     model.StatResult
	before     model.Profile
	preparedAt time.Time
}

// Coordinator holds prepared transactions in memory. Each profile can be held
// by at most one live transaction, and direct updates are refused while it is
// held.
type Coordinator struct {
	store  storage.ProfileStore
	clock  clock.Clock
	logger *slog.Logger
	ttl    time.Duration

	// mu also serialises the store writes made on behalf of transactions
	mu        sync.Mutex
	snapshots map[string]*snapshot
	locks     map[model.PlayerID]string
}

// New creates a Coordinator over the given profile store
func New(store storage.ProfileStore, clk clock.Clock, cfg Config, logger *slog.Logger) *Coordinator {
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = DefaultConfig().SnapshotTTL
	}
	return &Coordinator{
		store:     store,
		clock:     clk,
		logger:    logger,
		ttl:       cfg.SnapshotTTL,
		snapshots: make(map[string]*snapshot),
		locks:     make(map[model.PlayerID]string),
	}
}

// Prepare votes on applying change to the profile under txID. On success the
// profile is locked to txID until Commit, Rollback or expiry.
func (c *Coordinator) Prepare(ctx context.Context, txID string, playerID model.PlayerID, change model.StatResult) error {
	if _, err := model.ParseStatResult(string(change)); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpiredLocked()

	if _, exists := c.snapshots[txID]; exists {
		return model.ErrTransactionExists
	}
	if holder, locked := c.locks[playerID]; locked {
		return fmt.Errorf("%w: held by %s", model.ErrEntityLocked, holder)
	}

	profile, err := c.store.GetProfile(ctx, playerID)
	if err != nil {
		return err
	}

	c.snapshots[txID] = &snapshot{
		txID:       txID,
		playerID:   playerID,
		change:     change,
		before:     *profile,
		preparedAt: c.clock.Now(),
	}
	c.locks[playerID] = txID

	c.logger.Info("transaction prepared",
		slog.String("tx_id", txID),
		slog.String("player_id", string(playerID)),
		slog.String("result", string(change)),
	)
	return nil
}

// Commit applies the prepared change. The player and change must match what
// was prepared. A failed store write leaves the transaction prepared so the
// commit can be retried.
func (c *Coordinator) Commit(ctx context.Context, txID string, playerID model.PlayerID, change model.StatResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpiredLocked()

	snap, ok := c.snapshots[txID]
	if !ok {
		return model.ErrUnknownTransaction
	}
	if snap.playerID != playerID || snap.change != change {
		return model.ErrTransactionMismatch
	}

	updated := snap.before
	if err := updated.Apply(snap.change, c.clock.Now()); err != nil {
		return err
	}
	if err := c.store.SaveProfile(ctx, &updated); err != nil {
		c.logger.Error("transaction commit failed",
			slog.String("tx_id", txID),
			slog.String("error", err.Error()),
		)
		return err
	}

	c.releaseLocked(snap)
	c.logger.Info("transaction committed",
		slog.String("tx_id", txID),
		slog.String("player_id", string(playerID)),
		slog.Int("wins", updated.Wins),
		slog.Int("losses", updated.Losses),
	)
	return nil
}

// Rollback restores the profile to its prepared snapshot and discards the transaction
func (c *Coordinator) Rollback(ctx context.Context, txID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpiredLocked()

	snap, ok := c.snapshots[txID]
	if !ok {
		return model.ErrUnknownTransaction
	}

	restored := snap.before
	if err := c.store.SaveProfile(ctx, &restored); err != nil {
		c.logger.Error("transaction rollback failed",
			slog.String("tx_id", txID),
			slog.String("error", err.Error()),
		)
		return err
	}

	c.releaseLocked(snap)
	c.logger.Info("transaction rolled back", slog.String("tx_id", txID))
	return nil
}

// UpdateStats applies a result outside any transaction
func (c *Coordinator) UpdateStats(ctx context.Context, playerID model.PlayerID, change model.StatResult) (*model.Profile, error) {
	if _, err := model.ParseStatResult(string(change)); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpiredLocked()

	if holder, locked := c.locks[playerID]; locked {
		return nil, fmt.Errorf("%w: held by %s", model.ErrEntityLocked, holder)
	}

	profile, err := c.store.GetProfile(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := profile.Apply(change, c.clock.Now()); err != nil {
		return nil, err
	}
	if err := c.store.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Pending returns the number of live prepared transactions
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshots)
}

// Sweep discards prepared transactions older than the snapshot TTL and
// returns how many were dropped
func (c *Coordinator) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictExpiredLocked()
}

// DefaultSweepInterval is used by Run when no positive interval is given
const DefaultSweepInterval = 30 * time.Second

// Run sweeps expired transactions every interval until ctx is cancelled
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.Warn("expired prepared transactions discarded", slog.Int("count", n))
			}
		}
	}
}

func (c *Coordinator) evictExpiredLocked() int {
	evicted := 0
	for _, snap := range c.snapshots {
		if c.clock.Since(snap.preparedAt) > c.ttl {
			c.logger.Warn("prepared transaction expired",
				slog.String("tx_id", snap.txID),
				slog.String("player_id", string(snap.playerID)),
			)
			c.releaseLocked(snap)
			evicted++
		}
	}
	return evicted
}

func (c *Coordinator) releaseLocked(snap *snapshot) {
	delete(c.snapshots, snap.txID)
	if c.locks[snap.playerID] == snap.txID {
		delete(c.locks, snap.playerID)
	}
}
