// Package twopc runs a two-phase commit across the profile service's
// participants, with the game service's own state change as the local step.
package twopc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/battleship-go/internal/model"
)

// Outcomes of Execute
var (
	// ErrAborted means a participant voted no. Nothing was applied.
	ErrAborted = errors.New("transaction aborted: participant declined")
	// ErrUnavailable means a participant could not be reached. Nothing was applied.
	ErrUnavailable = errors.New("transaction aborted: participant unavailable")
	// ErrCommitIncomplete means the decision was commit but at least one
	// participant never acknowledged it. The local change stands.
	ErrCommitIncomplete = errors.New("transaction committed locally but not acknowledged by every participant")
)

// Branch is one participant operation within a transaction
type Branch struct {
	Participant Participant
	PlayerID    model.PlayerID
	Result      model.StatResult
}

// Transaction is a set of branches decided together
type Transaction struct {
	ID       string
	Branches []Branch
}

// NewTransaction creates a transaction with a fresh global id
func NewTransaction(branches ...Branch) Transaction {
	return Transaction{ID: uuid.NewString(), Branches: branches}
}

// op builds the operation for branch i. Each branch gets its own id so one
// participant can hold several profiles of the same transaction.
func (t Transaction) op(i int) Op {
	b := t.Branches[i]
	return Op{
		TxID:     fmt.Sprintf("%s-%d", t.ID, i),
		PlayerID: b.PlayerID,
		Result:   b.Result,
	}
}

// Config holds orchestrator settings
type Config struct {
	// ParticipantTimeout bounds every individual participant call
	ParticipantTimeout time.Duration
	// CommitAttempts is how many times a commit is sent before giving up
	CommitAttempts int
	// RetryDelay is the pause between commit attempts
	RetryDelay time.Duration
}

// DefaultConfig returns default orchestrator configuration
func DefaultConfig() Config {
	return Config{
		ParticipantTimeout: 5 * time.Second,
		CommitAttempts:     3,
		RetryDelay:         200 * time.Millisecond,
	}
}

// Orchestrator drives transactions. It keeps no durable log: a crash between
// prepare and commit leaves prepared snapshots behind for the participants'
// expiry to reclaim.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Orchestrator
func New(cfg Config, logger *slog.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.ParticipantTimeout <= 0 {
		cfg.ParticipantTimeout = def.ParticipantTimeout
	}
	if cfg.CommitAttempts <= 0 {
		cfg.CommitAttempts = def.CommitAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	return &Orchestrator{cfg: cfg, logger: logger}
}

// Execute prepares every branch, then runs localCommit, then commits every
// branch. If any branch declines or cannot be reached, or localCommit fails,
// every branch that may hold a prepared snapshot is rolled back and the error
// is returned. localCommit may be nil.
func (o *Orchestrator) Execute(ctx context.Context, tx Transaction, localCommit func(ctx context.Context) error) error {
	logger := o.logger.With(slog.String("tx_id", tx.ID))

	// Branches whose prepare may have taken effect: voted ready, or vote unknown
	var toRollback []int

	for i, b := range tx.Branches {
		op := tx.op(i)
		err := o.call(ctx, func(ctx context.Context) error { return b.Participant.Prepare(ctx, op) })
		if err == nil {
			toRollback = append(toRollback, i)
			continue
		}

		declined := IsDeclined(err)
		if !declined {
			toRollback = append(toRollback, i)
		}
		logger.Warn("prepare failed",
			slog.String("participant", b.Participant.Name()),
			slog.String("player_id", string(op.PlayerID)),
			slog.Bool("declined", declined),
			slog.String("error", err.Error()),
		)
		o.rollback(ctx, logger, tx, toRollback)

		if declined {
			return fmt.Errorf("%w: %w", ErrAborted, err)
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if localCommit != nil {
		if err := localCommit(ctx); err != nil {
			logger.Warn("local commit failed, rolling back", slog.String("error", err.Error()))
			o.rollback(ctx, logger, tx, toRollback)
			return err
		}
	}

	var incomplete []error
	for i, b := range tx.Branches {
		if err := o.commit(ctx, b, tx.op(i)); err != nil {
			logger.Error("commit not acknowledged",
				slog.String("participant", b.Participant.Name()),
				slog.String("player_id", string(b.PlayerID)),
				slog.String("error", err.Error()),
			)
			incomplete = append(incomplete, err)
		}
	}
	if len(incomplete) > 0 {
		return fmt.Errorf("%w: %w", ErrCommitIncomplete, errors.Join(incomplete...))
	}

	logger.Info("transaction committed", slog.Int("branches", len(tx.Branches)))
	return nil
}

// commit retries transport failures. A participant refusing the commit is final.
func (o *Orchestrator) commit(ctx context.Context, b Branch, op Op) error {
	var err error
	for attempt := 1; attempt <= o.cfg.CommitAttempts; attempt++ {
		err = o.call(ctx, func(ctx context.Context) error { return b.Participant.Commit(ctx, op) })
		if err == nil || IsDeclined(err) {
			return err
		}
		if attempt < o.cfg.CommitAttempts && o.cfg.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-time.After(o.cfg.RetryDelay):
			}
		}
	}
	return err
}

// rollback is best effort: failures are logged and left to participant expiry
func (o *Orchestrator) rollback(ctx context.Context, logger *slog.Logger, tx Transaction, branches []int) {
	// Rollback must run even if the caller's context is already done
	ctx = context.WithoutCancel(ctx)
	for _, i := range branches {
		b := tx.Branches[i]
		op := tx.op(i)
		err := o.call(ctx, func(ctx context.Context) error { return b.Participant.Rollback(ctx, op) })
		if err != nil && !errors.Is(err, model.ErrUnknownTransaction) {
			logger.Warn("rollback failed",
				slog.String("participant", b.Participant.Name()),
				slog.String("player_id", string(op.PlayerID)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (o *Orchestrator) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ParticipantTimeout)
	defer cancel()
	return fn(ctx)
}
