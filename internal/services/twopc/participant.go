package twopc

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcoot/battleship-go/internal/model"
)

// Op is one participant's share of a transaction
type Op struct {
	TxID     string
	PlayerID model.PlayerID
	Result   model.StatResult
}

// Participant is a resource manager taking part in a transaction.
//
// Prepare returns a *DeclinedError when the participant votes no. Any other
// error means the vote is unknown (timeout, transport failure) and is treated
// as unavailable.
type Participant interface {
	Name() string
	Prepare(ctx context.Context, op Op) error
	Commit(ctx context.Context, op Op) error
	Rollback(ctx context.Context, op Op) error
}

// DeclinedError is a participant refusing an operation
type DeclinedError struct {
	Participant string
	Reason      string
	// Err is the underlying refusal when the participant runs in-process
	Err error
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("%s declined: %s", e.Participant, e.Reason)
}

func (e *DeclinedError) Unwrap() error {
	return e.Err
}

// IsDeclined reports whether err carries a participant's refusal
func IsDeclined(err error) bool {
	var d *DeclinedError
	return errors.As(err, &d)
}

// StatsParticipant is the participant-side surface of a stats coordinator
type StatsParticipant interface {
	Prepare(ctx context.Context, txID string, playerID model.PlayerID, change model.StatResult) error
	Commit(ctx context.Context, txID string, playerID model.PlayerID, change model.StatResult) error
	Rollback(ctx context.Context, txID string) error
}

// LocalParticipant drives an in-process stats coordinator
type LocalParticipant struct {
	name  string
	stats StatsParticipant
}

// NewLocalParticipant wraps stats as a Participant
func NewLocalParticipant(name string, stats StatsParticipant) *LocalParticipant {
	return &LocalParticipant{name: name, stats: stats}
}

func (p *LocalParticipant) Name() string { return p.name }

func (p *LocalParticipant) Prepare(ctx context.Context, op Op) error {
	return p.classify(p.stats.Prepare(ctx, op.TxID, op.PlayerID, op.Result))
}

func (p *LocalParticipant) Commit(ctx context.Context, op Op) error {
	return p.classify(p.stats.Commit(ctx, op.TxID, op.PlayerID, op.Result))
}

func (p *LocalParticipant) Rollback(ctx context.Context, op Op) error {
	return p.classify(p.stats.Rollback(ctx, op.TxID))
}

// classify turns the coordinator's business errors into votes
func (p *LocalParticipant) classify(err error) error {
	if err == nil {
		return nil
	}
	if IsBusinessError(err) {
		return &DeclinedError{Participant: p.name, Reason: err.Error(), Err: err}
	}
	return err
}

// IsBusinessError reports whether err is a deliberate refusal by the stats
// coordinator rather than an infrastructure failure
func IsBusinessError(err error) bool {
	for _, target := range []error{
		model.ErrProfileNotFound,
		model.ErrInvalidResult,
		model.ErrTransactionExists,
		model.ErrEntityLocked,
		model.ErrUnknownTransaction,
		model.ErrTransactionMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
