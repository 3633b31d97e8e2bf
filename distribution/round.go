package distribution

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfsorg/revsplit/asset"
	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/log"
	"github.com/bitfsorg/revsplit/revshare"
)

// Round is the outcome of one committed distribution.
type Round struct {
	Asset    ledger.AssetID
	Balance  uint64 // balance held before the round
	Payments []asset.Payment
	Total    uint64
	Ref      string // gateway reference, such as a txid
}

// Distribute pays every recipient its pending amount of id in registry
// order. Either every payment is made and recorded or the ledger is left as
// it was; the one exception is a gateway that reports a partial commit,
// whose applied payments are recorded so they are never paid again.
//
// If the round commits but the state cannot be saved, the Round is returned
// together with an error wrapping ErrPersistFailed.
func (e *Engine) Distribute(ctx context.Context, caller revshare.Address, id ledger.AssetID) (*Round, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard.Authorize(caller); err != nil {
		return nil, err
	}
	gw, err := e.gatewayLocked(id)
	if err != nil {
		return nil, err
	}

	balance, err := gw.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("distribution: %s balance: %w", id, err)
	}
	if balance == 0 {
		return nil, ErrZeroBalance
	}
	if e.registry.Len() < MinRecipients {
		return nil, fmt.Errorf("%w: have %d", ErrInsufficientRecipients, e.registry.Len())
	}

	batch, err := gw.Stage(ctx)
	if err != nil {
		return nil, fmt.Errorf("distribution: stage %s: %w", id, err)
	}
	cp := e.ledger.Checkpoint(id)
	round := &Round{Asset: id, Balance: balance}

	// Each Release sees the balance left after this round's earlier payments,
	// so balance+totalReleased stays equal to what the asset has received.
	// round.Total never exceeds balance.
	for _, member := range e.registry.Members() {
		remaining := balance - round.Total
		paid, err := e.ledger.Release(id, member, remaining, batch.Transfer)
		if err == nil && paid > remaining {
			// A lowered share leaves earlier payments above the new
			// entitlement, so the others can be owed more than is held.
			err = fmt.Errorf("%w: %s owed %d with %d left: %w",
				ledger.ErrTransferFailed, member, paid, remaining, asset.ErrInsufficientBalance)
		}
		if err != nil {
			e.ledger.Revert(cp)
			batch.Discard()
			return nil, err
		}
		if paid == 0 {
			continue
		}
		round.Payments = append(round.Payments, asset.Payment{To: member, Amount: paid})
		round.Total += paid
	}

	if len(round.Payments) == 0 {
		batch.Discard()
		log.Debug("nothing pending", "asset", string(id), "balance", balance)
		return round, nil
	}

	ref, err := batch.Commit(ctx)
	if err != nil {
		e.ledger.Revert(cp)
		var partial *asset.PartialCommitError
		if errors.As(err, &partial) && len(partial.Applied) > 0 {
			e.recordApplied(id, partial.Applied)
		}
		return nil, fmt.Errorf("%w: commit %s round: %w", ledger.ErrTransferFailed, id, err)
	}
	round.Ref = ref

	log.Info("distribution committed", "asset", string(id), "balance", balance,
		"payments", len(round.Payments), "total", round.Total, "ref", ref)

	perr := e.persist()
	for _, p := range round.Payments {
		e.notifier.Released(id, p.To, p.Amount)
	}
	if perr != nil {
		log.Error("distribution not persisted", "asset", string(id), "ref", ref, "err", perr)
		return round, perr
	}
	return round, nil
}

// recordApplied credits payments a gateway executed before failing.
func (e *Engine) recordApplied(id ledger.AssetID, applied []asset.Payment) {
	for _, p := range applied {
		e.ledger.Credit(id, p.To, p.Amount)
	}
	log.Warn("partial commit recorded", "asset", string(id), "payments", len(applied))
	if err := e.persist(); err != nil {
		log.Error("partial commit not persisted", "asset", string(id), "err", err)
	}
	for _, p := range applied {
		e.notifier.Released(id, p.To, p.Amount)
	}
}

func (e *Engine) gatewayLocked(id ledger.AssetID) (asset.Gateway, error) {
	gw, ok := e.gateways[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown asset %q", asset.ErrInvalidAsset, id)
	}
	return gw, nil
}
