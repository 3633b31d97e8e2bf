// Package distribution drives payout rounds over the share registry and the
// distribution ledger, and owns their persisted state.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bitfsorg/revsplit/asset"
	"github.com/bitfsorg/revsplit/auth"
	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/log"
	"github.com/bitfsorg/revsplit/revshare"
	"github.com/bitfsorg/revsplit/store"
)

// MinRecipients is the smallest registry a round will pay out to.
const MinRecipients = 2

// Engine serializes every mutation behind one lock and persists the state
// after each committed change.
type Engine struct {
	mu       sync.RWMutex
	registry *revshare.Registry
	ledger   *ledger.Ledger
	guard    auth.Guard
	store    store.Store
	notifier Notifier
	gateways map[ledger.AssetID]asset.Gateway
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets the event sink. The default discards events.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithGateway registers gw as the source of asset id.
func WithGateway(id ledger.AssetID, gw asset.Gateway) Option {
	return func(e *Engine) { e.gateways[id] = gw }
}

// Open loads the state in st, or starts empty if st was never written.
// When guard is auth.Ownable and a stored owner exists, the stored owner
// replaces the guard's.
func Open(st store.Store, guard auth.Guard, opts ...Option) (*Engine, error) {
	if st == nil || guard == nil {
		return nil, fmt.Errorf("%w: store and guard", ErrNilParam)
	}
	e := &Engine{
		registry: revshare.NewRegistry(),
		guard:    guard,
		store:    st,
		notifier: nopNotifier{},
		gateways: make(map[ledger.AssetID]asset.Gateway),
	}
	e.ledger = ledger.New(e.registry)
	for _, opt := range opts {
		opt(e)
	}
	for id, gw := range e.gateways {
		if err := id.Validate(); err != nil {
			return nil, err
		}
		if gw == nil {
			return nil, fmt.Errorf("%w: gateway for %s", ErrNilParam, id)
		}
	}

	state, err := st.Load()
	if errors.Is(err, store.ErrNotInitialized) {
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("distribution: load state: %w", err)
	}
	if state.Registry != nil {
		if err := e.registry.Restore(state.Registry); err != nil {
			return nil, fmt.Errorf("distribution: load registry: %w", err)
		}
	}
	if state.Ledger != nil {
		if err := e.ledger.Restore(state.Ledger); err != nil {
			return nil, fmt.Errorf("distribution: load ledger: %w", err)
		}
	}
	if o, ok := guard.(auth.Ownable); ok && !state.Owner.IsZero() {
		if err := o.SetOwner(state.Owner); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// RegisterAsset makes asset id distributable through gw.
func (e *Engine) RegisterAsset(id ledger.AssetID, gw asset.Gateway) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if gw == nil {
		return fmt.Errorf("%w: gateway", ErrNilParam)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gateways[id] = gw
	return nil
}

// Persist writes the current state to the store.
func (e *Engine) Persist() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.persist()
}

// persist must be called with e.mu held.
func (e *Engine) persist() error {
	st := &store.State{
		Owner:    e.ownerLocked(),
		Registry: e.registry.State(),
		Ledger:   e.ledger.Snapshot(),
	}
	if err := e.store.Save(st); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

func (e *Engine) ownerLocked() revshare.Address {
	if o, ok := e.guard.(auth.Ownable); ok {
		return o.Owner()
	}
	return revshare.Address{}
}

// AddRecipient adds id with share, or updates the share of an existing
// recipient. It reports whether id was newly added.
func (e *Engine) AddRecipient(_ context.Context, caller, id revshare.Address, share uint64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard.Authorize(caller); err != nil {
		return false, err
	}

	prev := e.registry.State()
	added, err := e.registry.AddOrUpdate(id, share)
	if err != nil {
		return false, err
	}
	if err := e.persist(); err != nil {
		if rerr := e.registry.Restore(prev); rerr != nil {
			log.Error("registry rollback failed", "err", rerr)
		}
		return false, err
	}

	if added {
		e.notifier.RecipientAdded(id, share)
	}
	log.Debug("recipient share set", "recipient", id.String(), "share", share, "total", e.registry.TotalShares())
	return added, nil
}

// RemoveRecipient removes id. Amounts already released to id stay on record.
func (e *Engine) RemoveRecipient(_ context.Context, caller, id revshare.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard.Authorize(caller); err != nil {
		return err
	}

	prev := e.registry.State()
	if _, err := e.registry.Remove(id); err != nil {
		return err
	}
	if err := e.persist(); err != nil {
		if rerr := e.registry.Restore(prev); rerr != nil {
			log.Error("registry rollback failed", "err", rerr)
		}
		return err
	}

	e.notifier.RecipientRemoved(id)
	return nil
}

// TransferOwnership hands the operator role to next.
func (e *Engine) TransferOwnership(_ context.Context, caller, next revshare.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard.Authorize(caller); err != nil {
		return err
	}
	o, ok := e.guard.(auth.Ownable)
	if !ok {
		return ErrOwnershipUnsupported
	}

	prev := o.Owner()
	if err := o.SetOwner(next); err != nil {
		return err
	}
	if err := e.persist(); err != nil {
		if rerr := o.SetOwner(prev); rerr != nil {
			log.Error("owner rollback failed", "err", rerr)
		}
		return err
	}

	e.notifier.OwnershipTransferred(prev, next)
	return nil
}
