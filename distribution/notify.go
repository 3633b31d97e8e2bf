package distribution

import (
	"github.com/bitfsorg/revsplit/ledger"
	"github.com/bitfsorg/revsplit/log"
	"github.com/bitfsorg/revsplit/revshare"
)

// Notifier receives an event for every committed state change.
type Notifier interface {
	RecipientAdded(id revshare.Address, share uint64)
	RecipientRemoved(id revshare.Address)
	Released(asset ledger.AssetID, id revshare.Address, amount uint64)
	OwnershipTransferred(prev, next revshare.Address)
}

// LogNotifier writes events to the process log.
type LogNotifier struct{}

// Compile-time interface check.
var _ Notifier = LogNotifier{}

// RecipientAdded logs a new recipient and its share.
func (LogNotifier) RecipientAdded(id revshare.Address, share uint64) {
	log.Info("recipient added", "recipient", id.String(), "share", share)
}

// RecipientRemoved logs a removal.
func (LogNotifier) RecipientRemoved(id revshare.Address) {
	log.Info("recipient removed", "recipient", id.String())
}

// Released logs one payment.
func (LogNotifier) Released(asset ledger.AssetID, id revshare.Address, amount uint64) {
	log.Info("payment released", "asset", string(asset), "recipient", id.String(), "amount", amount)
}

// OwnershipTransferred logs an owner change.
func (LogNotifier) OwnershipTransferred(prev, next revshare.Address) {
	log.Info("ownership transferred", "from", prev.String(), "to", next.String())
}

type nopNotifier struct{}

func (nopNotifier) RecipientAdded(revshare.Address, uint64)                 {}
func (nopNotifier) RecipientRemoved(revshare.Address)                       {}
func (nopNotifier) Released(ledger.AssetID, revshare.Address, uint64)       {}
func (nopNotifier) OwnershipTransferred(revshare.Address, revshare.Address) {}
