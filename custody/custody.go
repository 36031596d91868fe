// Package custody abstracts the movement of staked collateral out of a
// slasher's delegated token account when a slash is executed.
package custody

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/restakelabs/resolver/types"
)

var log = logrus.WithField("prefix", "custody")

// ErrInsufficientFunds is returned when a transfer exceeds the source balance.
var ErrInsufficientFunds = errors.New("insufficient funds in source account")

// Transferer moves collateral between token accounts. Implementations must be
// atomic: on error no balance may have changed.
type Transferer interface {
	Transfer(ctx context.Context, source, destination types.PublicKey, amount uint64) error
}

// Ledger is an in-memory Transferer keyed by account address. It backs local
// development and tests; production deployments plug in their own Transferer.
type Ledger struct {
	lock     sync.Mutex
	balances map[types.PublicKey]uint64
}

// NewLedger returns an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[types.PublicKey]uint64)}
}

// Credit adds funds to an account, creating it if needed.
func (l *Ledger) Credit(account types.PublicKey, amount uint64) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.balances[account] += amount
}

// Balance returns the current balance of an account.
func (l *Ledger) Balance(account types.PublicKey) uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.balances[account]
}

// Transfer moves amount from source to destination, failing without side
// effects when the source balance is too small.
func (l *Ledger) Transfer(_ context.Context, source, destination types.PublicKey, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.balances[source] < amount {
		return errors.Wrapf(ErrInsufficientFunds, "account %#x", source.Bytes()[:8])
	}
	l.balances[source] -= amount
	l.balances[destination] += amount
	log.WithFields(logrus.Fields{
		"amount": amount,
	}).Debug("Transferred collateral")
	return nil
}
