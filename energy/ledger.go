// Package energy tracks the decaying "energy" balance of power token
// holders. Energy converges toward the holder's nominal balance: the gap
// between balance and energy halves every gapHalvingPeriod seconds, so
// freshly received tokens take time to charge up. The ledger also keeps the
// rented (locked) share of every balance, which is never free to transfer.
package energy

import (
	"errors"
	"math/big"

	"github.com/iqlabsorg/iq-protocol-go/expmath"
	"github.com/iqlabsorg/iq-protocol-go/types"
)

var (
	errInvalidAmount = errors.New("energy ledger: amount must be positive")
	errHalvingPeriod = errors.New("energy ledger: gap halving period must be positive")

	// ErrInsufficientBalance signals a burn or transfer exceeding the
	// holder's balance of the relevant kind.
	ErrInsufficientBalance = errors.New("energy ledger: insufficient balance")
	// ErrTransferDisabled signals a transfer while the token is still in
	// its non-transferable phase.
	ErrTransferDisabled = errors.New("energy ledger: transfers disabled")
	// ErrTransferNotAllowed signals a transfer blocked by the rented or
	// energy gates rather than by policy.
	ErrTransferNotAllowed = errors.New("energy ledger: transfer not allowed")
	// ErrBalanceOverflow signals a credit that would push a balance past
	// the width the decay math can settle.
	ErrBalanceOverflow = errors.New("energy ledger: balance exceeds supported range")
)

// Account is the per-holder anchor state. Energy and Timestamp form the
// decay anchor; Balance and Rented are nominal token amounts.
type Account struct {
	Balance   *big.Int
	Rented    *big.Int
	Energy    *big.Int
	Timestamp uint64
}

func newAccount() *Account {
	return &Account{
		Balance: big.NewInt(0),
		Rented:  big.NewInt(0),
		Energy:  big.NewInt(0),
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	return &Account{
		Balance:   new(big.Int).Set(a.Balance),
		Rented:    new(big.Int).Set(a.Rented),
		Energy:    new(big.Int).Set(a.Energy),
		Timestamp: a.Timestamp,
	}
}

// Ledger keys accounts by holder address. It is not safe for concurrent
// use; the owning engine serialises access.
type Ledger struct {
	gapHalvingPeriod uint64
	transfersEnabled bool
	accounts         map[types.Address]*Account
}

// NewLedger constructs a ledger with the service's energy gap halving
// period. Transfers start disabled and can only be enabled one way.
func NewLedger(gapHalvingPeriod uint64) (*Ledger, error) {
	if gapHalvingPeriod == 0 {
		return nil, errHalvingPeriod
	}
	return &Ledger{
		gapHalvingPeriod: gapHalvingPeriod,
		accounts:         make(map[types.Address]*Account),
	}, nil
}

// GapHalvingPeriod returns the configured half-life.
func (l *Ledger) GapHalvingPeriod() uint64 { return l.gapHalvingPeriod }

// TransfersEnabled reports whether the one-way transfer switch has been
// thrown.
func (l *Ledger) TransfersEnabled() bool { return l.transfersEnabled }

// EnableTransfersForever permanently enables transfers.
func (l *Ledger) EnableTransfersForever() { l.transfersEnabled = true }

// CanReceive reports whether crediting amount to owner keeps the balance
// inside the width settle can decay. The gap never exceeds the balance,
// so bounding the balance is sufficient.
func (l *Ledger) CanReceive(owner types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	current := big.NewInt(0)
	if acc, ok := l.accounts[owner]; ok {
		current = acc.Balance
	}
	if new(big.Int).Add(current, amount).BitLen() > expmath.MaxValueBits {
		return ErrBalanceOverflow
	}
	return nil
}

func (l *Ledger) account(owner types.Address) *Account {
	acc, ok := l.accounts[owner]
	if !ok {
		acc = newAccount()
		l.accounts[owner] = acc
	}
	return acc
}

// settle advances the account's energy anchor to time t. The gap
// balance-energy decays with the configured half-life; energy is what
// remains when the decayed gap is subtracted from the balance.
func (l *Ledger) settle(acc *Account, t uint64) {
	if t < acc.Timestamp {
		// Anchors only move forward; a stale query keeps the anchor.
		return
	}
	gap := new(big.Int).Sub(acc.Balance, acc.Energy)
	if gap.Sign() > 0 {
		gap = expmath.HalfLifeValue(acc.Timestamp, gap, l.gapHalvingPeriod, t)
	} else {
		gap.SetInt64(0)
	}
	acc.Energy = new(big.Int).Sub(acc.Balance, gap)
	acc.Timestamp = t
}

// EnergyAt returns the holder's energy at time t. Energy never exceeds the
// nominal balance.
func (l *Ledger) EnergyAt(owner types.Address, t uint64) (*big.Int, error) {
	acc, ok := l.accounts[owner]
	if !ok {
		return big.NewInt(0), nil
	}
	if t < acc.Timestamp {
		return nil, expmath.ErrDomain
	}
	gap := new(big.Int).Sub(acc.Balance, acc.Energy)
	if gap.Sign() > 0 {
		decayed, err := expmath.HalfLife(acc.Timestamp, gap, l.gapHalvingPeriod, t)
		if err != nil {
			return nil, err
		}
		gap = decayed
	}
	return new(big.Int).Sub(acc.Balance, gap), nil
}

// BalanceOf returns the holder's nominal balance.
func (l *Ledger) BalanceOf(owner types.Address) *big.Int {
	if acc, ok := l.accounts[owner]; ok {
		return new(big.Int).Set(acc.Balance)
	}
	return big.NewInt(0)
}

// RentedBalanceOf returns the locked portion of the holder's balance.
func (l *Ledger) RentedBalanceOf(owner types.Address) *big.Int {
	if acc, ok := l.accounts[owner]; ok {
		return new(big.Int).Set(acc.Rented)
	}
	return big.NewInt(0)
}

// AvailableForTransfer is the portion of the balance free to move: rented
// tokens stay locked to their rental agreement until returned.
func (l *Ledger) AvailableForTransfer(owner types.Address, t uint64) *big.Int {
	acc, ok := l.accounts[owner]
	if !ok {
		return big.NewInt(0)
	}
	_ = t
	return new(big.Int).Sub(acc.Balance, acc.Rented)
}

// Mint credits amount to the holder at time t. Rented mints lock the
// tokens. The energy anchor is settled first, so the minted tokens arrive
// unenergised and charge up from the event time.
func (l *Ledger) Mint(owner types.Address, amount *big.Int, rented bool, t uint64) error {
	if err := l.CanReceive(owner, amount); err != nil {
		return err
	}
	acc := l.account(owner)
	l.settle(acc, t)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	if rented {
		acc.Rented = new(big.Int).Add(acc.Rented, amount)
	}
	return nil
}

// Burn removes amount from the holder at time t. Rented burns unlock and
// destroy locked tokens; unrented burns may only consume the free portion.
// Energy is capped at the post-burn balance.
func (l *Ledger) Burn(owner types.Address, amount *big.Int, rented bool, t uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	acc, ok := l.accounts[owner]
	if !ok {
		return ErrInsufficientBalance
	}
	if rented {
		if acc.Rented.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
	} else if new(big.Int).Sub(acc.Balance, acc.Rented).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.settle(acc, t)
	acc.Balance = new(big.Int).Sub(acc.Balance, amount)
	if rented {
		acc.Rented = new(big.Int).Sub(acc.Rented, amount)
	}
	if acc.Energy.Cmp(acc.Balance) > 0 {
		acc.Energy = new(big.Int).Set(acc.Balance)
	}
	if acc.Balance.Sign() == 0 {
		delete(l.accounts, owner)
	}
	return nil
}

// Transfer moves free balance between holders, subject to the one-way
// transfer switch. Energy does not travel with the tokens: the receiver's
// anchor settles first, so the incoming amount starts unenergised.
func (l *Ledger) Transfer(from, to types.Address, amount *big.Int, t uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	if !l.transfersEnabled {
		return ErrTransferDisabled
	}
	src, ok := l.accounts[from]
	if !ok {
		return ErrInsufficientBalance
	}
	if l.AvailableForTransfer(from, t).Cmp(amount) < 0 {
		return ErrTransferNotAllowed
	}
	if from != to {
		if err := l.CanReceive(to, amount); err != nil {
			return err
		}
	}

	l.settle(src, t)
	src.Balance = new(big.Int).Sub(src.Balance, amount)
	if src.Energy.Cmp(src.Balance) > 0 {
		src.Energy = new(big.Int).Set(src.Balance)
	}

	dst := l.account(to)
	l.settle(dst, t)
	dst.Balance = new(big.Int).Add(dst.Balance, amount)

	if src.Balance.Sign() == 0 {
		delete(l.accounts, from)
	}
	return nil
}

// TransferRented moves locked tokens between holders. This is the hook the
// rental token layer calls when a rental agreement changes hands; the
// policy checks (transfer switch, rental expiry) belong to the caller.
func (l *Ledger) TransferRented(from, to types.Address, amount *big.Int, t uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	src, ok := l.accounts[from]
	if !ok || src.Rented.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if from != to {
		if err := l.CanReceive(to, amount); err != nil {
			return err
		}
	}

	l.settle(src, t)
	src.Balance = new(big.Int).Sub(src.Balance, amount)
	src.Rented = new(big.Int).Sub(src.Rented, amount)
	if src.Energy.Cmp(src.Balance) > 0 {
		src.Energy = new(big.Int).Set(src.Balance)
	}

	dst := l.account(to)
	l.settle(dst, t)
	dst.Balance = new(big.Int).Add(dst.Balance, amount)
	dst.Rented = new(big.Int).Add(dst.Rented, amount)

	if src.Balance.Sign() == 0 {
		delete(l.accounts, from)
	}
	return nil
}

// Accounts returns a deep copy of the ledger state, keyed by owner. Used
// by snapshots.
func (l *Ledger) Accounts() map[types.Address]*Account {
	out := make(map[types.Address]*Account, len(l.accounts))
	for owner, acc := range l.accounts {
		out[owner] = acc.Clone()
	}
	return out
}

// Restore replaces the ledger state from a snapshot copy.
func (l *Ledger) Restore(accounts map[types.Address]*Account, transfersEnabled bool) {
	l.accounts = make(map[types.Address]*Account, len(accounts))
	for owner, acc := range accounts {
		l.accounts[owner] = acc.Clone()
	}
	l.transfersEnabled = transfersEnabled
}
