package types

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

// Address identifies an account within the engine. The fixed width mirrors
// the 20 byte account identifiers used by the surrounding token layer.
type Address [20]byte

// AddressFromBytes copies the trailing bytes of raw into an Address.
func AddressFromBytes(raw []byte) Address {
	var addr Address
	if len(raw) > len(addr) {
		raw = raw[len(raw)-len(addr):]
	}
	copy(addr[len(addr)-len(raw):], raw)
	return addr
}

// AddressFromHex parses a 40 character hex address, with or without the
// 0x prefix.
func AddressFromHex(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, err
	}
	if len(raw) != 20 {
		return Address{}, errors.New("types: address must be 20 bytes")
	}
	return AddressFromBytes(raw), nil
}

// String renders the address as 0x-prefixed hex.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Asset describes a fungible token the engine can account for. Decimals are
// carried so the converter can re-scale amounts between assets.
type Asset struct {
	Symbol   string
	Decimals uint8
}

// Key returns the canonical balance-map key for the asset.
func (a Asset) Key() string {
	return strings.ToUpper(strings.TrimSpace(a.Symbol))
}

// Account maintains per-asset balances for a single address. Amounts are
// denominated in the smallest unit of each asset and expressed as big
// integers to match on-chain precision.
type Account struct {
	Address  Address
	Balances map[string]*big.Int
}

// NewAccount constructs an empty account for the address.
func NewAccount(addr Address) *Account {
	return &Account{Address: addr, Balances: make(map[string]*big.Int)}
}

// Balance returns the held amount of the asset, never nil.
func (a *Account) Balance(asset Asset) *big.Int {
	if a == nil || a.Balances == nil {
		return big.NewInt(0)
	}
	if bal, ok := a.Balances[asset.Key()]; ok && bal != nil {
		return bal
	}
	return big.NewInt(0)
}

// Credit adds amount to the asset balance.
func (a *Account) Credit(asset Asset, amount *big.Int) {
	if a == nil || amount == nil || amount.Sign() == 0 {
		return
	}
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	a.Balances[asset.Key()] = new(big.Int).Add(a.Balance(asset), amount)
}

// Debit subtracts amount from the asset balance. The caller is responsible
// for checking sufficiency beforehand.
func (a *Account) Debit(asset Asset, amount *big.Int) {
	if a == nil || amount == nil || amount.Sign() == 0 {
		return
	}
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	a.Balances[asset.Key()] = new(big.Int).Sub(a.Balance(asset), amount)
}

// Clone returns a deep copy to avoid callers mutating shared pointers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := NewAccount(a.Address)
	for key, bal := range a.Balances {
		if bal != nil {
			clone.Balances[key] = new(big.Int).Set(bal)
		}
	}
	return clone
}

// Clock supplies the engine with the current unix timestamp. Decay is a pure
// function of the observed time, so advancing the clock is all a test needs
// to simulate the passage of time.
type Clock interface {
	Now() uint64
}

// ManualClock is a Clock whose time is advanced explicitly.
type ManualClock struct {
	now uint64
}

// NewManualClock starts a manual clock at the given timestamp.
func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{now: now}
}

// Now implements the Clock interface.
func (c *ManualClock) Now() uint64 { return c.now }

// Advance moves the clock forward by delta seconds.
func (c *ManualClock) Advance(delta uint64) { c.now += delta }

// Set positions the clock at an absolute timestamp.
func (c *ManualClock) Set(now uint64) { c.now = now }
