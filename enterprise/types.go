package enterprise

import (
	"math/big"

	"github.com/iqlabsorg/iq-protocol-go/energy"
	"github.com/iqlabsorg/iq-protocol-go/pricing"
	"github.com/iqlabsorg/iq-protocol-go/types"
)

// LedgerState abstracts the balance ledger the engine settles against. The
// token layer owns transfers and approvals; the engine only moves amounts
// it has already validated.
type LedgerState interface {
	GetAccount(addr types.Address) (*types.Account, error)
	PutAccount(addr types.Address, account *types.Account) error
}

// ServiceConfig captures the per power-token parameters fixed when a
// service is registered. BaseRate is the fee in base-asset wei per rented
// enterprise-asset wei per second.
type ServiceConfig struct {
	Name   string
	Symbol string
	// GapHalvingPeriod is the energy half-life for the service's power
	// token.
	GapHalvingPeriod uint64
	BaseRate         *big.Rat
	BaseAsset        types.Asset
	// ServiceFeeBps is the share of every rental fee routed to the
	// enterprise owner, in basis points.
	ServiceFeeBps uint64
	// MinRentalPeriod and MaxRentalPeriod bound accepted durations in
	// seconds.
	MinRentalPeriod uint64
	MaxRentalPeriod uint64
	// MinGCFee floors the garbage-collection deposit, in enterprise-asset
	// wei.
	MinGCFee *big.Int
	// Curve selects the pricing variant; nil defaults to the rational
	// pole/slope curve.
	Curve pricing.Curve
}

func (c ServiceConfig) validate() error {
	if c.Name == "" || c.Symbol == "" {
		return ErrInvalidConfig
	}
	if c.GapHalvingPeriod == 0 {
		return ErrInvalidConfig
	}
	if c.BaseRate == nil || c.BaseRate.Sign() < 0 {
		return ErrInvalidConfig
	}
	if c.ServiceFeeBps > 10_000 {
		return ErrInvalidConfig
	}
	if c.MaxRentalPeriod == 0 || c.MinRentalPeriod > c.MaxRentalPeriod {
		return ErrInvalidConfig
	}
	return nil
}

// service pairs a configuration with the power token's energy ledger.
type service struct {
	id     uint32
	cfg    ServiceConfig
	energy *energy.Ledger
}

// StakePosition is a shares-based claim on the reserve pool. Amount tracks
// the principal; Shares fix the proportional ownership at mint time.
// Shares may outlive a zeroed Amount: the residue represents unclaimed
// reward.
type StakePosition struct {
	ID     uint64
	Owner  types.Address
	Amount *big.Int
	Shares *big.Int
}

// Clone returns a deep copy of the position.
func (p *StakePosition) Clone() *StakePosition {
	if p == nil {
		return nil
	}
	return &StakePosition{
		ID:     p.ID,
		Owner:  p.Owner,
		Amount: new(big.Int).Set(p.Amount),
		Shares: new(big.Int).Set(p.Shares),
	}
}

// RentalAgreement records an active rental of power tokens against the
// reserve. GCFee is the deposit paid out to whoever performs the return.
type RentalAgreement struct {
	ID           uint64
	ServiceID    uint32
	Renter       types.Address
	RentalAmount *big.Int
	StartTime    uint64
	EndTime      uint64
	GCFee        *big.Int
}

// Clone returns a deep copy of the agreement.
func (r *RentalAgreement) Clone() *RentalAgreement {
	if r == nil {
		return nil
	}
	return &RentalAgreement{
		ID:           r.ID,
		ServiceID:    r.ServiceID,
		Renter:       r.Renter,
		RentalAmount: new(big.Int).Set(r.RentalAmount),
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		GCFee:        new(big.Int).Set(r.GCFee),
	}
}

// MemoryState is an in-memory LedgerState for tests, demos and snapshots.
type MemoryState struct {
	accounts map[types.Address]*types.Account
}

// NewMemoryState constructs an empty ledger.
func NewMemoryState() *MemoryState {
	return &MemoryState{accounts: make(map[types.Address]*types.Account)}
}

// GetAccount implements the LedgerState interface. Unknown addresses yield
// a fresh empty account.
func (m *MemoryState) GetAccount(addr types.Address) (*types.Account, error) {
	if acc, ok := m.accounts[addr]; ok {
		return acc, nil
	}
	acc := types.NewAccount(addr)
	m.accounts[addr] = acc
	return acc, nil
}

// PutAccount implements the LedgerState interface.
func (m *MemoryState) PutAccount(addr types.Address, account *types.Account) error {
	if account == nil {
		delete(m.accounts, addr)
		return nil
	}
	m.accounts[addr] = account
	return nil
}
