package events

import (
	"math/big"

	"github.com/iqlabsorg/iq-protocol-go/types"
)

const (
	// TypeServiceRegistered is emitted when a power token service goes live.
	TypeServiceRegistered = "enterprise.serviceRegistered"
	// TypeStakeChanged covers stake creation, increase, decrease and removal.
	TypeStakeChanged = "enterprise.stakeChanged"
	// TypeStakingRewardClaimed is emitted when accrued reward leaves the pool.
	TypeStakingRewardClaimed = "enterprise.stakingRewardClaimed"
	// TypeRented is emitted for every new rental agreement.
	TypeRented = "enterprise.rented"
	// TypeRentalExtended is emitted when an agreement's end time moves out.
	TypeRentalExtended = "enterprise.rentalExtended"
	// TypeRentalReturned is emitted when an agreement is settled.
	TypeRentalReturned = "enterprise.rentalReturned"
	// TypeShutdown marks the irreversible wind-down switch.
	TypeShutdown = "enterprise.shutdown"
)

// ServiceRegistered captures the configuration of a newly registered service.
type ServiceRegistered struct {
	ServiceID        uint32
	Name             string
	Symbol           string
	GapHalvingPeriod uint64
}

// EventType satisfies the Event interface.
func (ServiceRegistered) EventType() string { return TypeServiceRegistered }

// StakeChanged captures the position delta realised by a stake mutation.
type StakeChanged struct {
	StakeID   uint64
	Owner     types.Address
	Amount    *big.Int
	Shares    *big.Int
	Operation string
}

// EventType satisfies the Event interface.
func (StakeChanged) EventType() string { return TypeStakeChanged }

// StakingRewardClaimed captures a reward payout.
type StakingRewardClaimed struct {
	StakeID uint64
	Owner   types.Address
	Reward  *big.Int
}

// EventType satisfies the Event interface.
func (StakingRewardClaimed) EventType() string { return TypeStakingRewardClaimed }

// Rented captures a new rental agreement and the fee paid for it.
type Rented struct {
	RentalID     uint64
	ServiceID    uint32
	Renter       types.Address
	RentalAmount *big.Int
	Payment      *big.Int
	PaymentAsset string
	StartTime    uint64
	EndTime      uint64
}

// EventType satisfies the Event interface.
func (Rented) EventType() string { return TypeRented }

// RentalExtended captures an end-time extension and its re-quoted fee.
type RentalExtended struct {
	RentalID uint64
	EndTime  uint64
	Payment  *big.Int
}

// EventType satisfies the Event interface.
func (RentalExtended) EventType() string { return TypeRentalExtended }

// RentalReturned captures the settlement of an agreement.
type RentalReturned struct {
	RentalID     uint64
	ReturnedBy   types.Address
	RentalAmount *big.Int
	GCFee        *big.Int
}

// EventType satisfies the Event interface.
func (RentalReturned) EventType() string { return TypeRentalReturned }

// Shutdown marks the enterprise entering wind-down mode.
type Shutdown struct {
	At uint64
}

// EventType satisfies the Event interface.
func (Shutdown) EventType() string { return TypeShutdown }
