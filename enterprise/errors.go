package enterprise

import (
	"errors"

	"github.com/iqlabsorg/iq-protocol-go/pricing"
)

var (
	// ErrNilState signals an engine used before its ledger was wired.
	ErrNilState = errors.New("enterprise: ledger state not configured")
	// ErrInvalidAmount signals a non-positive or nil amount.
	ErrInvalidAmount = errors.New("enterprise: amount must be positive")
	// ErrInsufficientBalance signals a payer without the funds to cover a
	// transfer.
	ErrInsufficientBalance = errors.New("enterprise: insufficient balance")
	// ErrInsufficientLiquidity signals a principal withdrawal exceeding the
	// unused reserve; rented-out funds must return first.
	ErrInsufficientLiquidity = errors.New("enterprise: insufficient liquidity")
	// ErrInsufficientCapacity signals a rental exceeding unused capacity.
	// It aliases the pricing sentinel so both layers match errors.Is.
	ErrInsufficientCapacity = pricing.ErrInsufficientCapacity
	// ErrSlippageExceeded signals a quoted payment above the caller bound.
	ErrSlippageExceeded = errors.New("enterprise: rental payment exceeds slippage bound")
	// ErrAmountOutOfRange signals a payment too wide for the streaming
	// reserve's decay arithmetic.
	ErrAmountOutOfRange = errors.New("enterprise: amount exceeds supported range")
	// ErrShutdown signals an operation disabled by the wind-down switch.
	ErrShutdown = errors.New("enterprise: enterprise is shut down")
	// ErrInvalidCaller signals an operation attempted by an address outside
	// its permitted caller set or time window.
	ErrInvalidCaller = errors.New("enterprise: caller not permitted")
	// ErrRentalPeriodOutOfRange signals a rental period outside the
	// service's configured limits.
	ErrRentalPeriodOutOfRange = errors.New("enterprise: rental period out of range")
	// ErrRentalTransferNotAllowed signals moving an expired rental.
	ErrRentalTransferNotAllowed = errors.New("enterprise: rental transfer not allowed")
	// ErrUnknownService signals an unregistered service identifier.
	ErrUnknownService = errors.New("enterprise: unknown service")
	// ErrUnknownStake signals an unknown or destroyed stake position.
	ErrUnknownStake = errors.New("enterprise: unknown stake position")
	// ErrUnknownRental signals an unknown or settled rental agreement.
	ErrUnknownRental = errors.New("enterprise: unknown rental agreement")
	// ErrInvalidConfig signals a malformed service configuration.
	ErrInvalidConfig = errors.New("enterprise: invalid service configuration")
)
