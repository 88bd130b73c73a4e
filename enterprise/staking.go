package enterprise

import (
	"math/big"

	"github.com/iqlabsorg/iq-protocol-go/events"
	"github.com/iqlabsorg/iq-protocol-go/types"
)

// Stake deposits amount of the enterprise asset into the reserve pool and
// mints a stake position. Shares are priced against the pre-deposit
// reserve, so earlier stakers keep their accrued rewards.
func (e *Engine) Stake(staker types.Address, amount *big.Int) (uint64, error) {
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shutdown {
		return 0, ErrShutdown
	}
	now := e.now()
	e.flush(now)

	shares := e.sharesForDeposit(amount)
	if err := e.transfer(staker, e.vault, e.asset, amount); err != nil {
		return 0, err
	}
	e.fixedReserve = new(big.Int).Add(e.fixedReserve, amount)
	e.totalShares = new(big.Int).Add(e.totalShares, shares)

	e.nextStakeID++
	pos := &StakePosition{
		ID:     e.nextStakeID,
		Owner:  staker,
		Amount: new(big.Int).Set(amount),
		Shares: shares,
	}
	e.stakes[pos.ID] = pos

	e.emitter.Emit(events.StakeChanged{
		StakeID:   pos.ID,
		Owner:     staker,
		Amount:    new(big.Int).Set(pos.Amount),
		Shares:    new(big.Int).Set(pos.Shares),
		Operation: "stake",
	})
	return pos.ID, nil
}

// sharesForDeposit prices a deposit in shares against the current reserve.
// Callers hold the mutex and have flushed.
func (e *Engine) sharesForDeposit(amount *big.Int) *big.Int {
	if e.totalShares.Sign() == 0 {
		return new(big.Int).Set(amount)
	}
	return mulDiv(amount, e.totalShares, e.fixedReserve)
}

func (e *Engine) stakeFor(id uint64, caller types.Address) (*StakePosition, error) {
	pos, ok := e.stakes[id]
	if !ok {
		return nil, ErrUnknownStake
	}
	if pos.Owner != caller {
		return nil, ErrInvalidCaller
	}
	return pos, nil
}

// IncreaseStake adds amount to an existing position.
func (e *Engine) IncreaseStake(id uint64, caller types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shutdown {
		return ErrShutdown
	}
	pos, err := e.stakeFor(id, caller)
	if err != nil {
		return err
	}
	e.flush(e.now())

	shares := e.sharesForDeposit(amount)
	if err := e.transfer(caller, e.vault, e.asset, amount); err != nil {
		return err
	}
	e.fixedReserve = new(big.Int).Add(e.fixedReserve, amount)
	e.totalShares = new(big.Int).Add(e.totalShares, shares)
	pos.Amount = new(big.Int).Add(pos.Amount, amount)
	pos.Shares = new(big.Int).Add(pos.Shares, shares)

	e.emitter.Emit(events.StakeChanged{
		StakeID:   pos.ID,
		Owner:     caller,
		Amount:    new(big.Int).Set(pos.Amount),
		Shares:    new(big.Int).Set(pos.Shares),
		Operation: "increase",
	})
	return nil
}

// DecreaseStake withdraws amount of principal from a position. Shares are
// burned in proportion to the withdrawn principal, so a position decreased
// all the way to zero principal keeps its accrued reward shares.
func (e *Engine) DecreaseStake(id uint64, caller types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, err := e.stakeFor(id, caller)
	if err != nil {
		return err
	}
	if pos.Amount.Cmp(amount) < 0 {
		return ErrInvalidAmount
	}
	now := e.now()
	e.flush(now)
	if e.availableAt(now).Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}

	burned := mulDiv(amount, e.totalShares, e.fixedReserve)
	if burned.Cmp(pos.Shares) > 0 {
		burned = new(big.Int).Set(pos.Shares)
	}
	if err := e.transfer(e.vault, caller, e.asset, amount); err != nil {
		return err
	}
	e.fixedReserve = new(big.Int).Sub(e.fixedReserve, amount)
	e.totalShares = new(big.Int).Sub(e.totalShares, burned)
	pos.Amount = new(big.Int).Sub(pos.Amount, amount)
	pos.Shares = new(big.Int).Sub(pos.Shares, burned)

	e.emitter.Emit(events.StakeChanged{
		StakeID:   pos.ID,
		Owner:     caller,
		Amount:    new(big.Int).Set(pos.Amount),
		Shares:    new(big.Int).Set(pos.Shares),
		Operation: "decrease",
	})
	return nil
}

// StakingReward returns the claimable reward of a position: its share of
// the reserve in excess of deposited principal.
func (e *Engine) StakingReward(id uint64) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.stakes[id]
	if !ok {
		return nil, ErrUnknownStake
	}
	return e.rewardOf(pos, e.now()), nil
}

func (e *Engine) rewardOf(pos *StakePosition, t uint64) *big.Int {
	if e.totalShares.Sign() == 0 {
		return big.NewInt(0)
	}
	value := mulDiv(pos.Shares, e.reserveAt(t), e.totalShares)
	reward := value.Sub(value, pos.Amount)
	if reward.Sign() < 0 {
		reward.SetInt64(0)
	}
	return reward
}

// ClaimStakingReward pays out a position's accrued reward and reprices its
// shares so the remaining position is worth exactly its principal again.
func (e *Engine) ClaimStakingReward(id uint64, caller types.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, err := e.stakeFor(id, caller)
	if err != nil {
		return nil, err
	}
	now := e.now()
	e.flush(now)

	reward := e.rewardOf(pos, now)
	if reward.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if e.availableAt(now).Cmp(reward) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	// Repriced against the pre-claim reserve so the remaining shares value
	// back to the deposited principal exactly.
	newShares := mulDiv(pos.Amount, e.totalShares, e.fixedReserve)
	if err := e.transfer(e.vault, caller, e.asset, reward); err != nil {
		return nil, err
	}
	e.fixedReserve = new(big.Int).Sub(e.fixedReserve, reward)
	e.totalShares = new(big.Int).Sub(e.totalShares, new(big.Int).Sub(pos.Shares, newShares))
	pos.Shares = newShares

	e.emitter.Emit(events.StakingRewardClaimed{
		StakeID: pos.ID,
		Owner:   caller,
		Reward:  new(big.Int).Set(reward),
	})
	return reward, nil
}

// Unstake burns a position entirely and pays out its full share of the
// reserve, principal plus reward. Available also during wind-down.
func (e *Engine) Unstake(id uint64, caller types.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, err := e.stakeFor(id, caller)
	if err != nil {
		return nil, err
	}
	now := e.now()
	e.flush(now)

	payout := mulDiv(pos.Shares, e.fixedReserve, e.totalShares)
	if e.availableAt(now).Cmp(payout) < 0 {
		return nil, ErrInsufficientLiquidity
	}
	if err := e.transfer(e.vault, caller, e.asset, payout); err != nil {
		return nil, err
	}
	e.fixedReserve = new(big.Int).Sub(e.fixedReserve, payout)
	e.totalShares = new(big.Int).Sub(e.totalShares, pos.Shares)
	delete(e.stakes, id)

	e.emitter.Emit(events.StakeChanged{
		StakeID:   id,
		Owner:     caller,
		Amount:    big.NewInt(0),
		Shares:    big.NewInt(0),
		Operation: "unstake",
	})
	return payout, nil
}

// TransferStake reassigns a stake position to a new owner.
func (e *Engine) TransferStake(id uint64, caller, to types.Address) error {
	if to.IsZero() {
		return ErrInvalidCaller
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, err := e.stakeFor(id, caller)
	if err != nil {
		return err
	}
	pos.Owner = to
	return nil
}

// StakeInfo returns a copy of the stake position.
func (e *Engine) StakeInfo(id uint64) (*StakePosition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.stakes[id]
	if !ok {
		return nil, ErrUnknownStake
	}
	return pos.Clone(), nil
}
