package enterprise

import (
	"math/big"

	"github.com/iqlabsorg/iq-protocol-go/events"
	"github.com/iqlabsorg/iq-protocol-go/types"
)

// quoteFee prices a rental order in the enterprise asset at time t.
// Callers hold the mutex. The curve quotes in the service base asset;
// the result is converted before any fee split.
func (e *Engine) quoteFee(svc *service, used, amount *big.Int, period uint64, t uint64) (*big.Int, error) {
	fee, err := svc.cfg.Curve.Quote(e.reserveAt(t), used, amount, period, svc.cfg.BaseRate)
	if err != nil {
		return nil, err
	}
	return e.converter.EstimateConvert(svc.cfg.BaseAsset, fee, e.asset)
}

// gcFeeFor computes the garbage-collection deposit for a rental fee,
// honouring the service floor.
func (e *Engine) gcFeeFor(svc *service, fee *big.Int) *big.Int {
	gc := new(big.Int).Mul(fee, new(big.Int).SetUint64(e.gcFeeBps))
	gc.Quo(gc, big.NewInt(basisPoints))
	if gc.Cmp(svc.cfg.MinGCFee) < 0 {
		gc = new(big.Int).Set(svc.cfg.MinGCFee)
	}
	return gc
}

// EstimateRentalFee quotes the total payment, rental fee plus GC deposit,
// for renting amount power tokens over period, denominated in paymentAsset.
func (e *Engine) EstimateRentalFee(serviceID uint32, amount *big.Int, period uint64, paymentAsset types.Asset) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	svc, err := e.serviceByID(serviceID)
	if err != nil {
		return nil, err
	}
	if period < svc.cfg.MinRentalPeriod || period > svc.cfg.MaxRentalPeriod {
		return nil, ErrRentalPeriodOutOfRange
	}
	fee, err := e.quoteFee(svc, e.usedReserve, amount, period, e.now())
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Add(fee, e.gcFeeFor(svc, fee))
	return e.converter.EstimateConvert(e.asset, total, paymentAsset)
}

// Rent commits amount of the reserve to a renter for period seconds. The
// renter pays the curve fee plus a GC deposit in paymentAsset, bounded by
// maxPayment, and receives freshly minted rented power tokens.
func (e *Engine) Rent(serviceID uint32, renter types.Address, amount *big.Int, period uint64, paymentAsset types.Asset, maxPayment *big.Int) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shutdown {
		return 0, ErrShutdown
	}
	svc, err := e.serviceByID(serviceID)
	if err != nil {
		return 0, err
	}
	if period < svc.cfg.MinRentalPeriod || period > svc.cfg.MaxRentalPeriod {
		return 0, ErrRentalPeriodOutOfRange
	}
	now := e.now()
	e.flush(now)

	fee, err := e.quoteFee(svc, e.usedReserve, amount, period, now)
	if err != nil {
		return 0, err
	}
	gc := e.gcFeeFor(svc, fee)
	total := new(big.Int).Add(fee, gc)
	payment, err := e.converter.EstimateConvert(e.asset, total, paymentAsset)
	if err != nil {
		return 0, err
	}
	if maxPayment != nil && payment.Cmp(maxPayment) > 0 {
		return 0, ErrSlippageExceeded
	}

	converted, err := e.convertedPayment(paymentAsset, payment)
	if err != nil {
		return 0, err
	}
	if converted.Cmp(gc) < 0 {
		gc = converted
	}
	if !e.streaming.canRecord(converted) {
		return 0, ErrAmountOutOfRange
	}
	if err := svc.energy.CanReceive(renter, amount); err != nil {
		return 0, err
	}

	if err := e.chargePayment(renter, paymentAsset, payment, converted); err != nil {
		return 0, err
	}
	if err := e.splitRentalFee(svc, new(big.Int).Sub(converted, gc)); err != nil {
		return 0, err
	}

	e.usedReserve = new(big.Int).Add(e.usedReserve, amount)
	if err := svc.energy.Mint(renter, amount, true, now); err != nil {
		return 0, err
	}

	e.nextRentalID++
	agreement := &RentalAgreement{
		ID:           e.nextRentalID,
		ServiceID:    serviceID,
		Renter:       renter,
		RentalAmount: new(big.Int).Set(amount),
		StartTime:    now,
		EndTime:      now + period,
		GCFee:        gc,
	}
	e.rentals[agreement.ID] = agreement

	e.emitter.Emit(events.Rented{
		RentalID:     agreement.ID,
		ServiceID:    serviceID,
		Renter:       renter,
		RentalAmount: new(big.Int).Set(amount),
		Payment:      payment,
		PaymentAsset: paymentAsset.Key(),
		StartTime:    agreement.StartTime,
		EndTime:      agreement.EndTime,
	})
	return agreement.ID, nil
}

// convertedPayment resolves what a payment is worth in the enterprise
// asset. It performs no ledger writes, so a conversion failure surfaces
// before any balance has moved.
func (e *Engine) convertedPayment(paymentAsset types.Asset, payment *big.Int) (*big.Int, error) {
	if paymentAsset.Key() == e.asset.Key() {
		return new(big.Int).Set(payment), nil
	}
	return e.converter.Convert(paymentAsset, payment, e.asset)
}

// chargePayment debits the payer into the vault and, for alternate-asset
// payments, swaps the proceeds into the already-resolved enterprise asset
// amount. Callers must have validated the conversion first.
func (e *Engine) chargePayment(payer types.Address, paymentAsset types.Asset, payment, converted *big.Int) error {
	if err := e.transfer(payer, e.vault, paymentAsset, payment); err != nil {
		return err
	}
	if paymentAsset.Key() == e.asset.Key() {
		return nil
	}
	vault, err := e.loadAccount(e.vault)
	if err != nil {
		return err
	}
	vault.Debit(paymentAsset, payment)
	vault.Credit(e.asset, converted)
	return e.state.PutAccount(e.vault, vault)
}

// splitRentalFee divides a collected rental fee between the enterprise
// owner and the streaming reserve. The pool portion stays in the vault and
// matures into the reserve over the streaming half-life.
func (e *Engine) splitRentalFee(svc *service, fee *big.Int) error {
	if fee.Sign() <= 0 {
		return nil
	}
	serviceFee := new(big.Int).Mul(fee, new(big.Int).SetUint64(svc.cfg.ServiceFeeBps))
	serviceFee.Quo(serviceFee, big.NewInt(basisPoints))
	if err := e.transfer(e.vault, e.owner, e.asset, serviceFee); err != nil {
		return err
	}
	e.streaming.record(new(big.Int).Sub(fee, serviceFee))
	return nil
}

func (e *Engine) rentalByID(id uint64) (*RentalAgreement, *service, error) {
	agreement, ok := e.rentals[id]
	if !ok {
		return nil, nil, ErrUnknownRental
	}
	svc, err := e.serviceByID(agreement.ServiceID)
	if err != nil {
		return nil, nil, err
	}
	return agreement, svc, nil
}

// ExtendRentalPeriod prolongs an active rental. The fee is priced as if
// the rental's own allocation were not in use, so extending costs the same
// as the original rental did at equal utilisation.
func (e *Engine) ExtendRentalPeriod(id uint64, caller types.Address, period uint64, paymentAsset types.Asset, maxPayment *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shutdown {
		return ErrShutdown
	}
	agreement, svc, err := e.rentalByID(id)
	if err != nil {
		return err
	}
	if agreement.Renter != caller {
		return ErrInvalidCaller
	}
	if period < svc.cfg.MinRentalPeriod || period > svc.cfg.MaxRentalPeriod {
		return ErrRentalPeriodOutOfRange
	}
	now := e.now()
	e.flush(now)

	baseline := new(big.Int).Sub(e.usedReserve, agreement.RentalAmount)
	fee, err := e.quoteFee(svc, baseline, agreement.RentalAmount, period, now)
	if err != nil {
		return err
	}
	payment, err := e.converter.EstimateConvert(e.asset, fee, paymentAsset)
	if err != nil {
		return err
	}
	if maxPayment != nil && payment.Cmp(maxPayment) > 0 {
		return ErrSlippageExceeded
	}
	converted, err := e.convertedPayment(paymentAsset, payment)
	if err != nil {
		return err
	}
	if !e.streaming.canRecord(converted) {
		return ErrAmountOutOfRange
	}
	if err := e.chargePayment(caller, paymentAsset, payment, converted); err != nil {
		return err
	}
	if err := e.splitRentalFee(svc, converted); err != nil {
		return err
	}

	end := agreement.EndTime
	if now > end {
		end = now
	}
	agreement.EndTime = end + period

	e.emitter.Emit(events.RentalExtended{
		RentalID: id,
		EndTime:  agreement.EndTime,
		Payment:  payment,
	})
	return nil
}

// ReturnRental settles an agreement: the rented power tokens are burned,
// the reserve allocation is released and the GC deposit is paid to the
// caller. Before expiry plus the renter grace window only the renter may
// return; during the following collection window only the renter or the
// enterprise owner; afterwards anyone. Wind-down lifts all gating.
func (e *Engine) ReturnRental(id uint64, caller types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	agreement, svc, err := e.rentalByID(id)
	if err != nil {
		return err
	}
	now := e.now()
	if !e.shutdown {
		renterDeadline := agreement.EndTime + e.renterOnlyReturnPeriod
		ownerDeadline := renterDeadline + e.ownerCollectionPeriod
		switch {
		case now <= renterDeadline:
			if caller != agreement.Renter {
				return ErrInvalidCaller
			}
		case now <= ownerDeadline:
			if caller != agreement.Renter && caller != e.owner {
				return ErrInvalidCaller
			}
		}
	}
	e.flush(now)

	if err := svc.energy.Burn(agreement.Renter, agreement.RentalAmount, true, now); err != nil {
		return err
	}
	e.usedReserve = new(big.Int).Sub(e.usedReserve, agreement.RentalAmount)
	if err := e.transfer(e.vault, caller, e.asset, agreement.GCFee); err != nil {
		return err
	}
	delete(e.rentals, id)

	e.emitter.Emit(events.RentalReturned{
		RentalID:     id,
		ReturnedBy:   caller,
		RentalAmount: new(big.Int).Set(agreement.RentalAmount),
		GCFee:        new(big.Int).Set(agreement.GCFee),
	})
	return nil
}

// TransferRental reassigns an active agreement and its rented power tokens
// to a new renter. Expired agreements can only be returned, not moved.
func (e *Engine) TransferRental(id uint64, caller, to types.Address) error {
	if to.IsZero() {
		return ErrInvalidCaller
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	agreement, svc, err := e.rentalByID(id)
	if err != nil {
		return err
	}
	if agreement.Renter != caller {
		return ErrInvalidCaller
	}
	now := e.now()
	if now > agreement.EndTime {
		return ErrRentalTransferNotAllowed
	}
	if err := svc.energy.TransferRented(caller, to, agreement.RentalAmount, now); err != nil {
		return err
	}
	agreement.Renter = to
	return nil
}

// SwapIn wraps amount of the enterprise asset into free power tokens.
func (e *Engine) SwapIn(serviceID uint32, caller types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shutdown {
		return ErrShutdown
	}
	svc, err := e.serviceByID(serviceID)
	if err != nil {
		return err
	}
	if err := svc.energy.CanReceive(caller, amount); err != nil {
		return err
	}
	if err := e.transfer(caller, e.vault, e.asset, amount); err != nil {
		return err
	}
	return svc.energy.Mint(caller, amount, false, e.now())
}

// SwapOut unwraps free power tokens back into the enterprise asset.
// Available also during wind-down.
func (e *Engine) SwapOut(serviceID uint32, caller types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	svc, err := e.serviceByID(serviceID)
	if err != nil {
		return err
	}
	if err := svc.energy.Burn(caller, amount, false, e.now()); err != nil {
		return err
	}
	return e.transfer(e.vault, caller, e.asset, amount)
}

// TransferPower moves free power tokens between holders. The service must
// have transfers enabled.
func (e *Engine) TransferPower(serviceID uint32, from, to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	svc, err := e.serviceByID(serviceID)
	if err != nil {
		return err
	}
	return svc.energy.Transfer(from, to, amount, e.now())
}

// PowerBalanceOf returns a holder's total power token balance.
func (e *Engine) PowerBalanceOf(serviceID uint32, owner types.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	svc, err := e.serviceByID(serviceID)
	if err != nil {
		return nil, err
	}
	return svc.energy.BalanceOf(owner), nil
}

// RentedBalanceOf returns the rented, locked portion of a holder's balance.
func (e *Engine) RentedBalanceOf(serviceID uint32, owner types.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	svc, err := e.serviceByID(serviceID)
	if err != nil {
		return nil, err
	}
	return svc.energy.RentedBalanceOf(owner), nil
}

// EnergyAt returns a holder's usable energy at time t.
func (e *Engine) EnergyAt(serviceID uint32, owner types.Address, t uint64) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	svc, err := e.serviceByID(serviceID)
	if err != nil {
		return nil, err
	}
	return svc.energy.EnergyAt(owner, t)
}

// RentalInfo returns a copy of the rental agreement.
func (e *Engine) RentalInfo(id uint64) (*RentalAgreement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	agreement, ok := e.rentals[id]
	if !ok {
		return nil, ErrUnknownRental
	}
	return agreement.Clone(), nil
}
