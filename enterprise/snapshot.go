package enterprise

import (
	"bytes"
	"errors"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/iqlabsorg/iq-protocol-go/energy"
	"github.com/iqlabsorg/iq-protocol-go/pricing"
	"github.com/iqlabsorg/iq-protocol-go/types"
)

// ErrInvalidSnapshot is returned when snapshot bytes cannot be decoded
// into a consistent engine state.
var ErrInvalidSnapshot = errors.New("enterprise: invalid snapshot")

// Stored forms mirror the in-memory state with maps flattened into sorted
// slices and rationals split into numerator and denominator, keeping the
// encoding canonical.

type storedCurve struct {
	Name   string
	Params []*big.Int
}

type storedEnergyAccount struct {
	Owner     types.Address
	Balance   *big.Int
	Rented    *big.Int
	Energy    *big.Int
	Timestamp uint64
}

type storedService struct {
	ID                uint32
	Name              string
	Symbol            string
	GapHalvingPeriod  uint64
	BaseRateNum       *big.Int
	BaseRateDen       *big.Int
	BaseAssetSymbol   string
	BaseAssetDecimals uint8
	ServiceFeeBps     uint64
	MinRentalPeriod   uint64
	MaxRentalPeriod   uint64
	MinGCFee          *big.Int
	Curve             storedCurve
	TransfersEnabled  bool
	Accounts          []storedEnergyAccount
}

type storedStake struct {
	ID     uint64
	Owner  types.Address
	Amount *big.Int
	Shares *big.Int
}

type storedRental struct {
	ID           uint64
	ServiceID    uint32
	Renter       types.Address
	RentalAmount *big.Int
	StartTime    uint64
	EndTime      uint64
	GCFee        *big.Int
}

type storedEngine struct {
	Name          string
	AssetSymbol   string
	AssetDecimals uint8
	Owner         types.Address
	Vault         types.Address

	FixedReserve *big.Int
	UsedReserve  *big.Int
	TotalShares  *big.Int

	StreamingTarget  *big.Int
	StreamingUpdated uint64
	StreamingHalving uint64

	GCFeeBps               uint64
	RenterOnlyReturnPeriod uint64
	OwnerCollectionPeriod  uint64
	Shutdown               bool

	NextServiceID uint32
	NextStakeID   uint64
	NextRentalID  uint64

	Services []storedService
	Stakes   []storedStake
	Rentals  []storedRental
}

func storeCurve(c pricing.Curve) (storedCurve, error) {
	switch curve := c.(type) {
	case *pricing.RationalCurve:
		return storedCurve{
			Name: curve.Name(),
			Params: []*big.Int{
				curve.Pole.Num(), curve.Pole.Denom(),
				curve.Slope.Num(), curve.Slope.Denom(),
			},
		}, nil
	case *pricing.LogCurve:
		return storedCurve{
			Name:   curve.Name(),
			Params: []*big.Int{curve.Lambda.Num(), curve.Lambda.Denom()},
		}, nil
	default:
		return storedCurve{}, ErrInvalidSnapshot
	}
}

func restoreCurve(s storedCurve) (pricing.Curve, error) {
	switch s.Name {
	case "rational":
		if len(s.Params) != 4 {
			return nil, ErrInvalidSnapshot
		}
		pole := new(big.Rat).SetFrac(s.Params[0], s.Params[1])
		slope := new(big.Rat).SetFrac(s.Params[2], s.Params[3])
		return pricing.NewRationalCurve(pole, slope), nil
	case "log":
		if len(s.Params) != 2 {
			return nil, ErrInvalidSnapshot
		}
		return pricing.NewLogCurve(new(big.Rat).SetFrac(s.Params[0], s.Params[1])), nil
	default:
		return nil, ErrInvalidSnapshot
	}
}

func storeEnergyAccounts(l *energy.Ledger) []storedEnergyAccount {
	accounts := l.Accounts()
	out := make([]storedEnergyAccount, 0, len(accounts))
	for owner, acc := range accounts {
		out = append(out, storedEnergyAccount{
			Owner:     owner,
			Balance:   acc.Balance,
			Rented:    acc.Rented,
			Energy:    acc.Energy,
			Timestamp: acc.Timestamp,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Owner[:], out[j].Owner[:]) < 0
	})
	return out
}

// Snapshot serialises the full engine state. Maps are flattened into
// ID-sorted slices so equal states produce equal bytes.
func (e *Engine) Snapshot() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stored := storedEngine{
		Name:                   e.name,
		AssetSymbol:            e.asset.Symbol,
		AssetDecimals:          e.asset.Decimals,
		Owner:                  e.owner,
		Vault:                  e.vault,
		FixedReserve:           e.fixedReserve,
		UsedReserve:            e.usedReserve,
		TotalShares:            e.totalShares,
		StreamingTarget:        e.streaming.target,
		StreamingUpdated:       e.streaming.updated,
		StreamingHalving:       e.streaming.halving,
		GCFeeBps:               e.gcFeeBps,
		RenterOnlyReturnPeriod: e.renterOnlyReturnPeriod,
		OwnerCollectionPeriod:  e.ownerCollectionPeriod,
		Shutdown:               e.shutdown,
		NextServiceID:          e.nextServiceID,
		NextStakeID:            e.nextStakeID,
		NextRentalID:           e.nextRentalID,
	}

	for id, svc := range e.services {
		curve, err := storeCurve(svc.cfg.Curve)
		if err != nil {
			return nil, err
		}
		stored.Services = append(stored.Services, storedService{
			ID:                id,
			Name:              svc.cfg.Name,
			Symbol:            svc.cfg.Symbol,
			GapHalvingPeriod:  svc.cfg.GapHalvingPeriod,
			BaseRateNum:       svc.cfg.BaseRate.Num(),
			BaseRateDen:       svc.cfg.BaseRate.Denom(),
			BaseAssetSymbol:   svc.cfg.BaseAsset.Symbol,
			BaseAssetDecimals: svc.cfg.BaseAsset.Decimals,
			ServiceFeeBps:     svc.cfg.ServiceFeeBps,
			MinRentalPeriod:   svc.cfg.MinRentalPeriod,
			MaxRentalPeriod:   svc.cfg.MaxRentalPeriod,
			MinGCFee:          svc.cfg.MinGCFee,
			Curve:             curve,
			TransfersEnabled:  svc.energy.TransfersEnabled(),
			Accounts:          storeEnergyAccounts(svc.energy),
		})
	}
	sort.Slice(stored.Services, func(i, j int) bool {
		return stored.Services[i].ID < stored.Services[j].ID
	})

	for id, pos := range e.stakes {
		stored.Stakes = append(stored.Stakes, storedStake{
			ID:     id,
			Owner:  pos.Owner,
			Amount: pos.Amount,
			Shares: pos.Shares,
		})
	}
	sort.Slice(stored.Stakes, func(i, j int) bool {
		return stored.Stakes[i].ID < stored.Stakes[j].ID
	})

	for id, agreement := range e.rentals {
		stored.Rentals = append(stored.Rentals, storedRental{
			ID:           id,
			ServiceID:    agreement.ServiceID,
			Renter:       agreement.Renter,
			RentalAmount: agreement.RentalAmount,
			StartTime:    agreement.StartTime,
			EndTime:      agreement.EndTime,
			GCFee:        agreement.GCFee,
		})
	}
	sort.Slice(stored.Rentals, func(i, j int) bool {
		return stored.Rentals[i].ID < stored.Rentals[j].ID
	})

	return rlp.EncodeToBytes(&stored)
}

// Restore replaces the engine state with a previously captured snapshot.
// Wiring set through SetState, SetConverter and SetEmitter is kept.
func (e *Engine) Restore(data []byte) error {
	var stored storedEngine
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return err
	}

	services := make(map[uint32]*service, len(stored.Services))
	for _, s := range stored.Services {
		curve, err := restoreCurve(s.Curve)
		if err != nil {
			return err
		}
		ledger, err := energy.NewLedger(s.GapHalvingPeriod)
		if err != nil {
			return ErrInvalidSnapshot
		}
		accounts := make(map[types.Address]*energy.Account, len(s.Accounts))
		for _, acc := range s.Accounts {
			accounts[acc.Owner] = &energy.Account{
				Balance:   acc.Balance,
				Rented:    acc.Rented,
				Energy:    acc.Energy,
				Timestamp: acc.Timestamp,
			}
		}
		ledger.Restore(accounts, s.TransfersEnabled)
		services[s.ID] = &service{
			id: s.ID,
			cfg: ServiceConfig{
				Name:             s.Name,
				Symbol:           s.Symbol,
				GapHalvingPeriod: s.GapHalvingPeriod,
				BaseRate:         new(big.Rat).SetFrac(s.BaseRateNum, s.BaseRateDen),
				BaseAsset:        types.Asset{Symbol: s.BaseAssetSymbol, Decimals: s.BaseAssetDecimals},
				ServiceFeeBps:    s.ServiceFeeBps,
				MinRentalPeriod:  s.MinRentalPeriod,
				MaxRentalPeriod:  s.MaxRentalPeriod,
				MinGCFee:         s.MinGCFee,
				Curve:            curve,
			},
			energy: ledger,
		}
	}

	stakes := make(map[uint64]*StakePosition, len(stored.Stakes))
	for _, s := range stored.Stakes {
		stakes[s.ID] = &StakePosition{ID: s.ID, Owner: s.Owner, Amount: s.Amount, Shares: s.Shares}
	}
	rentals := make(map[uint64]*RentalAgreement, len(stored.Rentals))
	for _, r := range stored.Rentals {
		rentals[r.ID] = &RentalAgreement{
			ID:           r.ID,
			ServiceID:    r.ServiceID,
			Renter:       r.Renter,
			RentalAmount: r.RentalAmount,
			StartTime:    r.StartTime,
			EndTime:      r.EndTime,
			GCFee:        r.GCFee,
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.name = stored.Name
	e.asset = types.Asset{Symbol: stored.AssetSymbol, Decimals: stored.AssetDecimals}
	e.owner = stored.Owner
	e.vault = stored.Vault
	e.fixedReserve = stored.FixedReserve
	e.usedReserve = stored.UsedReserve
	e.totalShares = stored.TotalShares
	e.streaming = &streamingReserve{
		target:  stored.StreamingTarget,
		updated: stored.StreamingUpdated,
		halving: stored.StreamingHalving,
	}
	e.gcFeeBps = stored.GCFeeBps
	e.renterOnlyReturnPeriod = stored.RenterOnlyReturnPeriod
	e.ownerCollectionPeriod = stored.OwnerCollectionPeriod
	e.shutdown = stored.Shutdown
	e.nextServiceID = stored.NextServiceID
	e.nextStakeID = stored.NextStakeID
	e.nextRentalID = stored.NextRentalID
	e.services = services
	e.stakes = stakes
	e.rentals = rentals
	return nil
}
