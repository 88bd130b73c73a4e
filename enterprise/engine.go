// Package enterprise implements the stake/rent/return/unstake accounting
// engine: a shares-based reserve pool whose rental income streams in
// gradually, power tokens gated by decaying energy, and bonding-curve fee
// quoting with slippage protection.
package enterprise

import (
	"math/big"
	"strings"
	"sync"

	"github.com/iqlabsorg/iq-protocol-go/converter"
	"github.com/iqlabsorg/iq-protocol-go/energy"
	"github.com/iqlabsorg/iq-protocol-go/events"
	"github.com/iqlabsorg/iq-protocol-go/pricing"
	"github.com/iqlabsorg/iq-protocol-go/types"
)

const basisPoints = 10_000

// Default lifecycle parameters, overridable via the setters below.
const (
	DefaultStreamingReserveHalvingPeriod = 7 * 24 * 3600
	DefaultRenterOnlyReturnPeriod        = 12 * 3600
	DefaultOwnerOnlyCollectionPeriod     = 24 * 3600
)

// Engine orchestrates all state transitions for one enterprise. Every
// mutating operation runs atomically under a single mutex: ledger state is
// only written once all checks have passed, so a failed call leaves
// nothing behind.
type Engine struct {
	mu sync.Mutex

	name  string
	asset types.Asset
	// vault holds pooled funds: stake principal, streamed income and GC
	// deposits.
	vault types.Address
	// owner administers services, receives service fees and may trigger
	// the wind-down.
	owner types.Address

	clock     types.Clock
	state     LedgerState
	converter converter.Converter
	emitter   events.Emitter

	fixedReserve *big.Int
	usedReserve  *big.Int
	totalShares  *big.Int
	streaming    *streamingReserve

	services map[uint32]*service
	stakes   map[uint64]*StakePosition
	rentals  map[uint64]*RentalAgreement

	nextServiceID uint32
	nextStakeID   uint64
	nextRentalID  uint64

	gcFeeBps               uint64
	renterOnlyReturnPeriod uint64
	ownerCollectionPeriod  uint64

	shutdown bool
}

// NewEngine constructs an enterprise around its base asset and treasury
// addresses. The clock drives every decay computation; tests pass a manual
// clock.
func NewEngine(name string, asset types.Asset, owner, vault types.Address, clock types.Clock) *Engine {
	now := uint64(0)
	if clock != nil {
		now = clock.Now()
	}
	return &Engine{
		name:                   strings.TrimSpace(name),
		asset:                  asset,
		owner:                  owner,
		vault:                  vault,
		clock:                  clock,
		converter:              converter.Default{},
		emitter:                events.NoopEmitter{},
		fixedReserve:           big.NewInt(0),
		usedReserve:            big.NewInt(0),
		totalShares:            big.NewInt(0),
		streaming:              newStreamingReserve(DefaultStreamingReserveHalvingPeriod, now),
		services:               make(map[uint32]*service),
		stakes:                 make(map[uint64]*StakePosition),
		rentals:                make(map[uint64]*RentalAgreement),
		gcFeeBps:               0,
		renterOnlyReturnPeriod: DefaultRenterOnlyReturnPeriod,
		ownerCollectionPeriod:  DefaultOwnerOnlyCollectionPeriod,
	}
}

// SetState wires the engine to the external balance ledger.
func (e *Engine) SetState(state LedgerState) { e.state = state }

// SetConverter wires the asset converter used for alternate-asset payment.
func (e *Engine) SetConverter(c converter.Converter) {
	if c != nil {
		e.converter = c
	}
}

// SetEmitter wires the event sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter != nil {
		e.emitter = emitter
	}
}

// SetStreamingReserveHalvingPeriod retunes how quickly rental income
// matures into the reserve. Pending income keeps its progress.
func (e *Engine) SetStreamingReserveHalvingPeriod(halving uint64) error {
	if halving == 0 {
		return ErrInvalidConfig
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flush(e.now())
	e.streaming.halving = halving
	return nil
}

// StreamingReserveHalvingPeriod returns the active streaming half-life.
func (e *Engine) StreamingReserveHalvingPeriod() uint64 { return e.streaming.halving }

// SetReturnWindows configures the renter-only and owner-only grace windows
// applied after a rental expires.
func (e *Engine) SetReturnWindows(renterOnly, ownerOnly uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renterOnlyReturnPeriod = renterOnly
	e.ownerCollectionPeriod = ownerOnly
}

// SetGCFeeBps configures the garbage-collection deposit percentage.
func (e *Engine) SetGCFeeBps(bps uint64) error {
	if bps > basisPoints {
		return ErrInvalidConfig
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gcFeeBps = bps
	return nil
}

// Name returns the enterprise name.
func (e *Engine) Name() string { return e.name }

// Asset returns the enterprise base asset.
func (e *Engine) Asset() types.Asset { return e.asset }

// IsShutdown reports whether the wind-down switch has been thrown.
func (e *Engine) IsShutdown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown
}

func (e *Engine) now() uint64 {
	if e.clock == nil {
		return 0
	}
	return e.clock.Now()
}

// flush matures streamed income into the fixed reserve as of time t.
// Callers hold the mutex.
func (e *Engine) flush(t uint64) {
	matured := e.streaming.flush(t)
	if matured.Sign() > 0 {
		e.fixedReserve = new(big.Int).Add(e.fixedReserve, matured)
	}
}

// reserveAt is the read-only reserve value at time t: fixed reserve plus
// matured-but-unflushed streaming income.
func (e *Engine) reserveAt(t uint64) *big.Int {
	return new(big.Int).Add(e.fixedReserve, e.streaming.available(t))
}

// Reserve returns the total reserve at the current time.
func (e *Engine) Reserve() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reserveAt(e.now())
}

// UsedReserve returns the amount currently committed to rentals.
func (e *Engine) UsedReserve() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return new(big.Int).Set(e.usedReserve)
}

// AvailableReserve returns reserve minus used, floored at zero.
func (e *Engine) AvailableReserve() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.availableAt(e.now())
}

func (e *Engine) availableAt(t uint64) *big.Int {
	avail := new(big.Int).Sub(e.reserveAt(t), e.usedReserve)
	if avail.Sign() < 0 {
		avail.SetInt64(0)
	}
	return avail
}

// TotalShares returns the outstanding share supply.
func (e *Engine) TotalShares() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return new(big.Int).Set(e.totalShares)
}

func (e *Engine) loadAccount(addr types.Address) (*types.Account, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	acc, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = types.NewAccount(addr)
	}
	return acc, nil
}

// transfer moves amount of asset between ledger accounts, checking the
// source balance.
func (e *Engine) transfer(from, to types.Address, asset types.Asset, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if from == to {
		src, err := e.loadAccount(from)
		if err != nil {
			return err
		}
		if src.Balance(asset).Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		return nil
	}
	src, err := e.loadAccount(from)
	if err != nil {
		return err
	}
	if src.Balance(asset).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	dst, err := e.loadAccount(to)
	if err != nil {
		return err
	}
	src.Debit(asset, amount)
	dst.Credit(asset, amount)
	if err := e.state.PutAccount(from, src); err != nil {
		return err
	}
	return e.state.PutAccount(to, dst)
}

// mulDiv computes a*b/c flooring toward zero, the share-math rounding used
// throughout the pool.
func mulDiv(a, b, c *big.Int) *big.Int {
	if c.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, c)
}

// RegisterService deploys a new power token service and returns its
// identifier.
func (e *Engine) RegisterService(cfg ServiceConfig) (uint32, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shutdown {
		return 0, ErrShutdown
	}

	ledger, err := energy.NewLedger(cfg.GapHalvingPeriod)
	if err != nil {
		return 0, ErrInvalidConfig
	}
	if cfg.Curve == nil {
		cfg.Curve = pricing.DefaultRationalCurve()
	}
	if cfg.MinGCFee == nil {
		cfg.MinGCFee = big.NewInt(0)
	}
	if cfg.BaseAsset.Symbol == "" {
		cfg.BaseAsset = e.asset
	}
	cfg.BaseRate = new(big.Rat).Set(cfg.BaseRate)
	cfg.MinGCFee = new(big.Int).Set(cfg.MinGCFee)

	e.nextServiceID++
	svc := &service{id: e.nextServiceID, cfg: cfg, energy: ledger}
	e.services[svc.id] = svc

	e.emitter.Emit(events.ServiceRegistered{
		ServiceID:        svc.id,
		Name:             cfg.Name,
		Symbol:           cfg.Symbol,
		GapHalvingPeriod: cfg.GapHalvingPeriod,
	})
	return svc.id, nil
}

func (e *Engine) serviceByID(id uint32) (*service, error) {
	svc, ok := e.services[id]
	if !ok {
		return nil, ErrUnknownService
	}
	return svc, nil
}

// Service returns a copy of the service configuration.
func (e *Engine) Service(id uint32) (ServiceConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	svc, err := e.serviceByID(id)
	if err != nil {
		return ServiceConfig{}, err
	}
	cfg := svc.cfg
	cfg.BaseRate = new(big.Rat).Set(cfg.BaseRate)
	cfg.MinGCFee = new(big.Int).Set(cfg.MinGCFee)
	return cfg, nil
}

// SetBaseRate updates a service's base rate and GC fee floor. Owner only.
func (e *Engine) SetBaseRate(id uint32, caller types.Address, rate *big.Rat, minGCFee *big.Int) error {
	if rate == nil || rate.Sign() < 0 {
		return ErrInvalidConfig
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrInvalidCaller
	}
	svc, err := e.serviceByID(id)
	if err != nil {
		return err
	}
	svc.cfg.BaseRate = new(big.Rat).Set(rate)
	if minGCFee != nil {
		svc.cfg.MinGCFee = new(big.Int).Set(minGCFee)
	}
	return nil
}

// SetServiceFeePercent updates a service's fee share in basis points.
// Owner only.
func (e *Engine) SetServiceFeePercent(id uint32, caller types.Address, bps uint64) error {
	if bps > basisPoints {
		return ErrInvalidConfig
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrInvalidCaller
	}
	svc, err := e.serviceByID(id)
	if err != nil {
		return err
	}
	svc.cfg.ServiceFeeBps = bps
	return nil
}

// SetRentalPeriodLimits updates a service's admissible rental durations.
// Owner only.
func (e *Engine) SetRentalPeriodLimits(id uint32, caller types.Address, min, max uint64) error {
	if max == 0 || min > max {
		return ErrInvalidConfig
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrInvalidCaller
	}
	svc, err := e.serviceByID(id)
	if err != nil {
		return err
	}
	svc.cfg.MinRentalPeriod = min
	svc.cfg.MaxRentalPeriod = max
	return nil
}

// EnableTransfersForever permanently enables power token transfers for the
// service. Owner only; there is deliberately no way back.
func (e *Engine) EnableTransfersForever(id uint32, caller types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrInvalidCaller
	}
	svc, err := e.serviceByID(id)
	if err != nil {
		return err
	}
	svc.energy.EnableTransfersForever()
	return nil
}

// ShutdownForever switches the enterprise into wind-down mode: staking and
// renting stop, withdrawals and returns continue, and all return-window
// gating is lifted. Owner only, irreversible.
func (e *Engine) ShutdownForever(caller types.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return ErrInvalidCaller
	}
	if e.shutdown {
		return ErrShutdown
	}
	e.shutdown = true
	e.emitter.Emit(events.Shutdown{At: e.now()})
	return nil
}
