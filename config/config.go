// Package config loads enterprise deployment descriptors from TOML.
package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/iqlabsorg/iq-protocol-go/enterprise"
	"github.com/iqlabsorg/iq-protocol-go/pricing"
	"github.com/iqlabsorg/iq-protocol-go/types"
)

// Config describes one enterprise and the power token services it offers.
type Config struct {
	Enterprise Enterprise `toml:"Enterprise"`
	Services   []Service  `toml:"Services"`
}

// Enterprise holds the engine-level parameters.
type Enterprise struct {
	Name                          string `toml:"Name"`
	AssetSymbol                   string `toml:"AssetSymbol"`
	AssetDecimals                 uint8  `toml:"AssetDecimals"`
	OwnerAddress                  string `toml:"OwnerAddress"`
	VaultAddress                  string `toml:"VaultAddress"`
	StreamingReserveHalvingPeriod uint64 `toml:"StreamingReserveHalvingPeriod"`
	RenterOnlyReturnPeriod        uint64 `toml:"RenterOnlyReturnPeriod"`
	OwnerOnlyCollectionPeriod     uint64 `toml:"OwnerOnlyCollectionPeriod"`
	GCFeeBps                      uint64 `toml:"GCFeeBps"`
}

// Service holds the parameters of one power token service.
type Service struct {
	Name             string `toml:"Name"`
	Symbol           string `toml:"Symbol"`
	GapHalvingPeriod uint64 `toml:"GapHalvingPeriod"`
	// BaseRate is expressed as a fraction of base asset units per rented
	// token per second.
	BaseRateNum       int64  `toml:"BaseRateNum"`
	BaseRateDen       int64  `toml:"BaseRateDen"`
	BaseAssetSymbol   string `toml:"BaseAssetSymbol"`
	BaseAssetDecimals uint8  `toml:"BaseAssetDecimals"`
	ServiceFeeBps     uint64 `toml:"ServiceFeeBps"`
	MinRentalPeriod   uint64 `toml:"MinRentalPeriod"`
	MaxRentalPeriod   uint64 `toml:"MaxRentalPeriod"`
	MinGCFee          int64  `toml:"MinGCFee"`
	Curve             string `toml:"Curve"`
}

// Load reads and validates the configuration at path, applying defaults
// for omitted lifecycle parameters.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown key %q in %s", undecoded[0].String(), path)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Enterprise.StreamingReserveHalvingPeriod == 0 {
		c.Enterprise.StreamingReserveHalvingPeriod = enterprise.DefaultStreamingReserveHalvingPeriod
	}
	if c.Enterprise.RenterOnlyReturnPeriod == 0 {
		c.Enterprise.RenterOnlyReturnPeriod = enterprise.DefaultRenterOnlyReturnPeriod
	}
	if c.Enterprise.OwnerOnlyCollectionPeriod == 0 {
		c.Enterprise.OwnerOnlyCollectionPeriod = enterprise.DefaultOwnerOnlyCollectionPeriod
	}
	for i := range c.Services {
		svc := &c.Services[i]
		if svc.Curve == "" {
			svc.Curve = "rational"
		}
		if svc.BaseAssetSymbol == "" {
			svc.BaseAssetSymbol = c.Enterprise.AssetSymbol
			svc.BaseAssetDecimals = c.Enterprise.AssetDecimals
		}
	}
}

// Validate checks the configuration for inconsistencies that would be
// rejected later by the engine.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Enterprise.Name) == "" {
		return fmt.Errorf("config: enterprise name is required")
	}
	if strings.TrimSpace(c.Enterprise.AssetSymbol) == "" {
		return fmt.Errorf("config: enterprise asset symbol is required")
	}
	if _, err := types.AddressFromHex(c.Enterprise.OwnerAddress); err != nil {
		return fmt.Errorf("config: invalid owner address: %w", err)
	}
	if _, err := types.AddressFromHex(c.Enterprise.VaultAddress); err != nil {
		return fmt.Errorf("config: invalid vault address: %w", err)
	}
	if c.Enterprise.GCFeeBps > 10_000 {
		return fmt.Errorf("config: GC fee above 100%%")
	}
	for _, svc := range c.Services {
		if strings.TrimSpace(svc.Name) == "" || strings.TrimSpace(svc.Symbol) == "" {
			return fmt.Errorf("config: service name and symbol are required")
		}
		if svc.GapHalvingPeriod == 0 {
			return fmt.Errorf("config: service %s: gap halving period is required", svc.Symbol)
		}
		if svc.BaseRateNum < 0 || svc.BaseRateDen <= 0 {
			return fmt.Errorf("config: service %s: invalid base rate", svc.Symbol)
		}
		if svc.MaxRentalPeriod == 0 || svc.MinRentalPeriod > svc.MaxRentalPeriod {
			return fmt.Errorf("config: service %s: invalid rental period bounds", svc.Symbol)
		}
		if svc.MinGCFee < 0 {
			return fmt.Errorf("config: service %s: negative GC fee floor", svc.Symbol)
		}
		switch svc.Curve {
		case "rational", "log":
		default:
			return fmt.Errorf("config: service %s: unknown curve %q", svc.Symbol, svc.Curve)
		}
	}
	return nil
}

// BuildEngine constructs an engine from the configuration. Services are
// registered in file order, so their IDs are assigned 1..n. Callers still
// wire the ledger state, converter and emitter.
func (c *Config) BuildEngine(clock types.Clock) (*enterprise.Engine, error) {
	owner, err := types.AddressFromHex(c.Enterprise.OwnerAddress)
	if err != nil {
		return nil, err
	}
	vault, err := types.AddressFromHex(c.Enterprise.VaultAddress)
	if err != nil {
		return nil, err
	}
	asset := types.Asset{Symbol: c.Enterprise.AssetSymbol, Decimals: c.Enterprise.AssetDecimals}

	eng := enterprise.NewEngine(c.Enterprise.Name, asset, owner, vault, clock)
	if err := eng.SetStreamingReserveHalvingPeriod(c.Enterprise.StreamingReserveHalvingPeriod); err != nil {
		return nil, err
	}
	eng.SetReturnWindows(c.Enterprise.RenterOnlyReturnPeriod, c.Enterprise.OwnerOnlyCollectionPeriod)
	if err := eng.SetGCFeeBps(c.Enterprise.GCFeeBps); err != nil {
		return nil, err
	}

	for _, svc := range c.Services {
		var curve pricing.Curve
		switch svc.Curve {
		case "log":
			curve = pricing.NewLogCurve(nil)
		default:
			curve = pricing.DefaultRationalCurve()
		}
		_, err := eng.RegisterService(enterprise.ServiceConfig{
			Name:             svc.Name,
			Symbol:           svc.Symbol,
			GapHalvingPeriod: svc.GapHalvingPeriod,
			BaseRate:         big.NewRat(svc.BaseRateNum, svc.BaseRateDen),
			BaseAsset:        types.Asset{Symbol: svc.BaseAssetSymbol, Decimals: svc.BaseAssetDecimals},
			ServiceFeeBps:    svc.ServiceFeeBps,
			MinRentalPeriod:  svc.MinRentalPeriod,
			MaxRentalPeriod:  svc.MaxRentalPeriod,
			MinGCFee:         big.NewInt(svc.MinGCFee),
			Curve:            curve,
		})
		if err != nil {
			return nil, fmt.Errorf("config: register service %s: %w", svc.Symbol, err)
		}
	}
	return eng, nil
}
