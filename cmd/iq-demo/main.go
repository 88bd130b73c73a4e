// Command iq-demo loads an enterprise descriptor and replays a full
// stake, rent, return, unstake cycle against an in-memory ledger,
// printing the reserve accounting at each step.
package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/iqlabsorg/iq-protocol-go/config"
	"github.com/iqlabsorg/iq-protocol-go/enterprise"
	"github.com/iqlabsorg/iq-protocol-go/types"
)

func main() {
	configFile := flag.String("config", "./enterprise.toml", "Path to the enterprise descriptor")
	stakeAmount := flag.Int64("stake", 1_000_000, "Amount the staker deposits")
	rentAmount := flag.Int64("rent", 100_000, "Amount of power tokens to rent")
	rentPeriod := flag.Uint64("period", 86_400, "Rental period in seconds")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Services) == 0 {
		fmt.Fprintln(os.Stderr, "config declares no services")
		os.Exit(1)
	}

	clock := types.NewManualClock(1_700_000_000)
	eng, err := cfg.BuildEngine(clock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	state := enterprise.NewMemoryState()
	eng.SetState(state)

	asset := eng.Asset()
	staker, _ := types.AddressFromHex("0x00000000000000000000000000000000000000aa")
	renter, _ := types.AddressFromHex("0x00000000000000000000000000000000000000bb")
	fund(state, staker, asset, big.NewInt(*stakeAmount))
	fund(state, renter, asset, big.NewInt(10*(*rentAmount)))

	fmt.Printf("enterprise %q, asset %s\n", eng.Name(), asset.Key())

	stakeID, err := eng.Stake(staker, big.NewInt(*stakeAmount))
	exitOn("stake", err)
	fmt.Printf("staked %d, reserve=%s shares=%s\n", *stakeAmount, eng.Reserve(), eng.TotalShares())

	serviceID := uint32(1)
	payment, err := eng.EstimateRentalFee(serviceID, big.NewInt(*rentAmount), *rentPeriod, asset)
	exitOn("estimate rental fee", err)
	fmt.Printf("renting %d for %ds costs %s\n", *rentAmount, *rentPeriod, payment)

	rentalID, err := eng.Rent(serviceID, renter, big.NewInt(*rentAmount), *rentPeriod, asset, payment)
	exitOn("rent", err)
	fmt.Printf("rental %d open, used=%s available=%s\n", rentalID, eng.UsedReserve(), eng.AvailableReserve())

	clock.Advance(*rentPeriod)
	energy, err := eng.EnergyAt(serviceID, renter, clock.Now())
	exitOn("energy", err)
	fmt.Printf("renter energy at expiry: %s\n", energy)

	exitOn("return", eng.ReturnRental(rentalID, renter))
	fmt.Printf("rental returned, used=%s\n", eng.UsedReserve())

	clock.Advance(eng.StreamingReserveHalvingPeriod())
	reward, err := eng.StakingReward(stakeID)
	exitOn("staking reward", err)
	fmt.Printf("staking reward after one streaming halving: %s\n", reward)

	payout, err := eng.Unstake(stakeID, staker)
	exitOn("unstake", err)
	fmt.Printf("unstaked for %s, reserve=%s\n", payout, eng.Reserve())
}

func fund(state *enterprise.MemoryState, addr types.Address, asset types.Asset, amount *big.Int) {
	acc, _ := state.GetAccount(addr)
	acc.Credit(asset, amount)
	_ = state.PutAccount(addr, acc)
}

func exitOn(op string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", op, err)
		os.Exit(1)
	}
}
