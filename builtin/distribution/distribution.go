// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package distribution implements fixed-point proportional reward distribution.
//
// Rewards accumulate as points per unit of weight, scaled by 2^PointsShift. The remainder of
// each round that cannot be divided evenly is carried into the next one, so that the sum of
// all payouts converges to the sum of all distributed amounts. Members whose weight changes
// keep a correction term, so that their withdrawable amount is computed from their current
// weight only.
package distribution

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/poe"
)

var logger = log.WithContext("pkg", "distribution")

// Distribution is the ledger of one reward denom.
type Distribution struct {
	Denom string
	// PointsPerWeight is the accumulated reward per unit of weight, scaled by 2^PointsShift.
	PointsPerWeight *uint256.Int
	// PointsLeftover is the part of the last round that could not be divided, in points.
	PointsLeftover    uint64
	DistributedTotal  *uint256.Int
	WithdrawableTotal *uint256.Int
}

func newDistribution(denom string) Distribution {
	return Distribution{
		Denom:             denom,
		PointsPerWeight:   new(uint256.Int),
		DistributedTotal:  new(uint256.Int),
		WithdrawableTotal: new(uint256.Int),
	}
}

// Ledger keeps the distribution record and the per member adjustments of a contract.
type Ledger struct {
	distribution *storage.Item[Distribution]
	adjustments  *storage.Map[poe.Address, WithdrawAdjustment]
}

func New(sctx *storage.Context) *Ledger {
	return &Ledger{
		distribution: storage.NewItem[Distribution](sctx, "distribution"),
		adjustments:  storage.NewMap[poe.Address, WithdrawAdjustment](sctx, "withdraw_adjustment"),
	}
}

// Init creates an empty ledger for denom.
func (l *Ledger) Init(denom string) error {
	if denom == "" {
		return reverts.InvalidParameterf("empty reward denom")
	}
	return l.distribution.Save(newDistribution(denom))
}

// Distribution loads the ledger record, which must have been initialized.
func (l *Ledger) Distribution() (*Distribution, error) {
	d, err := l.distribution.Load()
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (l *Ledger) Denom() (string, error) {
	d, err := l.Distribution()
	if err != nil {
		return "", err
	}
	return d.Denom, nil
}

// Undistributed returns the part of balance not yet accounted for by the ledger.
func (l *Ledger) Undistributed(balance *big.Int) (*big.Int, error) {
	d, err := l.Distribution()
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Sub(balance, d.WithdrawableTotal.ToBig())
	if amount.Sign() < 0 {
		return nil, reverts.InvariantViolationf("balance %v below withdrawable total %v", balance, d.WithdrawableTotal)
	}
	return amount, nil
}

// Distribute splits everything received since the previous round among totalWeight. balance
// is the current contract balance of the reward denom. A round with nothing to distribute is
// a no-op and returns zero.
func (l *Ledger) Distribute(balance *big.Int, totalWeight uint64) (*big.Int, error) {
	d, err := l.Distribution()
	if err != nil {
		return nil, err
	}
	amount, err := l.Undistributed(balance)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return amount, nil
	}
	if totalWeight == 0 {
		return nil, reverts.Newf(reverts.NoMembersToDistributeTo, "no members to distribute %v%s to", amount, d.Denom)
	}

	logger.Debug("distributing", "amount", amount, "denom", d.Denom, "totalWeight", totalWeight)

	points := new(big.Int).Lsh(amount, poe.PointsShift)
	points.Add(points, new(big.Int).SetUint64(d.PointsLeftover))
	pointsPerShare, leftover := new(big.Int).QuoRem(points, new(big.Int).SetUint64(totalWeight), new(big.Int))

	ppw := pointsPerShare.Add(pointsPerShare, d.PointsPerWeight.ToBig())
	distributed := new(big.Int).Add(d.DistributedTotal.ToBig(), amount)
	withdrawable := new(big.Int).Add(d.WithdrawableTotal.ToBig(), amount)
	if !poe.FitsUint128(ppw) || !poe.FitsUint128(distributed) || !poe.FitsUint128(withdrawable) {
		return nil, reverts.Overflowf("distribution of %v%s", amount, d.Denom)
	}

	d.PointsPerWeight = uint256.MustFromBig(ppw)
	d.PointsLeftover = leftover.Uint64()
	d.DistributedTotal = uint256.MustFromBig(distributed)
	d.WithdrawableTotal = uint256.MustFromBig(withdrawable)
	if err := l.distribution.Save(*d); err != nil {
		return nil, err
	}

	logger.Info("distributed", "amount", amount, "denom", d.Denom, "pointsPerWeight", d.PointsPerWeight, "leftover", d.PointsLeftover)
	return amount, nil
}
