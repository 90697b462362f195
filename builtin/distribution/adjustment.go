// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distribution

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

// WithdrawAdjustment is the per member state reconciling weight changes with the ledger.
// The signed points correction is stored as a sign flag and a magnitude.
type WithdrawAdjustment struct {
	CorrectionNegative bool
	Correction         *uint256.Int
	WithdrawnFunds     *uint256.Int
	Delegated          poe.Address
}

func newAdjustment(owner poe.Address) WithdrawAdjustment {
	return WithdrawAdjustment{
		Correction:     new(uint256.Int),
		WithdrawnFunds: new(uint256.Int),
		Delegated:      owner,
	}
}

// PointsCorrection returns the signed correction.
func (a *WithdrawAdjustment) PointsCorrection() *big.Int {
	c := a.Correction.ToBig()
	if a.CorrectionNegative {
		c.Neg(c)
	}
	return c
}

func (a *WithdrawAdjustment) setPointsCorrection(c *big.Int) error {
	if !poe.FitsInt128(c) {
		return reverts.Overflowf("points correction")
	}
	a.CorrectionNegative = c.Sign() < 0
	a.Correction = uint256.MustFromBig(new(big.Int).Abs(c))
	return nil
}

func (l *Ledger) adjustment(owner poe.Address) (WithdrawAdjustment, error) {
	adj, ok, err := l.adjustments.Get(owner)
	if err != nil {
		return adj, err
	}
	if !ok {
		return newAdjustment(owner), nil
	}
	return adj, nil
}

// Adjustment returns the adjustment of owner, a default one if none was stored yet.
func (l *Ledger) Adjustment(owner poe.Address) (*WithdrawAdjustment, error) {
	adj, err := l.adjustment(owner)
	if err != nil {
		return nil, err
	}
	return &adj, nil
}

// ApplyCorrection compensates a weight change of delta made when the ledger was at ppw.
func (l *Ledger) ApplyCorrection(addr poe.Address, ppw *uint256.Int, delta *big.Int) error {
	adj, err := l.adjustment(addr)
	if err != nil {
		return err
	}
	shift := new(big.Int).Mul(ppw.ToBig(), delta)
	if err := adj.setPointsCorrection(shift.Sub(adj.PointsCorrection(), shift)); err != nil {
		return err
	}
	return l.adjustments.Save(addr, adj)
}

func deltaOf(diff group.MemberDiff) *big.Int {
	delta := new(big.Int).SetUint64(group.WeightOf(diff.New))
	return delta.Sub(delta, new(big.Int).SetUint64(group.WeightOf(diff.Old)))
}

// ApplyCorrections applies the corrections of a batch of membership changes.
func (l *Ledger) ApplyCorrections(diffs []group.MemberDiff) error {
	if len(diffs) == 0 {
		return nil
	}
	d, err := l.Distribution()
	if err != nil {
		return err
	}
	for _, diff := range diffs {
		delta := deltaOf(diff)
		if delta.Sign() == 0 {
			continue
		}
		if err := l.ApplyCorrection(diff.Addr, d.PointsPerWeight, delta); err != nil {
			return err
		}
	}
	return nil
}

// Withdrawable returns what owner, currently at weight, can withdraw.
func (l *Ledger) Withdrawable(owner poe.Address, weight uint64) (*big.Int, error) {
	d, err := l.Distribution()
	if err != nil {
		return nil, err
	}
	adj, err := l.adjustment(owner)
	if err != nil {
		return nil, err
	}
	return withdrawable(d, &adj, weight)
}

func withdrawable(d *Distribution, adj *WithdrawAdjustment, weight uint64) (*big.Int, error) {
	points := new(big.Int).Mul(d.PointsPerWeight.ToBig(), new(big.Int).SetUint64(weight))
	points.Add(points, adj.PointsCorrection())
	amount := points.Rsh(points, poe.PointsShift)
	amount.Sub(amount, adj.WithdrawnFunds.ToBig())
	if amount.Sign() < 0 {
		return nil, reverts.InvariantViolationf("negative withdrawable amount %v", amount)
	}
	return amount, nil
}

// Withdraw pays the rewards of owner, currently at weight, to receiver. sender must be the
// owner or its delegate. A nil receiver means the sender. Nothing to withdraw is a no-op and
// yields no message.
func (l *Ledger) Withdraw(owner, sender poe.Address, receiver *poe.Address, weight uint64) (*big.Int, xenv.Msg, error) {
	d, err := l.Distribution()
	if err != nil {
		return nil, nil, err
	}
	adj, err := l.adjustment(owner)
	if err != nil {
		return nil, nil, err
	}
	if sender != owner && sender != adj.Delegated {
		return nil, nil, reverts.Unauthorizedf("%s may not withdraw rewards of %s", sender, owner)
	}

	amount, err := withdrawable(d, &adj, weight)
	if err != nil {
		return nil, nil, err
	}
	if amount.Sign() == 0 {
		return amount, nil, nil
	}

	to := sender
	if receiver != nil {
		to = *receiver
	}
	logger.Debug("withdrawing rewards", "owner", owner, "receiver", to, "amount", amount)

	withdrawn := new(big.Int).Add(adj.WithdrawnFunds.ToBig(), amount)
	if !poe.FitsUint128(withdrawn) {
		return nil, nil, reverts.Overflowf("withdrawn funds of %s", owner)
	}
	if d.WithdrawableTotal.ToBig().Cmp(amount) < 0 {
		return nil, nil, reverts.InvariantViolationf("withdrawable total %v below withdrawal %v", d.WithdrawableTotal, amount)
	}
	adj.WithdrawnFunds = uint256.MustFromBig(withdrawn)
	d.WithdrawableTotal = new(uint256.Int).Sub(d.WithdrawableTotal, uint256.MustFromBig(amount))

	if err := l.adjustments.Save(owner, adj); err != nil {
		return nil, nil, err
	}
	if err := l.distribution.Save(*d); err != nil {
		return nil, nil, err
	}

	logger.Info("rewards withdrawn", "owner", owner, "receiver", to, "amount", amount)
	return amount, xenv.BankSend{To: to, Amount: poe.Coins{{Denom: d.Denom, Amount: amount}}}, nil
}

// DelegateWithdrawal makes delegate the only address besides owner allowed to withdraw.
func (l *Ledger) DelegateWithdrawal(owner, delegate poe.Address) error {
	adj, err := l.adjustment(owner)
	if err != nil {
		return err
	}
	adj.Delegated = delegate
	if err := l.adjustments.Save(owner, adj); err != nil {
		return err
	}
	logger.Debug("withdrawal delegated", "owner", owner, "delegate", delegate)
	return nil
}

// Delegated returns the delegate of owner, owner itself by default.
func (l *Ledger) Delegated(owner poe.Address) (poe.Address, error) {
	adj, err := l.adjustment(owner)
	return adj.Delegated, err
}
