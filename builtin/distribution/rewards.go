// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distribution

import (
	"math/big"

	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

// Rewards serves the reward endpoints of a weighted contract, using the ledger of the
// contract and its current weights.
type Rewards struct {
	Ledger  *Ledger
	Weights group.Source
}

func (r *Rewards) weight(addr poe.Address) (uint64, error) {
	w, err := r.Weights.IsMember(addr)
	return group.WeightOf(w), err
}

// Execute handles reward messages. handled is false for any other message.
func (r *Rewards) Execute(env *xenv.Environment, msg any) (resp *xenv.Response, handled bool, err error) {
	switch msg := msg.(type) {
	case DistributeRewardsMsg:
		resp, err = r.distribute(env)
	case WithdrawRewardsMsg:
		resp, err = r.withdraw(env, msg)
	case DelegateWithdrawalMsg:
		resp, err = r.delegate(env, msg)
	default:
		return nil, false, nil
	}
	return resp, true, err
}

func (r *Rewards) distribute(env *xenv.Environment) (*xenv.Response, error) {
	denom, err := r.Ledger.Denom()
	if err != nil {
		return nil, err
	}
	balance, err := env.Balance(denom)
	if err != nil {
		return nil, err
	}
	total, err := r.Weights.TotalWeight()
	if err != nil {
		return nil, err
	}
	amount, err := r.Ledger.Distribute(balance, total)
	if err != nil {
		return nil, err
	}
	return xenv.NewResponse().
		AddAttribute("action", "distribute_rewards").
		AddAttribute("sender", env.Sender()).
		AddAttribute("denom", denom).
		AddAttribute("amount", amount), nil
}

func (r *Rewards) withdraw(env *xenv.Environment, msg WithdrawRewardsMsg) (*xenv.Response, error) {
	owner := env.Sender()
	if msg.Owner != nil {
		owner = *msg.Owner
	}
	weight, err := r.weight(owner)
	if err != nil {
		return nil, err
	}
	amount, send, err := r.Ledger.Withdraw(owner, env.Sender(), msg.Receiver, weight)
	if err != nil {
		return nil, err
	}
	resp := xenv.NewResponse()
	if send == nil {
		return resp, nil
	}
	return resp.AddMessage(send).
		AddAttribute("action", "withdraw_rewards").
		AddAttribute("owner", owner).
		AddAttribute("amount", amount), nil
}

func (r *Rewards) delegate(env *xenv.Environment, msg DelegateWithdrawalMsg) (*xenv.Response, error) {
	if err := r.Ledger.DelegateWithdrawal(env.Sender(), msg.Delegated); err != nil {
		return nil, err
	}
	return xenv.NewResponse().
		AddAttribute("action", "delegate_withdrawal").
		AddAttribute("owner", env.Sender()).
		AddAttribute("delegated", msg.Delegated), nil
}

// Query answers reward queries. handled is false for any other query.
func (r *Rewards) Query(env *xenv.Environment, query any) (res any, handled bool, err error) {
	switch q := query.(type) {
	case WithdrawableRewardsQuery:
		res, err = r.withdrawable(q.Owner)
	case DistributedRewardsQuery:
		res, err = r.distributed()
	case UndistributedRewardsQuery:
		res, err = r.undistributed(env)
	case DelegatedQuery:
		res, err = r.Ledger.Delegated(q.Owner)
	default:
		return nil, false, nil
	}
	return res, true, err
}

func (r *Rewards) coin(amount *big.Int) (poe.Coin, error) {
	denom, err := r.Ledger.Denom()
	return poe.Coin{Denom: denom, Amount: amount}, err
}

func (r *Rewards) withdrawable(owner poe.Address) (poe.Coin, error) {
	weight, err := r.weight(owner)
	if err != nil {
		return poe.Coin{}, err
	}
	amount, err := r.Ledger.Withdrawable(owner, weight)
	if err != nil {
		return poe.Coin{}, err
	}
	return r.coin(amount)
}

func (r *Rewards) distributed() (poe.Coin, error) {
	d, err := r.Ledger.Distribution()
	if err != nil {
		return poe.Coin{}, err
	}
	return poe.Coin{Denom: d.Denom, Amount: d.DistributedTotal.ToBig()}, nil
}

func (r *Rewards) undistributed(env *xenv.Environment) (poe.Coin, error) {
	denom, err := r.Ledger.Denom()
	if err != nil {
		return poe.Coin{}, err
	}
	balance, err := env.Balance(denom)
	if err != nil {
		return poe.Coin{}, err
	}
	amount, err := r.Ledger.Undistributed(balance)
	if err != nil {
		return poe.Coin{}, err
	}
	return poe.Coin{Denom: denom, Amount: amount}, nil
}
