// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xenv defines what a native contract sees of the host during one invocation.
package xenv

import (
	"math/big"

	"github.com/vechain/poe/kv"
	"github.com/vechain/poe/poe"
)

// Querier answers read-only queries against other contracts and the bank.
type Querier interface {
	Balance(addr poe.Address, denom string) (*big.Int, error)
	QueryContract(contract poe.Address, query any) (any, error)
}

// RawQuerier is a Querier that also hands out the storage of other contracts for direct
// reads, charged per read instead of per query.
type RawQuerier interface {
	Querier
	RawStore(contract poe.Address) (kv.Store, error)
}

// Environment an env to execute native method.
type Environment struct {
	block    poe.Block
	contract poe.Address
	sender   poe.Address
	funds    poe.Coins
	querier  Querier
	gasUsed  uint64
}

// New create a new env.
func New(block poe.Block, contract, sender poe.Address, funds poe.Coins, querier Querier) *Environment {
	return &Environment{
		block:    block,
		contract: contract,
		sender:   sender,
		funds:    funds,
		querier:  querier,
	}
}

func (env *Environment) Block() poe.Block       { return env.block }
func (env *Environment) Contract() poe.Address  { return env.contract }
func (env *Environment) Sender() poe.Address    { return env.sender }
func (env *Environment) Funds() poe.Coins       { return env.funds }
func (env *Environment) Querier() Querier       { return env.querier }
func (env *Environment) GasUsed() uint64        { return env.gasUsed }
func (env *Environment) UseGas(gas uint64)      { env.gasUsed += gas }

// Balance returns the balance the contract holds of denom.
func (env *Environment) Balance(denom string) (*big.Int, error) {
	return env.querier.Balance(env.contract, denom)
}
