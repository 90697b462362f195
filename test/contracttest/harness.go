// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package contracttest runs a single native contract against an in-memory store, with a fake
// bank and fake peer contracts.
package contracttest

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/muxdb"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

// Contract is the code under test.
type Contract interface {
	Instantiate(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error)
	Execute(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error)
	Query(env *xenv.Environment, sctx *storage.Context, query any) (any, error)
}

type sudoer interface {
	Sudo(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error)
}

// QueryFunc answers queries sent to a fake peer contract.
type QueryFunc func(query any) (any, error)

type Harness struct {
	t        *testing.T
	contract Contract
	sctx     *storage.Context

	Self     poe.Address
	Block    poe.Block
	balances map[poe.Address]map[string]*big.Int
	peers    map[poe.Address]QueryFunc
	gasUsed  uint64
}

// New creates a harness at height 1 and time 1000.
func New(t *testing.T, contract Contract) *Harness {
	db := muxdb.NewMem()
	tx, err := db.Begin("contract")
	require.NoError(t, err)
	t.Cleanup(func() {
		tx.Discard()
		db.Close()
	})

	h := &Harness{
		t:        t,
		contract: contract,
		Self:     poe.BytesToAddress([]byte("contract")),
		Block:    poe.Block{Height: 1, Time: 1000},
		balances: make(map[poe.Address]map[string]*big.Int),
		peers:    make(map[poe.Address]QueryFunc),
	}
	h.sctx = storage.NewContext(tx, func(gas uint64) { h.gasUsed += gas })
	return h
}

// Context returns the storage of the contract, for direct inspection.
func (h *Harness) Context() *storage.Context {
	return h.sctx
}

func (h *Harness) GasUsed() uint64 {
	return h.gasUsed
}

// Balance implements xenv.Querier.
func (h *Harness) Balance(addr poe.Address, denom string) (*big.Int, error) {
	if b, ok := h.balances[addr][denom]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

// QueryContract implements xenv.Querier.
func (h *Harness) QueryContract(contract poe.Address, query any) (any, error) {
	if contract == h.Self {
		return h.Query(query)
	}
	fn, ok := h.peers[contract]
	if !ok {
		return nil, errors.Errorf("no contract at %s", contract)
	}
	return fn(query)
}

// Peer registers a fake contract at addr.
func (h *Harness) Peer(addr poe.Address, fn QueryFunc) *Harness {
	h.peers[addr] = fn
	return h
}

// Credit adds amount of denom to the balance of addr.
func (h *Harness) Credit(addr poe.Address, amount int64, denom string) *Harness {
	if h.balances[addr] == nil {
		h.balances[addr] = make(map[string]*big.Int)
	}
	b, ok := h.balances[addr][denom]
	if !ok {
		b = new(big.Int)
		h.balances[addr][denom] = b
	}
	b.Add(b, big.NewInt(amount))
	return h
}

// Advance moves the chain by blocks and seconds.
func (h *Harness) Advance(blocks, seconds uint64) *Harness {
	h.Block.Height += blocks
	h.Block.Time += seconds
	return h
}

func (h *Harness) env(sender poe.Address, funds poe.Coins) *xenv.Environment {
	return xenv.New(h.Block, h.Self, sender, funds, h)
}

// Instantiate runs the instantiation, which must succeed.
func (h *Harness) Instantiate(sender poe.Address, msg any) *xenv.Response {
	resp, err := h.contract.Instantiate(h.env(sender, nil), h.sctx, msg)
	require.NoError(h.t, err)
	return resp
}

// Execute runs msg from sender. Attached funds are credited to the contract first and
// settle the bank messages of the response.
func (h *Harness) Execute(sender poe.Address, msg any, funds ...poe.Coin) (*xenv.Response, error) {
	for _, c := range funds {
		h.Credit(h.Self, c.Amount.Int64(), c.Denom)
	}
	resp, err := h.contract.Execute(h.env(sender, funds), h.sctx, msg)
	if err == nil {
		h.settle(resp)
	}
	return resp, err
}

// MustExecute is Execute requiring success.
func (h *Harness) MustExecute(sender poe.Address, msg any, funds ...poe.Coin) *xenv.Response {
	resp, err := h.Execute(sender, msg, funds...)
	require.NoError(h.t, err)
	return resp
}

// Sudo runs a privileged message.
func (h *Harness) Sudo(msg any) (*xenv.Response, error) {
	s, ok := h.contract.(sudoer)
	if !ok {
		return nil, errors.New("contract has no sudo entry point")
	}
	resp, err := s.Sudo(h.env(poe.Address{}, nil), h.sctx, msg)
	if err == nil {
		h.settle(resp)
	}
	return resp, err
}

func (h *Harness) Query(query any) (any, error) {
	return h.contract.Query(h.env(poe.Address{}, nil), h.sctx, query)
}

// settle applies the bank messages of resp to the fake bank.
func (h *Harness) settle(resp *xenv.Response) {
	if resp == nil {
		return
	}
	for _, m := range resp.Messages {
		switch msg := m.Msg.(type) {
		case xenv.BankSend:
			for _, c := range msg.Amount {
				h.Credit(h.Self, -c.Amount.Int64(), c.Denom)
				h.Credit(msg.To, c.Amount.Int64(), c.Denom)
			}
		case xenv.BankBurn:
			for _, c := range msg.Amount {
				h.Credit(h.Self, -c.Amount.Int64(), c.Denom)
			}
		}
	}
}
