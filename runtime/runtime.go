// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime hosts the native contracts. It deploys them, runs their entry points in a
// transaction each, dispatches the messages they emit and keeps the native bank.
package runtime

import (
	"math/big"
	"sync"

	"github.com/vechain/poe/log"
	"github.com/vechain/poe/muxdb"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

var logger = log.WithContext("pkg", "runtime")

const storeName = "poe"

// Result is the outcome of a committed invocation.
type Result struct {
	Contract   poe.Address
	GasUsed    uint64
	Data       any
	Attributes []xenv.Attribute
}

func newResult(contract poe.Address, c *call, resp *xenv.Response) *Result {
	r := &Result{Contract: contract, GasUsed: c.gasUsed}
	if resp != nil {
		r.Data = resp.Data
		r.Attributes = resp.Attributes
	}
	return r
}

// Runtime is to support contract execution.
type Runtime struct {
	db *muxdb.MuxDB

	mu    sync.RWMutex
	block poe.Block
}

// New create a Runtime object at block.
func New(db *muxdb.MuxDB, block poe.Block) *Runtime {
	return &Runtime{db: db, block: block}
}

func (rt *Runtime) Block() poe.Block {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.block
}

// SetBlock moves the runtime to the next block.
func (rt *Runtime) SetBlock(block poe.Block) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.block = block
}

// invoke runs fn in a transaction which is committed only if fn succeeds.
func (rt *Runtime) invoke(entry string, fn func(c *call) (*Result, error)) (*Result, error) {
	tx, err := rt.db.Begin(storeName)
	if err != nil {
		return nil, err
	}
	defer tx.Discard()

	c := newCall(rt.Block(), tx)
	res, err := fn(c)
	if err != nil {
		metricInvocationCount().AddWithLabel(1, map[string]string{"entry": entry, "result": "reverted"})
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	metricInvocationCount().AddWithLabel(1, map[string]string{"entry": entry, "result": "committed"})
	metricGasUsed().ObserveWithLabels(int64(c.gasUsed), map[string]string{"entry": entry})
	return res, nil
}

// Instantiate deploys a contract of code, funded by creator.
func (rt *Runtime) Instantiate(creator poe.Address, code, label string, msg any, funds ...poe.Coin) (*Result, error) {
	return rt.invoke("instantiate", func(c *call) (*Result, error) {
		addr, resp, err := c.instantiate(creator, code, label, msg, funds)
		if err != nil {
			return nil, err
		}
		logger.Info("contract instantiated", "code", code, "label", label, "address", addr, "gas", c.gasUsed)
		return newResult(addr, c, resp), nil
	})
}

// Execute runs msg on contract on behalf of sender.
func (rt *Runtime) Execute(sender, contract poe.Address, msg any, funds ...poe.Coin) (*Result, error) {
	return rt.invoke("execute", func(c *call) (*Result, error) {
		resp, err := c.execute(sender, contract, msg, funds)
		if err != nil {
			return nil, err
		}
		return newResult(contract, c, resp), nil
	})
}

// Sudo runs a privileged message on contract.
func (rt *Runtime) Sudo(contract poe.Address, msg any) (*Result, error) {
	return rt.invoke("sudo", func(c *call) (*Result, error) {
		resp, err := c.sudo(contract, msg)
		if err != nil {
			return nil, err
		}
		return newResult(contract, c, resp), nil
	})
}

// Migrate moves contract to code, sender must be its creator.
func (rt *Runtime) Migrate(sender, contract poe.Address, code string, msg any) (*Result, error) {
	return rt.invoke("migrate", func(c *call) (*Result, error) {
		resp, err := c.migrate(sender, contract, code, msg)
		if err != nil {
			return nil, err
		}
		logger.Info("contract migrated", "address", contract, "code", code)
		return newResult(contract, c, resp), nil
	})
}

// Mint creates tokens, for genesis allocations.
func (rt *Runtime) Mint(to poe.Address, coins ...poe.Coin) error {
	_, err := rt.invoke("mint", func(c *call) (*Result, error) {
		return &Result{}, c.bank.mint(to, coins)
	})
	return err
}

// Grant gives contract a privilege.
func (rt *Runtime) Grant(contract poe.Address, p Privilege) error {
	_, err := rt.invoke("grant", func(c *call) (*Result, error) {
		return &Result{}, c.contracts.grant(contract, p)
	})
	if err == nil {
		logger.Info("privilege granted", "contract", contract, "privilege", p)
	}
	return err
}

// BeginBlock sends msg to every begin blocker.
func (rt *Runtime) BeginBlock(msg any) ([]*Result, error) {
	return rt.callback(BeginBlocker, msg)
}

// EndBlock notifies every end blocker.
func (rt *Runtime) EndBlock() ([]*Result, error) {
	return rt.callback(EndBlocker, xenv.EndBlock{})
}

func (rt *Runtime) callback(p Privilege, msg any) ([]*Result, error) {
	holders, err := rt.Privileged(p)
	if err != nil {
		return nil, err
	}
	results := make([]*Result, 0, len(holders))
	for _, addr := range holders {
		res, err := rt.Sudo(addr, msg)
		if err != nil {
			logger.Info("block callback failed", "privilege", p, "contract", addr, "error", err)
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// reader opens a call on the committed state.
func (rt *Runtime) reader() *call {
	return newCall(rt.Block(), rt.db.NewStore(storeName))
}

// Query runs a read-only query on contract.
func (rt *Runtime) Query(contract poe.Address, query any) (any, error) {
	c := rt.reader()
	var gas uint64
	res, err := c.query(contract, query, func(g uint64) { gas += g })
	metricQueryGas().Observe(int64(gas))
	return res, err
}

func (rt *Runtime) Balance(addr poe.Address, denom string) (*big.Int, error) {
	return rt.reader().bank.balance(addr, denom)
}

func (rt *Runtime) Supply(denom string) (*big.Int, error) {
	return rt.reader().bank.supply(denom)
}

// Contract returns the deployed contract at addr.
func (rt *Runtime) Contract(addr poe.Address) (ContractInfo, error) {
	return rt.reader().contracts.get(addr)
}

// Contracts lists the deployed contracts by address.
func (rt *Runtime) Contracts() ([]ContractInfo, error) {
	return rt.reader().contracts.list()
}

// Privileged returns the holders of p in the order they were granted.
func (rt *Runtime) Privileged(p Privilege) ([]poe.Address, error) {
	return rt.reader().contracts.holders(p)
}
