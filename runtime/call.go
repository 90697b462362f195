// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/vechain/poe/builtin"
	"github.com/vechain/poe/builtin/gascharger"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/kv"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/stackedmap"
	"github.com/vechain/poe/xenv"
)

// MaxCallDepth bounds nested sub messages and queries.
const MaxCallDepth = 16

const (
	runtimeSpace  = "r"
	contractSpace = "c"
)

// call is one top level invocation with every nested call it causes.
type call struct {
	block     poe.Block
	store     *stackedmap.StackedMap
	bank      *bank
	contracts *registry
	depth     int
	gasUsed   uint64
}

func newCall(block poe.Block, store kv.Store) *call {
	sm := stackedmap.New(store)
	sctx := storage.NewContext(kv.Bucket(runtimeSpace).NewStore(sm), nil)
	return &call{
		block:     block,
		store:     sm,
		bank:      newBank(sctx),
		contracts: newRegistry(sctx),
	}
}

func (c *call) contractStore(addr poe.Address) kv.Store {
	return kv.Bucket(contractSpace + string(addr.Bytes())).NewStore(c.store)
}

func (c *call) code(addr poe.Address) (builtin.Contract, error) {
	info, err := c.contracts.get(addr)
	if err != nil {
		return nil, err
	}
	code, ok := builtin.Code(info.Code)
	if !ok {
		return nil, reverts.NotFoundf("unknown code %q of %s", info.Code, addr)
	}
	return code, nil
}

type entryFunc func(env *xenv.Environment, sctx *storage.Context) (*xenv.Response, error)

// run invokes an entry point of addr and then dispatches its sub messages.
func (c *call) run(addr, sender poe.Address, funds poe.Coins, entry string, fn entryFunc) (*xenv.Response, error) {
	if c.depth >= MaxCallDepth {
		return nil, reverts.InvariantViolationf("call depth exceeds %d", MaxCallDepth)
	}
	c.depth++
	defer func() { c.depth-- }()

	q := &querier{call: c}
	env := xenv.New(c.block, addr, sender, funds, q)
	charger := gascharger.New(env)
	q.charge = charger.Charge

	resp, err := fn(env, storage.NewContext(c.contractStore(addr), charger.Charge))
	c.gasUsed += charger.TotalGas()
	if err != nil {
		logger.Debug("contract reverted", "entry", entry, "contract", addr, "sender", sender, "error", err)
		return nil, err
	}
	logger.Debug("contract invoked", "entry", entry, "contract", addr, "sender", sender, "gas", charger.Breakdown())
	if err := c.dispatch(addr, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// dispatch handles sub messages depth first, in order. A failed message marked IgnoreError
// only reverts its own writes.
func (c *call) dispatch(from poe.Address, resp *xenv.Response) error {
	if resp == nil {
		return nil
	}
	for _, sub := range resp.Messages {
		rev := c.store.Snapshot()
		err := c.handle(from, sub.Msg)
		if err == nil {
			continue
		}
		if !sub.IgnoreError {
			return err
		}
		if err := c.store.RevertTo(rev); err != nil {
			return err
		}
		logger.Info("sub message failed", "from", from, "msg", sub.Msg, "error", err)
	}
	return nil
}

func (c *call) handle(from poe.Address, msg xenv.Msg) error {
	switch m := msg.(type) {
	case xenv.BankSend:
		return c.bank.transfer(from, m.To, m.Amount)
	case xenv.BankBurn:
		return c.bank.burn(from, m.Amount)
	case xenv.MintTokens:
		ok, err := c.contracts.hasPrivilege(from, TokenMinter)
		if err != nil {
			return err
		}
		if !ok {
			return reverts.Unauthorizedf("%s may not mint", from)
		}
		return c.bank.mint(m.To, poe.Coins{m.Amount})
	case xenv.Execute:
		_, err := c.execute(from, m.Contract, m.Msg, m.Funds)
		return err
	default:
		return reverts.InvalidParameterf("unsupported message %T", msg)
	}
}

func (c *call) instantiate(creator poe.Address, codeName, label string, msg any, funds poe.Coins) (poe.Address, *xenv.Response, error) {
	code, ok := builtin.Code(codeName)
	if !ok {
		return poe.Address{}, nil, reverts.NotFoundf("unknown code %q", codeName)
	}
	addr, err := c.contracts.create(creator, codeName, label)
	if err != nil {
		return poe.Address{}, nil, err
	}
	if err := c.bank.transfer(creator, addr, funds); err != nil {
		return poe.Address{}, nil, err
	}
	resp, err := c.run(addr, creator, funds, "instantiate", func(env *xenv.Environment, sctx *storage.Context) (*xenv.Response, error) {
		return code.Instantiate(env, sctx, msg)
	})
	return addr, resp, err
}

func (c *call) execute(sender, addr poe.Address, msg any, funds poe.Coins) (*xenv.Response, error) {
	code, err := c.code(addr)
	if err != nil {
		return nil, err
	}
	if err := c.bank.transfer(sender, addr, funds); err != nil {
		return nil, err
	}
	return c.run(addr, sender, funds, "execute", func(env *xenv.Environment, sctx *storage.Context) (*xenv.Response, error) {
		return code.Execute(env, sctx, msg)
	})
}

func (c *call) sudo(addr poe.Address, msg any) (*xenv.Response, error) {
	code, err := c.code(addr)
	if err != nil {
		return nil, err
	}
	s, ok := code.(builtin.Sudoer)
	if !ok {
		return nil, reverts.InvalidParameterf("%s has no sudo entry point", addr)
	}
	return c.run(addr, poe.Address{}, nil, "sudo", func(env *xenv.Environment, sctx *storage.Context) (*xenv.Response, error) {
		return s.Sudo(env, sctx, msg)
	})
}

// migrate switches addr to another code. Only the creator may migrate.
func (c *call) migrate(sender, addr poe.Address, codeName string, msg any) (*xenv.Response, error) {
	info, err := c.contracts.get(addr)
	if err != nil {
		return nil, err
	}
	if info.Creator != sender {
		return nil, reverts.Unauthorizedf("%s may not migrate %s", sender, addr)
	}
	code, ok := builtin.Code(codeName)
	if !ok {
		return nil, reverts.NotFoundf("unknown code %q", codeName)
	}
	m, ok := code.(builtin.Migrator)
	if !ok {
		return nil, reverts.InvalidParameterf("code %q does not support migration", codeName)
	}
	info.Code = codeName
	if err := c.contracts.contracts.Save(addr, info); err != nil {
		return nil, err
	}
	return c.run(addr, sender, nil, "migrate", func(env *xenv.Environment, sctx *storage.Context) (*xenv.Response, error) {
		return m.Migrate(env, sctx, msg)
	})
}

func (c *call) query(addr poe.Address, query any, charge func(uint64)) (any, error) {
	if c.depth >= MaxCallDepth {
		return nil, reverts.InvariantViolationf("call depth exceeds %d", MaxCallDepth)
	}
	c.depth++
	defer func() { c.depth-- }()

	code, err := c.code(addr)
	if err != nil {
		return nil, err
	}
	q := &querier{call: c, charge: charge}
	env := xenv.New(c.block, addr, poe.Address{}, nil, q)
	return code.Query(env, storage.NewContext(c.contractStore(addr), charge), query)
}

var _ xenv.RawQuerier = (*querier)(nil)

// querier serves the queries of a contract. Balances and the storage reads of queried
// contracts are charged to the querying contract.
type querier struct {
	call   *call
	charge func(uint64)
}

func (q *querier) Balance(addr poe.Address, denom string) (*big.Int, error) {
	if q.charge != nil {
		q.charge(poe.GetBalanceGas)
	}
	return q.call.bank.balance(addr, denom)
}

func (q *querier) QueryContract(contract poe.Address, query any) (any, error) {
	return q.call.query(contract, query, q.charge)
}

// RawStore gives read access to the storage of contract.
func (q *querier) RawStore(contract poe.Address) (kv.Store, error) {
	if _, err := q.call.contracts.get(contract); err != nil {
		return nil, err
	}
	return readOnlyStore{q.call.contractStore(contract)}, nil
}

type readOnlyStore struct {
	kv.Store
}

func (readOnlyStore) Put(_, _ []byte) error {
	return reverts.Unauthorizedf("storage of another contract is read-only")
}

func (readOnlyStore) Delete([]byte) error {
	return reverts.Unauthorizedf("storage of another contract is read-only")
}
