// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testchain

import (
	"github.com/pkg/errors"

	"github.com/vechain/poe/genesis"
	"github.com/vechain/poe/muxdb"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/runtime"
	"github.com/vechain/poe/solo"
)

// BlockInterval of test chains, in seconds.
const BlockInterval = 10

// Chain is an in-memory network deployed from a genesis config, with a solo block producer.
type Chain struct {
	db      *muxdb.MuxDB
	rt      *runtime.Runtime
	config  *genesis.Config
	network *genesis.Network
	solo    *solo.Solo
}

// New builds the genesis described by config on an in-memory database.
func New(config *genesis.Config) (*Chain, error) {
	db := muxdb.NewMem()
	rt := runtime.New(db, poe.Block{Height: 0, Time: config.LaunchTime})
	network, err := genesis.Build(rt, config)
	if err != nil {
		db.Close()
		return nil, errors.WithMessage(err, "genesis")
	}
	return &Chain{
		db:      db,
		rt:      rt,
		config:  config,
		network: network,
		solo:    solo.New(rt, network.Valset, solo.Options{BlockInterval: BlockInterval}),
	}, nil
}

// NewDefault creates a Chain of the dev network.
func NewDefault() (*Chain, error) {
	return New(genesis.DevConfig())
}

func (c *Chain) Runtime() *runtime.Runtime { return c.rt }
func (c *Chain) Config() *genesis.Config   { return c.config }
func (c *Chain) Network() *genesis.Network { return c.network }
func (c *Chain) Solo() *solo.Solo          { return c.solo }
func (c *Chain) Close() error              { return c.db.Close() }

// Account returns the address of a named genesis account.
func (c *Chain) Account(name string) poe.Address {
	return genesis.AddressOf(name)
}

// Execute runs msg in the current block.
func (c *Chain) Execute(sender, contract poe.Address, msg any, funds ...poe.Coin) error {
	_, err := c.rt.Execute(sender, contract, msg, funds...)
	return err
}

// MintBlock produces the next block.
func (c *Chain) MintBlock() (*solo.Summary, error) {
	return c.solo.Produce()
}

// MintEpoch produces blocks until an epoch ends and returns the last one.
func (c *Chain) MintEpoch() (*solo.Summary, error) {
	for {
		s, err := c.solo.Produce()
		if err != nil {
			return nil, err
		}
		if s.EpochEnded {
			return s, nil
		}
	}
}
