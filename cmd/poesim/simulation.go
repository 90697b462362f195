// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/vechain/poe/genesis"
	"github.com/vechain/poe/kv"
	"github.com/vechain/poe/muxdb"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/runtime"
	"github.com/vechain/poe/solo"
)

const metaStore = "poesim"

var metaKey = []byte("meta")

// meta is what a data dir needs to resume besides the contract state.
type meta struct {
	Network genesis.Network `json:"network"`
	Block   poe.Block       `json:"block"`
}

type simulation struct {
	db      *muxdb.MuxDB
	rt      *runtime.Runtime
	network *genesis.Network
	solo    *solo.Solo
}

// openSimulation resumes the network kept in db, or builds it from cfg when db is empty.
func openSimulation(db *muxdb.MuxDB, cfg *genesis.Config, blockInterval uint64) (*simulation, error) {
	store := db.NewStore(metaStore)
	data, err := store.Get(metaKey)
	if err != nil && !store.IsNotFound(err) {
		return nil, errors.Wrap(err, "read meta")
	}

	var (
		rt      *runtime.Runtime
		network *genesis.Network
	)
	if err == nil {
		var m meta
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(err, "decode meta")
		}
		rt = runtime.New(db, m.Block)
		network = &m.Network
		logger.Info("resumed network", "height", m.Block.Height, "valset", network.Valset)
	} else {
		rt = runtime.New(db, poe.Block{Height: 0, Time: cfg.LaunchTime})
		if network, err = genesis.Build(rt, cfg); err != nil {
			return nil, errors.WithMessage(err, "genesis")
		}
	}

	s := &simulation{
		db:      db,
		rt:      rt,
		network: network,
		solo:    solo.New(rt, network.Valset, solo.Options{BlockInterval: blockInterval}),
	}
	return s, s.save()
}

func (s *simulation) save() error {
	data, err := json.Marshal(&meta{Network: *s.network, Block: s.rt.Block()})
	if err != nil {
		return err
	}
	return s.db.Transact(metaStore, func(st kv.Store) error {
		return st.Put(metaKey, data)
	})
}
