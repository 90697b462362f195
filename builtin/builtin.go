// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin lists the native contract codes the runtime can deploy.
package builtin

import (
	"sort"

	"github.com/vechain/poe/builtin/engagement"
	"github.com/vechain/poe/builtin/mixer"
	"github.com/vechain/poe/builtin/stake"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/builtin/valset"
	"github.com/vechain/poe/xenv"
)

// Contract is native contract code.
type Contract interface {
	Instantiate(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error)
	Execute(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error)
	Query(env *xenv.Environment, sctx *storage.Context, query any) (any, error)
}

// Sudoer is implemented by contracts with privileged entry points.
type Sudoer interface {
	Sudo(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error)
}

// Migrator is implemented by contracts that accept a migration.
type Migrator interface {
	Migrate(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error)
}

// Builtin contract codes.
const (
	Engagement = "engagement"
	Stake      = "stake"
	Mixer      = "mixer"
	Valset     = "valset"
)

var codes = map[string]Contract{
	Engagement: engagement.Contract{},
	Stake:      stake.Contract{},
	Mixer:      mixer.Contract{},
	Valset:     valset.Contract{},
}

// Code returns the contract code registered under name.
func Code(name string) (Contract, bool) {
	c, ok := codes[name]
	return c, ok
}

// Codes returns the names of every code, sorted.
func Codes() []string {
	names := make([]string, 0, len(codes))
	for name := range codes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
