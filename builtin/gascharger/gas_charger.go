// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gascharger

import (
	"fmt"

	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

// Charger forwards gas to the environment while keeping a per operation breakdown.
type Charger struct {
	env            *xenv.Environment
	sloadOps       uint64
	sstoreSetOps   uint64
	sstoreResetOps uint64
	queryOps       uint64
	balanceOps     uint64
	customGas      uint64
	totalGas       uint64
}

func New(env *xenv.Environment) *Charger {
	return &Charger{
		env: env,
	}
}

// Charge records gas, inferring the operation from the amount.
func (c *Charger) Charge(gas uint64) {
	c.totalGas += gas

	switch {
	// Handle multiples and single operations
	case gas == 0:
	case gas%poe.SstoreSetGas == 0:
		c.sstoreSetOps += gas / poe.SstoreSetGas
	case gas%poe.SstoreResetGas == 0:
		c.sstoreResetOps += gas / poe.SstoreResetGas
	case gas%poe.SmartQueryGas == 0:
		c.queryOps += gas / poe.SmartQueryGas
	case gas%poe.GetBalanceGas == 0:
		c.balanceOps += gas / poe.GetBalanceGas
	case gas%poe.SloadGas == 0:
		c.sloadOps += gas / poe.SloadGas
	default:
		// Unknown/custom gas amount
		c.customGas += gas
	}

	c.env.UseGas(gas)
}

func (c *Charger) Breakdown() string {
	return fmt.Sprintf(
		"SLOAD: %d ops (%d gas) | SSTORE_SET: %d ops (%d gas) | SSTORE_RESET: %d ops (%d gas) | QUERY: %d ops (%d gas) | BALANCE: %d ops (%d gas) | CUSTOM: %d gas | TOTAL: %d gas",
		c.sloadOps,
		c.sloadOps*poe.SloadGas,
		c.sstoreSetOps,
		c.sstoreSetOps*poe.SstoreSetGas,
		c.sstoreResetOps,
		c.sstoreResetOps*poe.SstoreResetGas,
		c.queryOps,
		c.queryOps*poe.SmartQueryGas,
		c.balanceOps,
		c.balanceOps*poe.GetBalanceGas,
		c.customGas,
		c.totalGas,
	)
}

func (c *Charger) TotalGas() uint64 {
	return c.totalGas
}
