// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package jailing tracks jailed validator operators.
package jailing

import (
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/kv"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/poe"
)

var logger = log.WithContext("pkg", "jailing")

// Period is how long an operator stays jailed. Forever is a tombstone.
type Period struct {
	Forever bool
	Until   poe.Expiration
}

func Forever() Period {
	return Period{Forever: true}
}

func Until(e poe.Expiration) Period {
	return Period{Until: e}
}

// IsExpired reports whether a finite period has passed at block.
func (p Period) IsExpired(block poe.Block) bool {
	return !p.Forever && p.Until.IsExpired(block)
}

func (p Period) String() string {
	if p.Forever {
		return "forever"
	}
	return "until " + p.Until.String()
}

// Entry is a jailed operator.
type Entry struct {
	Operator poe.Address
	Period   Period
}

type Jail struct {
	jailed *storage.Map[poe.Address, Period]
}

func New(sctx *storage.Context) *Jail {
	return &Jail{jailed: storage.NewMap[poe.Address, Period](sctx, "jail")}
}

// Get returns the jail period of operator, nil if not jailed.
func (j *Jail) Get(operator poe.Address) (*Period, error) {
	p, ok, err := j.jailed.Get(operator)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// Jail jails operator for period. A tombstone is never shortened.
func (j *Jail) Jail(operator poe.Address, period Period) error {
	cur, err := j.Get(operator)
	if err != nil {
		return err
	}
	if cur != nil && cur.Forever {
		return nil
	}
	if err := j.jailed.Save(operator, period); err != nil {
		return err
	}
	logger.Info("operator jailed", "operator", operator, "period", period)
	return nil
}

// Unjail releases operator on behalf of requester. Tombstones are final. The admin may
// release anyone, others only themselves once the period expired. Releasing an operator
// that is not jailed does nothing.
func (j *Jail) Unjail(requester poe.Address, isAdmin bool, operator poe.Address, block poe.Block) error {
	if requester != operator && !isAdmin {
		return reverts.Unauthorizedf("%s may not unjail %s", requester, operator)
	}
	cur, err := j.Get(operator)
	if err != nil || cur == nil {
		return err
	}
	if cur.Forever {
		return reverts.InvariantViolationf("%s is jailed forever", operator)
	}
	if !isAdmin && !cur.IsExpired(block) {
		return reverts.Unauthorizedf("%s is jailed %s", operator, cur)
	}
	if err := j.jailed.Remove(operator); err != nil {
		return err
	}
	logger.Info("operator unjailed", "operator", operator, "by", requester)
	return nil
}

// IsJailed reports whether operator is jailed at block. With autoUnjail an expired period is
// released on the way.
func (j *Jail) IsJailed(operator poe.Address, block poe.Block, autoUnjail bool) (bool, error) {
	cur, err := j.Get(operator)
	if err != nil || cur == nil {
		return false, err
	}
	if autoUnjail && cur.IsExpired(block) {
		if err := j.jailed.Remove(operator); err != nil {
			return false, err
		}
		logger.Debug("operator auto unjailed", "operator", operator)
		return false, nil
	}
	return true, nil
}

// List returns jailed operators ascending, starting after startAfter.
func (j *Jail) List(startAfter *poe.Address, limit int) ([]Entry, error) {
	var after []byte
	if startAfter != nil {
		after = startAfter.Bytes()
	}
	keys, periods, err := j.jailed.Page(after, limit, storage.Ascending)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(keys))
	for i := range keys {
		entries[i] = Entry{Operator: poe.BytesToAddress(keys[i]), Period: periods[i]}
	}
	return entries, nil
}

// All returns every jailed operator.
func (j *Jail) All() ([]Entry, error) {
	var entries []Entry
	err := j.jailed.Range(kv.Range{}, storage.Ascending, func(key []byte, p Period) (bool, error) {
		entries = append(entries, Entry{Operator: poe.BytesToAddress(key), Period: p})
		return true, nil
	})
	return entries, err
}

// Clear releases every operator, tombstones included.
func (j *Jail) Clear() error {
	all, err := j.All()
	if err != nil {
		return err
	}
	for _, e := range all {
		if err := j.jailed.Remove(e.Operator); err != nil {
			return err
		}
	}
	return nil
}
