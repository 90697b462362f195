// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package valset

import (
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/vechain/poe/builtin/admin"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/builtin/valset/jailing"
	"github.com/vechain/poe/builtin/valset/selection"
	"github.com/vechain/poe/kv"
	"github.com/vechain/poe/poe"
)

const maxMetadataLength = 256

type Config struct {
	Membership            poe.Address
	MinPoints             uint64
	MaxValidators         uint32
	Scaling               uint32
	EpochReward           poe.Coin
	FeePercentage         poe.Decimal
	AutoUnjail            bool
	DoubleSignSlashRatio  poe.Decimal
	DistributionContracts []DistributionContract
	RewardsGroup          poe.Address
	VerifyValidators      bool
	OfflineJailDuration   poe.Duration
}

func (c *Config) validate() error {
	if c.Membership.IsZero() {
		return reverts.InvalidAddressf("membership not set")
	}
	if c.RewardsGroup.IsZero() {
		return reverts.InvalidAddressf("rewards group not set")
	}
	if c.MaxValidators == 0 {
		return reverts.InvalidParameterf("max validators must be positive")
	}
	if c.EpochReward.Denom == "" || c.EpochReward.Amount == nil || c.EpochReward.Amount.Sign() < 0 {
		return reverts.InvalidParameterf("invalid epoch reward %s", c.EpochReward)
	}
	if !c.FeePercentage.IsPortion() {
		return reverts.InvalidParameterf("fee percentage %s not in [0, 1]", c.FeePercentage)
	}
	if !c.DoubleSignSlashRatio.IsPortion() {
		return reverts.InvalidParameterf("double sign slash ratio %s not in [0, 1]", c.DoubleSignSlashRatio)
	}
	sum := decimal.Zero
	for _, dc := range c.DistributionContracts {
		if dc.Contract.IsZero() {
			return reverts.InvalidAddressf("distribution contract not set")
		}
		if !dc.Ratio.IsPortion() {
			return reverts.InvalidParameterf("distribution ratio %s not in [0, 1]", dc.Ratio)
		}
		sum = sum.Add(dc.Ratio.Decimal())
	}
	if sum.GreaterThan(decimal.NewFromInt(1)) {
		return reverts.InvalidParameterf("distribution ratios sum to %s", sum)
	}
	if c.VerifyValidators && !c.OfflineJailDuration.IsValid() {
		return reverts.InvalidParameterf("invalid offline jail duration %s", c.OfflineJailDuration)
	}
	return nil
}

func (c *Config) params() selection.Params {
	return selection.Params{MinWeight: c.MinPoints, MaxValidators: c.MaxValidators, Scaling: c.Scaling}
}

type EpochInfo struct {
	// EpochLength is in seconds.
	EpochLength      uint64
	CurrentEpoch     uint64
	LastUpdateTime   uint64
	LastUpdateHeight uint64
}

func (e EpochInfo) response() EpochResponse {
	return EpochResponse{
		EpochLength:      e.EpochLength,
		CurrentEpoch:     e.CurrentEpoch,
		LastUpdateTime:   e.LastUpdateTime,
		LastUpdateHeight: e.LastUpdateHeight,
		NextUpdateTime:   (e.CurrentEpoch + 1) * e.EpochLength,
	}
}

func (m *Metadata) validate() error {
	if m.Moniker == "" {
		return reverts.InvalidParameterf("moniker must not be empty")
	}
	for _, f := range []string{m.Moniker, m.Identity, m.Website, m.SecurityContact, m.Details} {
		if utf8.RuneCountInString(f) > maxMetadataLength {
			return reverts.InvalidParameterf("metadata field longer than %d", maxMetadataLength)
		}
	}
	return nil
}

type OperatorInfo struct {
	PubKey          poe.PubKey
	Metadata        Metadata
	ActiveValidator bool
}

// Slashing is a punishment recorded for an operator.
type Slashing struct {
	SlashHeight uint64
	Portion     poe.Decimal
}

type state struct {
	admin        *admin.Admin
	config       *storage.Item[Config]
	epoch        *storage.Item[EpochInfo]
	operators    *storage.Map[poe.Address, OperatorInfo]
	pubKeys      *storage.Map[poe.PubKey, poe.Address]
	validators   *storage.Item[[]selection.ValidatorInfo]
	startHeights *storage.Map[poe.Address, uint64]
	slashing     *storage.Map[poe.Address, []Slashing]
	signers      *storage.Map[poe.Address, uint64]
	jail         *jailing.Jail
}

func newState(sctx *storage.Context) *state {
	return &state{
		admin:        admin.New(sctx),
		config:       storage.NewItem[Config](sctx, "config"),
		epoch:        storage.NewItem[EpochInfo](sctx, "epoch"),
		operators:    storage.NewMap[poe.Address, OperatorInfo](sctx, "operators"),
		pubKeys:      storage.NewMap[poe.PubKey, poe.Address](sctx, "operator-pubkeys"),
		validators:   storage.NewItem[[]selection.ValidatorInfo](sctx, "validators"),
		startHeights: storage.NewMap[poe.Address, uint64](sctx, "validator-start-height"),
		slashing:     storage.NewMap[poe.Address, []Slashing](sctx, "validator-slashing"),
		signers:      storage.NewMap[poe.Address, uint64](sctx, "block-signers"),
		jail:         jailing.New(sctx),
	}
}

// PubKey implements selection.PubKeys.
func (s *state) PubKey(operator poe.Address) (*poe.PubKey, error) {
	info, ok, err := s.operators.Get(operator)
	if err != nil || !ok {
		return nil, err
	}
	return &info.PubKey, nil
}

func (s *state) registerOperator(operator poe.Address, pk poe.PubKey, md Metadata) error {
	if err := md.validate(); err != nil {
		return err
	}
	if pk.IsZero() {
		return reverts.InvalidParameterf("empty pubkey")
	}
	if ok, err := s.operators.Has(operator); err != nil {
		return err
	} else if ok {
		return reverts.InvalidParameterf("operator %s already registered", operator)
	}
	if ok, err := s.pubKeys.Has(pk); err != nil {
		return err
	} else if ok {
		return reverts.InvalidParameterf("pubkey %s already registered", pk)
	}
	if err := s.operators.Save(operator, OperatorInfo{PubKey: pk, Metadata: md}); err != nil {
		return err
	}
	return s.pubKeys.Save(pk, operator)
}

// activeValidators is nil before the first epoch and for an empty set.
func (s *state) activeValidators() ([]selection.ValidatorInfo, error) {
	vs, err := s.validators.GetOr(nil)
	if err != nil || len(vs) == 0 {
		return nil, err
	}
	return vs, nil
}

// jailer adapts the jail to selection, releasing expired periods when auto unjail is on.
type jailer struct {
	jail       *jailing.Jail
	block      poe.Block
	autoUnjail bool
	readOnly   bool
}

func (j jailer) IsJailed(operator poe.Address) (bool, error) {
	if !j.readOnly {
		return j.jail.IsJailed(operator, j.block, j.autoUnjail)
	}
	p, err := j.jail.Get(operator)
	if err != nil || p == nil {
		return false, err
	}
	return !(j.autoUnjail && p.IsExpired(j.block)), nil
}

// State is the exported valset storage. Entries are ordered by operator.
type State struct {
	Config       Config
	Epoch        EpochInfo
	Admin        *poe.Address `rlp:"nil"`
	Operators    []OperatorEntry
	Validators   []selection.ValidatorInfo
	StartHeights []HeightEntry
	Slashing     []SlashingEntry
	Jailed       []jailing.Entry
	Signers      []HeightEntry
}

type OperatorEntry struct {
	Operator poe.Address
	Info     OperatorInfo
}

type HeightEntry struct {
	Operator poe.Address
	Height   uint64
}

type SlashingEntry struct {
	Operator poe.Address
	Slashing []Slashing
}

func collect[V any, E any](m *storage.Map[poe.Address, V], entry func(poe.Address, V) E) ([]E, error) {
	var entries []E
	err := m.Range(kv.Range{}, storage.Ascending, func(key []byte, v V) (bool, error) {
		entries = append(entries, entry(poe.BytesToAddress(key), v))
		return true, nil
	})
	return entries, err
}

func (s *state) export() (*State, error) {
	var (
		st  State
		err error
	)
	if st.Config, err = s.config.Load(); err != nil {
		return nil, err
	}
	if st.Epoch, err = s.epoch.Load(); err != nil {
		return nil, err
	}
	if st.Admin, err = s.admin.Get(); err != nil {
		return nil, err
	}
	if st.Validators, err = s.activeValidators(); err != nil {
		return nil, err
	}
	if st.Operators, err = collect(s.operators, func(a poe.Address, v OperatorInfo) OperatorEntry {
		return OperatorEntry{a, v}
	}); err != nil {
		return nil, err
	}
	if st.StartHeights, err = collect(s.startHeights, func(a poe.Address, h uint64) HeightEntry {
		return HeightEntry{a, h}
	}); err != nil {
		return nil, err
	}
	if st.Slashing, err = collect(s.slashing, func(a poe.Address, v []Slashing) SlashingEntry {
		return SlashingEntry{a, v}
	}); err != nil {
		return nil, err
	}
	if st.Signers, err = collect(s.signers, func(a poe.Address, h uint64) HeightEntry {
		return HeightEntry{a, h}
	}); err != nil {
		return nil, err
	}
	if st.Jailed, err = s.jail.All(); err != nil {
		return nil, err
	}
	return &st, nil
}

// clear drops everything import writes.
func (s *state) clear() error {
	old, err := s.export()
	if err != nil {
		return err
	}
	for _, e := range old.Operators {
		if err := s.operators.Remove(e.Operator); err != nil {
			return err
		}
		if err := s.pubKeys.Remove(e.Info.PubKey); err != nil {
			return err
		}
	}
	for _, e := range old.StartHeights {
		if err := s.startHeights.Remove(e.Operator); err != nil {
			return err
		}
	}
	for _, e := range old.Slashing {
		if err := s.slashing.Remove(e.Operator); err != nil {
			return err
		}
	}
	for _, e := range old.Signers {
		if err := s.signers.Remove(e.Operator); err != nil {
			return err
		}
	}
	return s.jail.Clear()
}

func (s *state) importState(st *State) error {
	if err := st.Config.validate(); err != nil {
		return err
	}
	if st.Epoch.EpochLength == 0 {
		return reverts.InvalidParameterf("epoch length must be positive")
	}
	if err := s.config.Save(st.Config); err != nil {
		return err
	}
	if err := s.epoch.Save(st.Epoch); err != nil {
		return err
	}
	if err := s.admin.Set(st.Admin); err != nil {
		return err
	}
	if err := s.validators.Save(st.Validators); err != nil {
		return err
	}
	for _, e := range st.Operators {
		if err := s.operators.Save(e.Operator, e.Info); err != nil {
			return err
		}
		if err := s.pubKeys.Save(e.Info.PubKey, e.Operator); err != nil {
			return err
		}
	}
	for _, e := range st.StartHeights {
		if err := s.startHeights.Save(e.Operator, e.Height); err != nil {
			return err
		}
	}
	for _, e := range st.Slashing {
		if err := s.slashing.Save(e.Operator, e.Slashing); err != nil {
			return err
		}
	}
	for _, e := range st.Signers {
		if err := s.signers.Save(e.Operator, e.Height); err != nil {
			return err
		}
	}
	for _, e := range st.Jailed {
		if err := s.jail.Jail(e.Operator, e.Period); err != nil {
			return err
		}
	}
	return nil
}
