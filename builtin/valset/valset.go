// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package valset implements the validator set contract. Once per epoch it selects the active
// validators from a weighted group, reports the diff to the consensus engine and pays the
// epoch reward. It also jails offline and misbehaving validators.
package valset

import (
	"github.com/vechain/poe/builtin/group"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/builtin/valset/jailing"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/xenv"
)

var logger = log.WithContext("pkg", "valset")

// Contract is the validator set contract code.
type Contract struct{}

func (Contract) Instantiate(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error) {
	s := newState(sctx)
	switch m := msg.(type) {
	case InstantiateMsg:
		return s.instantiate(env, m)
	case ImportMsg:
		if err := s.importState(&m.State); err != nil {
			return nil, err
		}
		logger.Info("imported", "contract", env.Contract(), "operators", len(m.State.Operators))
		return xenv.NewResponse(), nil
	default:
		return nil, reverts.InvalidParameterf("unexpected instantiate message %T", msg)
	}
}

// Migrate replaces the whole contract state with an exported one.
func (Contract) Migrate(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error) {
	m, ok := msg.(ImportMsg)
	if !ok {
		return nil, reverts.InvalidParameterf("unexpected migrate message %T", msg)
	}
	s := newState(sctx)
	if err := s.clear(); err != nil {
		return nil, err
	}
	if err := s.importState(&m.State); err != nil {
		return nil, err
	}
	logger.Info("migrated", "contract", env.Contract(), "operators", len(m.State.Operators))
	return xenv.NewResponse(), nil
}

func (Contract) Execute(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error) {
	s := newState(sctx)
	switch msg := msg.(type) {
	case RegisterValidatorKeyMsg:
		return s.registerValidatorKey(env, msg)
	case UpdateMetadataMsg:
		return s.updateMetadata(env, msg)
	case JailMsg:
		return s.jailOperator(env, msg)
	case UnjailMsg:
		return s.unjail(env, msg)
	case UpdateConfigMsg:
		return s.updateConfig(env, msg)
	case UpdateAdminMsg:
		if err := s.admin.Update(env.Sender(), msg.Admin); err != nil {
			return nil, err
		}
		return xenv.NewResponse().AddAttribute("action", "update_admin"), nil
	default:
		return nil, reverts.InvalidParameterf("unknown message %T", msg)
	}
}

func (Contract) Sudo(env *xenv.Environment, sctx *storage.Context, msg any) (*xenv.Response, error) {
	s := newState(sctx)
	switch msg := msg.(type) {
	case BeginBlockMsg:
		return s.beginBlock(env, msg)
	case xenv.EndBlock:
		return s.endBlock(env, sctx)
	default:
		return nil, reverts.InvalidParameterf("unknown sudo message %T", msg)
	}
}

func (s *state) instantiate(env *xenv.Environment, m InstantiateMsg) (*xenv.Response, error) {
	if m.EpochLength == 0 {
		return nil, reverts.InvalidParameterf("epoch length must be positive")
	}
	cfg := Config{
		Membership:            m.Membership,
		MinPoints:             m.MinPoints,
		MaxValidators:         m.MaxValidators,
		Scaling:               m.Scaling,
		EpochReward:           m.EpochReward,
		FeePercentage:         m.FeePercentage,
		AutoUnjail:            m.AutoUnjail,
		DoubleSignSlashRatio:  m.DoubleSignSlashRatio,
		DistributionContracts: m.DistributionContracts,
		RewardsGroup:          m.RewardsGroup,
		VerifyValidators:      m.VerifyValidators,
		OfflineJailDuration:   m.OfflineJailDuration,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := s.config.Save(cfg); err != nil {
		return nil, err
	}
	if err := s.epoch.Save(EpochInfo{EpochLength: m.EpochLength}); err != nil {
		return nil, err
	}
	if err := s.admin.Set(m.Admin); err != nil {
		return nil, err
	}
	for _, k := range m.InitialKeys {
		if err := s.registerOperator(k.Operator, k.PubKey, k.Metadata); err != nil {
			return nil, err
		}
	}
	logger.Info("instantiated", "contract", env.Contract(), "membership", m.Membership, "operators", len(m.InitialKeys))
	return xenv.NewResponse(), nil
}

func (s *state) registerValidatorKey(env *xenv.Environment, msg RegisterValidatorKeyMsg) (*xenv.Response, error) {
	if err := s.registerOperator(env.Sender(), msg.PubKey, msg.Metadata); err != nil {
		return nil, err
	}
	logger.Info("validator key registered", "operator", env.Sender(), "pubkey", msg.PubKey)
	return xenv.NewResponse().
		AddAttribute("action", "register_validator_key").
		AddAttribute("operator", env.Sender()).
		AddAttribute("pubkey", msg.PubKey), nil
}

func (s *state) updateMetadata(env *xenv.Environment, msg UpdateMetadataMsg) (*xenv.Response, error) {
	if err := msg.Metadata.validate(); err != nil {
		return nil, err
	}
	info, err := s.operators.Load(env.Sender())
	if err != nil {
		return nil, err
	}
	info.Metadata = msg.Metadata
	if err := s.operators.Save(env.Sender(), info); err != nil {
		return nil, err
	}
	return xenv.NewResponse().
		AddAttribute("action", "update_metadata").
		AddAttribute("operator", env.Sender()), nil
}

func (s *state) jailOperator(env *xenv.Environment, msg JailMsg) (*xenv.Response, error) {
	if err := s.admin.Assert(env.Sender()); err != nil {
		return nil, err
	}
	if ok, err := s.operators.Has(msg.Operator); err != nil {
		return nil, err
	} else if !ok {
		return nil, reverts.NotFoundf("operator %s", msg.Operator)
	}
	period := jailing.Forever()
	if msg.Duration != nil {
		if !msg.Duration.IsValid() {
			return nil, reverts.InvalidParameterf("invalid jail duration %s", *msg.Duration)
		}
		period = jailing.Until(msg.Duration.After(env.Block()))
	}
	if err := s.jail.Jail(msg.Operator, period); err != nil {
		return nil, err
	}
	metricJailed().AddWithLabel(1, map[string]string{"reason": "admin"})
	return xenv.NewResponse().
		AddAttribute("action", "jail").
		AddAttribute("operator", msg.Operator).
		AddAttribute("until", period), nil
}

func (s *state) unjail(env *xenv.Environment, msg UnjailMsg) (*xenv.Response, error) {
	operator := env.Sender()
	if msg.Operator != nil {
		operator = *msg.Operator
	}
	isAdmin, err := s.admin.IsAdmin(env.Sender())
	if err != nil {
		return nil, err
	}
	if err := s.jail.Unjail(env.Sender(), isAdmin, operator, env.Block()); err != nil {
		return nil, err
	}
	return xenv.NewResponse().
		AddAttribute("action", "unjail").
		AddAttribute("operator", operator), nil
}

func (s *state) updateConfig(env *xenv.Environment, msg UpdateConfigMsg) (*xenv.Response, error) {
	if err := s.admin.Assert(env.Sender()); err != nil {
		return nil, err
	}
	cfg, err := s.config.Load()
	if err != nil {
		return nil, err
	}
	if msg.MinPoints != nil {
		cfg.MinPoints = *msg.MinPoints
	}
	if msg.MaxValidators != nil {
		cfg.MaxValidators = *msg.MaxValidators
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := s.config.Save(cfg); err != nil {
		return nil, err
	}
	logger.Info("config updated", "min_points", cfg.MinPoints, "max_validators", cfg.MaxValidators)
	return xenv.NewResponse().AddAttribute("action", "update_config"), nil
}

// slashOperator records a slashing of operator at height and asks the membership group to
// slash it by portion.
func (s *state) slashOperator(cfg *Config, operator poe.Address, height uint64, portion poe.Decimal) (xenv.Msg, error) {
	hist, _, err := s.slashing.Get(operator)
	if err != nil {
		return nil, err
	}
	hist = append(hist, Slashing{SlashHeight: height, Portion: portion})
	if err := s.slashing.Save(operator, hist); err != nil {
		return nil, err
	}
	metricSlashed().Add(1)
	return xenv.Execute{Contract: cfg.Membership, Msg: group.SlashMsg{Addr: operator, Portion: portion}}, nil
}
