// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package valset

import (
	"github.com/vechain/poe/builtin/valset/jailing"
	"github.com/vechain/poe/builtin/valset/selection"
	"github.com/vechain/poe/poe"
)

// DistributionContract receives Ratio of every epoch reward.
type DistributionContract struct {
	Contract poe.Address
	Ratio    poe.Decimal
}

// Metadata describes a validator operator.
type Metadata struct {
	Moniker         string
	Identity        string
	Website         string
	SecurityContact string
	Details         string
}

// OperatorKey is an operator registered at instantiation.
type OperatorKey struct {
	Operator poe.Address
	PubKey   poe.PubKey
	Metadata Metadata
}

type InstantiateMsg struct {
	Admin *poe.Address
	// Membership is the weighted group validators are selected from.
	Membership    poe.Address
	MinPoints     uint64
	MaxValidators uint32
	// EpochLength is in seconds.
	EpochLength uint64
	EpochReward poe.Coin
	InitialKeys []OperatorKey
	// Scaling multiplies points into consensus power, zero means one.
	Scaling uint32
	// FeePercentage of the collected fees is subtracted from the minted reward.
	FeePercentage        poe.Decimal
	AutoUnjail           bool
	DoubleSignSlashRatio poe.Decimal
	// DistributionContracts receive their ratio of the reward, the validators' RewardsGroup
	// the rest. The valset must be admin of RewardsGroup.
	DistributionContracts []DistributionContract
	RewardsGroup          poe.Address
	VerifyValidators      bool
	OfflineJailDuration   poe.Duration
}

// ImportMsg instantiates or migrates a valset from an exported state.
type ImportMsg struct {
	State State
}

type RegisterValidatorKeyMsg struct {
	PubKey   poe.PubKey
	Metadata Metadata
}

type UpdateMetadataMsg struct {
	Metadata Metadata
}

// JailMsg jails Operator for Duration, forever when nil.
type JailMsg struct {
	Operator poe.Address
	Duration *poe.Duration
}

// UnjailMsg releases Operator, the sender when nil.
type UnjailMsg struct {
	Operator *poe.Address
}

type UpdateConfigMsg struct {
	MinPoints     *uint64
	MaxValidators *uint32
}

type UpdateAdminMsg struct {
	Admin *poe.Address
}

// Vote tells whether a validator signed the previous block.
type Vote struct {
	Address poe.ConsensusAddress
	Power   uint64
	Voted   bool
}

type EvidenceKind uint8

const (
	DuplicateVote EvidenceKind = iota + 1
	LightClientAttack
)

// Evidence of validator misbehaviour reported by the consensus engine.
type Evidence struct {
	Kind             EvidenceKind
	Validator        poe.ConsensusAddress
	Power            uint64
	Height           uint64
	Time             uint64
	TotalVotingPower uint64
}

// BeginBlockMsg is the privileged begin block callback.
type BeginBlockMsg struct {
	Votes    []Vote
	Evidence []Evidence
}

// ValidatorDiff is the response data of an epoch end block, the updates for the consensus
// engine. Zero power removes a validator.
type ValidatorDiff struct {
	Diffs []selection.ValidatorInfo
}

// Queries.

// ConfigQuery returns Config.
type ConfigQuery struct{}

// EpochQuery returns EpochResponse.
type EpochQuery struct{}

// ValidatorQuery returns *OperatorResponse.
type ValidatorQuery struct {
	Operator poe.Address
}

// ListValidatorsQuery returns []OperatorResponse.
type ListValidatorsQuery struct {
	StartAfter *poe.Address
	Limit      *uint32
}

// ListActiveValidatorsQuery returns []selection.ValidatorInfo.
type ListActiveValidatorsQuery struct{}

// SimulateActiveValidatorsQuery returns the []selection.ValidatorInfo the next epoch would select.
type SimulateActiveValidatorsQuery struct{}

// ListValidatorSlashingQuery returns ValidatorSlashingResponse.
type ListValidatorSlashingQuery struct {
	Operator poe.Address
}

// ListJailedValidatorsQuery returns []jailing.Entry.
type ListJailedValidatorsQuery struct {
	StartAfter *poe.Address
	Limit      *uint32
}

type AdminQuery struct{}

// ExportQuery returns State.
type ExportQuery struct{}

type EpochResponse struct {
	EpochLength      uint64
	CurrentEpoch     uint64
	LastUpdateTime   uint64
	LastUpdateHeight uint64
	NextUpdateTime   uint64
}

type OperatorResponse struct {
	Operator        poe.Address
	PubKey          poe.PubKey
	Metadata        Metadata
	JailedUntil     *jailing.Period
	ActiveValidator bool
}

type ValidatorSlashingResponse struct {
	Operator    poe.Address
	StartHeight *uint64
	Slashing    []Slashing
	Tombstoned  bool
	JailedUntil *jailing.Period
}
