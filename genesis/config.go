// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/poe/builtin/mixer"
	"github.com/vechain/poe/poe"
)

// Config describes the accounts and contract parameters of a network. Accounts are
// referred to by name, see AddressOf.
type Config struct {
	LaunchTime   uint64        `yaml:"launchTime"`
	Admin        string        `yaml:"admin"`
	Denom        string        `yaml:"denom"`
	RewardsDenom string        `yaml:"rewardsDenom"`
	Accounts     []Account     `yaml:"accounts"`
	Stake        StakeConfig   `yaml:"stake"`
	Engagement   EngageConfig  `yaml:"engagement"`
	Mixer        MixerConfig   `yaml:"mixer"`
	Valset       ValsetConfig  `yaml:"valset"`
	Rewards      RewardsConfig `yaml:"rewards"`
}

// Account is a genesis allocation. Balance is in Denom, Bond is bonded out of it.
type Account struct {
	Name       string `yaml:"name"`
	Balance    uint64 `yaml:"balance"`
	Bond       uint64 `yaml:"bond"`
	Engagement uint64 `yaml:"engagement"`
	Validator  bool   `yaml:"validator"`
}

type StakeConfig struct {
	TokensPerPoint  uint64 `yaml:"tokensPerPoint"`
	MinBond         uint64 `yaml:"minBond"`
	UnbondingPeriod uint64 `yaml:"unbondingPeriod"`
	AutoReturnLimit uint64 `yaml:"autoReturnLimit"`
}

type EngageConfig struct {
	Halflife uint64 `yaml:"halflife"`
}

// MixerConfig selects the mixing function: geometric_mean, sigmoid, sigmoid_sqrt or
// algebraic_sigmoid. Decimals are strings.
type MixerConfig struct {
	Function  string `yaml:"function"`
	MaxPoints uint64 `yaml:"maxPoints"`
	A         string `yaml:"a"`
	P         string `yaml:"p"`
	S         string `yaml:"s"`
}

type ValsetConfig struct {
	MinPoints            uint64 `yaml:"minPoints"`
	MaxValidators        uint32 `yaml:"maxValidators"`
	EpochLength          uint64 `yaml:"epochLength"`
	EpochReward          uint64 `yaml:"epochReward"`
	Scaling              uint32 `yaml:"scaling"`
	FeePercentage        string `yaml:"feePercentage"`
	DoubleSignSlashRatio string `yaml:"doubleSignSlashRatio"`
	AutoUnjail           bool   `yaml:"autoUnjail"`
	VerifyValidators     bool   `yaml:"verifyValidators"`
	OfflineJailDuration  uint64 `yaml:"offlineJailDuration"`
}

// RewardsConfig splits the epoch rewards. The validators get what the ratios leave.
type RewardsConfig struct {
	EngagementRatio string `yaml:"engagementRatio"`
	CommunityRatio  string `yaml:"communityRatio"`
}

// AddressOf derives the address of a named account.
func AddressOf(name string) poe.Address {
	return poe.BytesToAddress([]byte(name))
}

// KeyOf derives the consensus key of a genesis operator.
func KeyOf(addr poe.Address) poe.PubKey {
	return poe.PubKey(poe.Blake2b([]byte("validator"), addr.Bytes()))
}

func (c *Config) account(name string) (*Account, bool) {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name {
			return &c.Accounts[i], true
		}
	}
	return nil, false
}

func (c *Config) validate() error {
	if c.Admin == "" {
		return errors.New("admin account not set")
	}
	if c.Denom == "" || c.RewardsDenom == "" || c.Denom == c.RewardsDenom {
		return errors.Errorf("invalid denoms %q and %q", c.Denom, c.RewardsDenom)
	}
	seen := make(map[string]bool, len(c.Accounts))
	for _, a := range c.Accounts {
		if a.Name == "" {
			return errors.New("account without name")
		}
		if seen[a.Name] {
			return errors.Errorf("duplicate account %q", a.Name)
		}
		seen[a.Name] = true
		if a.Bond > a.Balance {
			return errors.Errorf("account %q bonds %d out of %d", a.Name, a.Bond, a.Balance)
		}
	}
	return nil
}

// decimal parses an optional decimal parameter, empty is zero.
func decimal(s, name string) (poe.Decimal, error) {
	if s == "" {
		return poe.Percent(0), nil
	}
	d, err := poe.ParseDecimal(s)
	if err != nil {
		return d, errors.WithMessage(err, name)
	}
	return d, nil
}

func (m *MixerConfig) function() (mixer.Function, error) {
	a, err := decimal(m.A, "mixer.a")
	if err != nil {
		return nil, err
	}
	p, err := decimal(m.P, "mixer.p")
	if err != nil {
		return nil, err
	}
	s, err := decimal(m.S, "mixer.s")
	if err != nil {
		return nil, err
	}
	switch m.Function {
	case "", "geometric_mean":
		return mixer.GeometricMean{}, nil
	case "sigmoid":
		return mixer.Sigmoid{MaxPoints: m.MaxPoints, P: p, S: s}, nil
	case "sigmoid_sqrt":
		return mixer.SigmoidSqrt{MaxPoints: m.MaxPoints, S: s}, nil
	case "algebraic_sigmoid":
		return mixer.AlgebraicSigmoid{MaxPoints: m.MaxPoints, A: a, P: p, S: s}, nil
	default:
		return nil, errors.Errorf("unknown mixing function %q", m.Function)
	}
}

func bigOf(n uint64) *big.Int {
	return new(big.Int).SetUint64(n)
}

func coin(n uint64, denom string) poe.Coin {
	return poe.Coin{Denom: denom, Amount: bigOf(n)}
}
