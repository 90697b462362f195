// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

// DevAccounts are the named accounts of the dev network, the first three are validators.
var DevAccounts = []string{"alice", "bob", "carl", "dave", "eve"}

// DevConfig returns the configuration of a small network for solo runs and tests.
func DevConfig() *Config {
	cfg := &Config{
		LaunchTime:   1000,
		Admin:        "genesis",
		Denom:        "stake",
		RewardsDenom: "utgd",
		Stake: StakeConfig{
			TokensPerPoint:  10,
			MinBond:         10,
			UnbondingPeriod: 3600,
			AutoReturnLimit: 20,
		},
		Engagement: EngageConfig{Halflife: 180 * 24 * 3600},
		Mixer:      MixerConfig{Function: "geometric_mean"},
		Valset: ValsetConfig{
			MinPoints:            1,
			MaxValidators:        10,
			EpochLength:          60,
			EpochReward:          1000,
			Scaling:              1,
			FeePercentage:        "0.5",
			DoubleSignSlashRatio: "0.5",
			AutoUnjail:           false,
			VerifyValidators:     true,
			OfflineJailDuration:  600,
		},
		Rewards: RewardsConfig{
			EngagementRatio: "0.3",
			CommunityRatio:  "0.1",
		},
	}
	for i, name := range DevAccounts {
		cfg.Accounts = append(cfg.Accounts, Account{
			Name:       name,
			Balance:    10000,
			Bond:       uint64(1000 * (len(DevAccounts) - i)),
			Engagement: 10,
			Validator:  i < 3,
		})
	}
	return cfg
}
