// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/poe/builtin/distribution"
	"github.com/vechain/poe/builtin/engagement"
	"github.com/vechain/poe/builtin/stake"
	"github.com/vechain/poe/builtin/valset"
	"github.com/vechain/poe/builtin/valset/selection"
	"github.com/vechain/poe/genesis"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/solo"
)

// Scenario is a genesis plus the actions replayed on it.
type Scenario struct {
	Genesis *genesis.Config `yaml:"genesis"`
	Steps   []Step          `yaml:"steps"`
}

// Step is one scenario action. Account names the acting genesis account, Amount is in tokens
// or engagement points and Count repeats blocks and epochs.
type Step struct {
	Action  string `yaml:"action"`
	Account string `yaml:"account"`
	Amount  uint64 `yaml:"amount"`
	Count   uint64 `yaml:"count"`
	Group   string `yaml:"group"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	if s.Genesis == nil {
		s.Genesis = genesis.DevConfig()
	}
	return &s, nil
}

type runner struct {
	sim   *simulation
	cfg   *genesis.Config
	out   io.Writer
	names map[poe.Address]string
}

func newRunner(sim *simulation, cfg *genesis.Config, out io.Writer) *runner {
	names := map[poe.Address]string{genesis.AddressOf(cfg.Admin): cfg.Admin}
	for _, a := range cfg.Accounts {
		names[genesis.AddressOf(a.Name)] = a.Name
	}
	return &runner{sim, cfg, out, names}
}

func (r *runner) name(addr poe.Address) string {
	if n, ok := r.names[addr]; ok {
		return n
	}
	return addr.String()
}

func (r *runner) run(steps []Step) error {
	for i, st := range steps {
		if err := r.step(st); err != nil {
			return errors.WithMessagef(err, "step %d (%s)", i+1, st.Action)
		}
	}
	return nil
}

func (r *runner) step(st Step) error {
	var (
		net     = r.sim.network
		account = genesis.AddressOf(st.Account)
		count   = max(st.Count, 1)
	)
	if st.Account == "" {
		switch st.Action {
		case "blocks", "epochs", "status":
		default:
			return errors.New("account not set")
		}
	}

	switch st.Action {
	case "blocks":
		for range count {
			if err := r.produce(); err != nil {
				return err
			}
		}
		return nil
	case "epochs":
		for range count {
			for {
				s, err := r.sim.solo.Produce()
				if err != nil {
					return err
				}
				r.report(s)
				if s.EpochEnded {
					break
				}
			}
		}
		return nil
	case "status":
		return r.status()
	case "bond":
		return r.execute(account, net.Stake, stake.BondMsg{}, poe.Coin{Denom: r.cfg.Denom, Amount: new(big.Int).SetUint64(st.Amount)})
	case "unbond":
		return r.execute(account, net.Stake, stake.UnbondMsg{Tokens: new(big.Int).SetUint64(st.Amount)})
	case "claim":
		return r.execute(account, net.Stake, stake.ClaimMsg{})
	case "engage":
		return r.execute(net.Admin, net.Engagement, engagement.AddPointsMsg{Addr: account, Points: st.Amount})
	case "register":
		return r.execute(account, net.Valset, valset.RegisterValidatorKeyMsg{
			PubKey:   genesis.KeyOf(account),
			Metadata: valset.Metadata{Moniker: st.Account},
		})
	case "unjail":
		return r.execute(account, net.Valset, valset.UnjailMsg{})
	case "double-sign":
		return r.sim.solo.ReportDoubleSign(account)
	case "offline", "online":
		r.sim.solo.SetOffline(account, st.Action == "offline")
		return nil
	case "withdraw":
		return r.withdraw(account, st.Group)
	default:
		return errors.Errorf("unknown action %q", st.Action)
	}
}

func (r *runner) execute(sender, contract poe.Address, msg any, funds ...poe.Coin) error {
	_, err := r.sim.rt.Execute(sender, contract, msg, funds...)
	return err
}

func (r *runner) produce() error {
	s, err := r.sim.solo.Produce()
	if err != nil {
		return err
	}
	r.report(s)
	return nil
}

func (r *runner) withdraw(account poe.Address, group string) error {
	var addr poe.Address
	switch group {
	case "", "rewards":
		addr = r.sim.network.Rewards
	case "engagement":
		addr = r.sim.network.Engagement
	case "community":
		addr = r.sim.network.Community
	default:
		return errors.Errorf("unknown group %q", group)
	}
	before, err := r.sim.rt.Balance(account, r.cfg.RewardsDenom)
	if err != nil {
		return err
	}
	if err := r.execute(account, addr, distribution.WithdrawRewardsMsg{}); err != nil {
		return err
	}
	after, err := r.sim.rt.Balance(account, r.cfg.RewardsDenom)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s withdrew %s%s\n", r.name(account), new(big.Int).Sub(after, before), r.cfg.RewardsDenom)
	return nil
}

func (r *runner) report(s *solo.Summary) {
	if !s.EpochEnded {
		return
	}
	fmt.Fprintf(r.out, "epoch ended at #%d (t=%d)\n", s.Block.Height, s.Block.Time)
	for _, d := range s.Diff {
		if d.Power == 0 {
			fmt.Fprintf(r.out, "  - %s\n", r.name(d.Operator))
		} else {
			fmt.Fprintf(r.out, "  + %s %d\n", r.name(d.Operator), d.Power)
		}
	}
}

func (r *runner) status() error {
	res, err := r.sim.rt.Query(r.sim.network.Valset, valset.ListActiveValidatorsQuery{})
	if err != nil {
		return err
	}
	b := r.sim.rt.Block()
	fmt.Fprintf(r.out, "active at #%d (t=%d)\n", b.Height, b.Time)
	for _, v := range res.([]selection.ValidatorInfo) {
		fmt.Fprintf(r.out, "  %s %d\n", r.name(v.Operator), v.Power)
	}
	return nil
}
