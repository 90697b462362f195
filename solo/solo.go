// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solo produces blocks on a single runtime: it feeds the validator set the votes of
// its active validators and the reported misbehaviour, and ends every block.
package solo

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/poe/builtin/valset"
	"github.com/vechain/poe/builtin/valset/selection"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/poe"
	"github.com/vechain/poe/runtime"
)

var logger = log.WithContext("pkg", "solo")

type Options struct {
	// BlockInterval in seconds.
	BlockInterval uint64
}

// Summary describes a produced block.
type Summary struct {
	Block      poe.Block
	EpochEnded bool
	Diff       []selection.ValidatorInfo
	GasUsed    uint64
}

// Solo mode is the standalone block producer without consensus.
type Solo struct {
	rt      *runtime.Runtime
	valset  poe.Address
	options Options

	mu       sync.Mutex
	offline  map[poe.Address]bool
	evidence []valset.Evidence

	feed  event.Feed
	scope event.SubscriptionScope
}

// New returns Solo instance
func New(rt *runtime.Runtime, valsetAddr poe.Address, options Options) *Solo {
	if options.BlockInterval == 0 {
		options.BlockInterval = 10
	}
	return &Solo{
		rt:      rt,
		valset:  valsetAddr,
		options: options,
		offline: make(map[poe.Address]bool),
	}
}

// SubscribeBlocks delivers the summary of every produced block to ch.
func (s *Solo) SubscribeBlocks(ch chan *Summary) event.Subscription {
	return s.scope.Track(s.feed.Subscribe(ch))
}

// Close ends all block subscriptions.
func (s *Solo) Close() {
	s.scope.Close()
}

// SetOffline makes an operator skip signing until set back online.
func (s *Solo) SetOffline(operator poe.Address, offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offline {
		s.offline[operator] = true
	} else {
		delete(s.offline, operator)
	}
}

// ReportDoubleSign queues a duplicate vote evidence against operator, committed at the
// current height, for the next block.
func (s *Solo) ReportDoubleSign(operator poe.Address) error {
	res, err := s.rt.Query(s.valset, valset.ValidatorQuery{Operator: operator})
	if err != nil {
		return err
	}
	op := res.(*valset.OperatorResponse)
	if op == nil {
		return errors.Errorf("unknown operator %s", operator)
	}
	active, err := s.active()
	if err != nil {
		return err
	}
	var power, total uint64
	for _, v := range active {
		if v.Operator == operator {
			power = v.Power
		}
		total += v.Power
	}

	b := s.rt.Block()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evidence = append(s.evidence, valset.Evidence{
		Kind:             valset.DuplicateVote,
		Validator:        op.PubKey.Address(),
		Power:            power,
		Height:           b.Height,
		Time:             b.Time,
		TotalVotingPower: total,
	})
	logger.Debug("double sign reported", "operator", operator, "height", b.Height)
	return nil
}

func (s *Solo) active() ([]selection.ValidatorInfo, error) {
	res, err := s.rt.Query(s.valset, valset.ListActiveValidatorsQuery{})
	if err != nil {
		return nil, err
	}
	return res.([]selection.ValidatorInfo), nil
}

// beginBlockMsg collects the votes on the previous block and drains the pending evidence.
func (s *Solo) beginBlockMsg() (valset.BeginBlockMsg, error) {
	active, err := s.active()
	if err != nil {
		return valset.BeginBlockMsg{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := valset.BeginBlockMsg{Evidence: s.evidence}
	s.evidence = nil
	for _, v := range active {
		msg.Votes = append(msg.Votes, valset.Vote{
			Address: v.PubKey.Address(),
			Power:   v.Power,
			Voted:   !s.offline[v.Operator],
		})
	}
	return msg, nil
}

// Produce moves the runtime to the next block and runs its callbacks.
func (s *Solo) Produce() (*Summary, error) {
	msg, err := s.beginBlockMsg()
	if err != nil {
		return nil, err
	}
	prev := s.rt.Block()
	next := poe.Block{Height: prev.Height + 1, Time: prev.Time + s.options.BlockInterval}
	s.rt.SetBlock(next)

	summary := &Summary{Block: next}
	begin, err := s.rt.BeginBlock(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "begin block %d", next.Height)
	}
	end, err := s.rt.EndBlock()
	if err != nil {
		return nil, errors.Wrapf(err, "end block %d", next.Height)
	}
	for _, r := range append(begin, end...) {
		summary.GasUsed += r.GasUsed
		if d, ok := r.Data.(valset.ValidatorDiff); ok && r.Contract == s.valset {
			summary.EpochEnded = true
			summary.Diff = d.Diffs
		}
	}
	if summary.EpochEnded {
		logger.Info("epoch ended", "height", next.Height, "changes", len(summary.Diff))
	}
	logger.Debug("block produced", "height", next.Height, "time", next.Time, "gas", summary.GasUsed)
	s.feed.Send(summary)
	return summary, nil
}

// Run produces a block every block interval until ctx is done.
func (s *Solo) Run(ctx context.Context) error {
	logger.Info("prepared to produce blocks", "interval", s.options.BlockInterval)
	ticker := time.NewTicker(time.Duration(s.options.BlockInterval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping block production......")
			return nil
		case <-ticker.C:
			if _, err := s.Produce(); err != nil {
				logger.Error("failed to produce block", "err", err)
				return err
			}
		}
	}
}
