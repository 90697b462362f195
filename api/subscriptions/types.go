// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/vechain/poe/builtin/valset/selection"
	"github.com/vechain/poe/solo"
)

type JSONValidatorUpdate struct {
	Operator string `json:"operator"`
	PubKey   string `json:"pubKey"`
	Power    uint64 `json:"power"`
}

type JSONBlock struct {
	Height     uint64                `json:"height"`
	Time       uint64                `json:"time"`
	GasUsed    uint64                `json:"gasUsed"`
	EpochEnded bool                  `json:"epochEnded"`
	Diff       []JSONValidatorUpdate `json:"diff,omitempty"`
}

func convertSummary(s *solo.Summary) *JSONBlock {
	b := &JSONBlock{
		Height:     s.Block.Height,
		Time:       s.Block.Time,
		GasUsed:    s.GasUsed,
		EpochEnded: s.EpochEnded,
	}
	for _, d := range s.Diff {
		b.Diff = append(b.Diff, convertUpdate(d))
	}
	return b
}

func convertUpdate(v selection.ValidatorInfo) JSONValidatorUpdate {
	return JSONValidatorUpdate{
		Operator: v.Operator.String(),
		PubKey:   v.PubKey.String(),
		Power:    v.Power,
	}
}
