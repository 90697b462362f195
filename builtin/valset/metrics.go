// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package valset

import (
	"github.com/vechain/poe/metrics"
)

var (
	metricEpochs           = metrics.LazyLoadCounter("valset_epoch_count")
	metricActiveValidators = metrics.LazyLoadGauge("valset_active_validators")
	metricJailed           = metrics.LazyLoadCounterVec("valset_jailed_count", []string{"reason"})
	metricSlashed          = metrics.LazyLoadCounter("valset_slashed_count")
)
