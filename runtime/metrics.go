// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/vechain/poe/metrics"
)

var (
	metricInvocationCount = metrics.LazyLoadCounterVec("runtime_invocation_count", []string{"entry", "result"})
	metricGasUsed         = metrics.LazyLoadHistogramVec("runtime_gas_used", []string{"entry"}, metrics.BucketGas)
	metricQueryGas        = metrics.LazyLoadHistogram("runtime_query_gas", metrics.BucketGas)
)
