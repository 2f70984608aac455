// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/vechain/npos/metrics"

var (
	metricCurrentEra        = metrics.LazyLoadGauge("staking_current_era")
	metricActiveEra         = metrics.LazyLoadGauge("staking_active_era")
	metricElectedValidators = metrics.LazyLoadGauge("staking_elected_validators")
	metricElectionDuration  = metrics.LazyLoadHistogram("staking_election_duration_ms", metrics.BucketMillis)
	metricElectionFailures  = metrics.LazyLoadCounter("staking_election_failures_count")
	metricSlashCount        = metrics.LazyLoadCounterVec("staking_slash_count", []string{"stage"})
	metricPayoutCount       = metrics.LazyLoadCounterVec("staking_payout_count", []string{"destination"})
	metricOperationCount    = metrics.LazyLoadCounterVec("staking_operation_count", []string{"op", "result"})
)
