// SPDX-License-Identifier: GPL-3.0-or-later

package do53

import (
	"time"

	"github.com/bassosimone/dnsprivacy"
)

// NopOracle implements [dnsprivacy.Do53LatencyOracle] by always reporting
// "no data", the same no-op-collaborator idiom github.com/bassosimone/nop
// uses for its always-empty/always-absent stand-ins.
//
// Passing it to [dnsprivacy.NewEngine] behaves like passing a nil oracle:
// the opportunistic latency gate then uses the flag store's minimum latency
// bound as its threshold (spec.md §4.4 Step A).
type NopOracle struct{}

// Ensure that [NopOracle] implements [dnsprivacy.Do53LatencyOracle].
var _ dnsprivacy.Do53LatencyOracle = NopOracle{}

// Average implements [dnsprivacy.Do53LatencyOracle].
func (NopOracle) Average(netID dnsprivacy.NetID) (time.Duration, bool) {
	return 0, false
}
