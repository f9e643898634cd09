package router

import (
	"fmt"
	"math/rand/v2"
)

// Strategy names a deployment-selection policy.
type Strategy string

const (
	// StrategySimpleShuffle picks a deployment at random, biased by weight.
	StrategySimpleShuffle Strategy = "simple-shuffle"
	// StrategyLeastBusy picks the deployment with the fewest in-flight calls.
	StrategyLeastBusy Strategy = "least-busy"
	// StrategyLatencyBased picks the deployment with the lowest smoothed
	// latency, preferring ones that have not been measured yet.
	StrategyLatencyBased Strategy = "latency-based"
)

func (s Strategy) validate() error {
	switch s {
	case StrategySimpleShuffle, StrategyLeastBusy, StrategyLatencyBased:
		return nil
	default:
		return fmt.Errorf("unknown routing strategy %q", s)
	}
}

// pick selects one deployment from a non-empty candidate list.
func (s Strategy) pick(candidates []*deployment) *deployment {
	switch s {
	case StrategyLeastBusy:
		return pickLeastBusy(candidates)
	case StrategyLatencyBased:
		return pickLowestLatency(candidates)
	default:
		return pickWeightedRandom(candidates)
	}
}

func pickWeightedRandom(candidates []*deployment) *deployment {
	var total int64
	for _, d := range candidates {
		total += d.weight()
	}
	n := rand.Int64N(total)
	for _, d := range candidates {
		n -= d.weight()
		if n < 0 {
			return d
		}
	}
	return candidates[len(candidates)-1]
}

func pickLeastBusy(candidates []*deployment) *deployment {
	best := candidates[0]
	bestBusy := best.inflight.Load()
	for _, d := range candidates[1:] {
		if busy := d.inflight.Load(); busy < bestBusy {
			best, bestBusy = d, busy
		}
	}
	return best
}

func pickLowestLatency(candidates []*deployment) *deployment {
	var best *deployment
	bestLatency := 0.0
	for _, d := range candidates {
		latency := d.avgLatency()
		if latency == 0 {
			// Unmeasured deployments get traffic first.
			return d
		}
		if best == nil || latency < bestLatency {
			best, bestLatency = d, latency
		}
	}
	return best
}
