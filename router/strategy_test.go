package router

import (
	"testing"
	"time"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/stretchr/testify/require"
)

func usageOf(total int64) litellm.Usage {
	return litellm.Usage{InputTokens: total / 2, OutputTokens: total - total/2, TotalTokens: total}
}

func testDeployments(cfg Config, deployments ...Deployment) []*deployment {
	out := make([]*deployment, len(deployments))
	for i, d := range deployments {
		out[i] = newDeployment(d, cfg.withDefaults())
	}
	return out
}

func TestPickLeastBusy(t *testing.T) {
	t.Parallel()

	deps := testDeployments(Config{},
		Deployment{ModelGroup: "g", ModelID: "fake/a"},
		Deployment{ModelGroup: "g", ModelID: "fake/b"},
		Deployment{ModelGroup: "g", ModelID: "fake/c"},
	)
	deps[0].inflight.Store(3)
	deps[1].inflight.Store(1)
	deps[2].inflight.Store(2)

	require.Equal(t, "fake/b", pickLeastBusy(deps).ModelID)
}

func TestPickLowestLatency(t *testing.T) {
	t.Parallel()

	deps := testDeployments(Config{},
		Deployment{ModelGroup: "g", ModelID: "fake/slow"},
		Deployment{ModelGroup: "g", ModelID: "fake/fast"},
	)
	deps[0].recordSuccess(usageOf(10), 2*time.Second)
	deps[1].recordSuccess(usageOf(10), 200*time.Millisecond)

	require.Equal(t, "fake/fast", pickLowestLatency(deps).ModelID)

	// An unmeasured deployment wins over any measured one.
	deps = append(deps, testDeployments(Config{},
		Deployment{ModelGroup: "g", ModelID: "fake/new"})...)
	require.Equal(t, "fake/new", pickLowestLatency(deps).ModelID)
}

func TestPickWeightedRandom(t *testing.T) {
	t.Parallel()

	deps := testDeployments(Config{},
		Deployment{ModelGroup: "g", ModelID: "fake/heavy", Weight: 9},
		Deployment{ModelGroup: "g", ModelID: "fake/light", Weight: 1},
	)

	counts := map[string]int{}
	for range 1000 {
		counts[pickWeightedRandom(deps).ModelID]++
	}
	require.Greater(t, counts["fake/heavy"], counts["fake/light"])
	// Both must receive some traffic.
	require.Positive(t, counts["fake/light"])
}

func TestLatencyEWMASmoothing(t *testing.T) {
	t.Parallel()

	deps := testDeployments(Config{}, Deployment{ModelGroup: "g", ModelID: "fake/a"})
	dep := deps[0]

	dep.recordSuccess(usageOf(10), time.Second)
	require.InDelta(t, 1.0, dep.avgLatency(), 1e-9)

	dep.recordSuccess(usageOf(10), 2*time.Second)
	require.InDelta(t, ewmaAlpha*2+(1-ewmaAlpha)*1, dep.avgLatency(), 1e-9)
}
