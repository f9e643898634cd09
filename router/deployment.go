package router

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Deployment is one routable backend for a model group. Several deployments
// may share a ModelGroup; the router spreads traffic across them.
type Deployment struct {
	// ModelGroup is the public alias requests name, e.g. "gpt-4o".
	ModelGroup string
	// ModelID is the provider-prefixed model the deployment resolves to,
	// e.g. "azure/gpt-4o-eu" or "openai/gpt-4o".
	ModelID string
	// RPM caps requests per minute. Zero means unlimited.
	RPM int64
	// TPM caps tokens per minute. Zero means unlimited.
	TPM int64
	// Weight biases simple-shuffle selection. Zero means 1.
	Weight int64
}

func (d Deployment) validate() error {
	if d.ModelGroup == "" {
		return fmt.Errorf("deployment is missing a model group")
	}
	if d.ModelID == "" {
		return fmt.Errorf("deployment %q is missing a model ID", d.ModelGroup)
	}
	if d.Weight < 0 {
		return fmt.Errorf("deployment %q has a negative weight", d.ModelGroup)
	}
	return nil
}

// ewmaAlpha weights the most recent latency sample.
const ewmaAlpha = 0.3

// deployment is a Deployment plus its runtime state: circuit breaker,
// rate limiters, and usage counters.
type deployment struct {
	Deployment

	breaker *gobreaker.CircuitBreaker
	rpm     *rate.Limiter
	tpm     *rate.Limiter

	inflight atomic.Int64

	mu           sync.Mutex
	requests     int64
	failures     int64
	inputTokens  int64
	outputTokens int64
	totalTokens  int64
	latencyEWMA  float64 // seconds
}

func newDeployment(d Deployment, cfg Config) *deployment {
	dep := &deployment{Deployment: d}

	dep.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        d.ModelGroup + "/" + d.ModelID,
		MaxRequests: 1,
		Interval:    cfg.CooldownDuration,
		Timeout:     cfg.CooldownDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.CooldownRatio
		},
	})

	if d.RPM > 0 {
		dep.rpm = rate.NewLimiter(rate.Limit(float64(d.RPM)/60), int(d.RPM))
	}
	if d.TPM > 0 {
		dep.tpm = rate.NewLimiter(rate.Limit(float64(d.TPM)/60), int(d.TPM))
	}
	return dep
}

// available reports whether the deployment can take traffic right now:
// its breaker is not open and its limiters have headroom.
func (d *deployment) available() bool {
	if d.breaker.State() == gobreaker.StateOpen {
		return false
	}
	if d.rpm != nil && d.rpm.Tokens() < 1 {
		return false
	}
	if d.tpm != nil && d.tpm.Tokens() <= 0 {
		return false
	}
	return true
}

// acquire consumes one request from the RPM budget. The TPM budget is
// consumed after the call, once actual token usage is known.
func (d *deployment) acquire() bool {
	if d.rpm != nil && !d.rpm.Allow() {
		return false
	}
	return true
}

func (d *deployment) weight() int64 {
	if d.Weight <= 0 {
		return 1
	}
	return d.Weight
}

func (d *deployment) recordSuccess(usage litellm.Usage, latency time.Duration) {
	d.recordTokens(usage)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests++
	sample := latency.Seconds()
	if d.latencyEWMA == 0 {
		d.latencyEWMA = sample
	} else {
		d.latencyEWMA = ewmaAlpha*sample + (1-ewmaAlpha)*d.latencyEWMA
	}
}

// recordTokens consumes the TPM budget for the tokens actually used and
// adds them to the counters. Streaming calls report tokens here once the
// stream finishes.
func (d *deployment) recordTokens(usage litellm.Usage) {
	if d.tpm != nil && usage.TotalTokens > 0 {
		// A reservation larger than the burst cannot be satisfied; cap it.
		if res := d.tpm.ReserveN(time.Now(), int(min(usage.TotalTokens, d.TPM))); !res.OK() {
			res.Cancel()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputTokens += usage.InputTokens
	d.outputTokens += usage.OutputTokens
	d.totalTokens += usage.TotalTokens
}

func (d *deployment) recordFailure() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests++
	d.failures++
}

func (d *deployment) avgLatency() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latencyEWMA
}

// DeploymentStats is a point-in-time snapshot of one deployment's counters.
type DeploymentStats struct {
	ModelGroup   string        `json:"model_group"`
	ModelID      string        `json:"model_id"`
	Requests     int64         `json:"requests"`
	Failures     int64         `json:"failures"`
	InputTokens  int64         `json:"input_tokens"`
	OutputTokens int64         `json:"output_tokens"`
	TotalTokens  int64         `json:"total_tokens"`
	InFlight     int64         `json:"in_flight"`
	AvgLatency   time.Duration `json:"avg_latency"`
	CoolingDown  bool          `json:"cooling_down"`
}

func (d *deployment) stats() DeploymentStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DeploymentStats{
		ModelGroup:   d.ModelGroup,
		ModelID:      d.ModelID,
		Requests:     d.requests,
		Failures:     d.failures,
		InputTokens:  d.inputTokens,
		OutputTokens: d.outputTokens,
		TotalTokens:  d.totalTokens,
		InFlight:     d.inflight.Load(),
		AvgLatency:   time.Duration(d.latencyEWMA * float64(time.Second)),
		CoolingDown:  d.breaker.State() == gobreaker.StateOpen,
	}
}
