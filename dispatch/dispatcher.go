// Package dispatch implements capability-based agent selection: a bounded
// memoization cache for expensive canHandle classifications and a Dispatcher
// that filters a sub-agent pool by availability, collects willing candidates
// and arbitrates between multiple matches with a single model call.
//
// Every failure path degrades to "no match" instead of raising, preserving
// the orchestrator's fallback route.
package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noteflow-ai/noteflow/core"
	"github.com/noteflow-ai/noteflow/llm"
	"github.com/noteflow-ai/noteflow/logging"
)

// singleMatchConfidence is reported when exactly one agent wants the query.
const singleMatchConfidence = 0.9

// arbitrationConfidence is reported for model-arbitrated multi-candidate picks.
const arbitrationConfidence = 0.75

// fallbackConfidence is reported when arbitration fails and the first pool
// candidate is chosen deterministically.
const fallbackConfidence = 0.5

// Options configures a Dispatcher.
type Options struct {
	// Cache memoizes canHandle decisions. Defaults to 1024 entries / 10 min TTL.
	Cache *CapabilityCache
	// Retry bounds the arbitration model call.
	Retry llm.RetryPolicy
	// ProbeTimeout bounds the concurrent availability sweep.
	ProbeTimeout time.Duration
	// Logger receives structured dispatch diagnostics.
	Logger logging.Logger
}

// Dispatcher selects the best-matching sub-agent for a query. It is safe for
// concurrent use; the capability cache is the only shared mutable state.
type Dispatcher struct {
	client       llm.Client
	pool         []core.SubAgent
	cache        *CapabilityCache
	retry        llm.RetryPolicy
	probeTimeout time.Duration
	logger       logging.Logger
}

// New constructs a Dispatcher over an ordered agent pool. Pool order matters:
// it is the deterministic tie-break when arbitration fails.
func New(client llm.Client, pool []core.SubAgent, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Cache:        NewCapabilityCache(1024, 10*time.Minute),
		Retry:        llm.DefaultRetryPolicy(),
		ProbeTimeout: 2 * time.Second,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{
		client:       client,
		pool:         pool,
		cache:        opts.Cache,
		retry:        opts.Retry,
		probeTimeout: opts.ProbeTimeout,
		logger:       opts.Logger,
	}
}

// Select returns the chosen agent or nil when no agent matches; nil signals
// the orchestrator to take its fallback route. Select never returns an
// error: classification and arbitration failures degrade to "no match" or to
// the deterministic first candidate.
func (d *Dispatcher) Select(ctx context.Context, query string, history []core.Message) *core.AgentSelection {
	available := d.probeAvailability(ctx)
	if len(available) == 0 {
		d.logger.Debug("no available agents in pool", "pool_size", len(d.pool))
		return nil
	}

	var candidates []core.SubAgent
	for _, a := range available {
		if d.canHandleCached(ctx, a, query, history) {
			candidates = append(candidates, a)
		}
	}

	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return &core.AgentSelection{
			AgentID:    candidates[0].ID(),
			Confidence: singleMatchConfidence,
			Reason:     "single capable agent",
		}
	default:
		return d.arbitrate(ctx, query, candidates)
	}
}

// probeAvailability runs the cheap liveness probes concurrently, preserving
// pool order in the result. Probe panics are not guarded: probes are
// expected to be trivial availability checks.
func (d *Dispatcher) probeAvailability(ctx context.Context) []core.SubAgent {
	probeCtx := ctx
	if d.probeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, d.probeTimeout)
		defer cancel()
	}

	up := make([]bool, len(d.pool))
	g, gctx := errgroup.WithContext(probeCtx)
	for i, a := range d.pool {
		i, a := i, a
		g.Go(func() error {
			up[i] = a.IsAvailable(gctx)
			return nil
		})
	}
	_ = g.Wait() // probes never return errors

	var available []core.SubAgent
	for i, a := range d.pool {
		if up[i] {
			available = append(available, a)
		}
	}
	return available
}

// canHandleCached memoizes the agent's capability classification. Errors are
// degraded to false and left uncached so a later dispatch can retry.
func (d *Dispatcher) canHandleCached(ctx context.Context, a core.SubAgent, query string, history []core.Message) bool {
	key := Key(a.ID(), query, history)
	if v, ok := d.cache.Get(key); ok {
		return v
	}
	v, err := a.CanHandle(ctx, query, history)
	if err != nil {
		d.logger.Warn("capability classification failed", "agent", a.ID(), "error", err)
		return false
	}
	d.cache.Put(key, v)
	return v
}

// arbitrate asks the model to pick between multiple willing candidates using
// their self-declared descriptions. On any failure the first candidate in
// pool order is chosen deterministically.
func (d *Dispatcher) arbitrate(ctx context.Context, query string, candidates []core.SubAgent) *core.AgentSelection {
	var sb strings.Builder
	sb.WriteString("Pick the single best agent for the user request.\n\nAgents:\n")
	for i, a := range candidates {
		sb.WriteString(fmt.Sprintf("%d. %s — %s\n", i+1, a.ID(), a.Description()))
	}
	sb.WriteString("\nRequest: " + query + "\n\nAnswer with the number of the chosen agent and nothing else.")

	resp, err := llm.CompleteWithRetry(ctx, d.client, d.retry,
		"You route user requests to specialized agents.",
		[]core.Message{core.UserMessage(sb.String())})
	if err != nil {
		d.logger.Warn("arbitration call failed, falling back to first candidate", "error", err)
		return d.firstCandidate(candidates)
	}

	if idx, ok := parseChoice(resp, len(candidates)); ok {
		return &core.AgentSelection{
			AgentID:    candidates[idx].ID(),
			Confidence: arbitrationConfidence,
			Reason:     "model arbitration between " + strconv.Itoa(len(candidates)) + " candidates",
		}
	}
	d.logger.Warn("arbitration response unparseable, falling back to first candidate", "response", resp)
	return d.firstCandidate(candidates)
}

func (d *Dispatcher) firstCandidate(candidates []core.SubAgent) *core.AgentSelection {
	return &core.AgentSelection{
		AgentID:    candidates[0].ID(),
		Confidence: fallbackConfidence,
		Reason:     "arbitration unavailable, first pool candidate",
	}
}

// parseChoice extracts a 1-based candidate index from an arbitration
// response. It accepts a bare number anywhere in the first line.
func parseChoice(resp string, n int) (int, bool) {
	line := resp
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	num := -1
	for _, f := range strings.FieldsFunc(line, func(r rune) bool {
		return r < '0' || r > '9'
	}) {
		if v, err := strconv.Atoi(f); err == nil {
			num = v
			break
		}
	}
	if num < 1 || num > n {
		return 0, false
	}
	return num - 1, true
}
