package duskline

import "math"

const (
	kib = 1024
	mib = 1024 * kib
)

// LossWeights are the coefficients applied to the three pressure signals
// when scoring a candidate backpressure action.
type LossWeights struct {
	OOM        float64
	Latency    float64
	Throughput float64
}

// DefaultLossWeights mirrors the defaults used across the corpus of
// flow-control test scenarios: OOM risk dominates, latency is a distant
// second, throughput loss is a minor tiebreaker.
var DefaultLossWeights = LossWeights{OOM: 1_000_000.0, Latency: 10_000.0, Throughput: 100.0}

// FlowControlConfig bundles the soft/hard caps, fairness floor, latency
// budget, output-batch sizes, and loss weights the policy scores
// against. All fields are immutable inputs; the policy itself holds no
// state across ticks.
type FlowControlConfig struct {
	InputSoftCapBytes  uint64
	InputHardCapBytes  uint64
	OutputSoftCapBytes uint64
	OutputHardCapBytes uint64

	FairnessFloor     float64
	KeyLatencyBudgetMs float64

	OutputBatchWithInputBytes uint32
	OutputBatchIdleBytes      uint32
	OutputBatchRecoveryBytes  uint32

	ReplenishIntervalMs  uint64
	HardCapTerminateMs   uint64
	TerminateThroughputLoss float64

	Weights LossWeights
}

// DefaultFlowControlConfig matches the numeric defaults exercised by the
// reference test suite this policy was ported from.
func DefaultFlowControlConfig() FlowControlConfig {
	return FlowControlConfig{
		InputSoftCapBytes:  12 * kib,
		InputHardCapBytes:  16 * kib,
		OutputSoftCapBytes: 192 * kib,
		OutputHardCapBytes: 256 * kib,

		FairnessFloor:      0.80,
		KeyLatencyBudgetMs: 50.0,

		OutputBatchWithInputBytes: 32 * kib,
		OutputBatchIdleBytes:      64 * kib,
		OutputBatchRecoveryBytes:  8 * kib,

		ReplenishIntervalMs:     10,
		HardCapTerminateMs:      5000,
		TerminateThroughputLoss: 6000.0,

		Weights: DefaultLossWeights,
	}
}

// QueueDepthBytes is the current occupancy of the input/output/render
// queues, in bytes (render_frames counts frames, not bytes).
type QueueDepthBytes struct {
	InputBytes    uint64
	OutputBytes   uint64
	RenderFrames  uint64
}

// RateWindowBps holds arrival (lambda) and service (mu) rates in
// bytes/sec for the input and output directions over the current window.
type RateWindowBps struct {
	LambdaIn, LambdaOut float64
	MuIn, MuOut         float64
}

// LatencyWindowMs holds keystroke-to-echo latency percentiles.
type LatencyWindowMs struct {
	KeyP50Ms, KeyP95Ms float64
}

// FlowControlSnapshot is the pure input consumed once per decision tick
// and then discarded; the policy itself is stateless.
type FlowControlSnapshot struct {
	Queues                 QueueDepthBytes
	Rates                   RateWindowBps
	Latency                 LatencyWindowMs
	ServicedInputBytes      uint64
	ServicedOutputBytes     uint64
	OutputHardCapDurationMs uint64
}

// FairnessIndex computes the Jain fairness index over bytes serviced in
// each direction this window: (x+y)^2 / (2*(x^2+y^2)), 1.0 when both
// inputs are zero.
func (s FlowControlSnapshot) FairnessIndex() float64 {
	return jainFairnessIndex(s.ServicedInputBytes, s.ServicedOutputBytes)
}

func jainFairnessIndex(x, y uint64) float64 {
	fx, fy := float64(x), float64(y)
	denom := 2 * (fx*fx + fy*fy)
	if denom < 1e-9 {
		return 1.0
	}
	num := (fx + fy) * (fx + fy)
	return num / denom
}

// BackpressureAction is one of the closed set of candidate actions the
// policy can choose, ordered by tie-break rank (lowest wins ties).
type BackpressureAction int

const (
	CoalesceNonInteractive BackpressureAction = iota
	ThrottleOutput
	DropNonInteractive
	TerminateSession
)

func (a BackpressureAction) tieBreakRank() int { return int(a) }

// String renders the action's wire name.
func (a BackpressureAction) String() string {
	switch a {
	case CoalesceNonInteractive:
		return "coalesce_non_interactive"
	case ThrottleOutput:
		return "throttle_output"
	case DropNonInteractive:
		return "drop_non_interactive"
	case TerminateSession:
		return "terminate_session"
	default:
		return "unknown"
	}
}

// DecisionReason names why the policy chose (or withheld) an action.
type DecisionReason int

const (
	ReasonStable DecisionReason = iota
	ReasonQueuePressure
	ReasonProtectKeyLatencyBudget
	ReasonHardCapExceeded
)

func (r DecisionReason) String() string {
	switch r {
	case ReasonStable:
		return "stable"
	case ReasonQueuePressure:
		return "queue_pressure"
	case ReasonProtectKeyLatencyBudget:
		return "protect_key_latency_budget"
	case ReasonHardCapExceeded:
		return "hard_cap_exceeded"
	default:
		return "unknown"
	}
}

// ActionLoss is one action's scored expected loss, broken down into the
// three risk components that produced it.
type ActionLoss struct {
	Action         BackpressureAction
	ExpectedLoss   float64
	OOMRisk        float64
	LatencyRisk    float64
	ThroughputLoss float64
}

// FlowControlDecision is the full result of one evaluate() call: the
// chosen action (if any), why, the current fairness index, the output
// batch budget for this tick, whether upstream reads should pause, and
// the scored loss for every candidate action (for tracing/replay).
type FlowControlDecision struct {
	ChosenAction           *BackpressureAction
	Reason                 DecisionReason
	FairnessIndex          float64
	OutputBatchBudgetBytes uint32
	ShouldPausePtyReads    bool
	Losses                 [4]ActionLoss
}

// InputEventClass distinguishes input events the policy may coalesce or
// drop (NonInteractive) from those it must never drop (Interactive).
type InputEventClass int

const (
	Interactive InputEventClass = iota
	NonInteractive
)

// FlowControlPolicy is a pure function of its configuration and, per
// call, a snapshot: identical inputs always produce identical decisions,
// which is what makes trace replay meaningful.
type FlowControlPolicy struct {
	Config FlowControlConfig
}

// NewFlowControlPolicy builds a policy around cfg.
func NewFlowControlPolicy(cfg FlowControlConfig) FlowControlPolicy {
	return FlowControlPolicy{Config: cfg}
}

// Evaluate computes this tick's decision from snapshot.
func (p FlowControlPolicy) Evaluate(s FlowControlSnapshot) FlowControlDecision {
	cfg := p.Config
	fairness := s.FairnessIndex()
	losses := p.scoreActions(s, fairness)

	reason := p.reason(s, fairness)

	var decision FlowControlDecision
	decision.FairnessIndex = fairness
	decision.Losses = losses
	decision.OutputBatchBudgetBytes = p.outputBatchBudget(s.Queues.InputBytes, fairness, s.Latency.KeyP95Ms)
	decision.ShouldPausePtyReads = s.Queues.OutputBytes >= cfg.OutputHardCapBytes

	if reason == ReasonHardCapExceeded {
		action := TerminateSession
		decision.ChosenAction = &action
		decision.Reason = ReasonHardCapExceeded
		return decision
	}

	if !p.isPressured(s, fairness) {
		decision.Reason = ReasonStable
		return decision
	}

	action := selectBestAction(losses)
	decision.ChosenAction = &action
	decision.Reason = reason
	return decision
}

// ShouldReplenish reports whether the host's rate-limiting window should
// roll over: true once at least half the window has been consumed, or
// once the replenish interval has elapsed. A zero window always
// replenishes immediately.
func (p FlowControlPolicy) ShouldReplenish(consumed, window uint64, elapsedMs uint64) bool {
	if window == 0 {
		return true
	}
	return consumed*2 >= window || elapsedMs >= p.Config.ReplenishIntervalMs
}

// ShouldDropInputEvent reports whether an input event of the given class
// should be dropped given the current input queue depth. Interactive
// events (keystrokes, paste, focus transitions) are never dropped,
// regardless of queue depth.
func (p FlowControlPolicy) ShouldDropInputEvent(queueBytes uint64, class InputEventClass) bool {
	if class == Interactive {
		return false
	}
	return queueBytes >= p.Config.InputHardCapBytes
}

func (p FlowControlPolicy) outputBatchBudget(inputQueue uint64, fairness, p95 float64) uint32 {
	cfg := p.Config
	baseline := cfg.OutputBatchIdleBytes
	if inputQueue > 0 {
		baseline = cfg.OutputBatchWithInputBytes
	}
	if fairness < cfg.FairnessFloor || p95 > cfg.KeyLatencyBudgetMs {
		if cfg.OutputBatchRecoveryBytes < baseline {
			return cfg.OutputBatchRecoveryBytes
		}
	}
	return baseline
}

func (p FlowControlPolicy) reason(s FlowControlSnapshot, fairness float64) DecisionReason {
	cfg := p.Config
	if s.OutputHardCapDurationMs >= cfg.HardCapTerminateMs {
		return ReasonHardCapExceeded
	}
	if !p.isPressured(s, fairness) {
		return ReasonStable
	}
	latencyTriggered := s.Latency.KeyP95Ms > cfg.KeyLatencyBudgetMs || fairness < cfg.FairnessFloor
	if latencyTriggered {
		return ReasonProtectKeyLatencyBudget
	}
	return ReasonQueuePressure
}

func (p FlowControlPolicy) isPressured(s FlowControlSnapshot, fairness float64) bool {
	cfg := p.Config
	rhoIn := utilization(s.Rates.LambdaIn, s.Rates.MuIn)
	rhoOut := utilization(s.Rates.LambdaOut, s.Rates.MuOut)
	return s.Queues.InputBytes >= cfg.InputSoftCapBytes ||
		s.Queues.OutputBytes >= cfg.OutputSoftCapBytes ||
		rhoIn > 1.0 ||
		rhoOut > 1.0 ||
		fairness < cfg.FairnessFloor ||
		s.Latency.KeyP95Ms > cfg.KeyLatencyBudgetMs
}

func utilization(lambda, mu float64) float64 {
	if mu <= 0 {
		if lambda <= 0 {
			return 0
		}
		return math.Inf(1)
	}
	return lambda / mu
}

// pressureSignals computes the three pure pressure signals from the
// snapshot. oom is the larger hard-cap ratio clamped to [0.70, 1] plus
// any utilization excess over 1; latency and throughput are 0 while
// within their thresholds and grow with the excess over them.
func (p FlowControlPolicy) pressureSignals(s FlowControlSnapshot, fairness float64) (oom, latency, throughput float64) {
	cfg := p.Config
	rhoIn := utilization(s.Rates.LambdaIn, s.Rates.MuIn)
	rhoOut := utilization(s.Rates.LambdaOut, s.Rates.MuOut)

	inRatio := ratio(s.Queues.InputBytes, cfg.InputHardCapBytes)
	outRatio := ratio(s.Queues.OutputBytes, cfg.OutputHardCapBytes)
	oom = clamp01From(math.Max(inRatio, outRatio), 0.70)
	if rhoIn > 1 {
		oom += rhoIn - 1
	}
	if rhoOut > 1 {
		oom += rhoOut - 1
	}

	latency = 0
	if s.Latency.KeyP95Ms > cfg.KeyLatencyBudgetMs {
		latency += (s.Latency.KeyP95Ms - cfg.KeyLatencyBudgetMs) / cfg.KeyLatencyBudgetMs
	}
	if fairness < cfg.FairnessFloor {
		latency += cfg.FairnessFloor - fairness
	}
	if rhoIn > 1 {
		latency += rhoIn - 1
	}
	inSoftRatio := ratio(s.Queues.InputBytes, cfg.InputSoftCapBytes)
	if inSoftRatio > 1 {
		latency += inSoftRatio - 1
	}

	throughput = 0
	if rhoOut > 1 {
		throughput += rhoOut - 1
	}
	outSoftRatio := ratio(s.Queues.OutputBytes, cfg.OutputSoftCapBytes)
	if outSoftRatio > 1 {
		throughput += outSoftRatio - 1
	}

	return oom, latency, throughput
}

func ratio(num, den uint64) float64 {
	if den == 0 {
		return math.Inf(1)
	}
	return float64(num) / float64(den)
}

func clamp01From(v, floor float64) float64 {
	if v < floor {
		v = floor
	}
	if v > 1 {
		return 1
	}
	return v
}

// scoreActions scores every candidate action's expected loss for this
// snapshot. Per-action coefficients encode the asymmetric cost of each
// action: coalesce is cheap and low-risk; throttle trades throughput for
// safety; drop is more aggressive; terminate has a fixed throughput
// penalty and zero risk terms (it eliminates risk by ending the session).
func (p FlowControlPolicy) scoreActions(s FlowControlSnapshot, fairness float64) [4]ActionLoss {
	oom, latency, throughput := p.pressureSignals(s, fairness)
	w := p.Config.Weights

	score := func(action BackpressureAction, oomCoef, latCoef, thrCoef float64) ActionLoss {
		oomRisk := oom * oomCoef
		latRisk := latency * latCoef
		thrLoss := throughput * thrCoef
		return ActionLoss{
			Action:         action,
			OOMRisk:        oomRisk,
			LatencyRisk:    latRisk,
			ThroughputLoss: thrLoss,
			ExpectedLoss:   w.OOM*oomRisk + w.Latency*latRisk + w.Throughput*thrLoss,
		}
	}

	return [4]ActionLoss{
		score(CoalesceNonInteractive, 0.25, 0.50, 0.10),
		score(ThrottleOutput, 0.50, 0.75, 0.40),
		score(DropNonInteractive, 0.75, 0.25, 0.60),
		{
			Action:         TerminateSession,
			OOMRisk:        0,
			LatencyRisk:    0,
			ThroughputLoss: p.Config.TerminateThroughputLoss,
			ExpectedLoss:   w.Throughput * p.Config.TerminateThroughputLoss,
		},
	}
}

// selectBestAction picks the lowest expected-loss action, breaking ties
// by the fixed rank CoalesceNonInteractive < ThrottleOutput <
// DropNonInteractive < TerminateSession.
func selectBestAction(losses [4]ActionLoss) BackpressureAction {
	best := losses[0]
	for _, l := range losses[1:] {
		if l.ExpectedLoss < best.ExpectedLoss {
			best = l
			continue
		}
		if l.ExpectedLoss == best.ExpectedLoss && l.Action.tieBreakRank() < best.Action.tieBreakRank() {
			best = l
		}
	}
	return best.Action
}
