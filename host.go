package duskline

import (
	"io"
	"log/slog"
	"time"
)

// HostOptions configures a Host.
type HostOptions struct {
	Width, Height int
	Output        io.Writer
	Capabilities  Capabilities
	DiffConfig    DiffConfig
	FlowControl   FlowControlConfig
	Trace         *RenderTraceRecorder // nil disables tracing
	Logger        *slog.Logger
}

// Host is the orchestrator tying the cell/grid model, diff engine,
// presenter, flow-control policy, and render-trace recorder together
// into a single per-frame call. It holds the double grid buffer and all
// cached presenter/pool/link state; the caller supplies only the next
// frame's content by writing into the buffer returned by NextGrid.
type Host struct {
	width, height int
	current       *Grid
	next          *Grid
	presenter     *Presenter
	pool          *Pool
	links         *LinkRegistry
	diffCfg       DiffConfig
	flowPolicy    FlowControlPolicy
	trace         *RenderTraceRecorder
	logger        *slog.Logger

	isFirstFrame bool
	frameSeq     uint64
}

// NewHost creates a Host. The caller is responsible for writing a
// RenderTrace header via opts.Trace.WriteHeader before the first Frame
// call, if tracing is enabled.
func NewHost(opts HostOptions) *Host {
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(nil, false)
	}
	return &Host{
		width:        opts.Width,
		height:       opts.Height,
		current:      NewGrid(opts.Width, opts.Height),
		next:         NewGrid(opts.Width, opts.Height),
		presenter:    NewPresenter(opts.Output, opts.Capabilities),
		pool:         NewPool(),
		links:        NewLinkRegistry(),
		diffCfg:      opts.DiffConfig,
		flowPolicy:   NewFlowControlPolicy(opts.FlowControl),
		trace:        opts.Trace,
		logger:       logger,
		isFirstFrame: true,
	}
}

// NextGrid returns the buffer the caller should paint the next frame
// into. Its contents from the previous call are not preserved across
// Frame: every call starts from Frame's internal swap, which leaves
// NextGrid pointing at whatever was "current" before that call.
func (h *Host) NextGrid() *Grid { return h.next }

// Pool returns the grapheme pool the caller should intern multi-rune
// clusters into before referencing them from cells written to NextGrid.
func (h *Host) Pool() *Pool { return h.pool }

// Links returns the hyperlink registry the caller should register URLs
// into before referencing them from cells written to NextGrid.
func (h *Host) Links() *LinkRegistry { return h.links }

// FrameResult reports one Frame call's outcome: the Presenter stats, the
// flow-control decision that gated output this tick, and the diff runs
// computed (useful for a caller's own metrics or a trace recorded
// outside the Host).
type FrameResult struct {
	Presenter PresenterStats
	Decision  FlowControlDecision
	Runs      []ChangeRun
}

// Frame diffs NextGrid against the previously presented frame, consults
// the flow-control policy with snapshot, and -- unless the policy
// decided to drop this frame outright -- presents the result and
// advances the internal double buffer. snapshot should reflect queue
// depths and rates measured by the caller's I/O layer; Host does not
// measure them itself.
func (h *Host) Frame(snapshot FlowControlSnapshot) (FrameResult, error) {
	frameStart := time.Now()
	decision := h.flowPolicy.Evaluate(snapshot)
	logFlowControlDecision(h.logger, decision)

	if decision.ChosenAction != nil && *decision.ChosenAction == TerminateSession {
		return FrameResult{Decision: decision}, newPipelineError(ErrInvariantViolation, "Host.Frame", nil)
	}

	var runs []ChangeRun
	if h.isFirstFrame {
		full := NewGrid(h.width, h.height)
		runs = Diff(full, h.next, h.diffCfg)
		h.isFirstFrame = false
	} else {
		runs = Diff(h.current, h.next, h.diffCfg)
	}

	if decision.ChosenAction != nil && *decision.ChosenAction == DropNonInteractive {
		return FrameResult{Decision: decision, Runs: runs}, nil
	}

	stats, err := h.presenter.Present(h.next, runs, h.pool, h.links)
	if err != nil {
		return FrameResult{Decision: decision, Runs: runs}, newPipelineError(ErrIO, "Host.Frame", err)
	}

	if h.trace != nil {
		h.frameSeq++
		renderUs := u64ptr(uint64(time.Since(frameStart).Microseconds()))
		diffStrategy := "dirty-spans"
		if h.diffCfg.DirtyRows {
			diffStrategy = "dirty-rows"
		}
		ann := FrameAnnotation{
			Mode:         "stream",
			DiffStrategy: diffStrategy,
			RenderUs:     renderUs,
		}
		var traceErr error
		if h.frameSeq == 1 {
			traceErr = h.trace.WriteFullBufferFrame(h.next, h.pool, stats, ann)
		} else {
			traceErr = h.trace.WriteDiffFrame(h.next, runs, h.pool, stats, ann)
		}
		if traceErr != nil {
			h.logger.Error("render trace write failed", "err", traceErr)
		}
	}

	h.current, h.next = h.next, h.current
	return FrameResult{Presenter: stats, Decision: decision, Runs: runs}, nil
}

// Resize changes both grids' dimensions and resets the presenter's
// cached state, forcing a full repaint on the next Frame call.
func (h *Host) Resize(width, height int) {
	h.width, h.height = width, height
	h.current.Resize(width, height)
	h.next.Resize(width, height)
	h.presenter.Reset()
	h.isFirstFrame = true
}

func u64ptr(v uint64) *uint64 { return &v }
