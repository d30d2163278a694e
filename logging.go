package duskline

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the structured logger the Host and the demo driver
// use for operational events (flow-control decisions, trace write
// failures, per-frame debug lines). verbose selects slog.LevelDebug over
// slog.LevelInfo; w defaults to os.Stderr when nil.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// logFlowControlDecision emits one structured log line per non-stable
// flow-control decision, so a host running in production can see when
// and why backpressure kicked in without needing a full render trace.
func logFlowControlDecision(logger *slog.Logger, d FlowControlDecision) {
	if d.Reason == ReasonStable {
		logger.Debug("flow control stable", "fairness", d.FairnessIndex)
		return
	}
	action := "none"
	if d.ChosenAction != nil {
		action = d.ChosenAction.String()
	}
	logger.Warn("flow control action",
		"action", action,
		"reason", d.Reason.String(),
		"fairness", d.FairnessIndex,
		"output_batch_budget_bytes", d.OutputBatchBudgetBytes,
		"pause_pty_reads", d.ShouldPausePtyReads,
	)
}
