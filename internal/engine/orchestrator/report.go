package orchestrator

import "fmt"

// TickReport summarizes one processing cycle.
type TickReport struct {
	// Claimed counts documents successfully moved into this run's claim
	// directory.
	Claimed int
	// Advanced counts tasks moved to the stage the agent decided.
	Advanced int
	// Escalated counts tasks returned to their origin after retry exhaustion.
	Escalated int
	// Reverted counts tasks returned to their origin after an illegal verdict.
	Reverted int
	// ApprovalsRequested counts gated verdicts turned into request documents.
	ApprovalsRequested int
	// ApprovalsCompleted counts human decisions played forward.
	ApprovalsCompleted int
	// Reclaimed counts stale claims swept back to a claimable stage.
	Reclaimed int
	// Skipped counts documents left untouched (corrupt headers, escalations
	// awaiting a human).
	Skipped int
	// Failures counts operations that errored in ways a later tick must retry.
	Failures int
}

// Fatal reports whether the tick hit errors that should fail a one-shot
// invocation. Lost claim races and skipped documents are not failures.
func (r *TickReport) Fatal() bool {
	return r.Failures > 0
}

// Summary renders the report as a single log-friendly line.
func (r *TickReport) Summary() string {
	return fmt.Sprintf(
		"claimed=%d advanced=%d escalated=%d reverted=%d approvals_requested=%d approvals_completed=%d reclaimed=%d skipped=%d failures=%d",
		r.Claimed, r.Advanced, r.Escalated, r.Reverted,
		r.ApprovalsRequested, r.ApprovalsCompleted,
		r.Reclaimed, r.Skipped, r.Failures,
	)
}
