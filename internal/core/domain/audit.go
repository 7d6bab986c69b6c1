package domain

import "time"

// Actor identifies who performed (or observed) a transition.
type Actor string

const (
	// ActorOrchestrator marks automated moves performed by a ward run.
	ActorOrchestrator Actor = "orchestrator"
	// ActorHuman marks moves physically performed by a person.
	ActorHuman Actor = "human"
	// ActorWatcher marks document creation by a watcher.
	ActorWatcher Actor = "watcher"
)

// EventKind classifies audit events.
type EventKind string

const (
	// KindTransition records a stage-to-stage move.
	KindTransition EventKind = "transition"
	// KindClaim records a successful claim of a document.
	KindClaim EventKind = "claim"
	// KindMaterialize records a watcher creating a new document.
	KindMaterialize EventKind = "materialize"
	// KindDuplicate records a re-delivered source item that was not materialized.
	KindDuplicate EventKind = "duplicate-detected"
	// KindAgentFailure records one failed agent invocation attempt.
	KindAgentFailure EventKind = "agent-failure"
	// KindEscalation records retry-budget exhaustion requiring human attention.
	KindEscalation EventKind = "escalation-needed"
	// KindPolicyViolation records a verdict naming an illegal transition.
	KindPolicyViolation EventKind = "policy-violation"
	// KindApprovalRequested records the creation of an approval request.
	KindApprovalRequested EventKind = "approval-requested"
	// KindApprovalObserved records a human decision noticed on a gated stage.
	KindApprovalObserved EventKind = "approval-observed"
)

// Outcome is the result of the attempt an event records.
type Outcome string

const (
	// OutcomeOK marks a successful attempt.
	OutcomeOK Outcome = "ok"
	// OutcomeFailed marks a failed attempt.
	OutcomeFailed Outcome = "failed"
)

// Event is one immutable audit record. Events are monotonic in timestamp per
// task and form a total order of that task's transitions.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Task      string    `json:"task"`
	From      Stage     `json:"from,omitempty"`
	To        Stage     `json:"to,omitempty"`
	Actor     Actor     `json:"actor"`
	Kind      EventKind `json:"kind"`
	Outcome   Outcome   `json:"outcome"`
	Run       string    `json:"run,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
