package domain

// Stage is a named directory whose membership defines a task's position in
// the pipeline. The directory is the authoritative record of stage: there is
// no separate status field that can disagree with it.
type Stage string

const (
	// StageInbox holds freshly materialized documents awaiting triage.
	StageInbox Stage = "Inbox"
	// StageNeedsAction holds documents ready to be claimed and processed.
	StageNeedsAction Stage = "Needs_Action"
	// StageInProgress holds documents claimed by an orchestrator run.
	StageInProgress Stage = "In_Progress"
	// StagePendingApproval holds approval requests awaiting a human decision.
	StagePendingApproval Stage = "Pending_Approval"
	// StageApproved holds approval requests a human has approved.
	StageApproved Stage = "Approved"
	// StageRejected holds rejected requests and their underlying tasks.
	StageRejected Stage = "Rejected"
	// StageDone holds terminally completed tasks.
	StageDone Stage = "Done"
)

// Stages lists every pipeline stage in processing order.
func Stages() []Stage {
	return []Stage{
		StageInbox,
		StageNeedsAction,
		StageInProgress,
		StagePendingApproval,
		StageApproved,
		StageRejected,
		StageDone,
	}
}

// rule describes the transitions legal from one stage.
type rule struct {
	destinations []Stage
	// humanOnly marks stages whose outgoing moves may only be performed by a
	// human actor. The orchestrator observes those moves, it never makes them.
	humanOnly bool
}

// pipeline is the static transition table. An attempted transition not listed
// here is a programming error, fatal for the document and never retried.
var pipeline = map[Stage]rule{
	StageInbox:       {destinations: []Stage{StageNeedsAction, StageInProgress}},
	StageNeedsAction: {destinations: []Stage{StageInProgress}},
	StageInProgress: {destinations: []Stage{
		StageNeedsAction, // claim released or escalated back to origin
		StageInbox,       // claim released back to origin
		StagePendingApproval,
		StageRejected,
		StageDone,
	}},
	StagePendingApproval: {destinations: []Stage{StageApproved, StageRejected}, humanOnly: true},
	StageApproved:        {destinations: []Stage{StageDone, StageRejected}},
	StageRejected:        {},
	StageDone:            {},
}

// Known reports whether s names a pipeline stage.
func (s Stage) Known() bool {
	_, ok := pipeline[s]
	return ok
}

// Terminal reports whether s has no outgoing transitions.
func (s Stage) Terminal() bool {
	r, ok := pipeline[s]
	return ok && len(r.destinations) == 0
}

// HumanOnly reports whether moves out of s may only be performed by a human.
func (s Stage) HumanOnly() bool {
	return pipeline[s].humanOnly
}

// Legal reports whether the transition from s to dst appears in the table.
func (s Stage) Legal(dst Stage) bool {
	for _, d := range pipeline[s].destinations {
		if d == dst {
			return true
		}
	}
	return false
}

// Claimable reports whether the orchestrator lists s for claiming new work.
func (s Stage) Claimable() bool {
	return s == StageInbox || s == StageNeedsAction
}

// Gated reports whether routing a task toward s requires the approval flow:
// the orchestrator writes an approval request instead of moving the task, and
// only a human move completes the transition.
func (s Stage) Gated() bool {
	return s == StagePendingApproval
}
