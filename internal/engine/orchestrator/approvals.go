package orchestrator

import (
	"errors"
	"path/filepath"

	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/zerr"
)

// approvalPrefix names request documents so they sort apart from tasks and a
// human can spot them at a glance.
const approvalPrefix = "APPROVAL_"

// requestApproval handles a verdict that routes a task toward the gated
// stage. The task itself never enters Pending_Approval: a request document is
// written there for the human to move, and the task parks under
// In_Progress/awaiting until the decision is observed.
func (o *Orchestrator) requestApproval(name string, doc *domain.Document, verdict domain.Verdict, report *TickReport) {
	proposed := verdict.ProposedStage()
	if !domain.StageInProgress.Legal(proposed) || proposed.Gated() {
		o.logger.Warn("approval request for " + name + " proposed illegal stage " + string(proposed) + ", using Done")
		proposed = domain.StageDone
	}

	o.appendBestEffort(domain.Event{
		Task:    name,
		From:    domain.StageInProgress,
		To:      domain.StagePendingApproval,
		Actor:   domain.ActorOrchestrator,
		Kind:    domain.KindApprovalRequested,
		Outcome: domain.OutcomeOK,
		Run:     o.runID,
		Detail:  "proposed stage " + string(proposed),
	})

	request := &domain.Document{
		Header: domain.Header{
			Type:          domain.DocTypeApprovalRequest,
			Created:       o.clock.Now().UTC(),
			Status:        domain.StatusPending,
			Task:          name,
			ProposedStage: proposed,
			Note:          verdict.Note,
		},
		Body: approvalBody(name, proposed, verdict),
	}
	requestPath := filepath.Join(domain.StageDir(o.cfg.Root, domain.StagePendingApproval), approvalPrefix+name)
	if err := o.store.Write(requestPath, request); err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to write approval request"))
		report.Failures++
		return
	}

	doc.Header.Status = domain.StatusPending
	doc.Header.ProposedStage = proposed
	doc.Header.Note = verdict.Note
	if err := o.store.Write(o.claimPath(name), doc); err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to update task before parking"))
		report.Failures++
		return
	}
	if err := o.store.Move(o.claimPath(name), filepath.Join(domain.AwaitingDir(o.cfg.Root), name)); err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to park task for approval"))
		report.Failures++
		return
	}
	report.ApprovalsRequested++
}

func approvalBody(name string, proposed domain.Stage, verdict domain.Verdict) string {
	body := "# Approval required\n\n" +
		"Task `" + name + "` wants to proceed to `" + string(proposed) + "`.\n\n"
	if verdict.Note != "" {
		body += verdict.Note + "\n\n"
	}
	body += "Move this document to `Approved/` to allow the transition, or to\n" +
		"`Rejected/` to stop the task.\n"
	return body
}

// completeApprovals observes human decisions: request documents that a person
// moved out of Pending_Approval into Approved or Rejected. The human's move
// is recorded first, then the parked task is played forward.
func (o *Orchestrator) completeApprovals(report *TickReport) {
	o.completeApproved(report)
	o.completeRejected(report)
}

func (o *Orchestrator) completeApproved(report *TickReport) {
	dir := domain.StageDir(o.cfg.Root, domain.StageApproved)
	names, err := o.store.List(dir)
	if err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to list approved requests"))
		report.Failures++
		return
	}

	for _, name := range names {
		path := filepath.Join(dir, name)
		request, ok := o.readRequest(path, report)
		if !ok {
			continue
		}

		// A request already marked approved had its decision recorded by
		// an earlier tick that failed to retire it; only the retirement
		// is retried, the observation is never re-appended.
		if request.Header.Status == domain.StatusPending {
			o.appendBestEffort(domain.Event{
				Task:    request.Header.Task,
				From:    domain.StagePendingApproval,
				To:      domain.StageApproved,
				Actor:   domain.ActorHuman,
				Kind:    domain.KindApprovalObserved,
				Outcome: domain.OutcomeOK,
				Detail:  "request " + name,
			})

			target := request.Header.ProposedStage
			if !domain.StageInProgress.Legal(target) || target.Gated() {
				target = domain.StageDone
			}
			if !o.releaseParkedTask(request.Header.Task, target, domain.StatusApproved, report) {
				continue
			}

			// Mark processed so the next tick does not observe it again.
			request.Header.Status = domain.StatusApproved
			if err := o.store.Write(path, request); err != nil {
				o.logger.Error(zerr.Wrap(err, "failed to update approval request"))
				report.Failures++
				continue
			}
		}

		err := o.transition(domain.Event{
			Task:    request.Header.Task,
			From:    domain.StageApproved,
			To:      domain.StageDone,
			Actor:   domain.ActorOrchestrator,
			Kind:    domain.KindTransition,
			Outcome: domain.OutcomeOK,
			Run:     o.runID,
			Detail:  "retired request " + name,
		}, path, filepath.Join(domain.StageDir(o.cfg.Root, domain.StageDone), name))
		if err != nil {
			o.logger.Error(err)
			report.Failures++
			continue
		}
		report.ApprovalsCompleted++
	}
}

func (o *Orchestrator) completeRejected(report *TickReport) {
	dir := domain.StageDir(o.cfg.Root, domain.StageRejected)
	names, err := o.store.List(dir)
	if err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to list rejected requests"))
		report.Failures++
		return
	}

	for _, name := range names {
		path := filepath.Join(dir, name)
		request, ok := o.readRequest(path, report)
		if !ok {
			continue
		}
		// Already processed in an earlier tick.
		if request.Header.Status != domain.StatusPending {
			continue
		}

		o.appendBestEffort(domain.Event{
			Task:    request.Header.Task,
			From:    domain.StagePendingApproval,
			To:      domain.StageRejected,
			Actor:   domain.ActorHuman,
			Kind:    domain.KindApprovalObserved,
			Outcome: domain.OutcomeOK,
			Detail:  "request " + name,
		})

		if !o.releaseParkedTask(request.Header.Task, domain.StageRejected, domain.StatusRejected, report) {
			continue
		}

		request.Header.Status = domain.StatusRejected
		if err := o.store.Write(path, request); err != nil {
			o.logger.Error(zerr.Wrap(err, "failed to update rejected request"))
			report.Failures++
			continue
		}
		report.ApprovalsCompleted++
	}
}

// readRequest loads a document and reports whether it is a pending approval
// request. Stage directories holding decisions also hold ordinary terminal
// tasks; those are silently left alone.
func (o *Orchestrator) readRequest(path string, report *TickReport) (*domain.Document, bool) {
	doc, err := o.store.Read(path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false
		}
		if errors.Is(err, domain.ErrCorruptHeader) {
			o.logger.Warn("skipping document with corrupt header: " + path)
			report.Skipped++
			return nil, false
		}
		o.logger.Error(err)
		report.Failures++
		return nil, false
	}
	if doc.Header.Type != domain.DocTypeApprovalRequest {
		return nil, false
	}
	return doc, true
}

// releaseParkedTask completes a human decision by moving the task parked
// under In_Progress/awaiting to its decided stage. A missing parked task is
// tolerated: the human may have moved it by hand.
func (o *Orchestrator) releaseParkedTask(taskName string, target domain.Stage, status string, report *TickReport) bool {
	parked := filepath.Join(domain.AwaitingDir(o.cfg.Root), taskName)
	doc, err := o.store.Read(parked)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			o.logger.Warn("parked task missing for decided request: " + taskName)
			return true
		}
		if !errors.Is(err, domain.ErrCorruptHeader) {
			o.logger.Error(err)
			report.Failures++
			return false
		}
	}

	doc.Header.ClaimedBy = ""
	doc.Header.ClaimedAt = zeroTime
	doc.Header.OriginStage = ""
	doc.Header.Status = status
	if err := o.store.Write(parked, doc); err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to update parked task"))
		report.Failures++
		return false
	}

	err = o.transition(domain.Event{
		Task:    taskName,
		From:    domain.StageInProgress,
		To:      target,
		Actor:   domain.ActorOrchestrator,
		Kind:    domain.KindTransition,
		Outcome: domain.OutcomeOK,
		Run:     o.runID,
		Detail:  "human decision: " + status,
	}, parked, filepath.Join(domain.StageDir(o.cfg.Root, target), taskName))
	if err != nil {
		o.logger.Error(err)
		report.Failures++
		return false
	}
	return true
}
