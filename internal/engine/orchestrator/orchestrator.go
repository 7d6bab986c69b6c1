// Package orchestrator implements the per-tick state machine: it reclaims
// stale work, completes human approval decisions, then claims eligible
// documents, invokes the reasoning agent and advances documents through the
// pipeline via atomic moves. All coordination with concurrent runs, watchers
// and humans happens through the document store; nothing is held in memory
// across ticks.
package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sethvargo/go-retry"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
	"go.trai.ch/zerr"
)

// runDirPrefix distinguishes per-run claim directories from the shared
// awaiting directory under In_Progress.
const runDirPrefix = "run-"

// Orchestrator advances documents through the pipeline, one tick at a time.
type Orchestrator struct {
	cfg    *domain.Config
	store  ports.DocumentStore
	agent  ports.Agent
	audit  ports.AuditLog
	logger ports.Logger
	clock  clockwork.Clock
	runID  string

	// unstamped tracks when this run first observed a foreign claim whose
	// claimed_at stamp has not landed yet, keyed by path.
	unstamped map[string]time.Time
}

// New creates an orchestrator with a fresh run identity.
func New(
	cfg *domain.Config,
	store ports.DocumentStore,
	agent ports.Agent,
	auditLog ports.AuditLog,
	logger ports.Logger,
	clock clockwork.Clock,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		agent:     agent,
		audit:     auditLog,
		logger:    logger,
		clock:     clock,
		runID:     runDirPrefix + uuid.NewString()[:8],
		unstamped: make(map[string]time.Time),
	}
}

// RunID returns this run's claim identity.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Tick executes one full processing cycle: reclaim stale work, complete
// human approval decisions, then claim and process new work. Directory
// listings are taken fresh inside each step; a tick trusts nothing observed
// by an earlier one.
func (o *Orchestrator) Tick(ctx context.Context) (*TickReport, error) {
	report := &TickReport{}

	if err := o.store.EnsureLayout(o.cfg.Root); err != nil {
		return report, err
	}
	if err := o.store.EnsureDir(domain.RunDir(o.cfg.Root, o.runID)); err != nil {
		return report, err
	}

	o.sweepStaleClaims(report)
	o.completeApprovals(report)

	policy := o.loadPolicy()
	for _, stage := range domain.Stages() {
		if !stage.Claimable() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		o.processStage(ctx, stage, policy, report)
	}
	return report, nil
}

// processStage claims and processes every eligible document in one stage, in
// the stable lexicographic order of a fresh listing.
func (o *Orchestrator) processStage(ctx context.Context, stage domain.Stage, policy string, report *TickReport) {
	dir := domain.StageDir(o.cfg.Root, stage)
	names, err := o.store.List(dir)
	if err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to list stage"))
		report.Failures++
		return
	}

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		if !o.eligible(filepath.Join(dir, name), report) {
			continue
		}
		doc, ok := o.claim(stage, name, report)
		if !ok {
			continue
		}
		report.Claimed++
		o.processClaimed(ctx, stage, name, doc, policy, report)
	}
}

// eligible filters a candidate before the claim attempt. Documents with a
// corrupt header are never claimed, only logged; documents already marked as
// needing escalation wait for a human and are skipped.
func (o *Orchestrator) eligible(path string, report *TickReport) bool {
	doc, err := o.store.Read(path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Another actor moved it between listing and read.
			return false
		}
		if errors.Is(err, domain.ErrCorruptHeader) {
			o.logger.Warn("skipping document with corrupt header: " + path)
			report.Skipped++
			return false
		}
		o.logger.Error(err)
		report.Failures++
		return false
	}
	if doc.Header.Status == domain.StatusEscalation {
		report.Skipped++
		return false
	}
	return true
}

// processClaimed runs the agent for one claimed document and applies its
// verdict. The claim is retained across agent retries; budget exhaustion
// returns the document to its pre-claim stage annotated for escalation.
func (o *Orchestrator) processClaimed(
	ctx context.Context,
	origin domain.Stage,
	name string,
	doc *domain.Document,
	policy string,
	report *TickReport,
) {
	verdict, err := o.decide(ctx, name, doc, policy)
	if err != nil {
		o.escalate(origin, name, doc, err, report)
		return
	}

	switch {
	case verdict.Stage.Gated():
		o.requestApproval(name, doc, verdict, report)
	case !domain.StageInProgress.Legal(verdict.Stage):
		o.revert(origin, name, doc, verdict, report)
	default:
		o.advance(origin, name, doc, verdict, report)
	}
}

// decide invokes the agent with bounded retries. Every failed attempt is
// recorded in the audit log; the returned error is the final attempt's.
func (o *Orchestrator) decide(ctx context.Context, name string, doc *domain.Document, policy string) (domain.Verdict, error) {
	var verdict domain.Verdict

	attempts := uint64(0)
	if o.cfg.RetryBudget > 1 {
		attempts = uint64(o.cfg.RetryBudget - 1)
	}
	backoff := retry.WithMaxRetries(attempts, retry.NewConstant(o.cfg.RetryBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := o.agent.Decide(ctx, ports.AgentRequest{
			TaskName: name,
			Task:     doc,
			Policy:   policy,
		})
		if err != nil {
			o.appendBestEffort(domain.Event{
				Task:    name,
				Actor:   domain.ActorOrchestrator,
				Kind:    domain.KindAgentFailure,
				Outcome: domain.OutcomeFailed,
				Run:     o.runID,
				Detail:  err.Error(),
			})
			return retry.RetryableError(err)
		}
		verdict = v
		return nil
	})
	if err != nil {
		return domain.Verdict{}, err
	}
	return verdict, nil
}

// advance clears the claim bookkeeping, records the decision as a plan
// document and moves the task to the verdict's destination stage.
func (o *Orchestrator) advance(origin domain.Stage, name string, doc *domain.Document, verdict domain.Verdict, report *TickReport) {
	doc.Header.ClaimedBy = ""
	doc.Header.ClaimedAt = zeroTime
	doc.Header.OriginStage = ""
	doc.Header.Note = verdict.Note
	if err := o.store.Write(o.claimPath(name), doc); err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to update task before move"))
		report.Failures++
		return
	}

	o.writePlan(name, origin, verdict)

	err := o.transition(domain.Event{
		Task:    name,
		From:    domain.StageInProgress,
		To:      verdict.Stage,
		Actor:   domain.ActorOrchestrator,
		Kind:    domain.KindTransition,
		Outcome: domain.OutcomeOK,
		Run:     o.runID,
		Detail:  verdict.Note,
	}, o.claimPath(name), filepath.Join(domain.StageDir(o.cfg.Root, verdict.Stage), name))
	if err != nil {
		o.logger.Error(err)
		report.Failures++
		return
	}
	report.Advanced++
}

// revert returns a claimed task to its pre-claim stage because the agent's
// verdict named a transition the pipeline table forbids. The verdict is
// recorded, never obeyed.
func (o *Orchestrator) revert(origin domain.Stage, name string, doc *domain.Document, verdict domain.Verdict, report *TickReport) {
	violation := zerr.With(domain.ErrPolicyViolation, "verdict_stage", string(verdict.Stage))
	o.logger.Error(violation)

	doc.Header.ClaimedBy = ""
	doc.Header.ClaimedAt = zeroTime
	doc.Header.OriginStage = ""
	doc.Header.Error = violation.Error()
	if err := o.store.Write(o.claimPath(name), doc); err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to update task before revert"))
		report.Failures++
		return
	}

	err := o.transition(domain.Event{
		Task:    name,
		From:    domain.StageInProgress,
		To:      origin,
		Actor:   domain.ActorOrchestrator,
		Kind:    domain.KindPolicyViolation,
		Outcome: domain.OutcomeOK,
		Run:     o.runID,
		Detail:  "verdict named illegal stage " + string(verdict.Stage),
	}, o.claimPath(name), filepath.Join(domain.StageDir(o.cfg.Root, origin), name))
	if err != nil {
		o.logger.Error(err)
		report.Failures++
		return
	}
	report.Reverted++
}

// escalate returns a task whose retry budget is exhausted to its pre-claim
// stage, annotated so it is skipped until a human intervenes.
func (o *Orchestrator) escalate(origin domain.Stage, name string, doc *domain.Document, cause error, report *TickReport) {
	doc.Header.ClaimedBy = ""
	doc.Header.ClaimedAt = zeroTime
	doc.Header.OriginStage = ""
	doc.Header.Status = domain.StatusEscalation
	doc.Header.Retries = o.cfg.RetryBudget
	doc.Header.Error = cause.Error()
	if err := o.store.Write(o.claimPath(name), doc); err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to annotate task for escalation"))
		report.Failures++
		return
	}

	err := o.transition(domain.Event{
		Task:    name,
		From:    domain.StageInProgress,
		To:      origin,
		Actor:   domain.ActorOrchestrator,
		Kind:    domain.KindEscalation,
		Outcome: domain.OutcomeOK,
		Run:     o.runID,
		Detail:  cause.Error(),
	}, o.claimPath(name), filepath.Join(domain.StageDir(o.cfg.Root, origin), name))
	if err != nil {
		o.logger.Error(err)
		report.Failures++
		return
	}
	report.Escalated++
}

// transition performs one audited move. The event is durably appended before
// the move; if the append fails the move is not attempted, because an
// unrecorded transition is worse than a delayed one. A move that fails after
// a successful append gets a best-effort failed follow-up event so the log
// never silently overstates what happened.
func (o *Orchestrator) transition(event domain.Event, src, dst string) error {
	event.Timestamp = o.clock.Now().UTC()
	if err := o.audit.Append(event); err != nil {
		return err
	}
	if err := o.store.Move(src, dst); err != nil {
		event.Outcome = domain.OutcomeFailed
		event.Detail = err.Error()
		event.Timestamp = o.clock.Now().UTC()
		o.appendBestEffort(event)
		return err
	}
	return nil
}

// appendBestEffort records an event that must not abort the operation in
// flight. An append failure here is logged and swallowed.
func (o *Orchestrator) appendBestEffort(event domain.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = o.clock.Now().UTC()
	}
	if err := o.audit.Append(event); err != nil {
		o.logger.Error(err)
	}
}

// writePlan records the agent's decision as a plan document. Plans are
// advisory; a write failure is logged but never blocks the transition.
func (o *Orchestrator) writePlan(name string, origin domain.Stage, verdict domain.Verdict) {
	plan := &domain.Document{
		Header: domain.Header{
			Type:          "plan",
			Created:       o.clock.Now().UTC(),
			Task:          name,
			ProposedStage: verdict.Stage,
			Note:          verdict.Note,
		},
		Body: planBody(origin, verdict),
	}
	path := filepath.Join(domain.PlansDir(o.cfg.Root), "PLAN_"+name)
	if err := o.store.Write(path, plan); err != nil {
		o.logger.Warn("failed to write plan document: " + err.Error())
	}
}

func planBody(origin domain.Stage, verdict domain.Verdict) string {
	var b strings.Builder
	b.WriteString("# Plan\n\n")
	b.WriteString("- from: " + string(origin) + "\n")
	b.WriteString("- to: " + string(verdict.Stage) + "\n")
	if verdict.Note != "" {
		b.WriteString("- note: " + verdict.Note + "\n")
	}
	for k, v := range verdict.Params {
		b.WriteString("- " + k + ": " + v + "\n")
	}
	return b.String()
}

// loadPolicy concatenates the configured policy documents. Missing policy
// files are tolerated with a warning so a half-provisioned vault still runs.
func (o *Orchestrator) loadPolicy() string {
	var b strings.Builder
	for _, path := range o.cfg.PolicyPaths {
		content, err := os.ReadFile(path) //nolint:gosec // policy paths come from validated config
		if err != nil {
			o.logger.Warn("policy document unavailable: " + path)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.Write(content)
	}
	return b.String()
}

func (o *Orchestrator) claimPath(name string) string {
	return filepath.Join(domain.RunDir(o.cfg.Root, o.runID), name)
}
