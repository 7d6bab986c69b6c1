package orchestrator

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/zerr"
)

var zeroTime time.Time

// claim attempts to take a document by moving it into this run's claim
// directory. The move is the lock: exactly one concurrent claimant observes
// success, every other sees the source vanish and walks away. On success the
// document is re-read from the claim directory and stamped with claim
// bookkeeping.
func (o *Orchestrator) claim(stage domain.Stage, name string, report *TickReport) (*domain.Document, bool) {
	src := filepath.Join(domain.StageDir(o.cfg.Root, stage), name)
	dst := o.claimPath(name)

	err := o.transition(domain.Event{
		Task:    name,
		From:    stage,
		To:      domain.StageInProgress,
		Actor:   domain.ActorOrchestrator,
		Kind:    domain.KindClaim,
		Outcome: domain.OutcomeOK,
		Run:     o.runID,
	}, src, dst)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) {
			// Lost the race to another actor. The follow-up event written by
			// transition keeps the audit log honest about the failed attempt.
			o.logger.Debug("lost claim race for " + name)
			return nil, false
		}
		o.logger.Error(err)
		report.Failures++
		return nil, false
	}

	doc, err := o.store.Read(dst)
	if err != nil && !errors.Is(err, domain.ErrCorruptHeader) {
		o.logger.Error(zerr.Wrap(err, "failed to read claimed document"))
		report.Failures++
		return nil, false
	}

	doc.Header.ClaimedBy = o.runID
	doc.Header.ClaimedAt = o.clock.Now().UTC()
	doc.Header.OriginStage = stage
	if err := o.store.Write(dst, doc); err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to stamp claim"))
		report.Failures++
		return nil, false
	}
	return doc, true
}

// sweepStaleClaims returns documents abandoned by crashed or wedged runs to
// a claimable stage. A claim is stale once its claimed_at stamp is older than
// the configured threshold; this run's own directory is never swept.
func (o *Orchestrator) sweepStaleClaims(report *TickReport) {
	inProgress := domain.StageDir(o.cfg.Root, domain.StageInProgress)
	runDirs, err := o.store.ListDirs(inProgress)
	if err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to list claim directories"))
		report.Failures++
		return
	}

	cutoff := o.clock.Now().UTC().Add(-o.cfg.StaleAfter)
	live := make(map[string]struct{})
	for _, runDir := range runDirs {
		if !strings.HasPrefix(runDir, runDirPrefix) || runDir == o.runID {
			continue
		}
		o.sweepRunDir(filepath.Join(inProgress, runDir), cutoff, live, report)
	}
	// Forget unstamped claims that got stamped, reclaimed or moved away.
	for path := range o.unstamped {
		if _, ok := live[path]; !ok {
			delete(o.unstamped, path)
		}
	}
}

func (o *Orchestrator) sweepRunDir(dir string, cutoff time.Time, live map[string]struct{}, report *TickReport) {
	names, err := o.store.List(dir)
	if err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to list claim directory"))
		report.Failures++
		return
	}

	for _, name := range names {
		path := filepath.Join(dir, name)
		doc, err := o.store.Read(path)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if !errors.Is(err, domain.ErrCorruptHeader) {
				o.logger.Error(err)
				report.Failures++
				continue
			}
			// Corrupt claims carry no usable stamp; they age out through
			// the unstamped path below.
		}
		if doc.Header.ClaimedAt.IsZero() {
			// A zero stamp is either a claim caught between its winning
			// move and the stamp write, or one abandoned before the stamp
			// landed. The stale window starts at first observation; a
			// zero stamp must never read as infinitely old, or the sweep
			// would steal a seconds-old claim from a live run.
			first, seen := o.unstamped[path]
			if !seen {
				o.unstamped[path] = o.clock.Now().UTC()
				live[path] = struct{}{}
				continue
			}
			if first.After(cutoff) {
				live[path] = struct{}{}
				continue
			}
			delete(o.unstamped, path)
		} else if doc.Header.ClaimedAt.After(cutoff) {
			continue
		}
		o.reclaim(path, name, doc, report)
	}
}

// reclaim moves one stale claim back to the stage it was taken from,
// defaulting to Needs_Action when the origin stamp is unusable.
func (o *Orchestrator) reclaim(path, name string, doc *domain.Document, report *TickReport) {
	origin := doc.Header.OriginStage
	if !origin.Claimable() {
		origin = domain.StageNeedsAction
	}
	stalledRun := doc.Header.ClaimedBy

	doc.Header.ClaimedBy = ""
	doc.Header.ClaimedAt = zeroTime
	doc.Header.OriginStage = ""
	if err := o.store.Write(path, doc); err != nil {
		o.logger.Error(zerr.Wrap(err, "failed to clear stale claim"))
		report.Failures++
		return
	}

	err := o.transition(domain.Event{
		Task:    name,
		From:    domain.StageInProgress,
		To:      origin,
		Actor:   domain.ActorOrchestrator,
		Kind:    domain.KindTransition,
		Outcome: domain.OutcomeOK,
		Run:     o.runID,
		Detail:  "reclaimed stale claim held by " + stalledRun,
	}, path, filepath.Join(domain.StageDir(o.cfg.Root, origin), name))
	if err != nil {
		o.logger.Error(err)
		report.Failures++
		return
	}
	report.Reclaimed++
}
