// Package dashboard derives the human-facing vault summary. The dashboard is
// a pure projection of the directory tree and the audit log; it is rewritten
// wholesale and never read back.
package dashboard

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
	"go.trai.ch/zerr"
)

// Snapshot is the raw material of one dashboard rendering.
type Snapshot struct {
	Now            time.Time
	StageCounts    map[domain.Stage]int
	InFlight       int
	AwaitingHuman  int
	CompletedToday int
	Recent         []domain.Event
}

// Dashboard renders and publishes the vault summary document.
type Dashboard struct {
	cfg    *domain.Config
	store  ports.DocumentStore
	audit  ports.AuditLog
	logger ports.Logger
	clock  clockwork.Clock
}

// New creates a dashboard bound to one vault.
func New(cfg *domain.Config, store ports.DocumentStore, auditLog ports.AuditLog, logger ports.Logger, clock clockwork.Clock) *Dashboard {
	return &Dashboard{cfg: cfg, store: store, audit: auditLog, logger: logger, clock: clock}
}

// Collect takes a fresh snapshot of stage populations and recent activity.
func (d *Dashboard) Collect() (*Snapshot, error) {
	now := d.clock.Now().UTC()
	snap := &Snapshot{
		Now:         now,
		StageCounts: make(map[domain.Stage]int, len(domain.Stages())),
	}

	for _, stage := range domain.Stages() {
		names, err := d.store.List(domain.StageDir(d.cfg.Root, stage))
		if err != nil {
			return nil, zerr.Wrap(err, "failed to count stage")
		}
		snap.StageCounts[stage] = len(names)
	}

	// Claimed and parked documents live in subdirectories, invisible to the
	// top-level stage count.
	inProgress := domain.StageDir(d.cfg.Root, domain.StageInProgress)
	runDirs, err := d.store.ListDirs(inProgress)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to list claim directories")
	}
	for _, dir := range runDirs {
		names, err := d.store.List(filepath.Join(inProgress, dir))
		if err != nil {
			d.logger.Warn("failed to count claim directory: " + dir)
			continue
		}
		if dir == domain.AwaitingDirName {
			snap.AwaitingHuman = len(names)
		} else {
			snap.InFlight += len(names)
		}
	}
	snap.StageCounts[domain.StageInProgress] += snap.InFlight + snap.AwaitingHuman

	events, err := d.audit.Tail(d.cfg.DashboardTail)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read audit tail")
	}
	snap.Recent = events

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, ev := range events {
		if ev.Kind == domain.KindTransition && ev.To == domain.StageDone &&
			ev.Outcome == domain.OutcomeOK && !ev.Timestamp.Before(dayStart) {
			snap.CompletedToday++
		}
	}
	return snap, nil
}

// Refresh collects a snapshot and atomically rewrites Dashboard.md.
func (d *Dashboard) Refresh() error {
	snap, err := d.Collect()
	if err != nil {
		return err
	}
	return d.Publish(snap)
}

// Publish atomically rewrites Dashboard.md from the given snapshot, so a
// caller that also renders the snapshot writes exactly what it returned.
func (d *Dashboard) Publish(snap *Snapshot) error {
	doc := &domain.Document{
		Header: domain.Header{
			Type:    "dashboard",
			Created: snap.Now,
			Source:  "ward",
		},
		Body: Render(snap),
	}
	return d.store.Write(domain.DashboardPath(d.cfg.Root), doc)
}

// Render produces the dashboard body from a snapshot. It is a pure function
// of its input so it can be tested without a vault.
func Render(snap *Snapshot) string {
	var b strings.Builder

	b.WriteString("# Vault Dashboard\n\n")
	fmt.Fprintf(&b, "Last updated: %s\n\n", snap.Now.Format(time.RFC3339))

	b.WriteString("## Pipeline\n\n")
	b.WriteString("| Stage | Documents |\n")
	b.WriteString("|-------|-----------|\n")
	for _, stage := range domain.Stages() {
		fmt.Fprintf(&b, "| %s | %d |\n", stage, snap.StageCounts[stage])
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "- In flight (claimed): %d\n", snap.InFlight)
	fmt.Fprintf(&b, "- Awaiting human approval: %d\n", snap.AwaitingHuman)
	fmt.Fprintf(&b, "- Completed today: %d\n\n", snap.CompletedToday)

	b.WriteString("## Recent activity\n\n")
	if len(snap.Recent) == 0 {
		b.WriteString("No recorded activity.\n")
	} else {
		// Newest first for reading; Tail returns oldest first.
		for i := len(snap.Recent) - 1; i >= 0; i-- {
			ev := snap.Recent[i]
			fmt.Fprintf(&b, "- %s `%s` %s", ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Task, ev.Kind)
			if ev.From != "" || ev.To != "" {
				fmt.Fprintf(&b, " (%s -> %s)", ev.From, ev.To)
			}
			if ev.Outcome == domain.OutcomeFailed {
				b.WriteString(" FAILED")
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n## Status\n\n")
	b.WriteString(statusLine(snap))
	b.WriteString("\n")
	return b.String()
}

func statusLine(snap *Snapshot) string {
	switch {
	case snap.AwaitingHuman > 0 || snap.StageCounts[domain.StagePendingApproval] > 0:
		return "Attention: approval decisions pending."
	case snap.InFlight > 0:
		return "Processing."
	default:
		return "Idle."
	}
}
