package app

import (
	"context"
	"errors"
	"os"

	"go.trai.ch/ward/internal/core/domain"
)

// Verify audits the vault against the layout and platform requirements
// without mutating anything. It returns one line per failed check; an empty
// slice means the vault is healthy.
func (a *App) Verify(_ context.Context) []string {
	var problems []string
	root := a.cfg.Root

	required := make([]string, 0, 12)
	for _, stage := range domain.Stages() {
		required = append(required, domain.StageDir(root, stage))
	}
	required = append(required,
		domain.AwaitingDir(root),
		domain.LogsDir(root),
		domain.PlansDir(root),
		domain.WatcherStateDir(root),
	)
	for _, w := range a.cfg.Watchers {
		required = append(required, w.DropFolder)
	}

	var stageDirs []string
	for _, dir := range required {
		info, err := os.Stat(dir)
		switch {
		case errors.Is(err, os.ErrNotExist):
			problems = append(problems, "missing directory: "+dir)
			continue
		case err != nil:
			problems = append(problems, "cannot stat "+dir+": "+err.Error())
			continue
		case !info.IsDir():
			problems = append(problems, "not a directory: "+dir)
			continue
		}
		stageDirs = append(stageDirs, dir)
	}

	// Atomic rename is the only concurrency primitive; it requires every
	// directory a document can move between to share one volume.
	if len(stageDirs) > 1 {
		if err := a.store.SameVolume(stageDirs...); err != nil {
			problems = append(problems, "volume check failed: "+err.Error())
		}
	}

	if _, err := os.Stat(domain.DashboardPath(root)); errors.Is(err, os.ErrNotExist) {
		problems = append(problems, "missing dashboard: "+domain.DashboardPath(root))
	}

	for _, path := range a.cfg.PolicyPaths {
		if _, err := os.Stat(path); err != nil {
			problems = append(problems, "policy document unavailable: "+path)
		}
	}

	if len(a.cfg.AgentCommand) == 0 {
		problems = append(problems, "no agent command configured")
	}
	return problems
}
