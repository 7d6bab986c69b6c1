package domain

import "time"

// DuplicatePolicy controls what a watcher does when a source item it already
// materialized is delivered again.
type DuplicatePolicy string

const (
	// DuplicateSkip silently ignores re-delivered items.
	DuplicateSkip DuplicatePolicy = "skip"
	// DuplicateFlag skips materialization but records a duplicate-detected
	// audit event.
	DuplicateFlag DuplicatePolicy = "flag"
)

// WatcherConfig configures one drop-folder watcher.
type WatcherConfig struct {
	Name            string
	DropFolder      string
	DuplicatePolicy DuplicatePolicy
}

// Config is the validated runtime configuration of a ward vault.
type Config struct {
	// Root is the absolute path of the vault root directory.
	Root string

	// Interval is the wall-clock period of the watcher and orchestrator loops.
	Interval time.Duration

	// StaleAfter is the age past which another run's claim is reclaimable.
	StaleAfter time.Duration

	// AgentCommand is the external reasoning agent invocation (argv form).
	AgentCommand []string

	// AgentTimeout bounds one agent invocation.
	AgentTimeout time.Duration

	// RetryBudget is the number of agent attempts per claimed document
	// before escalation.
	RetryBudget int

	// RetryBackoff is the constant delay between agent attempts.
	RetryBackoff time.Duration

	// PolicyPaths are the policy documents handed to the agent as context.
	PolicyPaths []string

	// Watchers lists the configured source watchers.
	Watchers []WatcherConfig

	// DashboardTail is how many recent audit events the dashboard shows.
	DashboardTail int
}
