package domain

import "path/filepath"

const (
	// ConfigFileName is the name of the vault configuration file.
	ConfigFileName = "ward.yaml"

	// LogsDirName is the directory holding audit logs and watcher state.
	LogsDirName = "Logs"

	// PlansDirName is the directory holding plan documents written per processed task.
	PlansDirName = "Plans"

	// WatcherStateDirName is the directory holding per-watcher seen-item state.
	WatcherStateDirName = "watcher_state"

	// DropDirName is the default drop folder, nested under the Inbox stage.
	DropDirName = "Drop"

	// AwaitingDirName is the In_Progress subdirectory parking tasks that wait
	// on a human approval decision.
	AwaitingDirName = "awaiting"

	// DashboardFileName is the derived summary document at the vault root.
	DashboardFileName = "Dashboard.md"

	// DocumentExt is the extension of every task document.
	DocumentExt = ".md"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// StageDir returns the directory backing the given stage under the vault root.
func StageDir(root string, s Stage) string {
	return filepath.Join(root, string(s))
}

// RunDir returns the claim directory of one orchestrator run.
func RunDir(root, runID string) string {
	return filepath.Join(root, string(StageInProgress), runID)
}

// AwaitingDir returns the parking directory for tasks gated on human approval.
func AwaitingDir(root string) string {
	return filepath.Join(root, string(StageInProgress), AwaitingDirName)
}

// LogsDir returns the audit log directory under the vault root.
func LogsDir(root string) string {
	return filepath.Join(root, LogsDirName)
}

// PlansDir returns the plan document directory under the vault root.
func PlansDir(root string) string {
	return filepath.Join(root, PlansDirName)
}

// WatcherStateDir returns the watcher state directory under the vault root.
func WatcherStateDir(root string) string {
	return filepath.Join(root, LogsDirName, WatcherStateDirName)
}

// DefaultDropDir returns the default drop folder under the vault root.
func DefaultDropDir(root string) string {
	return filepath.Join(root, string(StageInbox), DropDirName)
}

// DashboardPath returns the dashboard document path under the vault root.
func DashboardPath(root string) string {
	return filepath.Join(root, DashboardFileName)
}
