package domain

import "errors"

var (
	// ErrNotFound is returned when a document is absent at the given path.
	// On a move it means another actor won the claim race.
	ErrNotFound = errors.New("document not found")

	// ErrAlreadyExists is returned when a move destination is occupied.
	// Moves never silently overwrite.
	ErrAlreadyExists = errors.New("document already exists at destination")

	// ErrCorruptHeader is returned when a document's metadata block is
	// malformed. The body is still returned best-effort.
	ErrCorruptHeader = errors.New("corrupt document header")

	// ErrIllegalTransition is returned when a transition is not in the
	// pipeline table. This is a programming error, never retried.
	ErrIllegalTransition = errors.New("transition not in pipeline table")

	// ErrPolicyViolation is returned when an agent verdict names an illegal
	// transition. The document is returned to its pre-claim stage.
	ErrPolicyViolation = errors.New("agent verdict names illegal transition")

	// ErrAgentTimeout is returned when the reasoning agent exceeds its
	// invocation deadline.
	ErrAgentTimeout = errors.New("agent invocation timed out")

	// ErrAgentFailure is returned when the agent exits non-zero or its
	// response carries no parsable verdict.
	ErrAgentFailure = errors.New("agent invocation failed")

	// ErrAuditWriteFailed is returned when an audit event cannot be durably
	// recorded. The transition it describes is aborted, not performed.
	ErrAuditWriteFailed = errors.New("audit event could not be recorded")

	// ErrCrossVolume is returned when stage directories span filesystem
	// volumes, which would break the atomic-rename concurrency primitive.
	ErrCrossVolume = errors.New("stage directories span volumes")

	// ErrTickFailed is returned when a one-shot processing cycle hit errors
	// that a later cycle must retry.
	ErrTickFailed = errors.New("processing cycle completed with failures")

	// ErrVaultLayout is returned when the vault is missing required
	// directories or documents.
	ErrVaultLayout = errors.New("vault layout incomplete")

	// ErrConfigNotFound is returned when no ward.yaml is found walking up
	// from the working directory.
	ErrConfigNotFound = errors.New("could not find ward.yaml")

	// ErrConfigInvalid is returned when ward.yaml fails validation.
	ErrConfigInvalid = errors.New("invalid configuration")
)
