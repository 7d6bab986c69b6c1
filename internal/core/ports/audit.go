package ports

import "go.trai.ch/ward/internal/core/domain"

// AuditLog is the append-only record of every transition attempt. An event is
// recorded before the move it describes; if the event cannot be durably
// written the transition is aborted, because an unaudited sensitive action is
// a correctness violation, not a cosmetic one.
//
//go:generate mockgen -source=audit.go -destination=mocks/mock_audit.go -package=mocks
type AuditLog interface {
	// Append durably writes one event. Failure returns
	// domain.ErrAuditWriteFailed.
	Append(event domain.Event) error

	// Tail returns up to n of the most recent events, oldest first.
	Tail(n int) ([]domain.Event, error)
}
