package ports

import (
	"context"

	"go.trai.ch/ward/internal/core/domain"
)

// AgentRequest carries everything the external reasoning agent sees: the
// claimed task's content and the active policy document.
type AgentRequest struct {
	TaskName string
	Task     *domain.Document
	Policy   string
}

// Agent is the external reasoning black box: text in, verdict out. It is
// untrusted and possibly slow; invocations are bounded by a timeout and its
// verdict is validated against the pipeline table before any move.
//
//go:generate mockgen -source=agent.go -destination=mocks/mock_agent.go -package=mocks
type Agent interface {
	// Decide invokes the agent for one claimed document. It returns
	// domain.ErrAgentTimeout when the deadline is exceeded and
	// domain.ErrAgentFailure for a non-zero exit or an unparsable response.
	Decide(ctx context.Context, req AgentRequest) (domain.Verdict, error)
}
