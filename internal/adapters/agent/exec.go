// Package agent provides the external reasoning agent adapter. The agent is
// invoked as a subprocess: prompt on stdin, free-text response on stdout,
// with the structured verdict extracted from the response.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Agent = (*Exec)(nil)

// Exec implements ports.Agent using os/exec.
type Exec struct {
	command []string
	timeout time.Duration
	logger  ports.Logger
}

// NewExec creates an agent adapter running the given command (argv form)
// bounded by timeout per invocation.
func NewExec(command []string, timeout time.Duration, logger ports.Logger) *Exec {
	return &Exec{
		command: command,
		timeout: timeout,
		logger:  logger,
	}
}

// Decide invokes the agent for one claimed document.
func (e *Exec) Decide(ctx context.Context, req ports.AgentRequest) (domain.Verdict, error) {
	if len(e.command) == 0 {
		return domain.Verdict{}, zerr.Wrap(domain.ErrAgentFailure, "no agent command configured")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	name := e.command[0]
	args := e.command[1:]

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // operator-configured command
	cmd.Stdin = strings.NewReader(buildPrompt(req))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return domain.Verdict{}, zerr.With(domain.ErrAgentTimeout, "timeout", e.timeout.String())
	}
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return domain.Verdict{}, zerr.With(
			zerr.With(domain.ErrAgentFailure, "exit_code", exitCode),
			"stderr", tail(stderr.String(), 512),
		)
	}

	verdict, err := domain.ParseVerdict(stdout.String())
	if err != nil {
		return domain.Verdict{}, zerr.Wrap(err, "response carries no verdict")
	}
	return verdict, nil
}

// buildPrompt renders the agent's input: the claimed task plus the active
// policy documents. The agent never needs more context than this; it is a
// black box that answers with a destination stage.
func buildPrompt(req ports.AgentRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are processing an action file from a ward vault.\n\n")
	fmt.Fprintf(&b, "File: %s\n", req.TaskName)
	if req.Task != nil {
		if req.Task.Header.Type != "" {
			fmt.Fprintf(&b, "Type: %s\n", req.Task.Header.Type)
		}
		if req.Task.Header.Action != "" {
			fmt.Fprintf(&b, "Action: %s\n", req.Task.Header.Action)
		}
		fmt.Fprintf(&b, "\nContent:\n%s\n", req.Task.Body)
	}
	if req.Policy != "" {
		fmt.Fprintf(&b, "\n---\n\nPolicy:\n%s\n", req.Policy)
	}
	b.WriteString("\n---\n\n")
	b.WriteString("Decide the next pipeline stage for this task. Reply with a line\n")
	b.WriteString("`next_stage: <stage>` and optionally `note: <reason>` and\n")
	b.WriteString("`param.proposed_stage: <stage>` when requesting approval.\n")
	return b.String()
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
