package agent_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ward/internal/adapters/agent"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(string) {}
func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(error)  {}

func request() ports.AgentRequest {
	return ports.AgentRequest{
		TaskName: "task.md",
		Task: &domain.Document{
			Header: domain.Header{Type: domain.DocTypeTask, Action: "triage"},
			Body:   "do the thing\n",
		},
		Policy: "never delete anything",
	}
}

func TestDecide(t *testing.T) {
	e := agent.NewExec([]string{"sh", "-c", "cat >/dev/null; echo 'next_stage: Done'; echo 'note: all good'"}, 5*time.Second, nopLogger{})

	verdict, err := e.Decide(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, domain.StageDone, verdict.Stage)
	assert.Equal(t, "all good", verdict.Note)
}

func TestDecideReadsPrompt(t *testing.T) {
	// The agent sees the task body on stdin; echoing part of it back proves
	// the prompt was delivered.
	e := agent.NewExec([]string{"sh", "-c", "grep -q 'do the thing' && echo 'next_stage: Done'"}, 5*time.Second, nopLogger{})

	verdict, err := e.Decide(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, domain.StageDone, verdict.Stage)
}

func TestDecideNonZeroExit(t *testing.T) {
	e := agent.NewExec([]string{"sh", "-c", "cat >/dev/null; echo broken >&2; exit 3"}, 5*time.Second, nopLogger{})

	_, err := e.Decide(context.Background(), request())
	require.ErrorIs(t, err, domain.ErrAgentFailure)
}

func TestDecideUnparsableResponse(t *testing.T) {
	e := agent.NewExec([]string{"sh", "-c", "cat >/dev/null; echo 'I cannot decide'"}, 5*time.Second, nopLogger{})

	_, err := e.Decide(context.Background(), request())
	require.ErrorIs(t, err, domain.ErrAgentFailure)
}

func TestDecideTimeout(t *testing.T) {
	e := agent.NewExec([]string{"sh", "-c", "cat >/dev/null; exec sleep 10"}, 100*time.Millisecond, nopLogger{})

	start := time.Now()
	_, err := e.Decide(context.Background(), request())
	require.ErrorIs(t, err, domain.ErrAgentTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDecideNoCommand(t *testing.T) {
	e := agent.NewExec(nil, time.Second, nopLogger{})
	_, err := e.Decide(context.Background(), request())
	require.ErrorIs(t, err, domain.ErrAgentFailure)
}
