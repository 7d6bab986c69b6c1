package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ward/cmd/ward/commands"
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/engine/orchestrator"
)

// fakeApp implements commands.Application with canned results.
type fakeApp struct {
	report    *orchestrator.TickReport
	tickErr   error
	served    bool
	interval  time.Duration
	rendering string
	problems  []string
}

func (f *fakeApp) TickOnce(context.Context) (*orchestrator.TickReport, error) {
	return f.report, f.tickErr
}

func (f *fakeApp) Serve(_ context.Context, interval time.Duration) error {
	f.served = true
	f.interval = interval
	return nil
}

func (f *fakeApp) Dashboard(context.Context) (string, error) {
	return f.rendering, nil
}

func (f *fakeApp) Verify(context.Context) []string {
	return f.problems
}

func execute(t *testing.T, app commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(app)
	var out, errOut bytes.Buffer
	cli.SetOutput(&out, &errOut)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func TestTickCommand(t *testing.T) {
	app := &fakeApp{report: &orchestrator.TickReport{Claimed: 2, Advanced: 2}}
	out, err := execute(t, app, "tick")
	require.NoError(t, err)
	assert.Contains(t, out, "claimed=2")
}

func TestTickCommandFailsOnDegradedCycle(t *testing.T) {
	app := &fakeApp{report: &orchestrator.TickReport{Failures: 1}}
	_, err := execute(t, app, "tick")
	require.ErrorIs(t, err, domain.ErrTickFailed)
}

func TestTickCommandPropagatesError(t *testing.T) {
	app := &fakeApp{report: &orchestrator.TickReport{}, tickErr: errors.New("boom")}
	_, err := execute(t, app, "tick")
	require.EqualError(t, err, "boom")
}

func TestServeCommandPassesInterval(t *testing.T) {
	app := &fakeApp{}
	_, err := execute(t, app, "serve", "--interval", "30s")
	require.NoError(t, err)
	assert.True(t, app.served)
	assert.Equal(t, 30*time.Second, app.interval)
}

func TestDashboardCommand(t *testing.T) {
	app := &fakeApp{rendering: "# Vault Dashboard\n"}
	out, err := execute(t, app, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "# Vault Dashboard")
}

func TestVerifyCommand(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		out, err := execute(t, &fakeApp{}, "verify")
		require.NoError(t, err)
		assert.Contains(t, out, "vault OK")
	})

	t.Run("problems", func(t *testing.T) {
		app := &fakeApp{problems: []string{"missing directory: Inbox"}}
		out, err := execute(t, app, "verify")
		require.ErrorIs(t, err, domain.ErrVaultLayout)
		assert.Contains(t, out, "FAIL: missing directory: Inbox")
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, &fakeApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ward version")
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, &fakeApp{}, "frobnicate")
	require.Error(t, err)
}
