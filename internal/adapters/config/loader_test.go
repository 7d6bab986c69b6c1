package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ward/internal/adapters/config"
	"go.trai.ch/ward/internal/core/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(string) {}
func (nopLogger) Info(string)  {}
func (nopLogger) Warn(string)  {}
func (nopLogger) Error(error)  {}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
agent:
  command: ["claude", "-p"]
`)

	cfg, err := config.NewLoader(nopLogger{}).Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "vault"), cfg.Root)
	assert.Equal(t, 60*time.Second, cfg.Interval)
	assert.Equal(t, 10*time.Minute, cfg.StaleAfter)
	assert.Equal(t, 2*time.Minute, cfg.AgentTimeout)
	assert.Equal(t, 3, cfg.RetryBudget)
	assert.Equal(t, 2*time.Second, cfg.RetryBackoff)
	assert.Equal(t, 20, cfg.DashboardTail)
	assert.Equal(t, []string{"claude", "-p"}, cfg.AgentCommand)

	require.Len(t, cfg.Watchers, 1)
	assert.Equal(t, "drop", cfg.Watchers[0].Name)
	assert.Equal(t, domain.DefaultDropDir(cfg.Root), cfg.Watchers[0].DropFolder)
	assert.Equal(t, domain.DuplicateSkip, cfg.Watchers[0].DuplicatePolicy)
}

func TestLoadFull(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
vault: my-vault
interval: 30s
staleAfter: 5m
agent:
  command: ["./agent.sh"]
  timeout: 45s
  retries: 5
  backoff: 500ms
  policy:
    - Plans/Company_Handbook.md
watchers:
  - name: email
    dropFolder: Inbox/Email
    duplicatePolicy: flag
dashboard:
  tail: 50
`)

	cfg, err := config.NewLoader(nopLogger{}).Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "my-vault"), cfg.Root)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, 5*time.Minute, cfg.StaleAfter)
	assert.Equal(t, 45*time.Second, cfg.AgentTimeout)
	assert.Equal(t, 5, cfg.RetryBudget)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, 50, cfg.DashboardTail)
	assert.Equal(t, []string{filepath.Join(dir, "Plans/Company_Handbook.md")}, cfg.PolicyPaths)

	require.Len(t, cfg.Watchers, 1)
	assert.Equal(t, "email", cfg.Watchers[0].Name)
	assert.Equal(t, filepath.Join(cfg.Root, "Inbox/Email"), cfg.Watchers[0].DropFolder)
	assert.Equal(t, domain.DuplicateFlag, cfg.Watchers[0].DuplicatePolicy)
}

func TestLoadWalksUpToFindConfig(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
agent:
  command: ["true"]
`)
	nested := filepath.Join(root, "vault", "Inbox")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	cfg, err := config.NewLoader(nopLogger{}).Load(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "vault"), cfg.Root)
}

func TestLoadNotFound(t *testing.T) {
	_, err := config.NewLoader(nopLogger{}).Load(t.TempDir())
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing agent command", "interval: 30s\n"},
		{"bad interval", "interval: soon\nagent:\n  command: [\"true\"]\n"},
		{"negative interval", "interval: -5s\nagent:\n  command: [\"true\"]\n"},
		{"unknown duplicate policy", `
agent:
  command: ["true"]
watchers:
  - name: w
    duplicatePolicy: merge
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := config.NewLoader(nopLogger{}).Load(dir)
			require.ErrorIs(t, err, domain.ErrConfigInvalid)
		})
	}
}
