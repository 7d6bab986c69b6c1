// Package config provides the configuration loader for ward.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Defaults applied after parsing.
const (
	defaultInterval      = 60 * time.Second
	defaultStaleAfter    = 10 * time.Minute
	defaultAgentTimeout  = 2 * time.Minute
	defaultRetries       = 3
	defaultBackoff       = 2 * time.Second
	defaultDashboardTail = 20
)

// Load walks up from cwd to find ward.yaml, parses and validates it.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	path, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // discovered config path
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var wardfile Wardfile
	if err := yaml.Unmarshal(data, &wardfile); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	cfg, err := l.build(filepath.Dir(path), wardfile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) findConfiguration(cwd string) (string, error) {
	currentDir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.Wrap(err, "failed to resolve working directory")
	}

	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) build(baseDir string, wardfile Wardfile) (*domain.Config, error) {
	cfg := &domain.Config{
		AgentCommand:  wardfile.Agent.Command,
		RetryBudget:   wardfile.Agent.Retries,
		DashboardTail: wardfile.Dashboard.Tail,
	}

	root := wardfile.Vault
	if root == "" {
		root = "vault"
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(baseDir, root)
	}
	cfg.Root = filepath.Clean(root)

	var err error
	if cfg.Interval, err = parseDuration(wardfile.Interval, defaultInterval); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "interval"), "value", wardfile.Interval)
	}
	if cfg.StaleAfter, err = parseDuration(wardfile.StaleAfter, defaultStaleAfter); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "staleAfter"), "value", wardfile.StaleAfter)
	}
	if cfg.AgentTimeout, err = parseDuration(wardfile.Agent.Timeout, defaultAgentTimeout); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "agent.timeout"), "value", wardfile.Agent.Timeout)
	}
	if cfg.RetryBackoff, err = parseDuration(wardfile.Agent.Backoff, defaultBackoff); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "agent.backoff"), "value", wardfile.Agent.Backoff)
	}

	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = defaultRetries
	}
	if cfg.DashboardTail <= 0 {
		cfg.DashboardTail = defaultDashboardTail
	}

	for _, p := range wardfile.Agent.Policy {
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		cfg.PolicyPaths = append(cfg.PolicyPaths, filepath.Clean(p))
	}

	cfg.Watchers = l.buildWatchers(cfg.Root, wardfile.Watchers)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) buildWatchers(root string, dtos []WatcherDTO) []domain.WatcherConfig {
	if len(dtos) == 0 {
		// A vault without configured watchers still watches its drop folder.
		return []domain.WatcherConfig{{
			Name:            "drop",
			DropFolder:      domain.DefaultDropDir(root),
			DuplicatePolicy: domain.DuplicateSkip,
		}}
	}

	watchers := make([]domain.WatcherConfig, 0, len(dtos))
	for i, dto := range dtos {
		w := domain.WatcherConfig{
			Name:            dto.Name,
			DropFolder:      dto.DropFolder,
			DuplicatePolicy: domain.DuplicatePolicy(dto.DuplicatePolicy),
		}
		if w.Name == "" {
			w.Name = fmt.Sprintf("drop-%d", i)
		}
		if w.DropFolder == "" {
			w.DropFolder = domain.DefaultDropDir(root)
		} else if !filepath.IsAbs(w.DropFolder) {
			w.DropFolder = filepath.Join(root, w.DropFolder)
		}
		if w.DuplicatePolicy == "" {
			w.DuplicatePolicy = domain.DuplicateSkip
		}
		watchers = append(watchers, w)
	}
	return watchers
}

func validate(cfg *domain.Config) error {
	if cfg.Interval <= 0 {
		return zerr.Wrap(domain.ErrConfigInvalid, "interval must be positive")
	}
	if cfg.StaleAfter <= 0 {
		return zerr.Wrap(domain.ErrConfigInvalid, "staleAfter must be positive")
	}
	if len(cfg.AgentCommand) == 0 {
		return zerr.Wrap(domain.ErrConfigInvalid, "agent.command is required")
	}
	for _, w := range cfg.Watchers {
		switch w.DuplicatePolicy {
		case domain.DuplicateSkip, domain.DuplicateFlag:
		default:
			return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "unknown duplicatePolicy"), "watcher", w.Name)
		}
	}
	return nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	return d, nil
}
