package app

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/ward/internal/adapters/config"  //nolint:depguard // Wired in app layer
	"go.trai.ch/ward/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/ward/internal/adapters/vault"   //nolint:depguard // Wired in app layer
	"go.trai.ch/ward/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
	"go.trai.ch/ward/internal/engine/dashboard"
	"go.trai.ch/ward/internal/engine/orchestrator"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
	Config *domain.Config
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.ConfigNodeID,
			vault.NodeID,
			watcher.NodeID,
			watcher.NudgeNodeID,
			orchestrator.NodeID,
			dashboard.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.ConfigNodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: application, Logger: log, Config: cfg}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	cfg, err := graft.Dep[*domain.Config](ctx)
	if err != nil {
		return nil, err
	}
	store, err := graft.Dep[ports.DocumentStore](ctx)
	if err != nil {
		return nil, err
	}
	watchers, err := graft.Dep[[]ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}
	nudger, err := graft.Dep[ports.Nudger](ctx)
	if err != nil {
		return nil, err
	}
	orch, err := graft.Dep[*orchestrator.Orchestrator](ctx)
	if err != nil {
		return nil, err
	}
	dash, err := graft.Dep[*dashboard.Dashboard](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	return New(cfg, store, watchers, orch, dash, nudger, log, clockwork.NewRealClock()), nil
}
