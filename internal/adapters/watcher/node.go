package watcher

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/ward/internal/adapters/audit"  //nolint:depguard // Wired in adapter node
	"go.trai.ch/ward/internal/adapters/config" //nolint:depguard // Wired in adapter node
	"go.trai.ch/ward/internal/adapters/logger" //nolint:depguard // Wired in adapter node
	"go.trai.ch/ward/internal/adapters/vault"  //nolint:depguard // Wired in adapter node
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the watchers Graft node.
	NodeID graft.ID = "adapter.watchers"
	// NudgeNodeID is the unique identifier for the nudge Graft node.
	NudgeNodeID graft.ID = "adapter.nudge"
)

func init() {
	graft.Register(graft.Node[[]ports.Watcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.ConfigNodeID, vault.NodeID, audit.NodeID, logger.NodeID},
		Run: func(ctx context.Context) ([]ports.Watcher, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[ports.DocumentStore](ctx)
			if err != nil {
				return nil, err
			}
			auditLog, err := graft.Dep[ports.AuditLog](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			clock := clockwork.NewRealClock()
			watchers := make([]ports.Watcher, 0, len(cfg.Watchers))
			for _, wc := range cfg.Watchers {
				watchers = append(watchers, NewDropFolder(wc, cfg.Root, store, auditLog, log, clock))
			}
			return watchers, nil
		},
	})

	graft.Register(graft.Node[ports.Nudger]{
		ID:        NudgeNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.ConfigNodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Nudger, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewNudge(cfg, log)
		},
	})
}
