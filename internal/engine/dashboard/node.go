package dashboard

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/ward/internal/adapters/audit"  //nolint:depguard // Wired in engine node
	"go.trai.ch/ward/internal/adapters/config" //nolint:depguard // Wired in engine node
	"go.trai.ch/ward/internal/adapters/logger" //nolint:depguard // Wired in engine node
	"go.trai.ch/ward/internal/adapters/vault"  //nolint:depguard // Wired in engine node
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
)

// NodeID is the unique identifier for the dashboard Graft node.
const NodeID graft.ID = "engine.dashboard"

func init() {
	graft.Register(graft.Node[*Dashboard]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.ConfigNodeID,
			vault.NodeID,
			audit.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Dashboard, error) {
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
			return New(cfg, store, auditLog, log, clockwork.NewRealClock()), nil
		},
	})
}
