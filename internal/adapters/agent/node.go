package agent

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ward/internal/adapters/config" //nolint:depguard // Wired in adapter node
	"go.trai.ch/ward/internal/adapters/logger" //nolint:depguard // Wired in adapter node
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
)

// NodeID is the unique identifier for the agent Graft node.
const NodeID graft.ID = "adapter.agent"

func init() {
	graft.Register(graft.Node[ports.Agent]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.ConfigNodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Agent, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewExec(cfg.AgentCommand, cfg.AgentTimeout, log), nil
		},
	})
}
