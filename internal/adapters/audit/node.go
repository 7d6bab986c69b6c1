package audit

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/jonboulle/clockwork"
	"go.trai.ch/ward/internal/adapters/config" //nolint:depguard // Wired in adapter node
	"go.trai.ch/ward/internal/core/domain"
	"go.trai.ch/ward/internal/core/ports"
)

// NodeID is the unique identifier for the audit log Graft node.
const NodeID graft.ID = "adapter.audit_log"

func init() {
	graft.Register(graft.Node[ports.AuditLog]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.ConfigNodeID},
		Run: func(ctx context.Context) (ports.AuditLog, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewLog(domain.LogsDir(cfg.Root), clockwork.NewRealClock())
		},
	})
}
