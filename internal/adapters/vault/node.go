package vault

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ward/internal/core/ports"
)

// NodeID is the unique identifier for the document store Graft node.
const NodeID graft.ID = "adapter.document_store"

func init() {
	graft.Register(graft.Node[ports.DocumentStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.DocumentStore, error) {
			return NewStore(), nil
		},
	})
}
