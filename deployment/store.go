package deployment

import (
	"context"
	"time"

	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/types"
)

// Store persists deployments.
type Store interface {
	// CreateDeployment persists d together with its seed allowlist.
	CreateDeployment(ctx context.Context, d *Deployment, seed []*allowlist.Member) error
	GetDeployment(ctx context.Context, contractID id.ContractID) (*Deployment, error)
	// SetOwner replaces the owner of an existing deployment and stamps
	// UpdatedAt with at.
	SetOwner(ctx context.Context, contractID id.ContractID, owner types.Address, at time.Time) error
}
