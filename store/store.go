package store

import (
	"context"
	"time"

	"github.com/xraph/dailymood/allowlist"
	"github.com/xraph/dailymood/deployment"
	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/mood"
	"github.com/xraph/dailymood/types"
)

// Compile-time checks that Store covers each domain store.
var (
	_ deployment.Store = (Store)(nil)
	_ allowlist.Store  = (Store)(nil)
	_ mood.Store       = (Store)(nil)
)

// Store is the unified storage interface for all dailymood records.
// Methods are declared explicitly rather than by embedding the domain
// interfaces so each backend can be read against one list.
type Store interface {
	// Deployment methods
	CreateDeployment(ctx context.Context, d *deployment.Deployment, seed []*allowlist.Member) error
	GetDeployment(ctx context.Context, contractID id.ContractID) (*deployment.Deployment, error)
	SetOwner(ctx context.Context, contractID id.ContractID, owner types.Address, at time.Time) error

	// Allowlist methods
	AppendMember(ctx context.Context, m *allowlist.Member) error
	RemoveFirstMember(ctx context.Context, contractID id.ContractID, addr types.Address) (bool, error)
	ListMembers(ctx context.Context, contractID id.ContractID) ([]*allowlist.Member, error)
	CountMembers(ctx context.Context, contractID id.ContractID) (int, error)
	LastMemberSeq(ctx context.Context, contractID id.ContractID) (int64, error)

	// Mood methods
	AppendEntry(ctx context.Context, e *mood.Entry) error
	CountEntries(ctx context.Context, contractID id.ContractID, account types.Address) (int, error)
	EntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error)
	UpdateEntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int, text string, at time.Time) (*mood.Entry, error)
	RemoveEntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*mood.Entry, error)
	ClearEntries(ctx context.Context, contractID id.ContractID, account types.Address) (int64, error)
	LastEntrySeq(ctx context.Context, contractID id.ContractID, account types.Address) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
