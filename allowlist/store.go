package allowlist

import (
	"context"

	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/types"
)

// Store persists allowlist members.
type Store interface {
	AppendMember(ctx context.Context, m *Member) error
	// RemoveFirstMember deletes the lowest-Seq member with the given address.
	// It reports false, with a nil error, when no such member exists.
	RemoveFirstMember(ctx context.Context, contractID id.ContractID, addr types.Address) (bool, error)
	// ListMembers returns all members ordered by Seq.
	ListMembers(ctx context.Context, contractID id.ContractID) ([]*Member, error)
	CountMembers(ctx context.Context, contractID id.ContractID) (int, error)
	// LastMemberSeq returns the highest Seq in the allowlist, or 0 when it
	// is empty.
	LastMemberSeq(ctx context.Context, contractID id.ContractID) (int64, error)
}
