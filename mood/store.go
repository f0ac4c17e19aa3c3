package mood

import (
	"context"
	"time"

	"github.com/xraph/dailymood/id"
	"github.com/xraph/dailymood/types"
)

// Store persists mood logs. Index arguments are 0-based positions in the
// Seq-ordered log of one account; implementations return
// dailymood.ErrIndexOutOfBounds for positions outside the log.
type Store interface {
	AppendEntry(ctx context.Context, e *Entry) error
	CountEntries(ctx context.Context, contractID id.ContractID, account types.Address) (int, error)
	EntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*Entry, error)
	// UpdateEntryAt replaces the text of the entry at index and returns the
	// updated entry. The original timestamp is kept.
	UpdateEntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int, text string, at time.Time) (*Entry, error)
	// RemoveEntryAt deletes the entry at index and returns it.
	RemoveEntryAt(ctx context.Context, contractID id.ContractID, account types.Address, index int) (*Entry, error)
	// ClearEntries deletes the whole log and returns how many entries it held.
	ClearEntries(ctx context.Context, contractID id.ContractID, account types.Address) (int64, error)
	// LastEntrySeq returns the Seq of the last entry in the log, or 0 when
	// the log is empty.
	LastEntrySeq(ctx context.Context, contractID id.ContractID, account types.Address) (int64, error)
}
